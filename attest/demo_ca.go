package attest

import (
	"crypto"
	"crypto/md5"
	"crypto/rand"
	"crypto/rsa"

	"xcoll.dev/carrier/container"
)

// DemoCA signs TBSCertificate blobs with RSA PKCS#1 v1.5 over MD5.
// That scheme is exactly what the carrier pipeline undermines: one
// signature issued for the benign TBS verifies unchanged against the
// malicious one, because both share an MD5 digest.
type DemoCA struct {
	Key *rsa.PrivateKey
}

// NewDemoCA generates a fresh RSA demo CA.
func NewDemoCA(bits int) (*DemoCA, error) {
	key, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, container.WrapError(container.KindVerification, "CARR-SIG-001",
			"generate demo CA key", err)
	}
	return &DemoCA{Key: key}, nil
}

// SignTBS issues the weak-hash signature over a TBS blob.
func (ca *DemoCA) SignTBS(tbs []byte) ([]byte, error) {
	digest := md5.Sum(tbs)
	sig, err := rsa.SignPKCS1v15(rand.Reader, ca.Key, crypto.MD5, digest[:])
	if err != nil {
		return nil, container.WrapError(container.KindVerification, "CARR-SIG-002",
			"sign TBS", err)
	}
	return sig, nil
}

// VerifyTBS checks a weak-hash signature against a TBS blob.
func VerifyTBS(pub *rsa.PublicKey, tbs, sig []byte) error {
	digest := md5.Sum(tbs)
	if err := rsa.VerifyPKCS1v15(pub, crypto.MD5, digest[:], sig); err != nil {
		return container.WrapError(container.KindVerification, "CARR-SIG-003",
			"TBS signature does not verify", err)
	}
	return nil
}
