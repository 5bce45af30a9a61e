// Package attest signs verification reports so archived evidence can
// be tied to the run that produced it, and hosts the demo CA that
// countersigns carrier pairs with the weak-hash signature scheme the
// whole exercise is about.
package attest

import (
	"crypto/ed25519"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/cloudflare/circl/sign/dilithium/mode3"
	"golang.org/x/crypto/sha3"
)

func digestFor(hashAlg string, message []byte) ([]byte, error) {
	switch hashAlg {
	case "sha256":
		s := sha256.Sum256(message)
		return s[:], nil
	case "sha512":
		s := sha512.Sum512(message)
		return s[:], nil
	case "sha3-256":
		s := sha3.Sum256(message)
		return s[:], nil
	default:
		return nil, fmt.Errorf("unsupported hash algorithm: %q", hashAlg)
	}
}

// SignReportEd25519 returns a base64 signature over sha256(report).
func SignReportEd25519(report []byte, privateKey ed25519.PrivateKey) string {
	digest := sha256.Sum256(report)
	sig := ed25519.Sign(privateKey, digest[:])
	return base64.StdEncoding.EncodeToString(sig)
}

// VerifyReportEd25519 checks a base64 signature over sha256(report).
func VerifyReportEd25519(report []byte, sigB64 string, publicKey ed25519.PublicKey) bool {
	sig, err := base64.StdEncoding.DecodeString(sigB64)
	if err != nil {
		return false
	}
	digest := sha256.Sum256(report)
	return ed25519.Verify(publicKey, digest[:], sig)
}

// SignReportDilithium3 returns a base64 dilithium3 signature over
// hash(report). hashAlg must be one of: sha256, sha512, sha3-256.
func SignReportDilithium3(report []byte, hashAlg string, privateKey *mode3.PrivateKey) (string, error) {
	if privateKey == nil {
		return "", fmt.Errorf("missing private key")
	}
	digest, err := digestFor(hashAlg, report)
	if err != nil {
		return "", err
	}
	sig := make([]byte, mode3.SignatureSize)
	mode3.SignTo(privateKey, digest, sig)
	return base64.StdEncoding.EncodeToString(sig), nil
}

// VerifyReportDilithium3 checks a base64 dilithium3 signature over
// hash(report).
func VerifyReportDilithium3(report []byte, hashAlg, sigB64 string, publicKey *mode3.PublicKey) (bool, error) {
	digest, err := digestFor(hashAlg, report)
	if err != nil {
		return false, err
	}
	sig, err := base64.StdEncoding.DecodeString(sigB64)
	if err != nil {
		return false, err
	}
	if len(sig) != mode3.SignatureSize {
		return false, nil
	}
	return mode3.Verify(publicKey, digest, sig), nil
}

// GenerateDilithium3Keypair returns a new Dilithium3 keypair.
func GenerateDilithium3Keypair(rand io.Reader) (*mode3.PublicKey, *mode3.PrivateKey, error) {
	return mode3.GenerateKey(rand)
}
