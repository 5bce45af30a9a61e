package attest

import (
	"crypto/ed25519"
	"testing"
)

type deterministicReader struct{ b byte }

func (r *deterministicReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = r.b
		r.b++
	}
	return len(p), nil
}

func TestSignReportEd25519_RoundTrip(t *testing.T) {
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = byte(i)
	}
	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)

	report := []byte(`{"md5_equal":true}`)
	sig := SignReportEd25519(report, priv)
	if !VerifyReportEd25519(report, sig, pub) {
		t.Fatal("signature did not verify")
	}
	if VerifyReportEd25519(append(report, ' '), sig, pub) {
		t.Fatal("signature verified a modified report")
	}
	if VerifyReportEd25519(report, "not base64!", pub) {
		t.Fatal("garbage signature accepted")
	}
}

func TestSignReportDilithium3_RoundTrip(t *testing.T) {
	pk, sk, err := GenerateDilithium3Keypair(&deterministicReader{})
	if err != nil {
		t.Fatalf("GenerateDilithium3Keypair: %v", err)
	}

	report := []byte(`{"run_id":"x","md5_equal":true}`)
	for _, alg := range []string{"sha256", "sha512", "sha3-256"} {
		sig, err := SignReportDilithium3(report, alg, sk)
		if err != nil {
			t.Fatalf("%s: SignReportDilithium3: %v", alg, err)
		}
		ok, err := VerifyReportDilithium3(report, alg, sig, pk)
		if err != nil {
			t.Fatalf("%s: VerifyReportDilithium3: %v", alg, err)
		}
		if !ok {
			t.Fatalf("%s: signature did not verify", alg)
		}
		ok, err = VerifyReportDilithium3(append(report, '!'), alg, sig, pk)
		if err != nil || ok {
			t.Fatalf("%s: modified report accepted (ok=%v err=%v)", alg, ok, err)
		}
	}

	if _, err := SignReportDilithium3(report, "md5", sk); err == nil {
		t.Fatal("weak attestation digest accepted")
	}
	if _, err := SignReportDilithium3(report, "sha256", nil); err == nil {
		t.Fatal("nil private key accepted")
	}
}
