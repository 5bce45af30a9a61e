package attest

import (
	"encoding/hex"
	"testing"

	"xcoll.dev/carrier/container"
)

// Wang et al. MD5 collision pair, two full compression blocks each.
const (
	collidingM1 = "d131dd02c5e6eec4693d9a0698aff95c" +
		"2fcab58712467eab4004583eb8fb7f89" +
		"55ad340609f4b30283e488832571415a" +
		"085125e8f7cdc99fd91dbdf280373c5b" +
		"d8823e3156348f5bae6dacd436c919c6" +
		"dd53e2b487da03fd02396306d248cda0" +
		"e99f33420f577ee8ce54b67080a80d1e" +
		"c69821bcb6a8839396f9652b6ff72a70"
	collidingM2 = "d131dd02c5e6eec4693d9a0698aff95c" +
		"2fcab50712467eab4004583eb8fb7f89" +
		"55ad340609f4b30283e4888325f1415a" +
		"085125e8f7cdc99fd91dbd7280373c5b" +
		"d8823e3156348f5bae6dacd436c919c6" +
		"dd53e23487da03fd02396306d248cda0" +
		"e99f33420f577ee8ce54b67080280d1e" +
		"c69821bcb6a8839396f965ab6ff72a70"
)

func TestDemoCA_SignatureTransfersAcrossCollision(t *testing.T) {
	m1, err := hex.DecodeString(collidingM1)
	if err != nil {
		t.Fatal(err)
	}
	m2, err := hex.DecodeString(collidingM2)
	if err != nil {
		t.Fatal(err)
	}
	suffix := []byte("common TBS tail appended after the collision blocks")
	benign := append(append([]byte{}, m1...), suffix...)
	malicious := append(append([]byte{}, m2...), suffix...)

	ca, err := NewDemoCA(1024)
	if err != nil {
		t.Fatalf("NewDemoCA: %v", err)
	}
	sig, err := ca.SignTBS(benign)
	if err != nil {
		t.Fatalf("SignTBS: %v", err)
	}

	if err := VerifyTBS(&ca.Key.PublicKey, benign, sig); err != nil {
		t.Fatalf("signature rejected for the signed blob: %v", err)
	}
	// The unsigned sibling carries the same MD5, so the signature
	// transfers verbatim.
	if err := VerifyTBS(&ca.Key.PublicKey, malicious, sig); err != nil {
		t.Fatalf("signature did not transfer: %v", err)
	}

	tampered := append(append([]byte{}, benign...), 0x00)
	err = VerifyTBS(&ca.Key.PublicKey, tampered, sig)
	if container.RuleID(err) != "CARR-SIG-003" {
		t.Fatalf("tampered blob: got %v", err)
	}
}
