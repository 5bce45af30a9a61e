package main

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"xcoll.dev/carrier/attest"
	"xcoll.dev/carrier/container"
)

var (
	signA       string
	signB       string
	signKey     string
	signKeyOut  string
	signBits    int64
	signSigOut  string
	signReport  string
	signAlg     string
	signHashAlg string
)

func signCmd() *cli.Command {
	return &cli.Command{
		Name:  "sign",
		Usage: "demo-CA carrier signing and verification-report attestation",
		Commands: []*cli.Command{
			signTBSCmd(),
			signReportCmd(),
		},
	}
}

func signTBSCmd() *cli.Command {
	return &cli.Command{
		Name:  "tbs",
		Usage: "sign one TBS of a colliding pair and prove the signature transfers to the other",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "a", Usage: "benign TBS DER", Required: true, Destination: &signA},
			&cli.StringFlag{Name: "b", Usage: "sibling TBS DER", Required: true, Destination: &signB},
			&cli.StringFlag{Name: "key", Usage: "PEM RSA CA key (generated when absent)", Destination: &signKey},
			&cli.StringFlag{Name: "key-out", Usage: "write the generated CA key as PEM", Destination: &signKeyOut},
			&cli.IntFlag{Name: "bits", Usage: "RSA key size when generating", Value: 2048, Destination: &signBits},
			&cli.StringFlag{Name: "sig-out", Usage: "write the raw signature to this path", Destination: &signSigOut},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			dataA, err := readInput(signA)
			if err != nil {
				return err
			}
			dataB, err := readInput(signB)
			if err != nil {
				return err
			}
			ca, err := loadOrCreateCA(signKey, signKeyOut, int(signBits))
			if err != nil {
				return err
			}
			sig, err := signAndTransfer(ca, dataA, dataB)
			if err != nil {
				return err
			}
			logger.Info("signature transfers across the pair",
				"a", signA, "b", signB, "sig_bytes", len(sig))
			fmt.Printf("signature: %s\n", base64.StdEncoding.EncodeToString(sig))
			if signSigOut != "" {
				return writeOutput(signSigOut, sig)
			}
			return nil
		},
	}
}

// signAndTransfer issues the weak-hash signature over the first TBS and
// checks it verifies for both: that only holds when the pair collides.
func signAndTransfer(ca *attest.DemoCA, dataA, dataB []byte) ([]byte, error) {
	sig, err := ca.SignTBS(dataA)
	if err != nil {
		return nil, err
	}
	if err := attest.VerifyTBS(&ca.Key.PublicKey, dataA, sig); err != nil {
		return nil, err
	}
	if err := attest.VerifyTBS(&ca.Key.PublicKey, dataB, sig); err != nil {
		return nil, err
	}
	return sig, nil
}

func loadOrCreateCA(keyPath, keyOut string, bits int) (*attest.DemoCA, error) {
	if keyPath != "" {
		raw, err := readInput(keyPath)
		if err != nil {
			return nil, err
		}
		block, _ := pem.Decode(raw)
		if block == nil {
			return nil, container.NewError(container.KindVerification, "CARR-SIG-001",
				"no PEM block in "+keyPath)
		}
		key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, container.WrapError(container.KindVerification, "CARR-SIG-001",
				"parse CA key "+keyPath, err)
		}
		return &attest.DemoCA{Key: key}, nil
	}
	ca, err := attest.NewDemoCA(bits)
	if err != nil {
		return nil, err
	}
	if keyOut != "" {
		block := &pem.Block{
			Type:  "RSA PRIVATE KEY",
			Bytes: x509.MarshalPKCS1PrivateKey(ca.Key),
		}
		if err := os.WriteFile(keyOut, pem.EncodeToMemory(block), 0o600); err != nil {
			return nil, container.WrapError(container.KindVerification,
				"CARR-SIG-001", "write "+keyOut, err)
		}
		logger.Info("wrote CA key", "path", keyOut)
	}
	return ca, nil
}

func signReportCmd() *cli.Command {
	return &cli.Command{
		Name:  "report",
		Usage: "attest a verification report so archived evidence names its run",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "report", Usage: "report JSON file", Required: true, Destination: &signReport},
			&cli.StringFlag{Name: "alg", Usage: "signature algorithm (ed25519, dilithium3)", Value: "ed25519", Destination: &signAlg},
			&cli.StringFlag{Name: "hash", Usage: "digest for dilithium3 (sha256, sha512, sha3-256)", Value: "sha256", Destination: &signHashAlg},
			&cli.StringFlag{Name: "key", Usage: "hex seed file for ed25519 (generated when absent)", Destination: &signKey},
			&cli.StringFlag{Name: "key-out", Usage: "write the generated hex seed", Destination: &signKeyOut},
			&cli.StringFlag{Name: "sig-out", Usage: "write the base64 signature", Destination: &signSigOut},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			report, err := readInput(signReport)
			if err != nil {
				return err
			}
			var sigB64 string
			switch signAlg {
			case "ed25519":
				seed, err := loadOrCreateSeed(signKey, signKeyOut)
				if err != nil {
					return err
				}
				priv := ed25519.NewKeyFromSeed(seed)
				sigB64 = attest.SignReportEd25519(report, priv)
				if !attest.VerifyReportEd25519(report, sigB64, priv.Public().(ed25519.PublicKey)) {
					return container.NewError(container.KindVerification, "CARR-SIG-002",
						"freshly issued report signature does not verify")
				}
				fmt.Printf("public key: %s\n", hex.EncodeToString(priv.Public().(ed25519.PublicKey)))
			case "dilithium3":
				pub, priv, err := attest.GenerateDilithium3Keypair(rand.Reader)
				if err != nil {
					return container.WrapError(container.KindVerification,
						"CARR-SIG-001", "generate dilithium3 keypair", err)
				}
				sigB64, err = attest.SignReportDilithium3(report, signHashAlg, priv)
				if err != nil {
					return container.WrapError(container.KindVerification,
						"CARR-SIG-002", "sign report", err)
				}
				ok, err := attest.VerifyReportDilithium3(report, signHashAlg, sigB64, pub)
				if err != nil || !ok {
					return container.NewError(container.KindVerification, "CARR-SIG-002",
						"freshly issued report signature does not verify")
				}
			default:
				return container.NewError(container.KindVerification, "CARR-SIG-002",
					"unsupported report signature algorithm "+signAlg)
			}
			logger.Info("report attested", "alg", signAlg, "report", signReport)
			fmt.Printf("signature: %s\n", sigB64)
			if signSigOut != "" {
				return writeOutput(signSigOut, []byte(sigB64+"\n"))
			}
			return nil
		},
	}
}

// loadOrCreateSeed reads an ed25519 seed stored as a hex line, or makes
// a fresh one, optionally persisting it the same way.
func loadOrCreateSeed(keyPath, keyOut string) ([]byte, error) {
	if keyPath != "" {
		raw, err := readInput(keyPath)
		if err != nil {
			return nil, err
		}
		seed, err := hex.DecodeString(strings.TrimSpace(string(raw)))
		if err != nil {
			return nil, container.WrapError(container.KindVerification,
				"CARR-SIG-001", "decode seed "+keyPath, err)
		}
		if len(seed) != ed25519.SeedSize {
			return nil, container.NewError(container.KindVerification, "CARR-SIG-001",
				fmt.Sprintf("seed is %d bytes, need %d", len(seed), ed25519.SeedSize))
		}
		return seed, nil
	}
	seed := make([]byte, ed25519.SeedSize)
	if _, err := rand.Read(seed); err != nil {
		return nil, container.WrapError(container.KindVerification,
			"CARR-SIG-001", "generate seed", err)
	}
	if keyOut != "" {
		if err := os.WriteFile(keyOut, []byte(hex.EncodeToString(seed)+"\n"), 0o600); err != nil {
			return nil, container.WrapError(container.KindVerification,
				"CARR-SIG-001", "write "+keyOut, err)
		}
		logger.Info("wrote seed", "path", keyOut)
	}
	return seed, nil
}
