// Package template builds carrier files with a reserved region for a
// collision payload. Every builder returns a container whose region
// was re-found by the locator, so a built template always satisfies
// the locate round-trip.
package template

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"fmt"
	"time"

	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"

	"xcoll.dev/carrier/container"
	"xcoll.dev/carrier/locator"
)

// DefaultReservedCapacity is sized for chosen-prefix collision blocks,
// which run far longer than identical-prefix ones.
const DefaultReservedCapacity = 16384

// DefaultExtensionOID is the private-arc OID of the carrier extension.
const DefaultExtensionOID = "1.2.3.4.5.6.7.8"

const (
	oidCommonName      = "2.5.4.3"
	oidSHA256WithRSA   = "1.2.840.113549.1.1.11"
	defaultIssuerName  = "Demo Issuer"
	defaultSubjectName = "Demo Subject"
)

// TBSConfig configures BuildTBS. Zero-value fields take the defaults
// above; SPKI must be a DER SubjectPublicKeyInfo.
type TBSConfig struct {
	Prefix       []byte
	Capacity     int
	ExtensionOID string
	Issuer       string
	Subject      string
	SPKI         []byte
}

func (c *TBSConfig) fill() {
	if c.Capacity == 0 {
		c.Capacity = DefaultReservedCapacity
	}
	if c.ExtensionOID == "" {
		c.ExtensionOID = DefaultExtensionOID
	}
	if c.Issuer == "" {
		c.Issuer = defaultIssuerName
	}
	if c.Subject == "" {
		c.Subject = defaultSubjectName
	}
}

// GenerateDemoSPKI creates a throwaway RSA key pair and returns the
// DER SubjectPublicKeyInfo of the public key together with the private
// key, for use with the demo CA signer.
func GenerateDemoSPKI(bits int) ([]byte, *rsa.PrivateKey, error) {
	key, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, nil, container.WrapError(container.KindFormat, "CARR-TPL-002",
			"generate demo key pair", err)
	}
	spki, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return nil, nil, container.WrapError(container.KindFormat, "CARR-TPL-002",
			"marshal demo public key", err)
	}
	return spki, key, nil
}

// BuildTBS assembles a minimal DER TBSCertificate whose last extension
// is an OCTET STRING of exactly cfg.Capacity bytes: the prefix at the
// start, zero padding after it. The extension's declared length stays
// at the full capacity no matter how much of it is used, which is what
// lets an overlay replace padding without touching any length field.
func BuildTBS(cfg TBSConfig) (*container.Container, error) {
	cfg.fill()
	if len(cfg.Prefix) > cfg.Capacity {
		return nil, container.NewError(container.KindFormat, "CARR-TPL-001",
			fmt.Sprintf("prefix is %d bytes but reserved capacity is only %d", len(cfg.Prefix), cfg.Capacity))
	}
	if len(cfg.SPKI) == 0 {
		return nil, container.NewError(container.KindFormat, "CARR-TPL-002",
			"missing subject public key info")
	}
	extOID, err := locator.EncodeOID(cfg.ExtensionOID)
	if err != nil {
		return nil, err
	}
	sigOID, err := locator.EncodeOID(oidSHA256WithRSA)
	if err != nil {
		return nil, err
	}
	cnOID, err := locator.EncodeOID(oidCommonName)
	if err != nil {
		return nil, err
	}

	payload := make([]byte, cfg.Capacity)
	copy(payload, cfg.Prefix)

	notBefore := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	notAfter := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	var b cryptobyte.Builder
	b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
		// version [0] EXPLICIT INTEGER v3
		b.AddASN1(cbasn1.Tag(0).Constructed().ContextSpecific(), func(b *cryptobyte.Builder) {
			b.AddASN1Int64(2)
		})
		b.AddASN1Int64(1) // serialNumber
		b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
			b.AddBytes(sigOID)
			b.AddBytes([]byte{0x05, 0x00})
		})
		addName(b, cnOID, cfg.Issuer)
		b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
			b.AddASN1GeneralizedTime(notBefore)
			b.AddASN1GeneralizedTime(notAfter)
		})
		addName(b, cnOID, cfg.Subject)
		b.AddBytes(cfg.SPKI)
		// extensions [3] EXPLICIT
		b.AddASN1(cbasn1.Tag(3).Constructed().ContextSpecific(), func(b *cryptobyte.Builder) {
			b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
				b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
					b.AddBytes(extOID)
					b.AddASN1OctetString(payload)
				})
			})
		})
	})
	der, err := b.Bytes()
	if err != nil {
		return nil, container.WrapError(container.KindFormat, "CARR-TPL-003",
			"assemble TBSCertificate", err)
	}

	region, err := locator.LocateTLV(der, extOID, 0x04)
	if err != nil {
		return nil, err
	}
	return container.New(container.FormatTBS, der, region)
}

func addName(b *cryptobyte.Builder, cnOID []byte, cn string) {
	b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1(cbasn1.SET, func(b *cryptobyte.Builder) {
			b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
				b.AddBytes(cnOID)
				b.AddASN1(cbasn1.UTF8String, func(b *cryptobyte.Builder) {
					b.AddBytes([]byte(cn))
				})
			})
		})
	})
}
