package main

import (
	"context"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"image/color"
	"os"

	"github.com/urfave/cli/v3"

	"xcoll.dev/carrier/container"
	"xcoll.dev/carrier/template"
)

var (
	buildOut      string
	buildCapacity int64
	buildPrefix   string
	buildOID      string
	buildIssuer   string
	buildSubject  string
	buildKeyOut   string
	buildSPKIIn   string
	buildTitle    string
	buildBase     string
	buildCount    int64
	buildOcc      int64
	buildWidth    int64
	buildHeight   int64
	buildPayload  string
)

func buildCmd() *cli.Command {
	return &cli.Command{
		Name:  "build",
		Usage: "build a carrier template with a reserved zero-padded region",
		Commands: []*cli.Command{
			buildTBSCmd(),
			buildPDFCmd(),
			buildJPEGCmd(),
			buildGzipCmd(),
		},
	}
}

func outFlag() cli.Flag {
	return &cli.StringFlag{
		Name:        "out",
		Usage:       "output template path",
		Required:    true,
		Destination: &buildOut,
	}
}

func capacityFlag(def int64) cli.Flag {
	return &cli.IntFlag{
		Name:        "capacity",
		Usage:       "reserved region capacity in bytes",
		Value:       def,
		Destination: &buildCapacity,
	}
}

func prefixFlag() cli.Flag {
	return &cli.StringFlag{
		Name:        "prefix",
		Usage:       "textual prefix placed at the start of the reserved region",
		Destination: &buildPrefix,
	}
}

func reportTemplate(c *container.Container) {
	r := c.Region()
	logger.Info("template built",
		"format", c.Format(), "size", c.Len(),
		"region_start", r.Start, "region_capacity", r.Capacity)
	fmt.Printf("%s offset=%d capacity=%d\n", c.Format(), r.Start, r.Capacity)
}

func buildTBSCmd() *cli.Command {
	return &cli.Command{
		Name:  "tbs",
		Usage: "build a TBSCertificate template carrying a reserved extension",
		Flags: []cli.Flag{
			outFlag(),
			capacityFlag(template.DefaultReservedCapacity),
			prefixFlag(),
			&cli.StringFlag{
				Name:        "oid",
				Usage:       "extension OID holding the reserved region",
				Value:       template.DefaultExtensionOID,
				Destination: &buildOID,
			},
			&cli.StringFlag{
				Name:        "issuer",
				Usage:       "issuer common name",
				Destination: &buildIssuer,
			},
			&cli.StringFlag{
				Name:        "subject",
				Usage:       "subject common name",
				Destination: &buildSubject,
			},
			&cli.StringFlag{
				Name:        "spki",
				Usage:       "DER SubjectPublicKeyInfo file (generated when absent)",
				Destination: &buildSPKIIn,
			},
			&cli.StringFlag{
				Name:        "key-out",
				Usage:       "write the generated demo key as PEM",
				Destination: &buildKeyOut,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			var spki []byte
			if buildSPKIIn != "" {
				b, err := readInput(buildSPKIIn)
				if err != nil {
					return err
				}
				spki = b
			} else {
				der, key, err := template.GenerateDemoSPKI(2048)
				if err != nil {
					return err
				}
				spki = der
				if buildKeyOut != "" {
					block := &pem.Block{
						Type:  "RSA PRIVATE KEY",
						Bytes: x509.MarshalPKCS1PrivateKey(key),
					}
					if err := os.WriteFile(buildKeyOut, pem.EncodeToMemory(block), 0o600); err != nil {
						return container.WrapError(container.KindFormat,
							"CARR-CLI-002", "write "+buildKeyOut, err)
					}
					logger.Info("wrote demo key", "path", buildKeyOut)
				}
			}
			c, err := template.BuildTBS(template.TBSConfig{
				Prefix:       []byte(buildPrefix),
				Capacity:     int(buildCapacity),
				ExtensionOID: buildOID,
				Issuer:       buildIssuer,
				Subject:      buildSubject,
				SPKI:         spki,
			})
			if err != nil {
				return err
			}
			reportTemplate(c)
			return writeOutput(buildOut, c.Bytes())
		},
	}
}

func buildPDFCmd() *cli.Command {
	return &cli.Command{
		Name:  "pdf",
		Usage: "build a PDF template with a reserved embedded-file stream",
		Flags: []cli.Flag{
			outFlag(),
			capacityFlag(4096),
			prefixFlag(),
			&cli.StringFlag{
				Name:        "title",
				Usage:       "visible page text",
				Value:       "Collision carrier",
				Destination: &buildTitle,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			c, err := template.BuildEmbeddedFilePDF(int(buildCapacity), []byte(buildPrefix), buildTitle)
			if err != nil {
				return err
			}
			reportTemplate(c)
			return writeOutput(buildOut, c.Bytes())
		},
	}
}

func buildJPEGCmd() *cli.Command {
	return &cli.Command{
		Name:  "jpeg",
		Usage: "build a JPEG template with reserved comment segments",
		Flags: []cli.Flag{
			outFlag(),
			capacityFlag(1024),
			prefixFlag(),
			&cli.StringFlag{
				Name:        "base",
				Usage:       "base JPEG to splice comments into (generated when absent)",
				Destination: &buildBase,
			},
			&cli.IntFlag{
				Name:        "count",
				Usage:       "number of comment segments to insert",
				Value:       1,
				Destination: &buildCount,
			},
			&cli.IntFlag{
				Name:        "occurrence",
				Usage:       "1-based comment segment hosting the region",
				Value:       1,
				Destination: &buildOcc,
			},
			&cli.IntFlag{
				Name:        "width",
				Value:       64,
				Destination: &buildWidth,
			},
			&cli.IntFlag{
				Name:        "height",
				Value:       64,
				Destination: &buildHeight,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			var base []byte
			if buildBase != "" {
				b, err := readInput(buildBase)
				if err != nil {
					return err
				}
				base = b
			} else {
				b, err := template.NewJPEG(int(buildWidth), int(buildHeight), color.Gray{Y: 0x80})
				if err != nil {
					return err
				}
				base = b
			}
			c, err := template.InsertJPEGComments(base, int(buildCapacity),
				int(buildCount), int(buildOcc), []byte(buildPrefix))
			if err != nil {
				return err
			}
			reportTemplate(c)
			return writeOutput(buildOut, c.Bytes())
		},
	}
}

func buildGzipCmd() *cli.Command {
	return &cli.Command{
		Name:  "gzip",
		Usage: "build a gzip template with a reserved stored deflate block",
		Flags: []cli.Flag{
			outFlag(),
			capacityFlag(1024),
			prefixFlag(),
			&cli.StringFlag{
				Name:        "payload",
				Usage:       "file whose contents follow the reserved block",
				Destination: &buildPayload,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			var payload []byte
			if buildPayload != "" {
				b, err := readInput(buildPayload)
				if err != nil {
					return err
				}
				payload = b
			}
			c, err := template.BuildGzip(int(buildCapacity), []byte(buildPrefix), payload)
			if err != nil {
				return err
			}
			reportTemplate(c)
			return writeOutput(buildOut, c.Bytes())
		},
	}
}
