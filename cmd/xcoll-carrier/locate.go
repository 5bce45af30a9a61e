package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"xcoll.dev/carrier/container"
	"xcoll.dev/carrier/locator"
	"xcoll.dev/carrier/manifest"
)

var (
	locateFormat     string
	locateIn         string
	markerOID        string
	markerTag        string
	markerJPEG       string
	markerOccurrence int64
	markerStreamDict string
)

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:        "format",
		Usage:       "carrier format (raw, x509-tbs, pdf, jpeg, gzip)",
		Required:    true,
		Destination: &locateFormat,
	}
}

func markerFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "oid",
			Usage:       "x509-tbs: dotted extension OID marking the region",
			Destination: &markerOID,
		},
		&cli.StringFlag{
			Name:        "tag",
			Usage:       "x509-tbs: ASN.1 tag byte after the OID (OCTET STRING default)",
			Destination: &markerTag,
		},
		&cli.StringFlag{
			Name:        "jpeg-marker",
			Usage:       "jpeg: segment marker byte (COM default)",
			Destination: &markerJPEG,
		},
		&cli.IntFlag{
			Name:        "occurrence",
			Usage:       "jpeg: 1-based occurrence of the marked segment",
			Destination: &markerOccurrence,
		},
		&cli.StringFlag{
			Name:        "stream-dict",
			Usage:       "pdf: dictionary token before the target stream",
			Destination: &markerStreamDict,
		},
	}
}

func markerFromFlags() (locator.Marker, error) {
	return manifest.MarkerSpec{
		OID:        markerOID,
		Tag:        markerTag,
		JPEGMarker: markerJPEG,
		Occurrence: int(markerOccurrence),
		StreamDict: markerStreamDict,
	}.ToMarker()
}

func locateCmd() *cli.Command {
	return &cli.Command{
		Name:  "locate",
		Usage: "find the reserved region inside a carrier file",
		Flags: append([]cli.Flag{
			formatFlag(),
			&cli.StringFlag{
				Name:        "in",
				Usage:       "carrier file",
				Required:    true,
				Destination: &locateIn,
			},
		}, markerFlags()...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			format, err := container.ParseFormat(locateFormat)
			if err != nil {
				return err
			}
			data, err := readInput(locateIn)
			if err != nil {
				return err
			}
			m, err := markerFromFlags()
			if err != nil {
				return err
			}
			region, err := locator.Locate(data, format, m)
			if err != nil {
				return err
			}
			fmt.Printf("offset=%d capacity=%d end=%d\n",
				region.Start, region.Capacity, region.End())
			return nil
		},
	}
}
