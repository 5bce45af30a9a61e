package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"xcoll.dev/carrier/collision"
	"xcoll.dev/carrier/container"
	"xcoll.dev/carrier/locator"
	"xcoll.dev/carrier/overlay"
	"xcoll.dev/carrier/repair"
)

var (
	overlayInA      string
	overlayInB      string
	overlayBlockA   string
	overlayBlockB   string
	overlayPrefixA  int64
	overlayPrefixB  int64
	overlayOutA     string
	overlayOutB     string
	overlayNoRepair bool
)

func overlayCmd() *cli.Command {
	return &cli.Command{
		Name:  "overlay",
		Usage: "write a collision block pair into two carrier copies and repair them",
		Flags: append([]cli.Flag{
			formatFlag(),
			&cli.StringFlag{Name: "in-a", Usage: "template for side A", Required: true, Destination: &overlayInA},
			&cli.StringFlag{Name: "in-b", Usage: "template for side B", Required: true, Destination: &overlayInB},
			&cli.StringFlag{Name: "block-a", Usage: "collision block file for side A", Required: true, Destination: &overlayBlockA},
			&cli.StringFlag{Name: "block-b", Usage: "collision block file for side B", Required: true, Destination: &overlayBlockB},
			&cli.IntFlag{Name: "prefix-len-a", Usage: "bytes of region prefix before the block on side A", Destination: &overlayPrefixA},
			&cli.IntFlag{Name: "prefix-len-b", Usage: "bytes of region prefix before the block on side B", Destination: &overlayPrefixB},
			&cli.StringFlag{Name: "out-a", Usage: "output carrier for side A", Required: true, Destination: &overlayOutA},
			&cli.StringFlag{Name: "out-b", Usage: "output carrier for side B", Required: true, Destination: &overlayOutB},
			&cli.BoolFlag{Name: "no-repair", Usage: "skip the structural repair pass", Destination: &overlayNoRepair},
		}, markerFlags()...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			format, err := container.ParseFormat(locateFormat)
			if err != nil {
				return err
			}
			m, err := markerFromFlags()
			if err != nil {
				return err
			}
			pair, err := collision.LoadPair(overlayBlockA, overlayBlockB)
			if err != nil {
				return err
			}
			a, err := loadCarrier(format, overlayInA, m)
			if err != nil {
				return err
			}
			b, err := loadCarrier(format, overlayInB, m)
			if err != nil {
				return err
			}
			if err := overlay.ApplyPair(a, b,
				int(overlayPrefixA), int(overlayPrefixB), pair.A, pair.B); err != nil {
				return err
			}
			logger.Info("overlay applied",
				"format", format, "block_len", pair.Len(),
				"offset", a.Region().Start+int(overlayPrefixA))
			outA, outB := a.Bytes(), b.Bytes()
			if !overlayNoRepair {
				if outA, err = repair.Repair(format, outA); err != nil {
					return err
				}
				if outB, err = repair.Repair(format, outB); err != nil {
					return err
				}
			}
			if err := writeOutput(overlayOutA, outA); err != nil {
				return err
			}
			return writeOutput(overlayOutB, outB)
		},
	}
}

func loadCarrier(format container.Format, path string, m locator.Marker) (*container.Container, error) {
	data, err := readInput(path)
	if err != nil {
		return nil, err
	}
	region, err := locator.Locate(data, format, m)
	if err != nil {
		return nil, err
	}
	return container.New(format, data, region)
}
