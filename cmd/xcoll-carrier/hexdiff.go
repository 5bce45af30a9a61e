package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"xcoll.dev/carrier/verify"
)

var (
	hexdiffA       string
	hexdiffB       string
	hexdiffStart   int64
	hexdiffEnd     int64
	hexdiffContext int64
)

func hexdiffCmd() *cli.Command {
	return &cli.Command{
		Name:  "hexdiff",
		Usage: "hex dump the differing window of an artifact pair",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "a", Usage: "artifact A", Required: true, Destination: &hexdiffA},
			&cli.StringFlag{Name: "b", Usage: "artifact B", Required: true, Destination: &hexdiffB},
			&cli.IntFlag{Name: "start", Usage: "window start (first diff row when negative)", Value: -1, Destination: &hexdiffStart},
			&cli.IntFlag{Name: "end", Usage: "window end (suffix start when negative)", Value: -1, Destination: &hexdiffEnd},
			&cli.IntFlag{Name: "context", Usage: "extra bytes around the differing window", Value: 16, Destination: &hexdiffContext},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			dataA, err := readInput(hexdiffA)
			if err != nil {
				return err
			}
			dataB, err := readInput(hexdiffB)
			if err != nil {
				return err
			}
			start, end := int(hexdiffStart), int(hexdiffEnd)
			if start < 0 {
				if d := verify.FirstDiff(dataA, dataB); d >= 0 {
					start = d - int(hexdiffContext)
				} else {
					start = 0
				}
			}
			if end < 0 {
				end = verify.CommonSuffixStart(dataA, dataB) + int(hexdiffContext)
			}
			if start < 0 {
				start = 0
			}
			fmt.Print(verify.DiffDump(dataA, dataB, start, end))
			return nil
		},
	}
}
