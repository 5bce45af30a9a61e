package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"xcoll.dev/carrier/container"
	"xcoll.dev/carrier/repair"
)

var (
	repairIn  string
	repairOut string
)

func repairCmd() *cli.Command {
	return &cli.Command{
		Name:  "repair",
		Usage: "recompute a carrier's structural tables after an overlay",
		Flags: []cli.Flag{
			formatFlag(),
			&cli.StringFlag{
				Name:        "in",
				Usage:       "carrier file",
				Required:    true,
				Destination: &repairIn,
			},
			&cli.StringFlag{
				Name:        "out",
				Usage:       "output path (in place when omitted)",
				Destination: &repairOut,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			format, err := container.ParseFormat(locateFormat)
			if err != nil {
				return err
			}
			data, err := readInput(repairIn)
			if err != nil {
				return err
			}
			fixed, err := repair.Repair(format, data)
			if err != nil {
				return err
			}
			out := repairOut
			if out == "" {
				out = repairIn
			}
			return writeOutput(out, fixed)
		},
	}
}
