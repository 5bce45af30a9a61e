package main

import (
	"context"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"xcoll.dev/carrier/collision"
	"xcoll.dev/carrier/container"
	"xcoll.dev/carrier/manifest"
	"xcoll.dev/carrier/overlay"
	"xcoll.dev/carrier/repair"
)

var runPlanPath string

func runCmd() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "execute a YAML build plan: locate, overlay, repair, verify",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "plan",
				Usage:       "YAML plan file",
				Required:    true,
				Destination: &runPlanPath,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			plan, err := manifest.LoadPlan(runPlanPath)
			if err != nil {
				return err
			}
			format, err := container.ParseFormat(plan.Format)
			if err != nil {
				return err
			}
			m, err := plan.Marker.ToMarker()
			if err != nil {
				return err
			}
			pair, err := collision.LoadPair(
				plan.Resolve(plan.Blocks.A), plan.Resolve(plan.Blocks.B))
			if err != nil {
				return err
			}
			a, err := loadCarrier(format, plan.Resolve(plan.Templates.A), m)
			if err != nil {
				return err
			}
			b, err := loadCarrier(format, plan.Resolve(plan.Templates.B), m)
			if err != nil {
				return err
			}
			if err := overlay.ApplyPair(a, b,
				plan.PrefixLen.A, plan.PrefixLen.B, pair.A, pair.B); err != nil {
				return err
			}
			outA, err := repair.Repair(format, a.Bytes())
			if err != nil {
				return err
			}
			outB, err := repair.Repair(format, b.Bytes())
			if err != nil {
				return err
			}
			pathA := plan.Resolve(plan.Outputs.A)
			pathB := plan.Resolve(plan.Outputs.B)
			if err := writeOutput(pathA, outA); err != nil {
				return err
			}
			if err := writeOutput(pathB, outB); err != nil {
				return err
			}

			report, verr := verifyPair(format, pathA, pathB)
			if report != nil {
				printReport(report)
			}
			if verr != nil {
				return verr
			}
			if !report.OK() {
				return container.NewError(container.KindVerification, "CARR-VRF-003",
					"structural checks failed on at least one side")
			}

			if plan.Manifest != "" {
				mf := &manifest.Manifest{
					Technique: plan.Technique,
					Language:  "go",
					Artifacts: []string{
						filepath.Base(pathA),
						filepath.Base(pathB),
					},
				}
				if err := mf.Save(plan.Resolve(plan.Manifest)); err != nil {
					return err
				}
				logger.Info("wrote manifest", "path", plan.Resolve(plan.Manifest))
			}
			return nil
		},
	}
}
