package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"xcoll.dev/carrier/container"
	"xcoll.dev/carrier/manifest"
	"xcoll.dev/carrier/verify"
)

func verifyAllCmd() *cli.Command {
	return &cli.Command{
		Name:      "verify-all",
		Usage:     "verify every manifest-described pair and print a summary table",
		ArgsUsage: "<manifest.json>...",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			paths := cmd.Args().Slice()
			if len(paths) == 0 {
				return container.NewError(container.KindVerification,
					"CARR-CLI-003", "no manifests given")
			}
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TECHNIQUE\tLANG\tFORMAT\tMD5==\tSHA256!=\tOK\tPAIR")
			failures := 0
			for _, path := range paths {
				m, err := manifest.Load(path)
				if err != nil {
					logger.Error("manifest skipped", "path", path, "err", err)
					failures++
					continue
				}
				pathA, pathB := m.Pair()
				dataA, err := readInput(pathA)
				if err != nil {
					logger.Error("artifact unreadable", "path", pathA, "err", err)
					failures++
					continue
				}
				dataB, err := readInput(pathB)
				if err != nil {
					logger.Error("artifact unreadable", "path", pathB, "err", err)
					failures++
					continue
				}
				format := sniffFormat(dataA)
				report, verr := verify.Verify(format,
					verify.Artifact{Name: filepath.Base(pathA), Data: dataA},
					verify.Artifact{Name: filepath.Base(pathB), Data: dataB})
				ok := verr == nil && report.OK()
				if !ok {
					failures++
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%v\t%v\t%s\t%s + %s\n",
					m.Technique, m.Language, format,
					report.MD5Equal, report.SHA256Differ, mark(ok),
					filepath.Base(pathA), filepath.Base(pathB))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if failures > 0 {
				return container.NewError(container.KindVerification, "CARR-VRF-003",
					fmt.Sprintf("%d of %d pairs failed verification", failures, len(paths)))
			}
			logger.Info("all pairs verified", "count", len(paths))
			return nil
		},
	}
}

func mark(ok bool) string {
	if ok {
		return "ok"
	}
	return "FAIL"
}
