package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"xcoll.dev/carrier/container"
	"xcoll.dev/carrier/storage"
	"xcoll.dev/carrier/storage/bundle"
	"xcoll.dev/carrier/storage/localfs"
)

var (
	archiveRoot      string
	archiveA         string
	archiveB         string
	archiveReport    string
	archiveTechnique string
	archiveBundle    string
)

func archiveCmd() *cli.Command {
	return &cli.Command{
		Name:  "archive",
		Usage: "content-addressed evidence storage for finished pairs",
		Commands: []*cli.Command{
			archiveExportCmd(),
			archiveImportCmd(),
		},
	}
}

func rootFlag() cli.Flag {
	return &cli.StringFlag{
		Name:        "root",
		Usage:       "local store root directory",
		Required:    true,
		Destination: &archiveRoot,
	}
}

func archiveExportCmd() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "store a pair and export it as a portable evidence bundle",
		Flags: []cli.Flag{
			rootFlag(),
			&cli.StringFlag{Name: "a", Usage: "artifact A", Required: true, Destination: &archiveA},
			&cli.StringFlag{Name: "b", Usage: "artifact B", Required: true, Destination: &archiveB},
			&cli.StringFlag{Name: "report", Usage: "verification report JSON to include", Destination: &archiveReport},
			&cli.StringFlag{Name: "technique", Usage: "collision technique label", Value: "identical-prefix", Destination: &archiveTechnique},
			&cli.StringFlag{Name: "bundle", Usage: "write a TAR bundle to this path", Destination: &archiveBundle},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := localfs.New(archiveRoot)
			if err != nil {
				return err
			}
			dataA, err := readInput(archiveA)
			if err != nil {
				return err
			}
			dataB, err := readInput(archiveB)
			if err != nil {
				return err
			}
			var report []byte
			if archiveReport != "" {
				if report, err = readInput(archiveReport); err != nil {
					return err
				}
			}
			rec, err := storage.ArchivePair(s, archiveTechnique, dataA, dataB, report)
			if err != nil {
				return err
			}
			printRecord(rec)
			if archiveBundle == "" {
				return nil
			}
			f, err := os.Create(archiveBundle)
			if err != nil {
				return container.WrapError(container.KindFormat,
					"CARR-CLI-002", "create "+archiveBundle, err)
			}
			defer f.Close()
			if err := bundle.ExportPair(f, s, rec); err != nil {
				return err
			}
			if err := f.Close(); err != nil {
				return container.WrapError(container.KindFormat,
					"CARR-CLI-002", "close "+archiveBundle, err)
			}
			logger.Info("wrote bundle", "path", archiveBundle)
			return nil
		},
	}
}

func archiveImportCmd() *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "import a portable evidence bundle into a local store",
		Flags: []cli.Flag{
			rootFlag(),
			&cli.StringFlag{
				Name:        "bundle",
				Usage:       "TAR bundle to import",
				Required:    true,
				Destination: &archiveBundle,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := localfs.New(archiveRoot)
			if err != nil {
				return err
			}
			f, err := os.Open(archiveBundle)
			if err != nil {
				return container.WrapError(container.KindFormat,
					"CARR-CLI-001", "open "+archiveBundle, err)
			}
			defer f.Close()
			rec, err := bundle.Import(f, s)
			if err != nil {
				return err
			}
			printRecord(rec)
			return nil
		},
	}
}

func printRecord(rec storage.PairRecord) {
	fmt.Printf("technique: %s\n", rec.Technique)
	fmt.Printf("a:         %s\n", rec.A)
	fmt.Printf("b:         %s\n", rec.B)
	if rec.Report.Defined() {
		fmt.Printf("report:    %s\n", rec.Report)
	}
}
