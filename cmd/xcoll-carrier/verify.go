package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"xcoll.dev/carrier/container"
	"xcoll.dev/carrier/verify"
)

var (
	verifyA      string
	verifyB      string
	verifyJSON   bool
	verifyReport string
)

func verifyCmd() *cli.Command {
	return &cli.Command{
		Name:  "verify",
		Usage: "check a pair for weak-digest equality, strong-digest difference and format health",
		Flags: []cli.Flag{
			formatFlag(),
			&cli.StringFlag{Name: "a", Usage: "artifact A", Required: true, Destination: &verifyA},
			&cli.StringFlag{Name: "b", Usage: "artifact B", Required: true, Destination: &verifyB},
			&cli.BoolFlag{Name: "json", Usage: "print the full report as JSON", Destination: &verifyJSON},
			&cli.StringFlag{Name: "report", Usage: "also write the JSON report to this path", Destination: &verifyReport},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			format, err := container.ParseFormat(locateFormat)
			if err != nil {
				return err
			}
			dataA, err := readInput(verifyA)
			if err != nil {
				return err
			}
			dataB, err := readInput(verifyB)
			if err != nil {
				return err
			}
			report, verr := verify.Verify(format,
				verify.Artifact{Name: filepath.Base(verifyA), Data: dataA},
				verify.Artifact{Name: filepath.Base(verifyB), Data: dataB})
			if report != nil {
				if err := emitReport(report); err != nil {
					return err
				}
				if !verifyJSON {
					printDiffWindow(report, dataA, dataB)
				}
			}
			if verr != nil {
				return verr
			}
			if !report.OK() {
				return container.NewError(container.KindVerification, "CARR-VRF-003",
					"structural checks failed on at least one side")
			}
			return nil
		},
	}
}

func verifyPair(format container.Format, pathA, pathB string) (*verify.Report, error) {
	dataA, err := readInput(pathA)
	if err != nil {
		return nil, err
	}
	dataB, err := readInput(pathB)
	if err != nil {
		return nil, err
	}
	return verify.Verify(format,
		verify.Artifact{Name: filepath.Base(pathA), Data: dataA},
		verify.Artifact{Name: filepath.Base(pathB), Data: dataB})
}

func emitReport(r *verify.Report) error {
	if verifyReport != "" {
		raw, err := r.JSON()
		if err != nil {
			return err
		}
		if err := os.WriteFile(verifyReport, append(raw, '\n'), 0o644); err != nil {
			return container.WrapError(container.KindVerification,
				"CARR-CLI-002", "write "+verifyReport, err)
		}
		logger.Info("wrote report", "path", verifyReport, "run_id", r.RunID)
	}
	if verifyJSON {
		raw, err := r.JSON()
		if err != nil {
			return err
		}
		fmt.Println(string(raw))
		return nil
	}
	printReport(r)
	return nil
}

// printDiffWindow shows the differing rows with a little context so the
// collision block placement is visible at a glance.
func printDiffWindow(r *verify.Report, dataA, dataB []byte) {
	if r.FirstDiff < 0 {
		return
	}
	start := r.FirstDiff - 16
	if start < 0 {
		start = 0
	}
	fmt.Print(verify.DiffDump(dataA, dataB, start, r.SuffixStart+16))
}

func printReport(r *verify.Report) {
	fmt.Printf("format:        %s\n", r.Format)
	fmt.Printf("a:             %s (%d bytes)\n", r.A.Name, r.A.Size)
	fmt.Printf("b:             %s (%d bytes)\n", r.B.Name, r.B.Size)
	fmt.Printf("md5 equal:     %v\n", r.MD5Equal)
	fmt.Printf("sha256 differ: %v\n", r.SHA256Differ)
	fmt.Printf("first diff:    %d\n", r.FirstDiff)
	fmt.Printf("suffix start:  %d\n", r.SuffixStart)
	if r.JPEG != nil {
		fmt.Printf("jpeg ok:       %v\n", r.JPEG.OK())
	}
	if r.PDF != nil {
		fmt.Printf("pdf ok:        %v\n", r.PDF.OK())
	}
	if r.Gzip != nil {
		fmt.Printf("gzip members:  a=%d b=%d\n", r.Gzip.A.Members, r.Gzip.B.Members)
	}
	fmt.Printf("verdict:       %s\n", verdict(r.OK()))
}

func verdict(ok bool) string {
	if ok {
		return "COLLISION VERIFIED"
	}
	return "FAILED"
}

// sniffFormat guesses the carrier format from magic bytes, falling back
// to raw. Used by verify-all where manifests do not record a format.
func sniffFormat(data []byte) container.Format {
	switch {
	case bytes.HasPrefix(data, []byte("%PDF")):
		return container.FormatPDF
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8}):
		return container.FormatJPEG
	case bytes.HasPrefix(data, []byte{0x1F, 0x8B}):
		return container.FormatGzip
	case len(data) > 1 && data[0] == 0x30:
		return container.FormatTBS
	default:
		return container.FormatRaw
	}
}
