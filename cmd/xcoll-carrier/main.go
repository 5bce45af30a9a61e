// Command xcoll-carrier drives the collision-carrier pipeline: build
// templates, locate reserved regions, overlay collision blocks, repair
// structure, verify and archive the resulting pairs.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"xcoll.dev/carrier/container"
)

var (
	logLevel string
	logger   *slog.Logger
)

func main() {
	app := &cli.Command{
		Name:  "xcoll-carrier",
		Usage: "MD5 collision-carrier overlay and format-patching toolkit",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error)",
				Value:       "info",
				Destination: &logLevel,
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: parseLevel(logLevel),
			}))
			return ctx, nil
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			buildCmd(),
			locateCmd(),
			overlayCmd(),
			repairCmd(),
			verifyCmd(),
			verifyAllCmd(),
			signCmd(),
			runCmd(),
			archiveCmd(),
			hexdiffCmd(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		var cerr *container.Error
		if errors.As(err, &cerr) {
			os.Exit(1)
		}
		os.Exit(2)
	}
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func readInput(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, container.WrapError(container.KindFormat, "CARR-CLI-001",
			"read "+path, err)
	}
	return b, nil
}

func writeOutput(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return container.WrapError(container.KindFormat, "CARR-CLI-002",
			"write "+path, err)
	}
	logger.Info("wrote", "path", path, "bytes", len(data))
	return nil
}
