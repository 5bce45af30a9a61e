package main

import (
	"io"
	"log/slog"
	"testing"

	"xcoll.dev/carrier/container"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSniffFormat(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want container.Format
	}{
		{"pdf", []byte("%PDF-1.7\n"), container.FormatPDF},
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0}, container.FormatJPEG},
		{"gzip", []byte{0x1F, 0x8B, 0x08, 0x00}, container.FormatGzip},
		{"der sequence", []byte{0x30, 0x82, 0x01, 0x00}, container.FormatTBS},
		{"plain", []byte("hello"), container.FormatRaw},
		{"empty", nil, container.FormatRaw},
	}
	for _, tc := range cases {
		if got := sniffFormat(tc.data); got != tc.want {
			t.Fatalf("%s: sniffed %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	if got := parseLevel("debug"); got != slog.LevelDebug {
		t.Fatalf("debug parsed as %v", got)
	}
	if got := parseLevel("warning"); got != slog.LevelWarn {
		t.Fatalf("warning parsed as %v", got)
	}
	if got := parseLevel("nonsense"); got != slog.LevelInfo {
		t.Fatalf("unknown level parsed as %v, want info", got)
	}
}
