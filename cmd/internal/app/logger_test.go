package app

import (
	"context"
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want slog.Level
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "INFO", want: slog.LevelInfo},
		{in: "warn", want: slog.LevelWarn},
		{in: "warning", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: " Error ", want: slog.LevelError},
		{in: "unknown", want: slog.LevelInfo},
		{in: "", want: slog.LevelInfo},
	}

	for _, tc := range cases {
		got := parseLevel(tc.in)
		if got != tc.want {
			t.Fatalf("parseLevel(%q)=%v want=%v", tc.in, got, tc.want)
		}
	}
}

func TestNewLogger_LevelGates(t *testing.T) {
	log := NewLogger("warn", "json")
	ctx := context.Background()
	if log.Enabled(ctx, slog.LevelInfo) {
		t.Fatalf("info should be gated at warn level")
	}
	if !log.Enabled(ctx, slog.LevelError) {
		t.Fatalf("error must pass at warn level")
	}
}
