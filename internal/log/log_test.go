package log

import (
	"context"
	"log/slog"
	"testing"
)

func TestInit_LaterCallRaisesLevel(t *testing.T) {
	// An early log call settles the default level before flags are read
	Init("info")
	if L().Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("info logger should not enable debug")
	}

	// Flag parsing then asks for debug; the reconfiguration must win
	Init("debug")
	if !L().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug level not enabled after reconfiguring")
	}
	if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("slog default not reconfigured")
	}
}

func TestInit_UnknownLevelDefaultsToInfo(t *testing.T) {
	Init("verbose")
	ctx := context.Background()
	if L().Enabled(ctx, slog.LevelDebug) {
		t.Error("unknown level should fall back to info, not debug")
	}
	if !L().Enabled(ctx, slog.LevelInfo) {
		t.Error("info level should be enabled")
	}
}
