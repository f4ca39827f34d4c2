package cli

import (
	"context"
	"log/slog"
	"testing"

	"dineadmin/internal/config"
	"dineadmin/internal/log"
	"dineadmin/internal/sheets/memory"
)

func TestSetupLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger := SetupLogger("debug")
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug level not enabled")
	}
	if logger.Component() != log.ComponentApp {
		t.Errorf("Component() = %q, want %q", logger.Component(), log.ComponentApp)
	}
}

func TestOpenSheetsFallsBackToMemory(t *testing.T) {
	w, err := OpenSheets(context.Background(), log.Discard(), &config.Config{})
	if err != nil {
		t.Fatalf("OpenSheets() error = %v", err)
	}
	if _, ok := w.(*memory.Store); !ok {
		t.Errorf("OpenSheets() = %T, want *memory.Store", w)
	}
}

func TestSignalContextCancel(t *testing.T) {
	ctx, cancel := SignalContext(log.Discard())
	cancel()
	<-ctx.Done()
}
