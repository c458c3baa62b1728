package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/eloinsight/chessd/internal/config"
)

func TestResolveEngineBinaryPrefersConfigured(t *testing.T) {
	got := resolveEngineBinary(config.StockfishConfig{BinaryPath: "/custom/stockfish"})
	if got != "/custom/stockfish" {
		t.Errorf("resolveEngineBinary = %q, want /custom/stockfish", got)
	}
}

func TestResolveEngineBinaryFallsBackToSearchPaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stockfish")
	if err := os.WriteFile(path, []byte(""), 0o755); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got := resolveEngineBinary(config.StockfishConfig{SearchPaths: []string{filepath.Join(dir, "missing"), path}})
	if got != path {
		t.Errorf("resolveEngineBinary = %q, want %q", got, path)
	}
}

func TestResolveEngineBinaryFallsBackToPathLookup(t *testing.T) {
	got := resolveEngineBinary(config.StockfishConfig{SearchPaths: []string{filepath.Join(t.TempDir(), "missing")}})
	if got != "stockfish" {
		t.Errorf("resolveEngineBinary = %q, want the bare \"stockfish\" PATH fallback", got)
	}
}

func TestSetupLoggerBuildsForEveryLevelAndFormat(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "unknown"} {
		for _, format := range []string{"json", "console"} {
			logger := setupLogger(level, format)
			if logger == nil {
				t.Errorf("setupLogger(%q, %q) = nil", level, format)
			}
		}
	}
}
