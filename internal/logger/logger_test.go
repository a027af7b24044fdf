package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitLoggerWritesFormattedEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	closer, err := InitLogger("debug", path)
	if err != nil {
		t.Fatalf("InitLogger: %v", err)
	}

	Log.WithField("symbol", "AAPL").Info("analysis started")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	line := string(data)
	for _, want := range []string{"[INFO]", "logger_test.go:", "analysis started", "symbol=AAPL"} {
		if !strings.Contains(line, want) {
			t.Errorf("log line %q missing %q", line, want)
		}
	}
}

func TestInitLoggerFallsBackToInfo(t *testing.T) {
	closer, err := InitLogger("nonsense", "")
	if err != nil {
		t.Fatalf("InitLogger: %v", err)
	}
	defer closer.Close()

	if got := Log.GetLevel().String(); got != "info" {
		t.Fatalf("expected info level, got %s", got)
	}
}
