package debug

import (
	"context"
	"testing"

	"github.com/dyike/StockPilot/config"
)

func TestDebuggerUsesConfiguredPort(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.EinoDebugEnabled = true
	cfg.EinoDebugPort = 6061

	d := NewEinoDebugger(cfg)
	if got := d.serverPort(); got != "6061" {
		t.Fatalf("serverPort() = %q, want 6061", got)
	}
	if got := d.GetDebugURL(); got != "http://localhost:6061" {
		t.Fatalf("GetDebugURL() = %q", got)
	}

	cfg.EinoDebugPort = 0
	if got := d.serverPort(); got != "52538" {
		t.Fatalf("unset port = %q, want plugin default", got)
	}
}

func TestDisabledDebuggerDoesNothing(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.EinoDebugEnabled = false

	d := NewEinoDebugger(cfg)
	if d.IsEnabled() {
		t.Fatal("debugger should be disabled")
	}
	if err := d.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() = %v", err)
	}
	if url := d.GetDebugURL(); url != "" {
		t.Fatalf("GetDebugURL() = %q, want empty", url)
	}
	if NewEinoDebugger(nil).IsEnabled() {
		t.Fatal("nil config should be disabled")
	}
}
