package debug

import (
	"context"
	"fmt"
	"strconv"

	"github.com/cloudwego/eino-ext/devops"

	"github.com/dyike/StockPilot/config"
	"github.com/dyike/StockPilot/internal/logger"
)

const defaultPort = 52538

// EinoDebugger starts the eino-ext visual debug server when enabled, so the
// react agent graphs built during verification can be inspected.
type EinoDebugger struct {
	config *config.Config
}

func NewEinoDebugger(cfg *config.Config) *EinoDebugger {
	return &EinoDebugger{config: cfg}
}

func (d *EinoDebugger) Initialize(ctx context.Context) error {
	if !d.IsEnabled() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	port := d.serverPort()
	logger.Log.Debugf("initializing eino visual debug plugin on port %s", port)
	if err := devops.Init(ctx, devops.WithDevServerPort(port)); err != nil {
		return fmt.Errorf("failed to initialize Eino debug plugin: %w", err)
	}
	logger.Log.Infof("eino debug server running at %s", d.GetDebugURL())
	return nil
}

func (d *EinoDebugger) IsEnabled() bool {
	return d.config != nil && d.config.EinoDebugEnabled
}

func (d *EinoDebugger) GetDebugURL() string {
	if !d.IsEnabled() {
		return ""
	}
	return "http://localhost:" + d.serverPort()
}

// serverPort is the configured port, or the plugin default when unset.
func (d *EinoDebugger) serverPort() string {
	if d.config == nil || d.config.EinoDebugPort <= 0 {
		return strconv.Itoa(defaultPort)
	}
	return strconv.Itoa(d.config.EinoDebugPort)
}
