package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dyike/StockPilot/internal/logger"
)

// Manager persists the non-secret settings to a JSON file and reloads them
// when the file changes on disk.
type Manager struct {
	path         string
	mu           sync.RWMutex
	cfg          Config
	watcher      *fsnotify.Watcher
	debounce     time.Duration
	onChange     func(Config)
	suppressSelf atomic.Bool
}

type managerOptions struct {
	configPath    string
	initialConfig *Config
	debounce      time.Duration
}

type ManagerOption func(*managerOptions)

func NewManager(opts ...ManagerOption) (*Manager, error) {
	options := managerOptions{
		debounce: 300 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(&options)
	}

	configPath := options.configPath
	if configPath == "" {
		var err error
		configPath, err = defaultConfigPath()
		if err != nil {
			return nil, err
		}
	}

	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}

	cfg, err := loadOrCreateConfig(configPath, options)
	if err != nil {
		return nil, err
	}

	return &Manager{
		path:     configPath,
		cfg:      cfg,
		debounce: options.debounce,
	}, nil
}

func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

func (m *Manager) Path() string {
	return m.path
}

func (m *Manager) UpdateFromJSON(jsonStr string) error {
	var cfg Config
	if err := json.Unmarshal([]byte(jsonStr), &cfg); err != nil {
		return fmt.Errorf("parse config json: %w", err)
	}
	return m.Update(cfg)
}

// Set updates a single setting addressed by its JSON name.
func (m *Manager) Set(key, value string) error {
	current := m.Get()
	raw, err := json.Marshal(current)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	fields := map[string]any{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	old, ok := fields[key]
	if !ok {
		return fmt.Errorf("unknown setting %q", key)
	}

	switch old.(type) {
	case bool, float64:
		var v any
		if err := json.Unmarshal([]byte(value), &v); err != nil {
			return fmt.Errorf("invalid value for %s: %w", key, err)
		}
		fields[key] = v
	default:
		fields[key] = value
	}

	updated, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return m.UpdateFromJSON(string(updated))
}

func (m *Manager) Update(newCfg Config) error {
	if err := newCfg.Validate(); err != nil {
		return err
	}

	m.mu.RLock()
	current := m.cfg
	m.mu.RUnlock()
	if reflect.DeepEqual(current, newCfg) {
		return nil
	}

	m.suppressSelf.Store(true)
	defer time.AfterFunc(m.debounce, func() { m.suppressSelf.Store(false) })

	if err := writeConfigFile(m.path, newCfg); err != nil {
		m.suppressSelf.Store(false)
		return err
	}

	m.applyConfig(newCfg)
	return nil
}

// Watch calls onChange whenever the settings file is modified by another
// process. Writes made through Update are not reported back.
func (m *Manager) Watch(ctx context.Context, onChange func(Config)) error {
	m.mu.Lock()
	m.onChange = onChange
	if m.watcher != nil {
		m.mu.Unlock()
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		m.mu.Unlock()
		return err
	}
	m.watcher = watcher
	debounce := m.debounce
	configPath := m.path
	m.mu.Unlock()

	configDir := filepath.Dir(configPath)
	if err := watcher.Add(configDir); err != nil {
		return fmt.Errorf("watch config dir: %w", err)
	}

	go m.watchLoop(ctx, watcher, configPath, debounce)
	return nil
}

func (m *Manager) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, configPath string, debounce time.Duration) {
	defer watcher.Close()

	var timerMu sync.Mutex
	var timer *time.Timer
	trigger := func() {
		timerMu.Lock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(debounce, m.reloadFromDisk)
		timerMu.Unlock()
	}

	for {
		select {
		case evt, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !m.isConfigEvent(evt, configPath) {
				continue
			}
			if m.suppressSelf.Load() {
				continue
			}
			trigger()
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			if err != nil {
				logger.Log.Warnf("config watcher error: %v", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (m *Manager) isConfigEvent(evt fsnotify.Event, configPath string) bool {
	if filepath.Clean(evt.Name) != filepath.Clean(configPath) {
		return false
	}
	return evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

func (m *Manager) reloadFromDisk() {
	var cfg Config
	if err := loadConfigFromFile(m.path, &cfg); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Log.Warnf("config reload failed: %v", err)
			return
		}
		cfg = m.Get()
		if err := writeConfigFile(m.path, cfg); err != nil {
			logger.Log.Warnf("config recreate failed: %v", err)
		}
		return
	}
	if err := cfg.Validate(); err != nil {
		logger.Log.Warnf("config validation failed: %v", err)
		return
	}

	m.mu.RLock()
	current := m.cfg
	m.mu.RUnlock()
	if reflect.DeepEqual(current, cfg) {
		return
	}
	logger.Log.Infof("settings reloaded from %s", m.path)
	m.applyConfig(cfg)
}

func (m *Manager) applyConfig(cfg Config) {
	m.mu.Lock()
	m.cfg = cfg
	cb := m.onChange
	m.mu.Unlock()

	if cb != nil {
		cb(cfg)
	}
}

func loadOrCreateConfig(path string, options managerOptions) (Config, error) {
	var cfg Config
	if _, err := os.Stat(path); err == nil {
		if err := loadConfigFromFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("load config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return Config{}, err
		}
		return cfg, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("stat config: %w", err)
	}

	switch {
	case options.initialConfig != nil:
		cfg = *options.initialConfig
	default:
		cfg = *DefaultConfigWithRoot(filepath.Join(filepath.Dir(path), "data"))
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	if err := writeConfigFile(path, cfg); err != nil {
		return Config{}, fmt.Errorf("write initial config: %w", err)
	}

	return cfg, nil
}

func loadConfigFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func defaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir, err = os.Getwd()
		if err != nil {
			return "", err
		}
	}
	dir = filepath.Join(dir, "StockPilot")
	return filepath.Join(dir, "config.json"), nil
}

func writeConfigFile(path string, cfg Config) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "cfg-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	encoder := json.NewEncoder(tmpFile)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(&cfg); err != nil {
		tmpFile.Close()
		_ = os.Remove(tmpFile.Name())
		return fmt.Errorf("encode config: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		_ = os.Remove(tmpFile.Name())
		return fmt.Errorf("flush config: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		_ = os.Remove(tmpFile.Name())
		return fmt.Errorf("close temp config: %w", err)
	}
	return os.Rename(tmpFile.Name(), path)
}

func WithConfigDir(dir string) ManagerOption {
	return func(o *managerOptions) {
		if dir == "" {
			return
		}
		o.configPath = filepath.Join(dir, "config.json")
	}
}

func WithConfigPath(path string) ManagerOption {
	return func(o *managerOptions) {
		if path != "" {
			o.configPath = path
		}
	}
}

func WithDebounce(d time.Duration) ManagerOption {
	return func(o *managerOptions) {
		if d > 0 {
			o.debounce = d
		}
	}
}

func WithInitialConfig(cfg *Config) ManagerOption {
	return func(o *managerOptions) {
		o.initialConfig = cfg
	}
}
