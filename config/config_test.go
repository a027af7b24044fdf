package config

import (
	"path/filepath"
	"testing"
)

func TestDefaultConfigFromEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_DIR", dir)
	t.Setenv("LLM_PROVIDER", "DeepSeek")
	t.Setenv("STOCKPILOT_MODEL", "")
	t.Setenv("STOCKPILOT_MAX_STEPS", "7")
	t.Setenv("SHOW_TOOL_CALLS", "false")
	t.Setenv("DEEPSEEK_API_KEY", "ds-key")
	t.Setenv("FINNHUB_API_KEY", "fh-key")

	cfg := DefaultConfig()

	if cfg.DataDir != dir {
		t.Errorf("DataDir = %s, want %s", cfg.DataDir, dir)
	}
	if cfg.LogFile != filepath.Join(dir, "logs", "stockpilot.log") {
		t.Errorf("LogFile not rooted at DATA_DIR: %s", cfg.LogFile)
	}
	if cfg.LLMProvider != ProviderDeepSeek {
		t.Errorf("LLMProvider = %s, want deepseek", cfg.LLMProvider)
	}
	if cfg.Model != "deepseek-chat" {
		t.Errorf("Model = %s, want the deepseek default", cfg.Model)
	}
	if cfg.MaxSteps != 7 {
		t.Errorf("MaxSteps = %d, want 7", cfg.MaxSteps)
	}
	if cfg.ShowToolCalls {
		t.Error("ShowToolCalls should be disabled")
	}
	if cfg.ProviderAPIKey() != "ds-key" {
		t.Errorf("ProviderAPIKey = %q", cfg.ProviderAPIKey())
	}
	if cfg.ProviderKeyEnv() != "DEEPSEEK_API_KEY" {
		t.Errorf("ProviderKeyEnv = %q", cfg.ProviderKeyEnv())
	}
	if cfg.FinnhubAPIKey != "fh-key" {
		t.Errorf("FinnhubAPIKey = %q", cfg.FinnhubAPIKey)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"gemini", func(c *Config) { c.LLMProvider = ProviderGemini; c.Model = "gemini-2.0-flash" }, false},
		{"unknown provider", func(c *Config) { c.LLMProvider = "ollama" }, true},
		{"empty model", func(c *Config) { c.Model = " " }, true},
		{"zero steps", func(c *Config) { c.MaxSteps = 0 }, true},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfigWithRoot(t.TempDir())
			tc.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() err = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestApplySettingsKeepsSecrets(t *testing.T) {
	cfg := DefaultConfigWithRoot(t.TempDir())
	cfg.OpenAIAPIKey = "sk-live"

	settings := *DefaultConfigWithRoot(t.TempDir())
	settings.Model = "gpt-4o-mini"
	settings.ShowToolCalls = false

	cfg.ApplySettings(settings)

	if cfg.Model != "gpt-4o-mini" || cfg.ShowToolCalls {
		t.Fatalf("settings not applied: %+v", cfg)
	}
	if cfg.OpenAIAPIKey != "sk-live" {
		t.Fatal("ApplySettings must not touch secrets")
	}
}

func TestEnsureDirectories(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "data")
	cfg := DefaultConfigWithRoot(root)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
}
