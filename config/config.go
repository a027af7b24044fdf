package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Supported LLM providers.
const (
	ProviderOpenAI   = "openai"
	ProviderDeepSeek = "deepseek"
	ProviderGemini   = "gemini"
)

// DefaultModel returns the model used for provider when none is configured.
func DefaultModel(provider string) string {
	switch provider {
	case ProviderDeepSeek:
		return "deepseek-chat"
	case ProviderGemini:
		return "gemini-2.5-flash"
	default:
		return "gpt-4o"
	}
}

type Config struct {
	DataDir  string `json:"data_dir"`
	LogFile  string `json:"log_file"`
	LogLevel string `json:"log_level"`

	LLMProvider   string `json:"llm_provider"`
	Model         string `json:"model"`
	BackendURL    string `json:"backend_url"`
	MaxSteps      int    `json:"max_steps"`
	ShowToolCalls bool   `json:"show_tool_calls"`
	VerifyProbe   bool   `json:"verify_probe"`

	// Eino Debug configuration
	EinoDebugEnabled bool `json:"eino_debug_enabled"`
	EinoDebugPort    int  `json:"eino_debug_port"`

	// Secrets are only ever read from the environment.
	OpenAIAPIKey   string `json:"-"`
	DeepSeekAPIKey string `json:"-"`
	GeminiAPIKey   string `json:"-"`

	// Longport API Configuration
	LongportAppKey      string `json:"-"`
	LongportAppSecret   string `json:"-"`
	LongportAccessToken string `json:"-"`

	// Market data API keys
	FinnhubAPIKey string `json:"-"`
	NewsLanguage  string `json:"news_language"`
	NewsCountry   string `json:"news_country"`
}

// DefaultConfig returns the built-in defaults overridden by .env and the
// process environment.
func DefaultConfig() *Config {
	currentDir, _ := os.Getwd()
	cfg := DefaultConfigWithRoot(filepath.Join(currentDir, "data"))

	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg.loadFromEnv()

	return cfg
}

// DefaultConfigWithRoot returns the defaults with every path rooted at dataDir.
// The environment is not consulted.
func DefaultConfigWithRoot(dataDir string) *Config {
	return &Config{
		DataDir:  dataDir,
		LogFile:  filepath.Join(dataDir, "logs", "stockpilot.log"),
		LogLevel: "info",

		LLMProvider:   ProviderOpenAI,
		Model:         DefaultModel(ProviderOpenAI),
		BackendURL:    "",
		MaxSteps:      12,
		ShowToolCalls: true,
		VerifyProbe:   true,

		EinoDebugEnabled: false,
		EinoDebugPort:    52538,

		NewsLanguage: "en",
		NewsCountry:  "US",
	}
}

func (c *Config) loadFromEnv() {
	if val := os.Getenv("DATA_DIR"); val != "" {
		c.DataDir = val
		c.LogFile = filepath.Join(val, "logs", "stockpilot.log")
	}
	if val := os.Getenv("STOCKPILOT_LOG_FILE"); val != "" {
		c.LogFile = val
	}
	if val := os.Getenv("STOCKPILOT_LOG_LEVEL"); val != "" {
		c.LogLevel = val
	}

	if val := os.Getenv("LLM_PROVIDER"); val != "" {
		c.LLMProvider = strings.ToLower(val)
		c.Model = DefaultModel(c.LLMProvider)
	}
	if val := os.Getenv("STOCKPILOT_MODEL"); val != "" {
		c.Model = val
	}
	if val := os.Getenv("BACKEND_URL"); val != "" {
		c.BackendURL = val
	}
	if val := os.Getenv("STOCKPILOT_MAX_STEPS"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			c.MaxSteps = v
		}
	}
	if val := os.Getenv("SHOW_TOOL_CALLS"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.ShowToolCalls = enabled
		}
	}
	if val := os.Getenv("VERIFY_PROBE"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.VerifyProbe = enabled
		}
	}

	if val := os.Getenv("EINO_DEBUG_ENABLED"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.EinoDebugEnabled = enabled
		}
	}
	if val := os.Getenv("EINO_DEBUG_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			c.EinoDebugPort = port
		}
	}

	if val := os.Getenv("OPENAI_API_KEY"); val != "" {
		c.OpenAIAPIKey = val
	}
	if val := os.Getenv("DEEPSEEK_API_KEY"); val != "" {
		c.DeepSeekAPIKey = val
	}
	if val := os.Getenv("GEMINI_API_KEY"); val != "" {
		c.GeminiAPIKey = val
	}

	if val := os.Getenv("LONGPORT_APP_KEY"); val != "" {
		c.LongportAppKey = val
	}
	if val := os.Getenv("LONGPORT_APP_SECRET"); val != "" {
		c.LongportAppSecret = val
	}
	if val := os.Getenv("LONGPORT_ACCESS_TOKEN"); val != "" {
		c.LongportAccessToken = val
	}

	if val := os.Getenv("FINNHUB_API_KEY"); val != "" {
		c.FinnhubAPIKey = val
	}
	if val := os.Getenv("NEWS_LANGUAGE"); val != "" {
		c.NewsLanguage = val
	}
	if val := os.Getenv("NEWS_COUNTRY"); val != "" {
		c.NewsCountry = val
	}
}

// ApplySettings copies the persisted, non-secret settings of s onto c.
func (c *Config) ApplySettings(s Config) {
	if s.DataDir != "" {
		c.DataDir = s.DataDir
	}
	if s.LogFile != "" {
		c.LogFile = s.LogFile
	}
	if s.LogLevel != "" {
		c.LogLevel = s.LogLevel
	}
	if s.LLMProvider != "" {
		c.LLMProvider = s.LLMProvider
	}
	if s.Model != "" {
		c.Model = s.Model
	}
	c.BackendURL = s.BackendURL
	if s.MaxSteps > 0 {
		c.MaxSteps = s.MaxSteps
	}
	c.ShowToolCalls = s.ShowToolCalls
	c.VerifyProbe = s.VerifyProbe
	c.EinoDebugEnabled = s.EinoDebugEnabled
	if s.EinoDebugPort > 0 {
		c.EinoDebugPort = s.EinoDebugPort
	}
	if s.NewsLanguage != "" {
		c.NewsLanguage = s.NewsLanguage
	}
	if s.NewsCountry != "" {
		c.NewsCountry = s.NewsCountry
	}
}

// ProviderAPIKey returns the environment credential for the configured provider.
func (c *Config) ProviderAPIKey() string {
	switch c.LLMProvider {
	case ProviderDeepSeek:
		return c.DeepSeekAPIKey
	case ProviderGemini:
		return c.GeminiAPIKey
	default:
		return c.OpenAIAPIKey
	}
}

// ProviderKeyEnv names the environment variable holding the provider credential.
func (c *Config) ProviderKeyEnv() string {
	switch c.LLMProvider {
	case ProviderDeepSeek:
		return "DEEPSEEK_API_KEY"
	case ProviderGemini:
		return "GEMINI_API_KEY"
	default:
		return "OPENAI_API_KEY"
	}
}

func (c *Config) LongportConfigured() bool {
	return c.LongportAppKey != "" && c.LongportAppSecret != "" && c.LongportAccessToken != ""
}

// FinnhubConfigured reports whether analyst recommendations can be served.
// Finnhub is their only source.
func (c *Config) FinnhubConfigured() bool {
	return c.FinnhubAPIKey != ""
}

func (c *Config) Validate() error {
	switch c.LLMProvider {
	case ProviderOpenAI, ProviderDeepSeek, ProviderGemini:
	default:
		return fmt.Errorf("unsupported llm provider %q (use openai, deepseek or gemini)", c.LLMProvider)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("model is required")
	}
	if c.MaxSteps < 1 || c.MaxSteps > 100 {
		return fmt.Errorf("max steps must be between 1 and 100")
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "trace", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unsupported log level %q", c.LogLevel)
	}
	return nil
}

func (c *Config) EnsureDirectories() error {
	dirs := []string{c.DataDir}
	if c.LogFile != "" {
		dirs = append(dirs, filepath.Dir(c.LogFile))
	}
	for _, dir := range dirs {
		path := strings.TrimSpace(dir)
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", path, err)
		}
	}
	return nil
}
