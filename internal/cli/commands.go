package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dyike/StockPilot/config"
	"github.com/dyike/StockPilot/internal/analysis"
	"github.com/dyike/StockPilot/internal/debug"
	"github.com/dyike/StockPilot/internal/storage"
)

// Version is set at build time.
var Version = "v0.3.0"

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	return newRootCmd(newApp())
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "stockpilot",
		Short: "StockPilot - AI Investment Analysis Dashboard",
		Long: `StockPilot is a terminal dashboard for AI-powered stock analysis.
Compare two stocks or analyze one with a hosted LLM that pulls real-time
market data, analyst recommendations and company news.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// Default behavior: start the dashboard
			return a.runDashboard(cmd.Context())
		},
	}

	rootCmd.AddCommand(newCompareCmd(a))
	rootCmd.AddCommand(newAnalyzeCmd(a))
	rootCmd.AddCommand(newVerifyCmd(a))
	rootCmd.AddCommand(newDataCmd(a))
	rootCmd.AddCommand(newAuditCmd(a))
	rootCmd.AddCommand(newConfigCmd(a))
	rootCmd.AddCommand(newVersionCmd())

	// Global flags
	rootCmd.PersistentFlags().StringVar(&a.flags.configPath, "config", "", "Settings file path (default: user config dir)")
	rootCmd.PersistentFlags().BoolVar(&a.flags.debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&a.flags.noInput, "no-input", false, "Never prompt; fail or use defaults instead")

	return rootCmd
}

func newCompareCmd(a *app) *cobra.Command {
	var kind, apiKey string

	cmd := &cobra.Command{
		Use:   "compare [SYMBOL_A] [SYMBOL_B]",
		Short: "Compare two stocks",
		Long: `Compare two stocks with the AI assistant.
Example: stockpilot compare AAPL MSFT --kind price`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			symbols, err := a.symbols(args, 2)
			if err != nil {
				return err
			}
			k, err := a.resolveKind(kind)
			if err != nil {
				return err
			}
			sess, err := a.connect(cmd.Context(), apiKey)
			if err != nil {
				return err
			}
			return a.runAnalysis(cmd.Context(), sess, analysis.Request{Symbols: symbols, Kind: k})
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", "", "Analysis type: full, price, fundamentals or news (prompted when omitted)")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "Provider API key (default: provider environment variable)")
	return cmd
}

func newAnalyzeCmd(a *app) *cobra.Command {
	var metrics []string
	var apiKey string

	cmd := &cobra.Command{
		Use:   "analyze [SYMBOL]",
		Short: "Analyze a single stock",
		Long: `Analyze one stock with the AI assistant, focusing on the chosen metrics.
Example: stockpilot analyze GOOGL --metrics "Price Trends" --metrics news`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			symbols, err := a.symbols(args, 1)
			if err != nil {
				return err
			}
			selected, err := a.resolveMetrics(metrics)
			if err != nil {
				return err
			}
			sess, err := a.connect(cmd.Context(), apiKey)
			if err != nil {
				return err
			}
			req := analysis.Request{
				Symbols: symbols,
				Metrics: analysis.MetricLabels(selected),
			}
			return a.runAnalysis(cmd.Context(), sess, req)
		},
	}

	cmd.Flags().StringSliceVarP(&metrics, "metrics", "m", nil, "Metrics to focus on, in order (prompted when omitted)")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "Provider API key (default: provider environment variable)")
	return cmd
}

func newVerifyCmd(a *app) *cobra.Command {
	var apiKey string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check an API key and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := a.connect(cmd.Context(), apiKey)
			return err
		},
	}
	cmd.Flags().StringVar(&apiKey, "api-key", "", "Provider API key (default: provider environment variable)")
	return cmd
}

func newAuditCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show recent API key verification attempts",
		Long: `Show recent API key verification attempts: provider, model, outcome and
latency. Keys are never stored.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.audit == nil {
				return fmt.Errorf("verification audit is unavailable, see %s", a.cfg.LogFile)
			}
			records, err := a.audit.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				displayInfo(a.out, "No verification attempts yet.")
				return nil
			}
			fmt.Fprintln(a.out, titleStyle.Render("🔑 Verification Audit"))
			for _, r := range records {
				status := completedStyle.Render("✓ " + r.Status)
				if r.Status != storage.StatusVerified {
					status = errorStyle.Render("✗ " + r.Status)
				}
				fmt.Fprintf(a.out, "%s  %-8s %-20s %5.1fs  %s\n",
					r.CreatedAt.Local().Format("2006-01-02 15:04"),
					r.Provider,
					r.Model,
					r.Duration.Seconds(),
					status,
				)
				if r.Error != "" {
					fmt.Fprintln(a.out, mutedStyle.Render("    "+r.Error))
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of attempts to show")
	return cmd
}

// newVersionCmd creates the version command
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "StockPilot "+Version)
			fmt.Fprintln(cmd.OutOrStdout(), "AI Investment Analysis Dashboard")
		},
	}
}

// newConfigCmd creates the config command
func newConfigCmd(a *app) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "Show, change and validate StockPilot settings",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			showConfig(a.out, a.cfg, a.settings.Path())
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the settings file path",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(a.out, a.settings.Path())
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Change a setting (e.g. llm_provider gemini)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.settings.Set(args[0], args[1]); err != nil {
				return err
			}
			displaySuccess(a.out, fmt.Sprintf("%s set to %s", args[0], args[1]))
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration and dependencies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return validateConfig(a.out, a.cfg)
		},
	})

	return configCmd
}

// showConfig displays the current configuration
func showConfig(w io.Writer, cfg *config.Config, settingsPath string) {
	fmt.Fprintln(w, titleStyle.Render("📋 Current StockPilot Configuration"))
	fmt.Fprintln(w, "═══════════════════════════════════════")
	fmt.Fprintf(w, "Settings File:        %s\n", settingsPath)
	fmt.Fprintf(w, "Data Directory:       %s\n", cfg.DataDir)
	fmt.Fprintf(w, "Log File:             %s\n", cfg.LogFile)
	fmt.Fprintf(w, "Log Level:            %s\n", cfg.LogLevel)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "LLM Provider:         %s\n", cfg.LLMProvider)
	fmt.Fprintf(w, "Model:                %s\n", cfg.Model)
	if cfg.BackendURL != "" {
		fmt.Fprintf(w, "Backend URL:          %s\n", cfg.BackendURL)
	}
	fmt.Fprintf(w, "Max Tool Steps:       %d\n", cfg.MaxSteps)
	fmt.Fprintf(w, "Show Tool Calls:      %t\n", cfg.ShowToolCalls)
	fmt.Fprintf(w, "Verify Probe:         %t\n", cfg.VerifyProbe)
	fmt.Fprintf(w, "News Locale:          %s-%s\n", cfg.NewsLanguage, cfg.NewsCountry)
	fmt.Fprintf(w, "Eino Debug:           %t\n", cfg.EinoDebugEnabled)
	if url := debug.NewEinoDebugger(cfg).GetDebugURL(); url != "" {
		fmt.Fprintf(w, "Debug URL:            %s\n", url)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "🔌 API Configuration:")
	fmt.Fprintln(w, "─────────────────────")
	fmt.Fprintln(w, statusLine(providerName(cfg.LLMProvider)+" API", cfg.ProviderAPIKey() != ""))
	fmt.Fprintln(w, statusLine("Finnhub API", cfg.FinnhubAPIKey != ""))
	fmt.Fprintln(w, statusLine("Longport API", cfg.LongportConfigured()))
}

// validateConfig validates the configuration and dependencies
func validateConfig(w io.Writer, cfg *config.Config) error {
	fmt.Fprintln(w, titleStyle.Render("🔍 Validating StockPilot Configuration..."))
	fmt.Fprintln(w, "═══════════════════════════════════════")

	fmt.Fprint(w, "📁 Checking directories... ")
	if err := cfg.EnsureDirectories(); err != nil {
		fmt.Fprintln(w, "❌")
		return fmt.Errorf("directory validation failed: %w", err)
	}
	fmt.Fprintln(w, "✅")

	fmt.Fprint(w, "⚙️  Checking configuration values... ")
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(w, "❌")
		return fmt.Errorf("configuration invalid: %w", err)
	}
	fmt.Fprintln(w, "✅")

	fmt.Fprint(w, "🔑 Checking API keys... ")
	warnings := configWarnings(cfg)
	if len(warnings) == 0 {
		fmt.Fprintln(w, "✅")
	} else {
		fmt.Fprintln(w, "⚠️")
		for _, warning := range warnings {
			displayWarning(w, warning)
		}
	}

	fmt.Fprintln(w)
	if len(warnings) == 0 {
		displaySuccess(w, "Configuration validation completed successfully!")
		return nil
	}
	fmt.Fprintf(w, "Configuration validation completed with %d warnings.\n", len(warnings))
	fmt.Fprintln(w, "Some features may be limited without proper API configuration.")
	return nil
}

func configWarnings(cfg *config.Config) []string {
	var warnings []string
	if cfg.ProviderAPIKey() == "" {
		warnings = append(warnings, fmt.Sprintf("%s not set; the API key will be asked for at verification", cfg.ProviderKeyEnv()))
	}
	if cfg.FinnhubAPIKey == "" {
		warnings = append(warnings, "FINNHUB_API_KEY not set; analyst recommendations are unavailable")
	}
	if !cfg.LongportConfigured() {
		warnings = append(warnings, "Longport credentials not set; quotes come from Yahoo Finance only")
	}
	if strings.TrimSpace(cfg.BackendURL) != "" && !strings.HasPrefix(cfg.BackendURL, "http") {
		warnings = append(warnings, fmt.Sprintf("backend URL %q does not look like an http(s) URL", cfg.BackendURL))
	}
	return warnings
}
