package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joescharf/cro/internal/analyzer"
	"github.com/joescharf/cro/internal/checklist"
	"github.com/joescharf/cro/internal/feedback"
	"github.com/joescharf/cro/internal/fetch"
	"github.com/joescharf/cro/internal/models"
	"github.com/joescharf/cro/internal/output"
	"github.com/joescharf/cro/internal/rules"
	"github.com/joescharf/cro/internal/store"
)

// Package-level shared dependencies, initialized in cobra.OnInitialize.
var (
	ui            *output.UI
	dataStore     store.Store
	feedbackStore *feedback.Store

	verbose bool
	dryRun  bool
)

var rootCmd = &cobra.Command{
	Use:   "cro",
	Short: "CRO landing page evaluator",
	Long: `cro checks a landing page against a conversion-rate-optimization checklist.

Each run fetches the page, applies the automated checks, merges them with
the checklist and scores the result. Ratings given with 'cro feedback'
teach it which checklist tips matter, and future checklists are reordered
accordingly.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
}

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initDeps)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "n", false, "Show what would happen without making changes")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.config/cro/config.yaml)")
}

func initConfig() {
	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot find home directory: %v\n", err)
			os.Exit(1)
		}

		viper.AddConfigPath(filepath.Join(home, ".config", "cro"))
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("CRO")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	home, _ := os.UserHomeDir()
	setDefaults(filepath.Join(home, ".config", "cro"))

	// Read config file if it exists (optional)
	_ = viper.ReadInConfig()
}

// setDefaults registers every config key with its default value.
func setDefaults(stateDir string) {
	viper.SetDefault("state_dir", stateDir)
	viper.SetDefault("db_path", filepath.Join(stateDir, "cro.db"))
	viper.SetDefault("feedback.log_path", filepath.Join(stateDir, "feedback.jsonl"))
	viper.SetDefault("feedback.stats_path", filepath.Join(stateDir, "feedback_stats.json"))
	viper.SetDefault("weighting.alpha", 1.0)
	viper.SetDefault("checklist.path", "")
	viper.SetDefault("fetch.timeout", "20s")
	viper.SetDefault("fetch.retries", 2)
	viper.SetDefault("fetch.user_agent", fetch.DefaultUserAgent)
	viper.SetDefault("fetch.cache_ttl", "5m")
	viper.SetDefault("cta.fold_chars", rules.DefaultFoldChars)
	viper.SetDefault("cta.words", rules.DefaultCTAWords)
	viper.SetDefault("rules.disabled", []string{})
	viper.SetDefault("analyze.concurrency", analyzer.DefaultConcurrency)
	viper.SetDefault("port", 8080)
}

func initDeps() {
	ui = output.New()
	ui.Verbose = verbose
	ui.DryRun = dryRun

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	// Stores are opened lazily so config/version run without touching disk.
}

// getStore returns the shared store, initializing it on first call.
func getStore() (store.Store, error) {
	if dataStore != nil {
		return dataStore, nil
	}

	s, err := store.NewSQLiteStore(viper.GetString("db_path"))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	ctx := rootCmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	dataStore = s
	return dataStore, nil
}

// getFeedbackStore returns the shared feedback store.
func getFeedbackStore() (*feedback.Store, error) {
	if feedbackStore != nil {
		return feedbackStore, nil
	}

	logPath := viper.GetString("feedback.log_path")
	statsPath := viper.GetString("feedback.stats_path")
	for _, p := range []string{logPath, statsPath} {
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			return nil, fmt.Errorf("create feedback directory: %w", err)
		}
	}

	feedbackStore = feedback.NewStore(logPath, statsPath)
	return feedbackStore, nil
}

// loadChecklist loads the checklist at path, falling back to checklist.path
// and then to the built-in checklist.
func loadChecklist(path string) (*checklist.Checklist, error) {
	if path == "" {
		path = viper.GetString("checklist.path")
	}
	cl, err := checklist.Load(path)
	if err != nil {
		return nil, err
	}
	if path == "" {
		ui.VerboseLog("Using built-in checklist (%d items)", cl.Len())
	} else {
		ui.VerboseLog("Loaded checklist %s (%d items)", path, cl.Len())
	}
	return cl, nil
}

// newEngine builds the rule engine from the cta.* and rules.* keys.
func newEngine() (*rules.Engine, error) {
	cfg := rules.Config{
		FoldChars: viper.GetInt("cta.fold_chars"),
		CTAWords:  viper.GetStringSlice("cta.words"),
	}
	for _, name := range viper.GetStringSlice("rules.disabled") {
		n := models.CheckName(strings.TrimSpace(name))
		if !n.Valid() {
			return nil, fmt.Errorf("rules.disabled: unknown check %q", name)
		}
		cfg.Disabled = append(cfg.Disabled, n)
	}
	return rules.NewEngine(cfg), nil
}

func newFetcher() *fetch.Client {
	return fetch.New(fetch.Options{
		Timeout:   viper.GetDuration("fetch.timeout"),
		Retries:   viper.GetInt("fetch.retries"),
		UserAgent: viper.GetString("fetch.user_agent"),
		CacheTTL:  viper.GetDuration("fetch.cache_ttl"),
	})
}

// newAnalyzer wires the fetcher, rule engine, checklist and feedback
// statistics. checklistPath may be empty.
func newAnalyzer(checklistPath string) (*analyzer.Analyzer, *feedback.Store, error) {
	engine, err := newEngine()
	if err != nil {
		return nil, nil, err
	}
	cl, err := loadChecklist(checklistPath)
	if err != nil {
		return nil, nil, err
	}
	fb, err := getFeedbackStore()
	if err != nil {
		return nil, nil, err
	}

	a := analyzer.New(newFetcher(), engine, cl, fb, analyzer.Options{
		Alpha:       viper.GetFloat64("weighting.alpha"),
		Concurrency: viper.GetInt("analyze.concurrency"),
	})
	return a, fb, nil
}
