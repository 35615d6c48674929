package cmd

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var configForce bool

// configDirFunc returns the config directory path, replaceable in tests.
var configDirFunc = defaultConfigDir

func defaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "cro"), nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or manage configuration",
	Long: `Show or manage cro configuration.

Running bare 'cro config' is the same as 'cro config show'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create config file with commented defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configInitRun()
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration with sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open config file in $EDITOR",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configEditRun()
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite existing config file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	rootCmd.AddCommand(configCmd)
}

// configTemplate is the template for generating config.yaml with comments.
const configTemplate = `# cro configuration
# See: cro config show (for effective values and sources)

# State/data directory (default: ~/.config/cro)
# state_dir: {{ .StateDir }}

# SQLite run history (default: ~/.config/cro/cro.db)
# db_path: {{ .DBPath }}

# Feedback event log and derived per-tip statistics
feedback:
  log_path: "{{ .FeedbackLogPath }}"
  stats_path: "{{ .FeedbackStatsPath }}"

# Learned weights: weight = alpha * min(1, n/10) * mean_reward
weighting:
  alpha: {{ .Alpha }}

# Checklist file (.xlsx, .csv, .yaml); empty uses the built-in checklist
checklist:
  path: "{{ .ChecklistPath }}"

# Page download
fetch:
  timeout: {{ .FetchTimeout }}
  retries: {{ .FetchRetries }}
  user_agent: "{{ .UserAgent }}"
  cache_ttl: {{ .CacheTTL }}

# Call-to-action detection
cta:
  # Characters of the serialized body that count as above the fold
  fold_chars: {{ .FoldChars }}
  # Action words that mark a link as a CTA
  words:
{{- range .CTAWords }}
    - "{{ . }}"
{{- end }}

# Automated checks to skip, e.g. [canonical, analytics]
rules:
  disabled: [{{ .Disabled }}]

# Parallel page analyses for multi-URL runs
analyze:
  concurrency: {{ .Concurrency }}

# API server port
port: {{ .Port }}
`

type configTemplateData struct {
	StateDir          string
	DBPath            string
	FeedbackLogPath   string
	FeedbackStatsPath string
	Alpha             float64
	ChecklistPath     string
	FetchTimeout      string
	FetchRetries      int
	UserAgent         string
	CacheTTL          string
	FoldChars         int
	CTAWords          []string
	Disabled          string
	Concurrency       int
	Port              int
}

func configFilePath() (string, error) {
	dir, err := configDirFunc()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func configInitRun() error {
	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	// Check if file already exists
	if _, err := os.Stat(cfgPath); err == nil {
		if !configForce {
			return fmt.Errorf("config file already exists: %s (use --force to overwrite)", cfgPath)
		}
		ui.Warning("Overwriting existing config file")
	}

	// Build template data from current viper values
	data := configTemplateData{
		StateDir:          viper.GetString("state_dir"),
		DBPath:            viper.GetString("db_path"),
		FeedbackLogPath:   viper.GetString("feedback.log_path"),
		FeedbackStatsPath: viper.GetString("feedback.stats_path"),
		Alpha:             viper.GetFloat64("weighting.alpha"),
		ChecklistPath:     viper.GetString("checklist.path"),
		FetchTimeout:      viper.GetDuration("fetch.timeout").String(),
		FetchRetries:      viper.GetInt("fetch.retries"),
		UserAgent:         viper.GetString("fetch.user_agent"),
		CacheTTL:          viper.GetDuration("fetch.cache_ttl").String(),
		FoldChars:         viper.GetInt("cta.fold_chars"),
		CTAWords:          viper.GetStringSlice("cta.words"),
		Disabled:          strings.Join(viper.GetStringSlice("rules.disabled"), ", "),
		Concurrency:       viper.GetInt("analyze.concurrency"),
		Port:              viper.GetInt("port"),
	}

	tmpl, err := template.New("config").Parse(configTemplate)
	if err != nil {
		return fmt.Errorf("template parse error: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("template execute error: %w", err)
	}

	if dryRun {
		ui.DryRunMsg("Would create config file: %s", cfgPath)
		fmt.Fprintln(ui.Out)
		fmt.Fprint(ui.Out, buf.String())
		return nil
	}

	// Create config directory
	dir := filepath.Dir(cfgPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(cfgPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	ui.Success("Config file created: %s", cfgPath)
	fmt.Fprintln(ui.Out)
	fmt.Fprint(ui.Out, buf.String())
	return nil
}

// configKeyInfo describes a config key for display purposes.
type configKeyInfo struct {
	Key    string
	EnvVar string
}

var configKeys = []configKeyInfo{
	{Key: "state_dir", EnvVar: "CRO_STATE_DIR"},
	{Key: "db_path", EnvVar: "CRO_DB_PATH"},
	{Key: "feedback.log_path", EnvVar: "CRO_FEEDBACK_LOG_PATH"},
	{Key: "feedback.stats_path", EnvVar: "CRO_FEEDBACK_STATS_PATH"},
	{Key: "weighting.alpha", EnvVar: "CRO_WEIGHTING_ALPHA"},
	{Key: "checklist.path", EnvVar: "CRO_CHECKLIST_PATH"},
	{Key: "fetch.timeout", EnvVar: "CRO_FETCH_TIMEOUT"},
	{Key: "fetch.retries", EnvVar: "CRO_FETCH_RETRIES"},
	{Key: "fetch.user_agent", EnvVar: "CRO_FETCH_USER_AGENT"},
	{Key: "fetch.cache_ttl", EnvVar: "CRO_FETCH_CACHE_TTL"},
	{Key: "cta.fold_chars", EnvVar: "CRO_CTA_FOLD_CHARS"},
	{Key: "cta.words", EnvVar: "CRO_CTA_WORDS"},
	{Key: "rules.disabled", EnvVar: "CRO_RULES_DISABLED"},
	{Key: "analyze.concurrency", EnvVar: "CRO_ANALYZE_CONCURRENCY"},
	{Key: "port", EnvVar: "CRO_PORT"},
}

func configShowRun() error {
	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	// Check if config file exists
	if _, err := os.Stat(cfgPath); err == nil {
		ui.Info("Config file: %s", cfgPath)
	} else {
		ui.Info("Config file: (none)")
	}
	fmt.Fprintln(ui.Out)

	// Read config file values to determine file source
	fileValues := readConfigFileValues(cfgPath)

	for _, k := range configKeys {
		val := viper.Get(k.Key)
		source := detectSource(k.Key, k.EnvVar, fileValues)
		fmt.Fprintf(ui.Out, "  %-22s %v  %s\n", k.Key, val, source)
	}

	return nil
}

// readConfigFileValues reads the raw YAML file and returns a flat map of keys present in it.
func readConfigFileValues(path string) map[string]bool {
	result := make(map[string]bool)

	data, err := os.ReadFile(path)
	if err != nil {
		return result
	}

	var parsed map[string]any
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return result
	}

	// Flatten nested keys with dot notation
	flattenKeys("", parsed, result)
	return result
}

// flattenKeys recursively flattens a nested map to dot-notation keys.
func flattenKeys(prefix string, m map[string]any, result map[string]bool) {
	for key, val := range m {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}
		if nested, ok := val.(map[string]any); ok {
			flattenKeys(fullKey, nested, result)
		} else {
			result[fullKey] = true
		}
	}
}

// detectSource determines where a config value is coming from.
func detectSource(key, envVar string, fileValues map[string]bool) string {
	if _, ok := os.LookupEnv(envVar); ok {
		return fmt.Sprintf("(env: %s)", envVar)
	}
	if fileValues[key] {
		return "(file)"
	}
	return "(default)"
}

func configEditRun() error {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	if editor == "" {
		return fmt.Errorf("$EDITOR is not set; set it to your preferred editor (e.g. export EDITOR=vim)")
	}

	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s (run 'cro config init' first)", cfgPath)
	}

	if dryRun {
		ui.DryRunMsg("Would open %s in %s", cfgPath, editor)
		return nil
	}

	editCmd := exec.Command(editor, cfgPath)
	editCmd.Stdin = os.Stdin
	editCmd.Stdout = os.Stdout
	editCmd.Stderr = os.Stderr
	return editCmd.Run()
}
