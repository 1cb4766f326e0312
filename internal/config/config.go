// Package config loads schedupdate's run defaults from a YAML file and
// SCHEDUPDATE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"schedupdate/internal/fields"
	"schedupdate/internal/prefs"
	"schedupdate/internal/reconcile"
	"schedupdate/internal/render"
)

// EnvPrefix prefixes every environment override, e.g. SCHEDUPDATE_THRESHOLD
// or SCHEDUPDATE_STORE_BACKEND.
const EnvPrefix = "SCHEDUPDATE"

// FileName is the config file looked up in the working directory.
const FileName = "schedupdate.yaml"

// Config holds all schedupdate configuration.
type Config struct {
	// Run defaults
	Threshold         int      `mapstructure:"threshold" yaml:"threshold"`
	UseBaseline       bool     `mapstructure:"use_baseline" yaml:"use_baseline"`
	IncludeMilestones bool     `mapstructure:"include_milestones" yaml:"include_milestones"`
	IncludeSummary    bool     `mapstructure:"include_summary" yaml:"include_summary"`
	GroupBy           string   `mapstructure:"group_by" yaml:"group_by"`
	Deadline          string   `mapstructure:"deadline" yaml:"deadline"`
	LowFloatDays      float64  `mapstructure:"low_float_days" yaml:"low_float_days"`
	SignOff           []string `mapstructure:"sign_off" yaml:"sign_off"`

	Store StoreConfig `mapstructure:"store" yaml:"store"`
	Log   LogConfig   `mapstructure:"log" yaml:"log"`

	// Source is the file the config was read from, "" for defaults only.
	Source string `mapstructure:"-" yaml:"-"`
}

// StoreConfig selects the preferences backend.
type StoreConfig struct {
	Backend string `mapstructure:"backend" yaml:"backend"` // file, sqlite, none
	Dir     string `mapstructure:"dir" yaml:"dir"`
}

// LogConfig configures zap.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	JSON  bool   `mapstructure:"json" yaml:"json"`
}

// DefaultDir is $HOME/.schedupdate, or .schedupdate when there is no home.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".schedupdate"
	}
	return filepath.Join(home, ".schedupdate")
}

// DefaultPath is the user-level config file.
func DefaultPath() string {
	return filepath.Join(DefaultDir(), "config.yaml")
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Threshold:    int(reconcile.DefaultThreshold),
		UseBaseline:  true,
		Deadline:     render.DefaultDeadline,
		LowFloatDays: reconcile.DefaultLowFloatDays,
		SignOff:      append([]string(nil), render.DefaultSignOff...),
		Store: StoreConfig{
			Backend: prefs.BackendFile,
			Dir:     DefaultDir(),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("threshold", d.Threshold)
	v.SetDefault("use_baseline", d.UseBaseline)
	v.SetDefault("include_milestones", d.IncludeMilestones)
	v.SetDefault("include_summary", d.IncludeSummary)
	v.SetDefault("group_by", d.GroupBy)
	v.SetDefault("deadline", d.Deadline)
	v.SetDefault("low_float_days", d.LowFloatDays)
	v.SetDefault("sign_off", d.SignOff)
	v.SetDefault("store.backend", d.Store.Backend)
	v.SetDefault("store.dir", d.Store.Dir)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.json", d.Log.JSON)
}

// Load layers defaults < config file < environment.
//
// With an explicit path the file must exist. Otherwise ./schedupdate.yaml
// and then DefaultPath() are tried, and having neither is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	source := path
	if source == "" {
		source = discover()
	} else if _, err := os.Stat(source); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if source != "" {
		v.SetConfigFile(source)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", source, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.Source = source
	cfg.Store.Dir = expandHome(cfg.Store.Dir)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func discover() string {
	for _, p := range []string{FileName, DefaultPath()} {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

// ErrExists is returned by Save when the file exists and overwrite is off.
var ErrExists = errors.New("config file already exists")

// Save writes the configuration as YAML.
func (c *Config) Save(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrExists, path)
		}
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

var validBackends = []string{prefs.BackendFile, prefs.BackendSQLite, prefs.BackendNone}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Threshold < 0 || c.Threshold > 100 {
		return fmt.Errorf("threshold %d out of range [0, 100]", c.Threshold)
	}
	if c.LowFloatDays < 0 {
		return fmt.Errorf("low_float_days must be non-negative, got %v", c.LowFloatDays)
	}
	if c.GroupBy != "" && !fields.IsKnown(fields.Key(c.GroupBy)) {
		return fmt.Errorf("group_by: unknown field key %q", c.GroupBy)
	}

	validBackend := false
	for _, b := range validBackends {
		if c.Store.Backend == b {
			validBackend = true
			break
		}
	}
	if !validBackend {
		return fmt.Errorf("invalid store backend: %s (valid: %v)", c.Store.Backend, validBackends)
	}
	if c.Store.Backend != prefs.BackendNone && strings.TrimSpace(c.Store.Dir) == "" {
		return errors.New("store.dir is required")
	}

	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}
