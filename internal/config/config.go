package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for configuration fields.
const (
	DefaultSchemaDir        = "./schema"
	DefaultLockTimeout      = 5 * time.Second
	DefaultStatementTimeout = 30 * time.Second
	DefaultLogMode          = "dev"
)

// Config holds the application configuration loaded from file, environment, and flags.
type Config struct {
	DatabaseURL      string
	SchemaDir        string
	LockTimeout      time.Duration
	StatementTimeout time.Duration
	AllowDestructive bool
	LogMode          string
	RLS              RLSConfig
}

// RLSConfig declares the row-level-security policies reapplied after a
// fully successful migration run. Disabled by default.
type RLSConfig struct {
	Enabled  bool
	Policies []RLSPolicy
}

// RLSPolicy is the file representation of one policy. The rls package
// validates and renders it; config only carries it.
type RLSPolicy struct {
	Name      string
	Table     string
	Command   string
	Using     string
	WithCheck string
}

// yamlConfig is the raw YAML file representation with string durations.
type yamlConfig struct {
	DatabaseURL      string  `yaml:"database_url"`
	SchemaDir        string  `yaml:"schema_dir"`
	LockTimeout      string  `yaml:"lock_timeout"`
	StatementTimeout string  `yaml:"statement_timeout"`
	AllowDestructive bool    `yaml:"allow_destructive"`
	Log              string  `yaml:"log"`
	RLS              yamlRLS `yaml:"rls"`
}

type yamlRLS struct {
	Enabled  bool         `yaml:"enabled"`
	Policies []yamlPolicy `yaml:"policies"`
}

type yamlPolicy struct {
	Name      string `yaml:"name"`
	Table     string `yaml:"table"`
	Command   string `yaml:"command"`
	Using     string `yaml:"using"`
	WithCheck string `yaml:"with_check"`
}

// New returns a Config populated with default values.
func New() *Config {
	return &Config{
		SchemaDir:        DefaultSchemaDir,
		LockTimeout:      DefaultLockTimeout,
		StatementTimeout: DefaultStatementTimeout,
		LogMode:          DefaultLogMode,
	}
}

// Load reads a YAML configuration file and returns a Config.
// If allowMissing is true and the file does not exist, defaults are returned.
func Load(path string, allowMissing bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && allowMissing {
			return New(), nil
		}

		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	var raw yamlConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	return fromYAML(&raw)
}

// fromYAML converts the raw YAML representation to a Config with defaults applied.
func fromYAML(raw *yamlConfig) (*Config, error) {
	cfg := New()

	if raw.DatabaseURL != "" {
		cfg.DatabaseURL = raw.DatabaseURL
	}

	if raw.SchemaDir != "" {
		cfg.SchemaDir = raw.SchemaDir
	}

	if raw.LockTimeout != "" {
		d, err := time.ParseDuration(raw.LockTimeout)
		if err != nil {
			return nil, fmt.Errorf("parsing lock_timeout %q: %w", raw.LockTimeout, err)
		}

		cfg.LockTimeout = d
	}

	if raw.StatementTimeout != "" {
		d, err := time.ParseDuration(raw.StatementTimeout)
		if err != nil {
			return nil, fmt.Errorf("parsing statement_timeout %q: %w", raw.StatementTimeout, err)
		}

		cfg.StatementTimeout = d
	}

	cfg.AllowDestructive = raw.AllowDestructive

	if raw.Log != "" {
		cfg.LogMode = raw.Log
	}

	cfg.RLS.Enabled = raw.RLS.Enabled

	for _, p := range raw.RLS.Policies {
		cfg.RLS.Policies = append(cfg.RLS.Policies, RLSPolicy{
			Name:      p.Name,
			Table:     p.Table,
			Command:   p.Command,
			Using:     p.Using,
			WithCheck: p.WithCheck,
		})
	}

	return cfg, nil
}

// MergeEnv overrides config fields from SCHEMANAUT_* environment variables.
func MergeEnv(cfg *Config) {
	if v := os.Getenv("SCHEMANAUT_DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}

	if v := os.Getenv("SCHEMANAUT_SCHEMA_DIR"); v != "" {
		cfg.SchemaDir = v
	}

	if v := os.Getenv("SCHEMANAUT_LOCK_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.LockTimeout = d
		}
	}

	if v := os.Getenv("SCHEMANAUT_STATEMENT_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.StatementTimeout = d
		}
	}

	if v := os.Getenv("SCHEMANAUT_ALLOW_DESTRUCTIVE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.AllowDestructive = b
		}
	}

	if v := os.Getenv("SCHEMANAUT_LOG"); v != "" {
		cfg.LogMode = v
	}
}
