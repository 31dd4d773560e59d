package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
)

// Prefix of every environment variable, e.g. ATTENTION_CLEANER_PORT.
const Prefix = "ATTENTION_CLEANER"

// Config holds the settings shared by all subcommands. Flags override
// these per subcommand.
type Config struct {
	// Port is the WebSocket port the extension connects to.
	Port int `envconfig:"PORT" default:"19192"`
	// DB is the SQLite store path. Empty means DataDir/attention-cleaner.db.
	DB string `envconfig:"DB"`
	// LogDir is where the log file is written. Empty means DataDir.
	LogDir   string `envconfig:"LOG_DIR"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	// Rules is an optional YAML file overlaying the built-in rule table.
	Rules string `envconfig:"RULES"`
}

// Load reads configuration from the environment and fills in path
// defaults.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.DB == "" || cfg.LogDir == "" {
		dir, err := DataDir()
		if err != nil {
			return nil, err
		}
		if cfg.DB == "" {
			cfg.DB = filepath.Join(dir, "attention-cleaner.db")
		}
		if cfg.LogDir == "" {
			cfg.LogDir = dir
		}
	}
	return &cfg, nil
}

// DataDir returns ~/.local/share/attention-cleaner.
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "attention-cleaner"), nil
}

// Usage writes the recognized environment variables to stderr.
func Usage() error {
	var cfg Config
	return envconfig.Usage(Prefix, &cfg)
}
