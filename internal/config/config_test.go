package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, k := range []string{"PORT", "DB", "LOG_DIR", "LOG_LEVEL", "RULES"} {
		// Setenv restores the old value after the test.
		t.Setenv(Prefix+"_"+k, "")
		os.Unsetenv(Prefix + "_" + k)
	}

	cfg, err := Load()
	require.NoError(t, err)
	dir := filepath.Join(home, ".local", "share", "attention-cleaner")
	assert.Equal(t, 19192, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, filepath.Join(dir, "attention-cleaner.db"), cfg.DB)
	assert.Equal(t, dir, cfg.LogDir)
	assert.Empty(t, cfg.Rules)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ATTENTION_CLEANER_PORT", "20000")
	t.Setenv("ATTENTION_CLEANER_DB", "/tmp/ac.db")
	t.Setenv("ATTENTION_CLEANER_LOG_DIR", "/tmp/logs")
	t.Setenv("ATTENTION_CLEANER_LOG_LEVEL", "debug")
	t.Setenv("ATTENTION_CLEANER_RULES", "/tmp/rules.yaml")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, &Config{
		Port:     20000,
		DB:       "/tmp/ac.db",
		LogDir:   "/tmp/logs",
		LogLevel: "debug",
		Rules:    "/tmp/rules.yaml",
	}, cfg)
}

func TestLoadBadPort(t *testing.T) {
	t.Setenv("ATTENTION_CLEANER_PORT", "not-a-port")
	_, err := Load()
	assert.Error(t, err)
}
