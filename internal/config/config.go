// Package config loads runtime settings from a TOML file overlaid with
// environment variables. Environment always wins, so credentials can be
// injected by the MCP client without touching the file.
package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
)

// File layout under the user's home directory.
const (
	configDirName  = ".unified-history"
	configFileName = "config.toml"
)

// Config holds everything the binary needs at startup.
type Config struct {
	// SessionKey authenticates claude.ai API calls. Empty disables the
	// remote source entirely.
	SessionKey string `toml:"session_key"`

	// OrganizationID skips organization discovery when set.
	OrganizationID string `toml:"organization_id"`

	// RemoteEnabled force-disables the remote source even when a session
	// key is present. Nil means enabled.
	RemoteEnabled *bool `toml:"remote_enabled"`

	// HistoryRoot overrides the local log tree location. Empty means
	// ~/.claude/projects.
	HistoryRoot string `toml:"history_root"`

	Log LogConfig `toml:"log"`
}

// LogConfig mirrors logging.Config in TOML form.
type LogConfig struct {
	Dir        string `toml:"dir"`
	Level      string `toml:"level"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
}

// Path returns the config file location, or empty when home cannot be
// resolved.
func Path() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, configDirName, configFileName)
}

// Load reads the config file if present and applies environment overrides.
// A missing file is not an error; a malformed one is.
func Load() (*Config, error) {
	return load(Path())
}

func load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, cfg); err != nil {
				return nil, err
			}
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("CLAUDE_SESSION_KEY"); v != "" {
		c.SessionKey = v
	}
	if v := os.Getenv("CLAUDE_ORG_ID"); v != "" {
		c.OrganizationID = v
	}
	if v := os.Getenv("CLAUDE_REMOTE_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			c.RemoteEnabled = &enabled
		}
	}
	if v := os.Getenv("CLAUDE_HISTORY_ROOT"); v != "" {
		c.HistoryRoot = v
	}
	if v := os.Getenv("UNIFIED_HISTORY_LOG_DIR"); v != "" {
		c.Log.Dir = v
	}
	if v := os.Getenv("UNIFIED_HISTORY_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// RemoteActive reports whether the remote source should be constructed:
// a session key is present and remote access is not force-disabled.
func (c *Config) RemoteActive() bool {
	if c.SessionKey == "" {
		return false
	}
	return c.RemoteEnabled == nil || *c.RemoteEnabled
}
