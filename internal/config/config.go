// Copyright (c) 2026 Keymaster Team
// Keymaster - SSH key management system
// This source code is licensed under the MIT license found in the LICENSE file.

// Package config loads knownhosts settings from defaults, YAML files,
// KNOWNHOSTS_* environment variables and command-line flags, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// DefaultKnownHostsFile is the system-wide trust store.
const DefaultKnownHostsFile = "/etc/ssh/ssh_known_hosts"

// Config is the resolved configuration for one invocation.
type Config struct {
	File     string `mapstructure:"file" yaml:"file"`
	Language string `mapstructure:"language" yaml:"language"`

	Scan struct {
		Command string        `mapstructure:"command" yaml:"command"`
		Opts    string        `mapstructure:"opts" yaml:"opts"`
		File    string        `mapstructure:"file" yaml:"file,omitempty"`
		Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
	} `mapstructure:"scan" yaml:"scan"`

	Reconcile struct {
		StopOnMatch bool `mapstructure:"stop_on_match" yaml:"stop_on_match"`
	} `mapstructure:"reconcile" yaml:"reconcile"`

	Backup struct {
		Dir string `mapstructure:"dir" yaml:"dir,omitempty"`
	} `mapstructure:"backup" yaml:"backup"`

	Audit struct {
		Type string `mapstructure:"type" yaml:"type"`
		Dsn  string `mapstructure:"dsn" yaml:"dsn,omitempty"`
	} `mapstructure:"audit" yaml:"audit"`
}

// Defaults returns the built-in value of every configuration key.
func Defaults() map[string]any {
	return map[string]any{
		"file":                    DefaultKnownHostsFile,
		"language":                "en",
		"scan.command":            "ssh-keyscan",
		"scan.opts":               "",
		"scan.file":               "",
		"scan.timeout":            "0s",
		"reconcile.stop_on_match": false,
		"backup.dir":              "",
		"audit.type":              "sqlite",
		"audit.dsn":               "",
	}
}

// GetConfigPath returns the full path for the configuration file.
func GetConfigPath(system bool) (string, error) {
	var configDir string
	var err error

	if system {
		switch runtime.GOOS {
		case "windows":
			configDir = filepath.Join(os.Getenv("ProgramData"), "Keymaster")
		default:
			configDir = "/etc/keymaster"
		}
	} else {
		configDir, err = os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("could not get user config directory: %w", err)
		}
		configDir = filepath.Join(configDir, "keymaster")
	}

	return filepath.Join(configDir, "knownhosts.yaml"), nil
}

// LoadConfig resolves a T from defaults, the first knownhosts.yaml found
// (or configFile when given), the environment and the flags of cmd.
// bindings maps configuration keys to flag names; only flags the user
// actually set override lower layers.
func LoadConfig[T any](cmd *cobra.Command, defaults map[string]any, bindings map[string]string, configFile *string) (T, error) {
	var c T
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("knownhosts")
	v.SetConfigType("yaml")
	if configFile != nil {
		v.SetConfigFile(*configFile)
	}
	if userConfigPath, err := GetConfigPath(false); err == nil {
		v.AddConfigPath(filepath.Dir(userConfigPath))
	}
	if systemConfigPath, err := GetConfigPath(true); err == nil {
		v.AddConfigPath(filepath.Dir(systemConfigPath))
	}
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine; the defaults apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return c, err
		}
	}

	v.SetEnvPrefix("knownhosts")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, flag := range bindings {
		f := cmd.Flags().Lookup(flag)
		if f == nil {
			return c, fmt.Errorf("config key %s bound to unknown flag --%s", key, flag)
		}
		if err := v.BindPFlag(key, f); err != nil {
			return c, err
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	return c, nil
}

// WriteConfigFile stores c as YAML at the user (or system) config path and
// returns the path written.
func WriteConfigFile[T any](c *T, system bool) (string, error) {
	path, err := GetConfigPath(system)
	if err != nil {
		return "", err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return "", err
	}

	configDir := filepath.Dir(path)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return "", fmt.Errorf("could not create config directory %s: %w", configDir, err)
	}

	// 0600: the audit DSN may carry credentials.
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}
