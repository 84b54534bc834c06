// Package config manages operator preferences stored in
// ~/.config/ssopipe/config.toml. Config stores only local preferences
// (default template folders, region, concurrency); the SSO tenant and the
// repository of JSON templates are the sources of truth for all resource
// state.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config holds operator preferences from ~/.config/ssopipe/config.toml.
// All fields use flat snake_case TOML keys.
type Config struct {
	Region            string `mapstructure:"region"             toml:"region"`
	PSFolder          string `mapstructure:"ps_folder"          toml:"ps_folder"`
	AssignmentsFolder string `mapstructure:"assignments_folder" toml:"assignments_folder"`
	Concurrency       int    `mapstructure:"concurrency"        toml:"concurrency"`
	LogDir            string `mapstructure:"log_dir"            toml:"log_dir"`
}

// validator is a function that validates a string value for a config key.
type validator func(value string) error

// validators maps config keys to their validation functions.
var validators = map[string]validator{
	"region":             validateRegion,
	"ps_folder":          validateNonEmptyPath,
	"assignments_folder": validateNonEmptyPath,
	"concurrency":        validateConcurrency,
	"log_dir":            validateNonEmptyPath,
}

// ValidKeys returns the sorted list of valid config key names.
func ValidKeys() []string {
	keys := make([]string, 0, len(validators))
	for k := range validators {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DefaultConfigDir returns the default config directory path
// (~/.config/ssopipe). If SSOPIPE_CONFIG_DIR is set, that value is used
// instead.
func DefaultConfigDir() string {
	if dir := os.Getenv("SSOPIPE_CONFIG_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "ssopipe")
	}
	return filepath.Join(home, ".config", "ssopipe")
}

// Load reads the config file from configDir/config.toml and returns a Config
// with defaults applied for any missing keys. If the file does not exist,
// all defaults are returned without error.
func Load(configDir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	v.SetDefault("region", "")
	v.SetDefault("ps_folder", "./templates/permissionsets")
	v.SetDefault("assignments_folder", "./templates/assignments")
	v.SetDefault("concurrency", 8)
	v.SetDefault("log_dir", filepath.Join(configDir, "logs"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Ignore missing file, return defaults
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to configDir/config.toml, creating the directory
// if it does not exist.
func Save(cfg *Config, configDir string) error {
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	v := viper.New()
	v.Set("region", cfg.Region)
	v.Set("ps_folder", cfg.PSFolder)
	v.Set("assignments_folder", cfg.AssignmentsFolder)
	v.Set("concurrency", cfg.Concurrency)
	v.Set("log_dir", cfg.LogDir)

	path := filepath.Join(configDir, "config.toml")
	if err := v.WriteConfigAs(path); err != nil {
		return err
	}
	return os.Chmod(path, 0o600)
}

// Set validates and applies a single key-value pair to the config.
// Returns an error if the key is unknown or the value fails validation.
func (c *Config) Set(key, value string) error {
	validate, ok := validators[key]
	if !ok {
		return fmt.Errorf("unknown config key %q; valid keys: %s", key, strings.Join(ValidKeys(), ", "))
	}

	if err := validate(value); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}

	switch key {
	case "region":
		c.Region = value
	case "ps_folder":
		c.PSFolder = value
	case "assignments_folder":
		c.AssignmentsFolder = value
	case "concurrency":
		n, _ := strconv.Atoi(value) // already validated
		c.Concurrency = n
	case "log_dir":
		c.LogDir = value
	}

	return nil
}

// regionPattern matches valid AWS region formats like us-west-2, eu-central-1.
var regionPattern = regexp.MustCompile(`^[a-z]{2}-[a-z]+-\d+$`)

func validateRegion(value string) error {
	if value == "" {
		return nil // empty clears the region
	}
	if !regionPattern.MatchString(value) {
		return fmt.Errorf("%q does not match AWS region format (e.g., us-west-2)", value)
	}
	return nil
}

func validateNonEmptyPath(value string) error {
	if value == "" {
		return fmt.Errorf("path cannot be empty")
	}
	return nil
}

func validateConcurrency(value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%q is not a valid integer", value)
	}
	if n < 1 {
		return fmt.Errorf("must be >= 1 (got %d)", n)
	}
	if n > 64 {
		return fmt.Errorf("must be <= 64 (got %d)", n)
	}
	return nil
}
