// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"cargo-wapm/internal/cueutil"
	"cargo-wapm/internal/issue"
)

const (
	// AppName is the application name.
	AppName = "cargo-wapm"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes the environment variables that override config keys,
	// e.g. CARGO_WAPM_UI_VERBOSE for ui.verbose.
	EnvPrefix = "CARGO_WAPM"

	// cargoEnv is set by cargo to its own path when it runs a subcommand.
	cargoEnv = "CARGO"
)

//go:embed config_schema.cue
var configSchema []byte

// ConfigDir returns the cargo-wapm configuration directory using platform-specific
// conventions: Windows uses %APPDATA%, macOS uses ~/Library/Application Support,
// and Linux/others use $XDG_CONFIG_HOME (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// FilePath returns the config file used when no explicit file is given.
func FilePath(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		return opts.ConfigFilePath, nil
	}
	cfgDir, err := configDirWithOverride(opts.ConfigDirPath)
	if err != nil {
		return "", err
	}
	return filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt), nil
}

// newViper returns a Viper instance holding the defaults and bound to the
// environment.
func newViper() (*viper.Viper, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("cargo_bin", defaults.CargoBin)
	v.SetDefault("publish_command", defaults.PublishCommand)
	v.SetDefault("min_description_length", defaults.MinDescriptionLength)
	v.SetDefault("ui.color_scheme", defaults.UI.ColorScheme)
	v.SetDefault("ui.verbose", defaults.UI.Verbose)
	v.SetDefault("ui.log_level", defaults.UI.LogLevel)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The first variable set wins.
	if err := v.BindEnv("cargo_bin", EnvPrefix+"_CARGO_BIN", cargoEnv); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}
	return v, nil
}

// loadWithOptions performs option-driven config loading without mutating
// package-level state.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v, err := newViper()
	if err != nil {
		return nil, err
	}

	cfgPath, err := FilePath(opts)
	if err != nil {
		return nil, err
	}

	resolvedPath := ""
	switch {
	case fileExists(cfgPath):
		if err := loadCUEIntoViper(v, cfgPath); err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(cfgPath).
				WithIssue(issue.ConfigLoadFailedId).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				Wrap(err).
				BuildError()
		}
		resolvedPath = cfgPath
	case opts.ConfigFilePath != "":
		// An explicit file must exist; the default location may not.
		return nil, issue.NewErrorContext().
			WithOperation("load configuration").
			WithResource(opts.ConfigFilePath).
			WithIssue(issue.ConfigLoadFailedId).
			WithSuggestion("Verify the file path is correct").
			WithSuggestion("Use 'cargo wapm config init' to create a configuration file").
			Wrap(fmt.Errorf("config file not found: %w", os.ErrNotExist)).
			BuildError()
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.Source = resolvedPath

	// Environment overrides bypass the schema, so validate the merged result.
	if valid, errs := cfg.IsValid(); !valid {
		return nil, issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithIssue(issue.ConfigLoadFailedId).
			WithSuggestion("Check the " + EnvPrefix + "_* environment variables").
			Wrap(errors.Join(errs...)).
			BuildError()
	}

	return &cfg, nil
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}

	return ConfigDir()
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config schema,
// and merges its contents into Viper.
//
// The file is decoded to a map rather than a Config so that Viper keeps
// defaults for the keys it leaves unset.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	configMap, err := cueutil.ParseAndDecode[map[string]any](
		configSchema,
		data,
		"#Config",
		cueutil.WithFilename(path),
		cueutil.WithConcrete(false),
	)
	if err != nil {
		return err
	}

	if err := v.MergeConfigMap(*configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// CreateDefaultConfig writes the default configuration to the config file
// selected by opts unless it already exists. It returns the file path.
func CreateDefaultConfig(opts LoadOptions) (string, error) {
	cfgPath, err := FilePath(opts)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(cfgPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(cfgPath); err == nil {
		return cfgPath, nil // File exists
	}

	if err := os.WriteFile(cfgPath, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	return cfgPath, nil
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// cargo-wapm configuration file\n")
	sb.WriteString("// Environment variables prefixed with " + EnvPrefix + "_ override these values.\n\n")

	if cfg.CargoBin != "" {
		fmt.Fprintf(&sb, "cargo_bin: %q\n", cfg.CargoBin)
	} else {
		sb.WriteString("// cargo_bin: \"cargo\"\n")
	}
	if cfg.PublishCommand != "" {
		fmt.Fprintf(&sb, "publish_command: %q\n", cfg.PublishCommand)
	} else {
		fmt.Fprintf(&sb, "// publish_command: %q\n", cfg.PublishCommand.OrDefault())
	}
	fmt.Fprintf(&sb, "min_description_length: %d\n", cfg.MinDescriptionLength)

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tcolor_scheme: %q\n", cfg.UI.ColorScheme)
	fmt.Fprintf(&sb, "\tverbose: %v\n", cfg.UI.Verbose)
	if cfg.UI.LogLevel != LogLevelDefault {
		fmt.Fprintf(&sb, "\tlog_level: %q\n", cfg.UI.LogLevel)
	}
	sb.WriteString("}\n")

	return sb.String()
}
