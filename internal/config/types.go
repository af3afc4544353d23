// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"mvdan.cc/sh/v3/shell"

	"cargo-wapm/internal/cargo"
	"cargo-wapm/internal/publish"
	"cargo-wapm/internal/translate"
)

const (
	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"

	// LogLevelDefault derives the level from ui.verbose.
	LogLevelDefault LogLevel = ""
	// LogLevelDebug logs everything.
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo logs progress messages.
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn logs warnings and errors.
	LogLevelWarn LogLevel = "warn"
	// LogLevelError logs errors only.
	LogLevelError LogLevel = "error"
)

var (
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidLogLevel is returned when a LogLevel value is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidBinaryFilePath is returned when a BinaryFilePath value is whitespace-only.
	ErrInvalidBinaryFilePath = errors.New("invalid binary file path")
	// ErrInvalidPublishCommand is the sentinel error wrapped by InvalidPublishCommandError.
	ErrInvalidPublishCommand = errors.New("invalid publish command")
	// ErrInvalidMinDescriptionLength is returned for a negative minimum description length.
	ErrInvalidMinDescriptionLength = errors.New("invalid minimum description length")
	// ErrInvalidUIConfig is the sentinel error wrapped by InvalidUIConfigError.
	ErrInvalidUIConfig = errors.New("invalid UI config")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	// It wraps ErrInvalidColorScheme for errors.Is() compatibility.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// LogLevel is the minimum level of log messages written to stderr.
	LogLevel string

	// InvalidLogLevelError is returned when a LogLevel value is not recognized.
	InvalidLogLevelError struct {
		Value LogLevel
	}

	// BinaryFilePath represents a filesystem path or name of an executable.
	// The zero value ("") is valid and means "use the default binary".
	BinaryFilePath string

	// InvalidBinaryFilePathError is returned when a BinaryFilePath value is
	// non-empty but whitespace-only.
	InvalidBinaryFilePathError struct {
		Value BinaryFilePath
	}

	// PublishCommand is a shell-quoted command line such as "wapm publish".
	// The zero value means publish.DefaultCommand.
	PublishCommand string

	// InvalidPublishCommandError is returned when a PublishCommand cannot be
	// split into words or has none.
	InvalidPublishCommandError struct {
		Value PublishCommand
		Err   error
	}

	// InvalidMinDescriptionLengthError is returned for a negative length.
	InvalidMinDescriptionLengthError struct {
		Value int
	}

	// InvalidUIConfigError is returned when a UIConfig has invalid fields.
	// It wraps ErrInvalidUIConfig for errors.Is() compatibility and collects
	// field-level validation errors.
	InvalidUIConfigError struct {
		FieldErrors []error
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// CargoBin overrides the cargo binary ($CARGO when cargo runs us as a subcommand).
		CargoBin BinaryFilePath `json:"cargo_bin" mapstructure:"cargo_bin"`
		// PublishCommand is the registry CLI invocation.
		PublishCommand PublishCommand `json:"publish_command" mapstructure:"publish_command"`
		// MinDescriptionLength is the shortest description accepted without a warning.
		MinDescriptionLength int `json:"min_description_length" mapstructure:"min_description_length"`
		// UI configures the user interface
		UI UIConfig `json:"ui" mapstructure:"ui"`

		// Source is the config file the values were read from, empty for defaults only.
		Source string `json:"-" mapstructure:"-"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// ColorScheme sets the color scheme
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
		// Verbose enables verbose output
		Verbose bool `json:"verbose" mapstructure:"verbose"`
		// LogLevel overrides the level derived from Verbose
		LogLevel LogLevel `json:"log_level" mapstructure:"log_level"`
	}
)

// Rules returns the validation rules selected by the configuration.
func (c Config) Rules() translate.Rules {
	return translate.Rules{MinDescriptionLength: c.MinDescriptionLength}
}

// Level returns the effective slog level.
func (c UIConfig) Level() slog.Level {
	switch c.LogLevel {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelInfo:
		return slog.LevelInfo
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	}
	if c.Verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// IsValid returns whether the UIConfig has valid fields.
func (c UIConfig) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.ColorScheme.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.LogLevel.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidUIConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidUIConfigError.
func (e *InvalidUIConfigError) Error() string {
	return fmt.Sprintf("invalid UI config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidUIConfig for errors.Is() compatibility.
func (e *InvalidUIConfigError) Unwrap() error { return ErrInvalidUIConfig }

// IsValid returns whether the Config has valid fields.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.CargoBin.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.PublishCommand.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if c.MinDescriptionLength < 0 {
		errs = append(errs, &InvalidMinDescriptionLengthError{Value: c.MinDescriptionLength})
	}
	if valid, fieldErrs := c.UI.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig and the field errors for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// String returns the string representation of the BinaryFilePath.
func (p BinaryFilePath) String() string { return string(p) }

// IsValid returns whether the BinaryFilePath is valid.
// The zero value ("") is valid; non-zero values must not be whitespace-only.
func (p BinaryFilePath) IsValid() (bool, []error) {
	if p == "" {
		return true, nil
	}
	if strings.TrimSpace(string(p)) == "" {
		return false, []error{&InvalidBinaryFilePathError{Value: p}}
	}
	return true, nil
}

// OrDefault returns the path, or cargo.DefaultBinary when empty.
func (p BinaryFilePath) OrDefault() string {
	if p == "" {
		return cargo.DefaultBinary
	}
	return string(p)
}

// Error implements the error interface for InvalidBinaryFilePathError.
func (e *InvalidBinaryFilePathError) Error() string {
	return fmt.Sprintf("invalid binary file path %q: non-empty value must not be whitespace-only", e.Value)
}

// Unwrap returns ErrInvalidBinaryFilePath for errors.Is() compatibility.
func (e *InvalidBinaryFilePathError) Unwrap() error { return ErrInvalidBinaryFilePath }

// String returns the string representation of the PublishCommand.
func (c PublishCommand) String() string { return string(c) }

// IsValid returns whether the command line can be split into at least one word.
// The zero value is valid.
func (c PublishCommand) IsValid() (bool, []error) {
	if c == "" {
		return true, nil
	}
	fields, err := shell.Fields(string(c), func(string) string { return "" })
	if err != nil {
		return false, []error{&InvalidPublishCommandError{Value: c, Err: err}}
	}
	if len(fields) == 0 {
		return false, []error{&InvalidPublishCommandError{Value: c, Err: publish.ErrEmptyCommand}}
	}
	return true, nil
}

// OrDefault returns the command, or publish.DefaultCommand when empty.
func (c PublishCommand) OrDefault() string {
	if c == "" {
		return publish.DefaultCommand
	}
	return string(c)
}

// Error implements the error interface for InvalidPublishCommandError.
func (e *InvalidPublishCommandError) Error() string {
	return fmt.Sprintf("invalid publish command %q: %v", e.Value, e.Err)
}

// Unwrap returns ErrInvalidPublishCommand and the parse error.
func (e *InvalidPublishCommandError) Unwrap() []error {
	return []error{ErrInvalidPublishCommand, e.Err}
}

// Error implements the error interface for InvalidMinDescriptionLengthError.
func (e *InvalidMinDescriptionLengthError) Error() string {
	return fmt.Sprintf("invalid minimum description length %d: must not be negative", e.Value)
}

// Unwrap returns ErrInvalidMinDescriptionLength for errors.Is() compatibility.
func (e *InvalidMinDescriptionLengthError) Unwrap() error { return ErrInvalidMinDescriptionLength }

// Error implements the error interface for InvalidColorSchemeError.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error {
	return ErrInvalidColorScheme
}

// String returns the string representation of the ColorScheme.
func (cs ColorScheme) String() string { return string(cs) }

// IsValid returns whether the ColorScheme is one of the defined color schemes,
// and a list of validation errors if it is not.
func (cs ColorScheme) IsValid() (bool, []error) {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: cs}}
	}
}

// Error implements the error interface for InvalidLogLevelError.
func (e *InvalidLogLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q (valid: debug, info, warn, error)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidLogLevelError) Unwrap() error {
	return ErrInvalidLogLevel
}

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string { return string(l) }

// IsValid returns whether the LogLevel is empty or one of the defined levels.
func (l LogLevel) IsValid() (bool, []error) {
	switch l {
	case LogLevelDefault, LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true, nil
	default:
		return false, []error{&InvalidLogLevelError{Value: l}}
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		CargoBin:             "",
		PublishCommand:       "",
		MinDescriptionLength: translate.DefaultMinDescriptionLength,
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
			Verbose:     false,
			LogLevel:    LogLevelDefault,
		},
	}
}
