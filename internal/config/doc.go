// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is loaded from $XDG_CONFIG_HOME/cargo-wapm/config.cue (~/.config on
// Linux when unset, ~/Library/Application Support on macOS, %APPDATA% on Windows) or
// from an explicit path. The file is validated against the embedded config_schema.cue
// and merged over the defaults; CARGO_WAPM_* environment variables override both.
package config
