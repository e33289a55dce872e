// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/nixenv/config.cue (or XDG equivalent on Linux,
// ~/Library/Application Support/nixenv/config.cue on macOS, %APPDATA%\nixenv\config.cue
// on Windows). It selects the nix binary and its extra arguments, extends the list of
// variables that are never applied, tunes the watcher, and sets UI preferences.
// NIXENV_* environment variables override file values (NIXENV_NIX_BINARY for nix.binary).
//
// Configuration validation is performed against a CUE schema (config_schema.cue).
package config
