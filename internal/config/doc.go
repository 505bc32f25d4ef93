// Package config handles configuration loading and defaults.
//
// Configuration is loaded from multiple sources in priority order:
// 1. Built-in defaults
// 2. User config file (~/.switchroom/switchroom.toml or OS-specific config directory)
// 3. Project config file (switchroom.toml or .switchroom.toml in the working directory)
// 4. Environment variables (SWITCHROOM_*)
// 5. CLI flags and the positional agent count
//
// Each level overrides the previous one, so CLI flags take precedence.
//
// Bad values never abort loading. A value that does not parse, or a file key
// that violates the embedded schema, is skipped and recorded in
// Config.Warnings; the previous value stays in effect.
//
// User-level config locations:
// - ~/.switchroom/switchroom.toml (preferred)
// - Windows: %APPDATA%\switchroom\switchroom.toml
// - macOS: ~/Library/Application Support/switchroom/switchroom.toml
// - Linux/BSD: $XDG_CONFIG_HOME/switchroom/switchroom.toml or ~/.config/switchroom/switchroom.toml
package config
