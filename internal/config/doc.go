// Package config loads, normalizes, and validates the cardvault
// configuration file. Values come from a TOML file with sensible defaults so
// the CLI works with no configuration at all.
package config
