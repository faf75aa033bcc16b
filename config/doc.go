// Package config handles application configuration loading and validation.
//
// Configuration is read from a YAML file, validated using struct tags, and
// completed with defaults. Kind-specific sections (provider, store, routing)
// are checked against the selected kind after tag validation.
package config
