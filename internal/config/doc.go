// Package config loads the TOML client configuration from the home
// directory. Keys match the Config field names; unknown keys are rejected.
package config
