// Package config loads the warden CLI configuration from a YAML or JSON file and
// WARDEN_* environment variables.
package config
