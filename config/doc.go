// Package config loads and validates the daemon's YAML configuration.
//
// String values support strict environment expansion (${VAR} errors
// when VAR is unset) and secret references of the form
// secretref:<provider>:<ref>, resolved through a provider registry.
// The env provider is always registered.
package config
