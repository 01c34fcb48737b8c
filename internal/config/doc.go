// Package config loads, normalizes, and validates notification-hub settings.
//
// Values come from repository defaults, an optional TOML file and a handful of
// NOTIFY_* environment overrides, in that order. Always obtain settings
// through Load so callers see expanded paths and clear validation errors.
package config
