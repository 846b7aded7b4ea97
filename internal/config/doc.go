// Package config resolves the allocator service settings from YAML files,
// environment variables and CLI flags, in that order of increasing
// precedence over the built-in defaults.
package config
