// Package config loads and validates application settings from a config
// file and SAMSARA_-prefixed environment variables, giving the rest of
// the application typed access to server, database, lifecycle,
// governance, cache, and task options.
package config
