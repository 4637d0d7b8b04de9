// Package config handles loading and parsing of configuration from YAML files
// and environment variables. It defines the daemon configuration: HTTP
// server, logging, the metrics engine (queue segments, reservoirs, executor,
// tick cadence), the periodic reporter and the exporters.
package config
