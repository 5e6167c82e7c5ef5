// Package config loads and validates FieldFlow Core configuration.
//
// Configuration is read from a YAML file, then overridden by
// FIELDFLOW_* environment variables, then validated. Secrets (the JWT
// signing key, broker credentials, InfluxDB tokens) should always come
// from the environment in production rather than the file.
//
// The zero configuration is not usable: Load applies defaults first,
// so a minimal config file only needs to set what differs.
package config
