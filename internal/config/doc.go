// Package config loads lexis settings from defaults, an optional YAML file,
// a .env file and LEXIS_* environment variables, then validates them with
// struct tags.
package config
