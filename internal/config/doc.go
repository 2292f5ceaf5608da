// Package config handles YAML configuration loading with environment variable substitution.
//
// Configuration files support ${VAR} syntax for environment variable
// interpolation. The surface is static: it is loaded once at startup and
// never reloaded.
package config
