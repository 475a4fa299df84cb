// Package config loads and validates the node's YAML configuration.
package config
