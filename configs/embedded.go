// Package configs provides the embedded example configuration for feed-pager.
package configs

import "embed"

// ExampleConfigName is the embedded example written by init-config.
const ExampleConfigName = "config.example.yaml"

// EmbeddedConfigs exposes embedded configuration files for read-only access.
//
//go:embed *.yaml
var EmbeddedConfigs embed.FS

// Example returns the example configuration file contents.
func Example() ([]byte, error) {
	return EmbeddedConfigs.ReadFile(ExampleConfigName)
}
