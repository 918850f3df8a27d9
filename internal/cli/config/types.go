// Package config provides configuration management for the scriptcs CLI.
package config

// Config holds all CLI configuration options.
type Config struct {
	Engine      string   `koanf:"engine"`
	ModulesDir  string   `koanf:"modules_dir"`
	Imports     []string `koanf:"imports"`
	References  []string `koanf:"references"`
	HistoryFile string   `koanf:"history_file"`
	Verbose     bool     `koanf:"verbose"`
}

// Default configuration values.
const (
	DefaultEngine      = "go"
	DefaultModulesDir  = "modules"
	DefaultHistoryFile = ".scriptcs_history"
)
