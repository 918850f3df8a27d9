package config

import "fmt"

// supported engine names.
var validEngines = map[string]bool{
	"go":       true,
	"starlark": true,
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if !validEngines[c.Engine] {
		return fmt.Errorf("unknown engine %q (supported: go, starlark)", c.Engine)
	}
	return nil
}
