package config

import "fmt"

// Validate checks cross-field consistency the koanf decode cannot express.
// Hierarchy wiring is validated separately by ToHierarchy.
func (c *Config) Validate() error {
	switch c.Gateway.Kind {
	case "demo", "sql":
	case "odata":
		if c.Gateway.BaseURL == "" {
			return fmt.Errorf("gateway.base_url is required for the odata gateway")
		}
		if c.Record == "" {
			return fmt.Errorf("record (root record id) is required for the odata gateway")
		}
		if len(c.Hierarchy.Levels) == 0 {
			return fmt.Errorf("hierarchy.levels is required for the odata gateway")
		}
	default:
		return fmt.Errorf("unknown gateway kind %q (want demo, sql, or odata)", c.Gateway.Kind)
	}
	switch c.Output {
	case "", "table", "json", "csv":
	default:
		return fmt.Errorf("unknown output format %q (want table, json, or csv)", c.Output)
	}
	return nil
}
