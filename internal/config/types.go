// Package config loads nestgrid configuration from file, environment, and
// flags (precedence: flags > env > file > defaults) and converts the declared
// hierarchy into the schema the engine consumes.
package config

import (
	"nestgrid/internal/schema"
)

// GatewayConfig selects and parameterizes the record backend.
type GatewayConfig struct {
	// Kind is "odata", "sql", or "demo".
	Kind string `koanf:"kind"`
	// BaseURL is the OData service root (odata kind).
	BaseURL string `koanf:"base_url"`
	// Driver / DSN configure the sql kind.
	Driver string `koanf:"driver"`
	DSN    string `koanf:"dsn"`
}

// LookupConfig mirrors schema.Lookup in the config file.
type LookupConfig struct {
	RecordSet     string   `koanf:"record_set"`
	KeyField      string   `koanf:"key_field"`
	NameField     string   `koanf:"name_field"`
	DisplayFields []string `koanf:"display_fields"`
	Relationship  string   `koanf:"relationship"`
}

// ColumnConfig is one declared grid column.
type ColumnConfig struct {
	Key      string        `koanf:"key"`
	Label    string        `koanf:"label"`
	Kind     string        `koanf:"kind"`
	Editable bool          `koanf:"editable"`
	Required bool          `koanf:"required"`
	Lookup   *LookupConfig `koanf:"lookup"`
}

// BaseConfig is one static or placeholder-parameterized base condition.
type BaseConfig struct {
	Field string `koanf:"field"`
	Op    string `koanf:"op"`
	Value string `koanf:"value"`
}

// LevelConfig is one declared hierarchy level. Child is the index of the
// nested level; omitted means leaf.
type LevelConfig struct {
	RecordSet   string         `koanf:"record_set"`
	Key         string         `koanf:"key"`
	ParentField string         `koanf:"parent_field"`
	Title       string         `koanf:"title"`
	SearchField string         `koanf:"search_field"`
	Multiple    bool           `koanf:"multiple"`
	Child       *int           `koanf:"child"`
	Base        []BaseConfig   `koanf:"base"`
	Columns     []ColumnConfig `koanf:"columns"`
}

// Config is the full loaded configuration.
type Config struct {
	// Record is the ambient root record id ($root in base conditions).
	Record    string        `koanf:"record"`
	StatePath string        `koanf:"state_path"`
	Verbose   bool          `koanf:"verbose"`
	Output    string        `koanf:"output"`
	Gateway   GatewayConfig `koanf:"gateway"`
	Hierarchy struct {
		Levels []LevelConfig `koanf:"levels"`
	} `koanf:"hierarchy"`

	// ProjectRoot is the directory relative paths resolve against; set by
	// the loader, not the file.
	ProjectRoot string `koanf:"-"`
}

// ToHierarchy converts the declared levels into the engine schema. Kinds and
// wiring are validated by schema.Hierarchy.Validate, not here.
func (c *Config) ToHierarchy() (schema.Hierarchy, error) {
	levels := make([]schema.Level, 0, len(c.Hierarchy.Levels))
	for _, lc := range c.Hierarchy.Levels {
		lvl := schema.Level{
			RecordSet:   lc.RecordSet,
			Key:         lc.Key,
			ParentField: lc.ParentField,
			Title:       lc.Title,
			SearchField: lc.SearchField,
			Multiple:    lc.Multiple,
			Child:       -1,
		}
		if lc.Child != nil {
			lvl.Child = *lc.Child
		}
		for _, bc := range lc.Base {
			lvl.Base = append(lvl.Base, schema.BaseCondition{Field: bc.Field, Op: bc.Op, Value: bc.Value})
		}
		for _, cc := range lc.Columns {
			kind, err := schema.ParseValueKind(cc.Kind)
			if err != nil {
				return schema.Hierarchy{}, err
			}
			col := schema.Column{
				Key:      cc.Key,
				Label:    cc.Label,
				Kind:     kind,
				Editable: cc.Editable,
				Required: cc.Required,
			}
			if cc.Lookup != nil {
				col.Lookup = &schema.Lookup{
					RecordSet:     cc.Lookup.RecordSet,
					KeyField:      cc.Lookup.KeyField,
					NameField:     cc.Lookup.NameField,
					DisplayFields: cc.Lookup.DisplayFields,
					Relationship:  cc.Lookup.Relationship,
				}
			}
			lvl.Columns = append(lvl.Columns, col)
		}
		levels = append(levels, lvl)
	}
	h := schema.Hierarchy{Levels: levels}
	if err := h.Validate(); err != nil {
		return schema.Hierarchy{}, err
	}
	return h, nil
}
