package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
)

const sampleYAML = `
record: 11111111-2222-3333-4444-555555555555
state_path: state/grid.json
gateway:
  kind: odata
  base_url: https://example.test/api/data/v9.2
hierarchy:
  levels:
    - record_set: opportunities
      key: opportunityid
      title: Child Opportunities
      search_field: name
      multiple: true
      child: 1
      base:
        - field: ishost
          op: eq
          value: "false"
      columns:
        - key: name
          label: Name
          kind: text
          editable: true
          required: true
        - key: _parentcontactid_value
          label: Customer
          kind: lookup
          lookup:
            record_set: contacts
            key_field: contactid
            name_field: fullname
            display_fields: [fullname, emailaddress1]
    - record_set: quotes
      key: quoteid
      parent_field: _opportunityid_value
      title: Quotes
      columns:
        - key: name
          kind: text
`

func writeSample(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "nestgrid.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o644); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	return path
}

func TestLoad_FileAndHierarchyConversion(t *testing.T) {
	cfg, err := Load(writeSample(t), nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Gateway.Kind != "odata" || cfg.Record == "" {
		t.Fatalf("gateway config: %+v", cfg.Gateway)
	}
	if !filepath.IsAbs(cfg.StatePath) || filepath.Base(cfg.StatePath) != "grid.json" {
		t.Fatalf("state path not resolved against config dir: %q", cfg.StatePath)
	}

	h, err := cfg.ToHierarchy()
	if err != nil {
		t.Fatalf("to hierarchy: %v", err)
	}
	if len(h.Levels) != 2 {
		t.Fatalf("levels: got %d", len(h.Levels))
	}
	if h.Levels[0].Child != 1 || h.Levels[1].Child != -1 {
		t.Fatalf("child wiring: %d, %d", h.Levels[0].Child, h.Levels[1].Child)
	}
	col, ok := h.Levels[0].Column("_parentcontactid_value")
	if !ok || col.Lookup == nil || col.Lookup.RecordSet != "contacts" {
		t.Fatalf("lookup column: %+v %v", col, ok)
	}
	if len(h.Levels[0].Base) != 1 || h.Levels[0].Base[0].Value != "false" {
		t.Fatalf("base conditions: %+v", h.Levels[0].Base)
	}
}

func TestLoad_PrecedenceFlagsOverEnvOverFile(t *testing.T) {
	path := writeSample(t)
	t.Setenv("NESTGRID_RECORD", "from-env")

	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Record != "from-env" {
		t.Fatalf("env should beat file: %q", cfg.Record)
	}

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("record", "", "")
	if err := flags.Parse([]string{"--record", "from-flag"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	cfg, err = Load(path, flags)
	if err != nil {
		t.Fatalf("load with flags: %v", err)
	}
	if cfg.Record != "from-flag" {
		t.Fatalf("flag should beat env: %q", cfg.Record)
	}
}

func TestLoad_DefaultsToDemoGateway(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("load without file: %v", err)
	}
	if cfg.Gateway.Kind != "demo" {
		t.Fatalf("default gateway: %q", cfg.Gateway.Kind)
	}
}

func TestLoad_RejectsBadGatewayKind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nestgrid.yaml")
	os.WriteFile(path, []byte("gateway:\n  kind: carrierpigeon\n"), 0o644)
	if _, err := Load(path, nil); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestLoad_InvalidColumnKindFailsConversion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nestgrid.yaml")
	os.WriteFile(path, []byte(`
hierarchy:
  levels:
    - record_set: things
      key: thingid
      columns:
        - key: blob
          kind: hologram
`), 0o644)
	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := cfg.ToHierarchy(); err == nil {
		t.Fatalf("expected kind error")
	}
}
