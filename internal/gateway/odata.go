package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"nestgrid/internal/query"
	"nestgrid/internal/schema"
)

// upstreamDisplaySuffix is the wire annotation carrying formatted display
// values; it is rewritten to DisplaySuffix when decoding so the core never
// sees the vendor string.
const upstreamDisplaySuffix = "@OData.Community.Display.V1.FormattedValue"

// OData is the HTTP implementation of Gateway against an OData v4 record API.
type OData struct {
	base   string
	client *http.Client
	enums  enumCache
}

// NewOData builds an HTTP gateway. base is the service root (e.g.
// "https://host/api/data/v9.2"). A nil client uses http.DefaultClient.
func NewOData(base string, client *http.Client) *OData {
	if client == nil {
		client = http.DefaultClient
	}
	return &OData{base: strings.TrimRight(base, "/"), client: client}
}

func (g *OData) do(ctx context.Context, method, rawURL string, body []byte) (*http.Response, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("OData-MaxVersion", "4.0")
	req.Header.Set("OData-Version", "4.0")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Prefer", "odata.include-annotations=*")
	return g.client.Do(req)
}

// Query implements Gateway.
func (g *OData) Query(ctx context.Context, spec query.Spec) ([]Record, error) {
	q := url.Values{}
	q.Set("$select", strings.Join(spec.Fields, ","))
	if f := spec.FilterString(); f != "" {
		q.Set("$filter", f)
	}
	if o := spec.OrderString(); o != "" {
		q.Set("$orderby", o)
	}
	resp, err := g.do(ctx, http.MethodGet, g.base+"/"+spec.RecordSet+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", spec.RecordSet, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, statusError("query "+spec.RecordSet, resp)
	}
	var payload struct {
		Value []map[string]any `json:"value"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("query %s: decode: %w", spec.RecordSet, err)
	}
	out := make([]Record, 0, len(payload.Value))
	for _, raw := range payload.Value {
		out = append(out, normalizeAnnotations(raw))
	}
	return out, nil
}

func normalizeAnnotations(raw map[string]any) Record {
	rec := make(Record, len(raw))
	for k, v := range raw {
		if field, ok := strings.CutSuffix(k, upstreamDisplaySuffix); ok {
			rec[field+DisplaySuffix] = v
			continue
		}
		rec[k] = v
	}
	return rec
}

// Patch implements Gateway. Binding values become relationship bindings
// ("rel@odata.bind": "/set(key)").
func (g *OData) Patch(ctx context.Context, recordSet, key string, fields map[string]any) error {
	body := make(map[string]any, len(fields))
	for k, v := range fields {
		if b, ok := v.(Binding); ok {
			body[b.Relationship+"@odata.bind"] = "/" + b.RecordSet + "(" + b.Key + ")"
			continue
		}
		body[k] = v
	}
	buf, err := json.Marshal(body)
	if err != nil {
		return err
	}
	resp, err := g.do(ctx, http.MethodPatch, g.base+"/"+recordSet+"("+key+")", buf)
	if err != nil {
		return fmt.Errorf("patch %s(%s): %w", recordSet, key, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return statusError("patch "+recordSet+"("+key+")", resp)
	}
	return nil
}

// SearchByText implements Gateway.
func (g *OData) SearchByText(ctx context.Context, lk schema.Lookup, text string) ([]Candidate, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	fields := append([]string{}, lk.DisplayFields...)
	if len(fields) == 0 {
		fields = []string{lk.NameField}
	}
	spec := query.Spec{
		RecordSet: lk.RecordSet,
		Fields:    dedup(append(fields, lk.KeyField)),
		Clauses:   []query.Clause{query.TextClause(lk.NameField, query.CmpContains, text)},
	}
	records, err := g.Query(ctx, spec)
	if err != nil {
		return nil, err
	}
	return candidatesFromRecords(records, lk), nil
}

func candidatesFromRecords(records []Record, lk schema.Lookup) []Candidate {
	fields := lk.DisplayFields
	if len(fields) == 0 {
		fields = []string{lk.NameField}
	}
	out := make([]Candidate, 0, len(records))
	for _, r := range records {
		parts := make([]string, 0, len(fields))
		for _, f := range fields {
			if v := r.Raw(f); v != "" {
				parts = append(parts, v)
			}
		}
		out = append(out, Candidate{Key: r.Key(lk.KeyField), Display: strings.Join(parts, " - ")})
	}
	return out
}

// ResolveEnumeration implements Gateway. Choice options come from the
// upstream attribute metadata; failures degrade per the contract (Yes/No for
// boolean, empty for choice). Results are cached for the session.
func (g *OData) ResolveEnumeration(ctx context.Context, recordSet, field string, kind schema.ValueKind) ([]Option, error) {
	if opts, ok := g.enums.get(recordSet, field, kind); ok {
		return opts, nil
	}
	opts, err := g.fetchEnumeration(ctx, recordSet, field, kind)
	if err != nil {
		if kind == schema.KindBoolean {
			return YesNoOptions(), nil
		}
		return nil, nil
	}
	g.enums.put(recordSet, field, kind, opts)
	return opts, nil
}

func (g *OData) fetchEnumeration(ctx context.Context, recordSet, field string, kind schema.ValueKind) ([]Option, error) {
	entity := strings.TrimSuffix(recordSet, "s")
	attrType := "Microsoft.Dynamics.CRM.PicklistAttributeMetadata"
	if kind == schema.KindBoolean {
		attrType = "Microsoft.Dynamics.CRM.BooleanAttributeMetadata"
	}
	u := fmt.Sprintf("%s/EntityDefinitions(LogicalName='%s')/Attributes(LogicalName='%s')/%s?$select=LogicalName&$expand=OptionSet",
		g.base, entity, field, attrType)
	resp, err := g.do(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, statusError("enumeration "+recordSet+"."+field, resp)
	}

	if kind == schema.KindBoolean {
		var payload struct {
			OptionSet struct {
				TrueOption  metaOption `json:"TrueOption"`
				FalseOption metaOption `json:"FalseOption"`
			} `json:"OptionSet"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return nil, err
		}
		return []Option{
			{Value: "true", Label: payload.OptionSet.TrueOption.label("Yes")},
			{Value: "false", Label: payload.OptionSet.FalseOption.label("No")},
		}, nil
	}

	var payload struct {
		OptionSet struct {
			Options []metaOption `json:"Options"`
		} `json:"OptionSet"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	opts := make([]Option, 0, len(payload.OptionSet.Options))
	for _, o := range payload.OptionSet.Options {
		val := fmt.Sprint(o.Value)
		opts = append(opts, Option{Value: val, Label: o.label(val)})
	}
	return opts, nil
}

type metaOption struct {
	Value json.Number `json:"Value"`
	Label struct {
		UserLocalizedLabel struct {
			Label string `json:"Label"`
		} `json:"UserLocalizedLabel"`
	} `json:"Label"`
}

func (o metaOption) label(fallback string) string {
	if l := o.Label.UserLocalizedLabel.Label; l != "" {
		return l
	}
	return fallback
}

func statusError(op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := strings.TrimSpace(string(body))
	if msg != "" {
		return fmt.Errorf("%s: %s: %s", op, resp.Status, msg)
	}
	return fmt.Errorf("%s: %s", op, resp.Status)
}

func dedup(fields []string) []string {
	seen := map[string]bool{}
	out := fields[:0]
	for _, f := range fields {
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}
