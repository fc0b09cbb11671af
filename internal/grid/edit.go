package grid

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"nestgrid/internal/gateway"
	"nestgrid/internal/schema"
	"nestgrid/internal/state"
)

// ValidationError is a field-level rejection that keeps the edit session
// open so the user can correct the value.
type ValidationError struct {
	Column string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Column, e.Reason)
}

// SaveError is a gateway patch failure. The session has already terminated;
// the message is for display only.
type SaveError struct {
	Err error
}

func (e *SaveError) Error() string { return e.Err.Error() }
func (e *SaveError) Unwrap() error { return e.Err }

// ErrRuleRejected marks a business-rule abort: no patch was issued and the
// session is idle. Callers re-render and stay quiet.
var ErrRuleRejected = errors.New("edit rejected by validation rule")

// Editor drives the inline edit lifecycle over the engine's session.
type Editor struct {
	Engine *Engine
	Rules  Chain
}

// NewEditor wires the editor with the shipped rule chain.
func NewEditor(e *Engine) *Editor {
	return &Editor{Engine: e, Rules: DefaultRules()}
}

// Start opens an edit session on a cell. It reports false when another
// session is active anywhere in the grid, or the column is not editable.
func (ed *Editor) Start(row Row, column string) bool {
	lvl, ok := ed.Engine.Hierarchy.Level(row.Level)
	if !ok {
		return false
	}
	col, ok := lvl.Column(column)
	if !ok || !col.Editable {
		return false
	}
	return ed.Engine.Session.Begin(state.EditContext{
		Row:      row.ID,
		Level:    row.Level,
		Context:  row.Context,
		Column:   column,
		Original: row.Record[column],
	})
}

// Cancel abandons the active session without saving.
func (ed *Editor) Cancel() {
	ed.Engine.Session.End()
}

// Save validates and commits a non-lookup edit. Required/numeric validation
// failures return a *ValidationError and leave the session in Editing;
// business-rule rejection returns ErrRuleRejected with the session idle and
// no patch issued; a gateway failure returns a *SaveError with the session
// idle. Exactly one patch is issued on the success path.
func (ed *Editor) Save(ctx context.Context, row Row, value string) error {
	sess := ed.Engine.Session
	if sess.Phase() != state.EditEditing {
		return &ValidationError{Column: "", Reason: "no active edit"}
	}
	ec := sess.Context()
	lvl, _ := ed.Engine.Hierarchy.Level(ec.Level)
	col, ok := lvl.Column(ec.Column)
	if !ok {
		sess.End()
		return &ValidationError{Column: ec.Column, Reason: "unknown column"}
	}

	if err := validate(col, value); err != nil {
		// Stay in Editing so the user can fix the value.
		return err
	}
	if err := ed.Rules.Check(ec.Level, col, row.Record, value); err != nil {
		sess.End()
		return ErrRuleRejected
	}

	sess.StartSaving()
	fields := map[string]any{ec.Column: coerce(col, value)}
	err := ed.Engine.Gateway.Patch(ctx, lvl.RecordSet, row.Key, fields)
	sess.End()
	if err != nil {
		return &SaveError{Err: err}
	}
	return nil
}

// SaveLookup commits a lookup edit from a selected search candidate using the
// relationship-binding payload. A blank candidate key means the user typed
// text without picking a hit; the session aborts without saving.
func (ed *Editor) SaveLookup(ctx context.Context, row Row, cand gateway.Candidate) error {
	sess := ed.Engine.Session
	if sess.Phase() != state.EditEditing {
		return &ValidationError{Column: "", Reason: "no active edit"}
	}
	ec := sess.Context()
	lvl, _ := ed.Engine.Hierarchy.Level(ec.Level)
	col, ok := lvl.Column(ec.Column)
	if !ok || col.Lookup == nil {
		sess.End()
		return &ValidationError{Column: ec.Column, Reason: "not a lookup column"}
	}
	if strings.TrimSpace(cand.Key) == "" {
		sess.End()
		return &ValidationError{Column: ec.Column, Reason: "pick a candidate from the list"}
	}

	sess.StartSaving()
	fields := map[string]any{ec.Column: gateway.Binding{
		Relationship: col.RelationshipName(),
		RecordSet:    col.Lookup.RecordSet,
		Key:          state.SanitizeKey(cand.Key),
		Field:        ec.Column,
	}}
	err := ed.Engine.Gateway.Patch(ctx, lvl.RecordSet, row.Key, fields)
	sess.End()
	if err != nil {
		return &SaveError{Err: err}
	}
	return nil
}

func validate(col schema.Column, value string) error {
	trimmed := strings.TrimSpace(value)
	if col.Required && trimmed == "" {
		return &ValidationError{Column: col.Key, Reason: "value is required"}
	}
	if col.Kind == schema.KindNumber && trimmed != "" {
		if _, ok := parseNumber(trimmed); !ok {
			return &ValidationError{Column: col.Key, Reason: "value must be numeric"}
		}
	}
	return nil
}

// coerce turns the edited text into the typed patch value.
func coerce(col schema.Column, value string) any {
	trimmed := strings.TrimSpace(value)
	switch col.Kind {
	case schema.KindNumber:
		if n, ok := parseNumber(trimmed); ok {
			return n
		}
	case schema.KindBoolean:
		switch strings.ToLower(trimmed) {
		case "true", "1", "yes":
			return true
		case "false", "0", "no":
			return false
		}
	}
	if trimmed == "" {
		return nil
	}
	return trimmed
}
