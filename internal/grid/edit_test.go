package grid

import (
	"context"
	"errors"
	"testing"

	"nestgrid/internal/gateway"
	"nestgrid/internal/state"
)

func editableRow(e *Engine, t *testing.T) Row {
	t.Helper()
	snap, err := e.Refresh(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	return snap.Rows[0]
}

func TestEditor_SingleFlightAcrossTheGrid(t *testing.T) {
	f := demoFake()
	e := newTestEngine(f)
	ed := NewEditor(e)
	snap, _ := e.Refresh(context.Background())

	if !ed.Start(snap.Rows[0], "name") {
		t.Fatalf("first Start should succeed")
	}
	if ed.Start(snap.Rows[1], "name") {
		t.Fatalf("second Start anywhere in the grid must be a no-op")
	}
	ed.Cancel()
	if !ed.Start(snap.Rows[1], "name") {
		t.Fatalf("Start after Cancel should succeed")
	}
}

func TestEditor_StartRejectsNonEditableColumn(t *testing.T) {
	f := demoFake()
	e := newTestEngine(f)
	ed := NewEditor(e)
	e.State.ToggleExpanded(state.RowIDFor(0, "abc-123"))
	e.State.ToggleExpanded(state.RowIDFor(1, "q-1"))
	snap, _ := e.Refresh(context.Background())

	detail, ok := snap.ByID(state.RowIDFor(2, "d-1"))
	if !ok {
		t.Fatalf("missing detail row")
	}
	// productname is displayed but not editable at this level.
	if ed.Start(detail, "productname") {
		t.Fatalf("non-editable column must reject the edit")
	}
}

func TestEditor_RequiredAndNumericValidationStaysEditing(t *testing.T) {
	f := demoFake()
	e := newTestEngine(f)
	ed := NewEditor(e)
	row := editableRow(e, t)

	ed.Start(row, "name")
	var verr *ValidationError
	if err := ed.Save(context.Background(), row, "   "); !errors.As(err, &verr) {
		t.Fatalf("blank required value: got %v", err)
	}
	if e.Session.Phase() != state.EditEditing {
		t.Fatalf("validation failure must keep the session editing")
	}
	if f.Calls.Patch != 0 {
		t.Fatalf("no patch may be issued on validation failure")
	}
	ed.Cancel()

	ed.Start(row, "estimatedvalue")
	if err := ed.Save(context.Background(), row, "lots"); !errors.As(err, &verr) {
		t.Fatalf("non-numeric value: got %v", err)
	}
	if e.Session.Phase() != state.EditEditing {
		t.Fatalf("numeric failure must keep the session editing")
	}
}

func TestEditor_RuleRejectionAbortsSilentlyBeforeNetwork(t *testing.T) {
	f := demoFake()
	e := newTestEngine(f)
	ed := NewEditor(e)
	row := editableRow(e, t)

	ed.Start(row, "estimatedvalue")
	err := ed.Save(context.Background(), row, "150000")
	if !errors.Is(err, ErrRuleRejected) {
		t.Fatalf("got %v, want ErrRuleRejected", err)
	}
	if f.Calls.Patch != 0 {
		t.Fatalf("rule rejection must abort before any network call")
	}
	if e.Session.Phase() != state.EditIdle {
		t.Fatalf("rule rejection terminates the session")
	}

	// At the ceiling the edit goes through.
	ed.Start(row, "estimatedvalue")
	if err := ed.Save(context.Background(), row, "100000"); err != nil {
		t.Fatalf("save at ceiling: %v", err)
	}
	if f.Calls.Patch != 1 {
		t.Fatalf("exactly one patch expected, got %d", f.Calls.Patch)
	}
	p := f.Patches[0]
	if p.RecordSet != "opportunities" || p.Key != "abc-123" {
		t.Fatalf("patch target: %+v", p)
	}
	if got, ok := p.Fields["estimatedvalue"].(float64); !ok || got != 100000 {
		t.Fatalf("typed payload: %+v", p.Fields)
	}
}

func TestEditor_SaveFailureStillTerminates(t *testing.T) {
	f := demoFake()
	f.PatchErr = errors.New("precondition failed")
	e := newTestEngine(f)
	ed := NewEditor(e)
	row := editableRow(e, t)

	ed.Start(row, "name")
	err := ed.Save(context.Background(), row, "Renamed")
	var serr *SaveError
	if !errors.As(err, &serr) {
		t.Fatalf("got %v, want *SaveError", err)
	}
	if e.Session.Phase() != state.EditIdle {
		t.Fatalf("the session ends even when the patch fails")
	}
}

func TestEditor_LookupCommitUsesBinding(t *testing.T) {
	f := demoFake()
	e := newTestEngine(f)
	ed := NewEditor(e)
	row := editableRow(e, t)

	ed.Start(row, "_parentcontactid_value")
	err := ed.SaveLookup(context.Background(), row, gateway.Candidate{Key: "{C-2}", Display: "Marcus Holt"})
	if err != nil {
		t.Fatalf("lookup save: %v", err)
	}
	if f.Calls.Patch != 1 {
		t.Fatalf("exactly one patch, got %d", f.Calls.Patch)
	}
	b, ok := f.Patches[0].Fields["_parentcontactid_value"].(gateway.Binding)
	if !ok {
		t.Fatalf("payload is not a binding: %+v", f.Patches[0].Fields)
	}
	if b.RecordSet != "contacts" || b.Key != "C-2" || b.Field != "_parentcontactid_value" {
		t.Fatalf("binding: %+v", b)
	}
}

func TestEditor_LookupWithoutCandidateAborts(t *testing.T) {
	f := demoFake()
	e := newTestEngine(f)
	ed := NewEditor(e)
	row := editableRow(e, t)

	ed.Start(row, "_parentcontactid_value")
	err := ed.SaveLookup(context.Background(), row, gateway.Candidate{Display: "typed text, no pick"})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("got %v, want *ValidationError", err)
	}
	if e.Session.Phase() != state.EditIdle {
		t.Fatalf("session aborts to idle without a candidate")
	}
	if f.Calls.Patch != 0 {
		t.Fatalf("no patch without a selected candidate")
	}
}
