package state

// EditPhase is the tagged state of the single grid-wide edit session.
type EditPhase int

const (
	EditIdle EditPhase = iota
	EditEditing
	EditSaving
)

// EditContext identifies the cell under edit and the value to restore on
// cancel.
type EditContext struct {
	Row      RowID
	Level    int
	Context  string
	Column   string
	Original any
}

// Session enforces the single-flight edit guarantee: at most one cell edit is
// active anywhere in the grid, and illegal transitions are no-ops.
type Session struct {
	phase EditPhase
	ctx   EditContext
}

// NewSession returns an idle session.
func NewSession() *Session { return &Session{} }

// Phase returns the current phase.
func (s *Session) Phase() EditPhase { return s.phase }

// Context returns the active edit context; meaningful only outside EditIdle.
func (s *Session) Context() EditContext { return s.ctx }

// Begin starts an edit session. It reports false (and changes nothing) when a
// session is already active.
func (s *Session) Begin(ctx EditContext) bool {
	if s.phase != EditIdle {
		return false
	}
	s.phase = EditEditing
	s.ctx = ctx
	return true
}

// StartSaving moves Editing → Saving. False when not editing.
func (s *Session) StartSaving() bool {
	if s.phase != EditEditing {
		return false
	}
	s.phase = EditSaving
	return true
}

// End terminates the session to Idle from any phase.
func (s *Session) End() {
	s.phase = EditIdle
	s.ctx = EditContext{}
}
