package dispatch

import (
	"time"

	"github.com/mohsenil85/imbolc/internal/state"
)

// maxUndoDepth bounds the history so a long session can't grow snapshots
// without limit.
const maxUndoDepth = 256

// undoCoalesceWindow collapses rapid same-kind edits (e.g. a held-down level
// adjust) into a single undo entry.
const undoCoalesceWindow = 500 * time.Millisecond

// historyEntry is one full-state undo snapshot.
type historyEntry struct {
	session     *state.SessionState
	instruments state.InstrumentState
}

// AppState is the main thread's exclusive editing state: the authoritative
// session + instrument copies, undo history, and dispatcher bookkeeping.
type AppState struct {
	Session     *state.SessionState
	Instruments *state.InstrumentState

	// AutomationRecording arms write mode: while playing, committed values
	// are sampled back into armed lanes.
	AutomationRecording bool

	// ProjectPath is the current save location ("" for an unsaved project).
	ProjectPath string

	undoStack []historyEntry
	redoStack []historyEntry

	lastUndoKey  string
	lastUndoTime time.Time
}

func NewAppState() *AppState {
	instruments := state.NewInstrumentState()
	return &AppState{
		Session:     state.NewSessionState(),
		Instruments: &instruments,
	}
}

// PushUndo stores a snapshot before a mutation. key identifies coalescable
// edits: consecutive pushes with the same non-empty key inside the coalesce
// window collapse into the first snapshot.
func (s *AppState) PushUndo(key string) {
	now := time.Now()
	if key != "" && key == s.lastUndoKey && now.Sub(s.lastUndoTime) < undoCoalesceWindow {
		s.lastUndoTime = now
		return
	}
	s.lastUndoKey = key
	s.lastUndoTime = now

	s.undoStack = append(s.undoStack, historyEntry{
		session:     s.Session.Clone(),
		instruments: s.Instruments.Clone(),
	})
	if len(s.undoStack) > maxUndoDepth {
		s.undoStack = s.undoStack[1:]
	}
	s.redoStack = s.redoStack[:0]
}

// Undo restores the previous snapshot, pushing the present onto redo.
// Returns false when there is nothing to undo.
func (s *AppState) Undo() bool {
	if len(s.undoStack) == 0 {
		return false
	}
	s.redoStack = append(s.redoStack, historyEntry{
		session:     s.Session.Clone(),
		instruments: s.Instruments.Clone(),
	})
	entry := s.undoStack[len(s.undoStack)-1]
	s.undoStack = s.undoStack[:len(s.undoStack)-1]
	s.Session = entry.session
	inst := entry.instruments
	s.Instruments = &inst
	s.lastUndoKey = ""
	return true
}

// Redo restores the next snapshot, pushing the present onto undo.
func (s *AppState) Redo() bool {
	if len(s.redoStack) == 0 {
		return false
	}
	s.undoStack = append(s.undoStack, historyEntry{
		session:     s.Session.Clone(),
		instruments: s.Instruments.Clone(),
	})
	entry := s.redoStack[len(s.redoStack)-1]
	s.redoStack = s.redoStack[:len(s.redoStack)-1]
	s.Session = entry.session
	inst := entry.instruments
	s.Instruments = &inst
	s.lastUndoKey = ""
	return true
}

// UndoDepth returns the current undo stack size (for the status bar).
func (s *AppState) UndoDepth() int { return len(s.undoStack) }

// RedoDepth returns the current redo stack size.
func (s *AppState) RedoDepth() int { return len(s.redoStack) }
