package audio

import (
	"github.com/mohsenil85/imbolc/internal/action"
	"github.com/mohsenil85/imbolc/internal/state"
)

// Cmd is a message on the main -> audio MPSC ring.
type Cmd interface{}

// CmdProjection forwards a dispatched action for incremental reduction on
// the audio thread's local state copies. FullSync tells the engine to adopt
// the latest triple-buffered snapshot instead of (or after) reducing.
type CmdProjection struct {
	Action   action.Action
	Effects  []action.AudioEffect
	FullSync bool
}

// CmdServerStatus informs the engine of connection state transitions.
type CmdServerStatus struct {
	Status action.ServerStatus
}

// CmdServerCrashed makes the engine invalidate its node registry.
type CmdServerCrashed struct {
	Message string
}

// CmdSetLookahead adjusts the scheduling lookahead (clamped 0.02-0.1 s).
type CmdSetLookahead struct {
	Seconds float64
}

// CmdStop asks the engine goroutine to exit.
type CmdStop struct{}

// Snapshot is the full-state payload published through the triple buffer
// when an action cannot be incrementally projected.
type Snapshot struct {
	Session     *state.SessionState
	Instruments *state.InstrumentState
}
