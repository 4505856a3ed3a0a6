package audio

import (
	"log"

	"github.com/mohsenil85/imbolc/internal/action"
	"github.com/mohsenil85/imbolc/internal/reduce"
	"github.com/mohsenil85/imbolc/internal/state"
)

// Handle is the main-thread interface to the audio engine: it forwards
// dispatched actions for projection (and publishes full snapshots when an
// action cannot be projected), relays server status, and drains feedback.
type Handle struct {
	engine *Engine
}

func NewHandle(engine *Engine) *Handle {
	return &Handle{engine: engine}
}

// ForwardAction implements the action-projection bridge. The audio thread
// reduces the action against its local copies; when the action is not
// reducible and produced observable changes, the updated state is published
// through the triple buffer first and the projection is flagged for a full
// sync.
func (h *Handle) ForwardAction(a action.Action, result *action.DispatchResult,
	session *state.SessionState, instruments *state.InstrumentState) {

	fullSync := !reduce.IsReducible(a) && (result.Dirty.Any() || len(result.Effects) > 0)
	if fullSync {
		h.PublishSnapshot(session, instruments)
	}

	h.send(CmdProjection{
		Action:   a,
		Effects:  result.Effects,
		FullSync: fullSync,
	})
}

// PublishSnapshot deep-copies the editing state and hands it to the audio
// thread through the wait-free triple buffer.
func (h *Handle) PublishSnapshot(session *state.SessionState, instruments *state.InstrumentState) {
	instCopy := instruments.Clone()
	snap := &Snapshot{
		Session:     session.Clone(),
		Instruments: &instCopy,
	}
	h.engine.Snapshots().Write(snap)
}

// SetServerStatus relays a connection state transition to the engine.
func (h *Handle) SetServerStatus(status action.ServerStatus) {
	h.send(CmdServerStatus{Status: status})
}

// NotifyServerCrashed invalidates the engine's node tracking.
func (h *Handle) NotifyServerCrashed(message string) {
	h.send(CmdServerCrashed{Message: message})
}

// SetLookahead adjusts the scheduling lookahead.
func (h *Handle) SetLookahead(seconds float64) {
	h.send(CmdSetLookahead{Seconds: seconds})
}

// Stop asks the engine goroutine to exit and waits for it.
func (h *Handle) Stop() {
	h.send(CmdStop{})
	<-h.engine.Done()
}

// DrainFeedback empties the audio -> main feedback channel without blocking.
func (h *Handle) DrainFeedback() []action.AudioFeedback {
	var out []action.AudioFeedback
	for {
		select {
		case fb := <-h.engine.Feedback():
			out = append(out, fb)
		default:
			return out
		}
	}
}

// send enqueues a command; the ring is large enough that a full queue means
// the audio thread is wedged, in which case dropping (with a log) is the
// only non-blocking option.
func (h *Handle) send(cmd Cmd) {
	select {
	case h.engine.Cmds() <- cmd:
	default:
		log.Printf("audio: command ring full, dropping %T", cmd)
	}
}
