package audio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mohsenil85/imbolc/internal/action"
	"github.com/mohsenil85/imbolc/internal/state"
)

// The bridge forwards reducible actions without publishing a snapshot: the
// audio thread converges by reduction alone.
func TestForwardReducibleActionProjects(t *testing.T) {
	e, _ := testEngine()
	h := NewHandle(e)

	session := state.NewSessionState()
	instruments := state.NewInstrumentState()
	instruments.Add(state.SourceSaw)

	// The main thread has already reduced; the bridge forwards.
	result := action.DispatchResult{Dirty: action.AudioDirty{Instruments: true}}
	h.ForwardAction(action.AddInstrument{Source: state.SourceSaw}, &result, session, &instruments)

	assert.Equal(t, uint64(0), e.Snapshots().Published(), "reducible actions must not publish snapshots")

	e.Tick(time.Millisecond)
	assert.Len(t, e.instruments.Instruments, 1)
}

// Non-reducible actions with observable changes publish a snapshot and flag
// the projection for full sync; the audio thread adopts the snapshot.
func TestForwardNonReducibleActionSyncs(t *testing.T) {
	e, _ := testEngine()
	h := NewHandle(e)

	session := state.NewSessionState()
	session.Bpm = 150
	instruments := state.NewInstrumentState()
	instruments.Add(state.SourceKit)

	result := action.DispatchResult{
		Dirty: action.AudioDirty{Session: true, Instruments: true},
	}
	h.ForwardAction(action.Undo{}, &result, session, &instruments)
	assert.Equal(t, uint64(1), e.Snapshots().Published())

	e.Tick(time.Millisecond)
	assert.Equal(t, float32(150), e.session.Bpm)
	assert.Len(t, e.instruments.Instruments, 1)
	assert.Equal(t, state.SourceKit, e.instruments.Instruments[0].Source)
}

// Snapshots are deep copies: mutating the editing state after publication
// must not leak into the audio thread.
func TestPublishedSnapshotIsIsolated(t *testing.T) {
	e, _ := testEngine()
	h := NewHandle(e)

	session := state.NewSessionState()
	instruments := state.NewInstrumentState()
	id := instruments.Add(state.SourceSine)
	session.PianoRoll.TrackFor(id).ToggleNote(60, 0, 240, 100)

	h.PublishSnapshot(session, &instruments)

	// Mutate the editing copy after publishing.
	session.PianoRoll.Tracks[0].ToggleNote(61, 0, 240, 100)
	instruments.Instruments[0].Mixer.Level = 0.1

	e.Cmds() <- CmdProjection{FullSync: true}
	e.Tick(time.Millisecond)

	assert.Len(t, e.session.PianoRoll.Tracks[0].Notes, 1)
	assert.Equal(t, float32(0.8), e.instruments.Instruments[0].Mixer.Level)
}

func TestDrainFeedbackNonBlocking(t *testing.T) {
	e, _ := testEngine()
	h := NewHandle(e)

	assert.Empty(t, h.DrainFeedback())

	e.sendFeedback(action.BpmUpdate{Bpm: 120})
	e.sendFeedback(action.PlayingChanged{Playing: true})
	fbs := h.DrainFeedback()
	assert.Len(t, fbs, 2)
}
