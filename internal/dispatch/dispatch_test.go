package dispatch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mohsenil85/imbolc/internal/action"
	"github.com/mohsenil85/imbolc/internal/state"
)

func testDispatcher() *Dispatcher {
	return New(NewAppState(), nil)
}

func TestDispatchAddInstrument(t *testing.T) {
	d := testDispatcher()
	result := d.Dispatch(action.AddInstrument{Source: state.SourceSaw})

	assert.Len(t, d.State.Instruments.Instruments, 1)
	assert.True(t, result.Dirty.Instruments)
	assert.True(t, result.Dirty.Routing)
	assert.NotEmpty(t, result.Effects)
}

func TestUndoRedoRoundTrip(t *testing.T) {
	d := testDispatcher()
	d.Dispatch(action.AddInstrument{Source: state.SourceSaw})
	d.Dispatch(action.ToggleNote{Track: 0, Pitch: 60, Tick: 0, Duration: 240, Velocity: 100})
	assert.Len(t, d.State.Session.PianoRoll.Tracks[0].Notes, 1)

	d.Dispatch(action.Undo{})
	assert.Empty(t, d.State.Session.PianoRoll.Tracks[0].Notes)

	d.Dispatch(action.Redo{})
	assert.Len(t, d.State.Session.PianoRoll.Tracks[0].Notes, 1)
}

func TestUndoNothingGivesStatus(t *testing.T) {
	d := testDispatcher()
	result := d.Dispatch(action.Undo{})
	assert.NotEmpty(t, result.StatusEvents)
	assert.Contains(t, result.StatusEvents[0].Message, "nothing to undo")
}

// Rapid same-kind adjustments collapse into one undo entry; a single undo
// restores the pre-drag value.
func TestUndoCoalescing(t *testing.T) {
	d := testDispatcher()
	d.Dispatch(action.AddInstrument{Source: state.SourceSaw})
	id := d.State.Instruments.Instruments[0].Id
	before := d.State.Instruments.Instruments[0].Mixer.Level

	for i := 0; i < 5; i++ {
		d.Dispatch(action.AdjustInstrumentLevel{Id: id, Delta: -0.05})
	}
	assert.InDelta(t, float64(before)-0.25, float64(d.State.Instruments.Instruments[0].Mixer.Level), 1e-6)

	d.Dispatch(action.Undo{})
	assert.Equal(t, before, d.State.Instruments.Instruments[0].Mixer.Level)
}

func TestDistinctEditsDoNotCoalesce(t *testing.T) {
	d := testDispatcher()
	d.Dispatch(action.AddInstrument{Source: state.SourceSaw})
	depth := d.State.UndoDepth()

	d.Dispatch(action.ToggleNote{Track: 0, Pitch: 60, Tick: 0, Duration: 240, Velocity: 100})
	d.Dispatch(action.ToggleNote{Track: 0, Pitch: 62, Tick: 480, Duration: 240, Velocity: 100})
	assert.Equal(t, depth+2, d.State.UndoDepth())
}

func TestBusRemovalThroughDispatcher(t *testing.T) {
	d := testDispatcher()
	d.Dispatch(action.AddInstrument{Source: state.SourceSaw})
	d.Dispatch(action.AddBus{})
	id := d.State.Instruments.Instruments[0].Id
	bus := state.BusId(1)
	d.Dispatch(action.SetOutputTarget{Id: id, Target: state.ToBus(bus)})

	result := d.Dispatch(action.RemoveBus{Bus: bus})
	assert.Equal(t, state.ToMaster(), d.State.Instruments.Instruments[0].Output)
	assert.True(t, result.Dirty.Routing)

	// And it undoes as one step.
	d.Dispatch(action.Undo{})
	assert.Equal(t, state.ToBus(bus), d.State.Instruments.Instruments[0].Output)
}

func TestAutomationRecordingSamplesValue(t *testing.T) {
	d := testDispatcher()
	d.Dispatch(action.AddInstrument{Source: state.SourceSaw})
	id := d.State.Instruments.Instruments[0].Id
	d.Dispatch(action.AddLane{Target: state.InstrumentLevelTarget(id)})
	laneId := d.State.Session.Automation.Lanes[0].Id
	d.Dispatch(action.ToggleLaneArm{Lane: laneId})

	// Not recording yet: adjustments leave the lane empty.
	d.Dispatch(action.AdjustInstrumentLevel{Id: id, Delta: -0.1})
	assert.Empty(t, d.State.Session.Automation.Lanes[0].Points)

	d.Dispatch(action.ToggleAutomationRecording{})
	d.Dispatch(action.PlayStop{})
	d.State.Session.PianoRoll.PlayheadTicks = 960

	d.Dispatch(action.AdjustInstrumentLevel{Id: id, Delta: -0.1})
	points := d.State.Session.Automation.Lanes[0].Points
	assert.Len(t, points, 1)
	assert.Equal(t, uint32(960), points[0].Tick)
	assert.InDelta(t, float64(d.State.Instruments.Instruments[0].Mixer.Level), float64(points[0].Value), 1e-6)
}

func TestMidiRecordingWritesNotes(t *testing.T) {
	d := testDispatcher()
	d.Dispatch(action.AddInstrument{Source: state.SourceSaw})

	// Not recording: captured notes audition but are not written.
	d.Dispatch(action.MidiNoteOn{Pitch: 60, Velocity: 100})
	assert.Empty(t, d.State.Session.PianoRoll.Tracks[0].Notes)

	d.Dispatch(action.PlayStopRecord{})
	d.State.Session.PianoRoll.PlayheadTicks = 477
	d.State.Session.MidiRecording.Quantize = true
	d.State.Session.MidiRecording.QuantizeGrid = 120

	d.Dispatch(action.MidiNoteOn{Pitch: 64, Velocity: 90})
	notes := d.State.Session.PianoRoll.Tracks[0].Notes
	assert.Len(t, notes, 1)
	assert.Equal(t, uint8(64), notes[0].Pitch)
	// 477 quantizes to the nearest 120-tick grid line.
	assert.Equal(t, uint32(480), notes[0].Tick)
}

func TestIoFeedbackGenerationGating(t *testing.T) {
	d := testDispatcher()
	d.State.Session.Io.NextLoad() // current generation = 1

	fresh := state.NewSessionState()
	fresh.Bpm = 77
	freshInstruments := state.NewInstrumentState()

	// Stale completion from a superseded load is ignored.
	result := d.ApplyIoFeedback(action.LoadComplete{
		Gen: 0, Path: "old", Session: fresh, Instruments: &freshInstruments,
	})
	assert.NotEqual(t, float32(77), d.State.Session.Bpm)
	assert.Empty(t, result.StatusEvents)

	// The current generation applies.
	result = d.ApplyIoFeedback(action.LoadComplete{
		Gen: 1, Path: "new", Session: fresh, Instruments: &freshInstruments,
	})
	assert.Equal(t, float32(77), d.State.Session.Bpm)
	assert.NotEmpty(t, result.StatusEvents)
}

func TestDrumSequencerDispatch(t *testing.T) {
	d := testDispatcher()
	d.Dispatch(action.AddInstrument{Source: state.SourceKit})
	id := d.State.Instruments.Instruments[0].Id

	d.Dispatch(action.ToggleDrumStep{Id: id, Pad: 0, Step: 4})
	seq := d.State.Instruments.Instruments[0].Extra.Drums
	assert.True(t, seq.Pads[0].Steps[4].Active)

	// Out-of-range pads and steps are ignored.
	d.Dispatch(action.ToggleDrumStep{Id: id, Pad: 99, Step: 4})
	d.Dispatch(action.SetDrumStepProbability{Id: id, Pad: 0, Step: 4, Probability: 2.0})
	assert.Equal(t, float32(1.0), seq.Pads[0].Steps[4].Probability)
}

func TestArrangementDispatch(t *testing.T) {
	d := testDispatcher()
	d.Dispatch(action.AddInstrument{Source: state.SourceSaw})
	id := d.State.Instruments.Instruments[0].Id

	d.Dispatch(action.AddClip{Name: "intro", LengthTicks: 1920})
	clip := d.State.Session.Arrangement.Clips[0].Id
	d.Dispatch(action.PlaceClip{Clip: clip, Instrument: id, StartTick: 0})
	assert.Len(t, d.State.Session.Arrangement.Placements, 1)

	// Removing the clip removes its placements.
	d.Dispatch(action.RemoveClip{Clip: clip})
	assert.Empty(t, d.State.Session.Arrangement.Clips)
	assert.Empty(t, d.State.Session.Arrangement.Placements)
}

func TestGenVoiceDispatch(t *testing.T) {
	d := testDispatcher()
	d.Dispatch(action.AddInstrument{Source: state.SourceSine})
	id := d.State.Instruments.Instruments[0].Id

	d.Dispatch(action.AddGenVoice{Instrument: id})
	assert.Len(t, d.State.Session.Generative.Voices, 1)
	voice := d.State.Session.Generative.Voices[0].Id

	d.Dispatch(action.ToggleGenVoice{Voice: voice})
	assert.True(t, d.State.Session.Generative.Voices[0].Enabled)

	d.Dispatch(action.SetGenEuclid{Voice: voice, Pulses: 3, StepsLen: 8, Rotation: 1})
	v := d.State.Session.Generative.Voices[0]
	assert.Equal(t, 3, v.Pulses)
	assert.Equal(t, 8, v.StepsLen)
}

func TestUndoDepthBounded(t *testing.T) {
	st := NewAppState()
	for i := 0; i < maxUndoDepth+50; i++ {
		// The empty key never coalesces.
		st.PushUndo("")
		st.lastUndoTime = time.Time{}
	}
	assert.Equal(t, maxUndoDepth, st.UndoDepth())
}

func TestStatusEventHelpers(t *testing.T) {
	ev := action.Status("hello")
	assert.False(t, ev.IsError)
	assert.Equal(t, 3*time.Second, ev.Duration)

	errEv := action.ErrorStatus("bad")
	assert.True(t, errEv.IsError)
}
