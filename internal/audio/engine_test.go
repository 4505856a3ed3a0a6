package audio

import (
	"testing"
	"time"

	"github.com/hypebeast/go-osc/osc"
	"github.com/stretchr/testify/assert"

	"github.com/mohsenil85/imbolc/internal/action"
	"github.com/mohsenil85/imbolc/internal/reduce"
	"github.com/mohsenil85/imbolc/internal/state"
)

// testEngine builds a connected engine whose wire traffic is captured
// instead of sent.
func testEngine() (*Engine, *[]*osc.Message) {
	e := NewEngine(nil)
	e.connected = true
	e.status = action.ServerConnected
	captured := &[]*osc.Message{}
	e.capture = func(msgs []*osc.Message) {
		*captured = append(*captured, msgs...)
	}
	return e, captured
}

func apply(e *Engine, a action.Action) {
	reduce.Reduce(a, e.instruments, e.session)
}

func messagesAt(msgs []*osc.Message, addr string) []*osc.Message {
	var out []*osc.Message
	for _, m := range msgs {
		if m.Address == addr {
			out = append(out, m)
		}
	}
	return out
}

// paramValue scans an /s_new or /n_set argument list for a named float
// parameter.
func paramValue(msg *osc.Message, name string) (float32, bool) {
	for i, arg := range msg.Arguments {
		if s, ok := arg.(string); ok && s == name && i+1 < len(msg.Arguments) {
			if v, ok := msg.Arguments[i+1].(float32); ok {
				return v, true
			}
		}
	}
	return 0, false
}

func synthDefOf(msg *osc.Message) string {
	if len(msg.Arguments) > 0 {
		if s, ok := msg.Arguments[0].(string); ok {
			return s
		}
	}
	return ""
}

// Scenario: single Saw instrument, BPM 120, 4/4, 480 tpb. A note at tick 0
// produces exactly one voice spawn at ~261.63 Hz with amp 100/127 and a
// gate-off scheduled once the playhead passes tick 240.
func TestNoteToWire(t *testing.T) {
	e, captured := testEngine()
	apply(e, action.AddInstrument{Source: state.SourceSaw})
	apply(e, action.ToggleNote{Track: 0, Pitch: 60, Tick: 0, Duration: 240, Velocity: 100})
	apply(e, action.PlayStop{})

	// One tick is enough to put the playhead past 0.
	e.Tick(10 * time.Millisecond)

	spawns := messagesAt(*captured, "/s_new")
	assert.Len(t, spawns, 1)
	assert.Equal(t, "imbolc_saw", synthDefOf(spawns[0]))

	freq, ok := paramValue(spawns[0], "freq")
	assert.True(t, ok)
	assert.InDelta(t, 261.63, float64(freq), 0.01)

	amp, ok := paramValue(spawns[0], "amp")
	assert.True(t, ok)
	assert.InDelta(t, 100.0/127.0, float64(amp), 1e-4)

	// At 120 BPM / 480 tpb the playhead moves 960 ticks/sec; tick until it
	// passes 240 and expect the gate-off.
	for i := 0; i < 30; i++ {
		e.Tick(10 * time.Millisecond)
	}
	assert.GreaterOrEqual(t, e.session.PianoRoll.PlayheadTicks, 240.0)

	var sawGateOff bool
	for _, m := range messagesAt(*captured, "/n_set") {
		if v, ok := paramValue(m, "gate"); ok && v == 0 {
			sawGateOff = true
		}
	}
	assert.True(t, sawGateOff, "expected a scheduled n_set gate 0")

	// Exactly one spawn in total: the note does not retrigger.
	assert.Len(t, messagesAt(*captured, "/s_new"), 1)
}

// Scenario: 4/4 at 60 BPM with the click enabled. One second of ticks
// produces exactly one click, and it is the downbeat.
func TestClickDownbeat(t *testing.T) {
	e, captured := testEngine()
	apply(e, action.UpdateSession{Settings: state.MusicalSettings{
		Bpm: 60, TimeSigNum: 4, TimeSigDenom: 4, TicksPerBeat: 480,
	}})
	apply(e, action.ToggleClick{})
	apply(e, action.SetClickVolume{Volume: 0.5})
	apply(e, action.PlayStop{})

	for i := 0; i < 100; i++ {
		e.Tick(time.Duration(9.9 * float64(time.Millisecond)))
	}

	var clicks []*osc.Message
	for _, m := range messagesAt(*captured, "/s_new") {
		if synthDefOf(m) == "imbolc_click" {
			clicks = append(clicks, m)
		}
	}
	assert.Len(t, clicks, 1)

	freq, ok := paramValue(clicks[0], "freq")
	assert.True(t, ok)
	assert.Equal(t, float32(1500), freq, "the only click in the first second is the downbeat")

	amp, ok := paramValue(clicks[0], "amp")
	assert.True(t, ok)
	assert.Equal(t, float32(0.5), amp)
}

// A tick with zero BPM (or zero resolution) is a no-op: no spawns, no
// playhead movement, no crash.
func TestZeroBpmTickIsNoOp(t *testing.T) {
	e, captured := testEngine()
	apply(e, action.AddInstrument{Source: state.SourceSaw})
	apply(e, action.ToggleNote{Track: 0, Pitch: 60, Tick: 0, Duration: 240, Velocity: 100})
	apply(e, action.PlayStop{})
	e.session.Bpm = 0

	for i := 0; i < 10; i++ {
		e.Tick(10 * time.Millisecond)
	}
	assert.Empty(t, *captured)
	assert.Zero(t, e.session.PianoRoll.PlayheadTicks)

	e.session.Bpm = 120
	e.session.TicksPerBeat = 0
	for i := 0; i < 10; i++ {
		e.Tick(10 * time.Millisecond)
	}
	assert.Empty(t, *captured)
}

// Master mute suppresses voice spawns entirely (dropped pre-encode).
func TestMasterMuteSuppressesSpawns(t *testing.T) {
	e, captured := testEngine()
	apply(e, action.AddInstrument{Source: state.SourceSaw})
	apply(e, action.ToggleNote{Track: 0, Pitch: 60, Tick: 0, Duration: 240, Velocity: 100})
	apply(e, action.ToggleMasterMute{})
	apply(e, action.PlayStop{})

	for i := 0; i < 10; i++ {
		e.Tick(10 * time.Millisecond)
	}
	assert.Empty(t, messagesAt(*captured, "/s_new"))
}

// Loop wrap: the playhead returns to loop start, the note retriggers on the
// second pass, and no double beat is emitted at the boundary.
func TestLoopWrapRetriggersAndRephases(t *testing.T) {
	e, captured := testEngine()
	apply(e, action.AddInstrument{Source: state.SourceSaw})
	apply(e, action.ToggleNote{Track: 0, Pitch: 60, Tick: 0, Duration: 120, Velocity: 100})
	apply(e, action.ToggleLoop{})
	apply(e, action.SetLoopEnd{Tick: 480})
	apply(e, action.PlayStop{})

	// 120 BPM => 960 ticks/sec; 0.6 s crosses the 480-tick loop once.
	for i := 0; i < 60; i++ {
		e.Tick(10 * time.Millisecond)
		assert.Less(t, e.session.PianoRoll.PlayheadTicks, 480.0, "playhead must stay inside the loop")
	}

	spawns := messagesAt(*captured, "/s_new")
	assert.Len(t, spawns, 2, "one spawn per loop pass")
}

// Projection: a reducible action mutates the engine's local state without a
// snapshot; a non-reducible one adopts the published snapshot.
func TestProjectionAndSnapshotFallback(t *testing.T) {
	e, _ := testEngine()

	e.Cmds() <- CmdProjection{Action: action.AddInstrument{Source: state.SourceSine}}
	e.Tick(time.Millisecond)
	assert.Len(t, e.instruments.Instruments, 1)
	assert.Equal(t, state.SourceSine, e.instruments.Instruments[0].Source)

	// Non-reducible action with a pre-published snapshot.
	session := state.NewSessionState()
	session.Bpm = 93
	instruments := state.NewInstrumentState()
	instruments.Add(state.SourceFm)
	instruments.Add(state.SourceKit)
	instCopy := instruments.Clone()
	e.Snapshots().Write(&Snapshot{Session: session.Clone(), Instruments: &instCopy})

	e.Cmds() <- CmdProjection{Action: action.Undo{}, FullSync: true}
	e.Tick(time.Millisecond)

	assert.Equal(t, float32(93), e.session.Bpm)
	assert.Len(t, e.instruments.Instruments, 2)
}

// Automation interpolation emits an n_set only when the value moves more
// than epsilon.
func TestAutomationEmission(t *testing.T) {
	e, captured := testEngine()
	apply(e, action.AddInstrument{Source: state.SourceSaw})
	id := e.instruments.Instruments[0].Id
	e.rebuildRouting()

	laneId := e.session.Automation.AddLane(state.InstrumentLevelTarget(id))
	lane := e.session.Automation.Lane(laneId)
	lane.AddPoint(0, 0.0)
	lane.AddPoint(960, 1.0)

	apply(e, action.PlayStop{})
	for i := 0; i < 50; i++ {
		e.Tick(10 * time.Millisecond)
	}

	var levelSets int
	for _, m := range messagesAt(*captured, "/n_set") {
		if _, ok := paramValue(m, "level"); ok {
			levelSets++
		}
	}
	assert.Greater(t, levelSets, 0, "ramp must emit level updates")

	// A static lane re-emits nothing.
	before := levelSets
	lane.Points = lane.Points[:0]
	lane.AddPoint(0, 0.5)
	for i := 0; i < 20; i++ {
		e.Tick(10 * time.Millisecond)
	}
	levelSets = 0
	for _, m := range messagesAt(*captured, "/n_set") {
		if _, ok := paramValue(m, "level"); ok {
			levelSets++
		}
	}
	assert.LessOrEqual(t, levelSets, before+1, "static value must not re-emit every tick")
}

// Drum sequencer: active steps with probability 1 fire on their step.
func TestDrumSequencerSteps(t *testing.T) {
	e, captured := testEngine()
	apply(e, action.AddInstrument{Source: state.SourceKit})
	inst := &e.instruments.Instruments[0]
	inst.Extra.Drums.Pads[0].Steps[0].Active = true
	inst.Extra.Drums.Pads[1].Steps[0].Active = true
	inst.Extra.Drums.Pads[1].Mute = true

	apply(e, action.PlayStop{})
	e.Tick(10 * time.Millisecond)

	spawns := messagesAt(*captured, "/s_new")
	assert.Len(t, spawns, 1, "muted pad must not fire")
	assert.Equal(t, "imbolc_kit", synthDefOf(spawns[0]))
}

// Generative Euclidean voice: onsets follow the cached pattern, and a
// config change invalidates the cache via the fingerprint.
func TestGenerativeEuclideanVoice(t *testing.T) {
	e, captured := testEngine()
	apply(e, action.AddInstrument{Source: state.SourceSine})
	id := e.instruments.Instruments[0].Id
	voiceId := e.session.Generative.AddVoice(id)
	voice := e.session.Generative.Voice(voiceId)
	voice.Enabled = true
	voice.Rate = 4
	voice.Pulses = 16
	voice.StepsLen = 16

	apply(e, action.PlayStop{})
	// 4 steps/beat at 120 BPM = 8 steps/sec; run half a second.
	for i := 0; i < 50; i++ {
		e.Tick(10 * time.Millisecond)
	}

	spawns := messagesAt(*captured, "/s_new")
	assert.NotEmpty(t, spawns, "all-pulse euclidean voice must emit")

	ps := e.genStates[voiceId]
	oldFp := ps.configFingerprint
	voice.Pulses = 3
	e.Tick(10 * time.Millisecond)
	assert.NotEqual(t, oldFp, e.genStates[voiceId].configFingerprint,
		"fingerprint change must rebuild the cached pattern")
}

// Arpeggiator: held notes step at the configured rate, releasing the
// previous pitch each step.
func TestArpeggiatorSteps(t *testing.T) {
	e, captured := testEngine()
	apply(e, action.AddInstrument{Source: state.SourceSaw})
	inst := &e.instruments.Instruments[0]
	inst.NoteInput.Arp.Enabled = true
	inst.NoteInput.Arp.Rate = 8
	e.holdNote(inst.Id, 60)
	e.holdNote(inst.Id, 64)
	e.holdNote(inst.Id, 67)

	apply(e, action.PlayStop{})
	// 8 steps/beat at 120 BPM = 16 steps/sec; 0.5 s ~= 8 steps.
	for i := 0; i < 50; i++ {
		e.Tick(10 * time.Millisecond)
	}

	spawns := messagesAt(*captured, "/s_new")
	assert.GreaterOrEqual(t, len(spawns), 6)

	// Up direction cycles 60, 64, 67 ascending.
	f0, _ := paramValue(spawns[0], "freq")
	f1, _ := paramValue(spawns[1], "freq")
	f2, _ := paramValue(spawns[2], "freq")
	assert.Less(t, f0, f1)
	assert.Less(t, f1, f2)
}

func TestEffectiveMuteDropsSoloedOthers(t *testing.T) {
	e, _ := testEngine()
	apply(e, action.AddInstrument{Source: state.SourceSaw})
	apply(e, action.AddInstrument{Source: state.SourceSine})

	e.instruments.Instruments[1].Mixer.Solo = true
	assert.True(t, e.effectiveMuted(&e.instruments.Instruments[0]))
	assert.False(t, e.effectiveMuted(&e.instruments.Instruments[1]))
}
