package reduce

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mohsenil85/imbolc/internal/action"
	"github.com/mohsenil85/imbolc/internal/state"
)

func setup() (*state.InstrumentState, *state.SessionState) {
	instruments := state.NewInstrumentState()
	session := state.NewSessionState()
	return &instruments, session
}

// checkInvariants asserts the universal invariants that must hold after
// every reducer step.
func checkInvariants(t *testing.T, instruments *state.InstrumentState, session *state.SessionState) {
	t.Helper()
	busIds := make(map[state.BusId]bool)
	for _, id := range session.Mixer.BusIds() {
		busIds[id] = true
	}
	for _, inst := range instruments.Instruments {
		for _, send := range inst.Sends {
			if send.Enabled {
				assert.True(t, busIds[send.Bus], "enabled send to nonexistent bus %d", send.Bus)
			}
		}
		if inst.Output.Kind == "bus" {
			assert.True(t, busIds[inst.Output.Bus], "output to nonexistent bus %d", inst.Output.Bus)
		}
	}
	for _, lane := range session.Automation.Lanes {
		if lane.Target.Kind == state.TargetBusLevel || lane.Target.Kind == state.TargetBusPan {
			assert.True(t, busIds[lane.Target.Bus], "automation lane for nonexistent bus")
		}
	}
	for _, track := range session.PianoRoll.Tracks {
		for i := 1; i < len(track.Notes); i++ {
			assert.LessOrEqual(t, track.Notes[i-1].Tick, track.Notes[i].Tick, "notes out of order")
		}
	}
	assert.True(t, instruments.Selected < len(instruments.Instruments), "selection out of range")
}

func TestIsReducibleClassifier(t *testing.T) {
	reducible := []action.Action{
		action.AddInstrument{Source: state.SourceSaw},
		action.AdjustInstrumentLevel{},
		action.ToggleNote{},
		action.PlayStop{},
		action.AddBus{},
		action.LinkInstruments{},
		action.ToggleClick{},
		action.AddLane{},
		action.SetVstParam{},
		action.CycleTheme{},
		action.MidiNoteOn{},
		action.ToggleTuner{},
	}
	for _, a := range reducible {
		assert.True(t, IsReducible(a), "%T should be reducible", a)
	}

	notReducible := []action.Action{
		action.Undo{},
		action.Redo{},
		action.RenderToWav{},
		action.BounceToWav{},
		action.ExportStems{},
		action.CancelExport{},
		action.ToggleAutomationRecording{},
		action.DiscoverVstParams{},
		action.SaveVstState{},
		action.NewProject{},
		action.SaveProject{},
		action.LoadProject{},
		action.ImportCustomSynthDef{},
		action.CreateCheckpoint{},
		action.AddClip{},
		action.ToggleDrumStep{},
		action.ChopSample{},
		action.StartServer{},
	}
	for _, a := range notReducible {
		assert.False(t, IsReducible(a), "%T should require full sync", a)
		assert.False(t, Reduce(a, nil, nil), "%T must be declined by Reduce", a)
	}
}

func TestToggleNoteIdempotence(t *testing.T) {
	instruments, session := setup()
	Reduce(action.AddInstrument{Source: state.SourceSaw}, instruments, session)

	toggle := action.ToggleNote{Track: 0, Pitch: 60, Tick: 0, Duration: 240, Velocity: 100}
	assert.True(t, Reduce(toggle, instruments, session))
	assert.Len(t, session.PianoRoll.Tracks[0].Notes, 1)

	assert.True(t, Reduce(toggle, instruments, session))
	assert.Empty(t, session.PianoRoll.Tracks[0].Notes)
	checkInvariants(t, instruments, session)
}

func TestPasteNotesClampsAndDedups(t *testing.T) {
	instruments, session := setup()
	Reduce(action.AddInstrument{Source: state.SourceSaw}, instruments, session)
	Reduce(action.ToggleNote{Track: 0, Pitch: 60, Tick: 480, Duration: 240, Velocity: 100}, instruments, session)

	Reduce(action.PasteNotes{
		Track:       0,
		AnchorTick:  480,
		AnchorPitch: 60,
		Notes: []action.ClipboardNote{
			{TickOffset: 0, PitchOffset: 0, Duration: 240, Velocity: 90},    // duplicate of existing
			{TickOffset: 0, PitchOffset: 100, Duration: 240, Velocity: 90},  // pitch 160: discarded
			{TickOffset: 0, PitchOffset: -100, Duration: 240, Velocity: 90}, // pitch -40: discarded
			{TickOffset: 240, PitchOffset: 2, Duration: 240, Velocity: 90},  // valid
		},
	}, instruments, session)

	track := session.PianoRoll.Tracks[0]
	assert.Len(t, track.Notes, 2)
	assert.Equal(t, uint8(62), track.Notes[1].Pitch)
	checkInvariants(t, instruments, session)
}

// Bus removal is a multi-step graph rewrite: output rerouted to master, the
// send kept but disabled, the automation lane gone, the bus gone.
func TestBusRemovalRewrite(t *testing.T) {
	instruments, session := setup()
	Reduce(action.AddInstrument{Source: state.SourceSaw}, instruments, session)
	for i := 0; i < 3; i++ {
		Reduce(action.AddBus{}, instruments, session)
	}
	id := instruments.Instruments[0].Id
	bus3 := state.BusId(3)

	Reduce(action.SetOutputTarget{Id: id, Target: state.ToBus(bus3)}, instruments, session)
	Reduce(action.ToggleSend{Id: id, Bus: bus3}, instruments, session)
	Reduce(action.AdjustSendLevel{Id: id, Bus: bus3, Delta: 0.5}, instruments, session)
	Reduce(action.AddLane{Target: state.BusLevelTarget(bus3)}, instruments, session)

	Reduce(action.RemoveBus{Bus: bus3}, instruments, session)

	inst := instruments.Instruments[0]
	assert.Equal(t, state.ToMaster(), inst.Output)
	send := inst.Send(bus3)
	assert.NotNil(t, send, "send survives bus removal")
	assert.False(t, send.Enabled)
	assert.InDelta(t, 0.5, send.Level, 1e-6)
	assert.Empty(t, session.Automation.Lanes)
	assert.Nil(t, session.Mixer.Bus(bus3))
	checkInvariants(t, instruments, session)
}

func TestAddBusRemoveBusRoundTrip(t *testing.T) {
	instruments, session := setup()
	before := len(session.Mixer.Buses)

	Reduce(action.AddBus{}, instruments, session)
	newId := session.Mixer.Buses[len(session.Mixer.Buses)-1].Id
	Reduce(action.AddLane{Target: state.BusLevelTarget(newId)}, instruments, session)
	Reduce(action.RemoveBus{Bus: newId}, instruments, session)

	assert.Len(t, session.Mixer.Buses, before)
	assert.Empty(t, session.Automation.Lanes)
}

func TestAddBusSyncsInstrumentSends(t *testing.T) {
	instruments, session := setup()
	Reduce(action.AddInstrument{Source: state.SourceSaw}, instruments, session)
	before := len(instruments.Instruments[0].Sends)
	Reduce(action.AddBus{}, instruments, session)
	assert.Len(t, instruments.Instruments[0].Sends, before+1)
}

func TestDeleteInstrumentCleansUp(t *testing.T) {
	instruments, session := setup()
	Reduce(action.AddInstrument{Source: state.SourceSaw}, instruments, session)
	id := instruments.Instruments[0].Id
	Reduce(action.AddLane{Target: state.InstrumentLevelTarget(id)}, instruments, session)

	Reduce(action.DeleteInstrument{Id: id}, instruments, session)
	assert.Empty(t, instruments.Instruments)
	assert.Empty(t, session.Automation.Lanes)
	assert.Empty(t, session.PianoRoll.Tracks)
	checkInvariants(t, instruments, session)
}

func TestLayerGroupDissolvesWithSingleMember(t *testing.T) {
	instruments, session := setup()
	Reduce(action.AddInstrument{Source: state.SourceSaw}, instruments, session)
	Reduce(action.AddInstrument{Source: state.SourceSine}, instruments, session)
	a, b := instruments.Instruments[0].Id, instruments.Instruments[1].Id

	Reduce(action.LinkInstruments{Ids: []state.InstrumentId{a, b}}, instruments, session)
	group := instruments.Instruments[0].LayerGroup
	assert.NotZero(t, group)
	assert.Equal(t, group, instruments.Instruments[1].LayerGroup)
	assert.Len(t, session.Mixer.LayerMixers, 1)

	// Unlinking one member dissolves the group entirely.
	Reduce(action.UnlinkInstrument{Id: a}, instruments, session)
	assert.Zero(t, instruments.Instruments[0].LayerGroup)
	assert.Zero(t, instruments.Instruments[1].LayerGroup)
	assert.Empty(t, session.Mixer.LayerMixers)
}

func TestCycleTimeSig(t *testing.T) {
	instruments, session := setup()
	expected := [][2]uint8{{3, 4}, {6, 8}, {5, 4}, {7, 8}, {4, 4}}
	for _, want := range expected {
		Reduce(action.CycleTimeSig{}, instruments, session)
		assert.Equal(t, want, session.TimeSignature)
		assert.Equal(t, want, session.PianoRoll.TimeSignature)
	}
}

func TestCycleTheme(t *testing.T) {
	instruments, session := setup()
	Reduce(action.CycleTheme{}, instruments, session)
	assert.Equal(t, "Light", session.Theme.Name)
	Reduce(action.CycleTheme{}, instruments, session)
	assert.Equal(t, "HighContrast", session.Theme.Name)
	Reduce(action.CycleTheme{}, instruments, session)
	assert.Equal(t, "Dark", session.Theme.Name)
}

func TestVstParamClampAndUpsert(t *testing.T) {
	instruments, session := setup()
	Reduce(action.AddInstrument{Source: state.SourceVst}, instruments, session)
	id := instruments.Instruments[0].Id

	Reduce(action.SetVstParam{Id: id, Target: action.VstSource(), Param: 3, Value: 1.5}, instruments, session)
	values := instruments.Instruments[0].Extra.VstParamValues
	assert.Len(t, values, 1)
	assert.Equal(t, float32(1.0), values[0].Value)

	// Adjust upserts into the same sparse entry.
	Reduce(action.AdjustVstParam{Id: id, Target: action.VstSource(), Param: 3, Delta: -0.25}, instruments, session)
	values = instruments.Instruments[0].Extra.VstParamValues
	assert.Len(t, values, 1)
	assert.InDelta(t, 0.75, values[0].Value, 1e-6)

	// A new index appends.
	Reduce(action.AdjustVstParam{Id: id, Target: action.VstSource(), Param: 7, Delta: 0.1}, instruments, session)
	assert.Len(t, instruments.Instruments[0].Extra.VstParamValues, 2)
}

func TestAdjustLevelCommutesOnDisjointInstruments(t *testing.T) {
	run := func(order []action.Action) (*state.InstrumentState, *state.SessionState) {
		instruments, session := setup()
		Reduce(action.AddInstrument{Source: state.SourceSaw}, instruments, session)
		Reduce(action.AddInstrument{Source: state.SourceSine}, instruments, session)
		for _, a := range order {
			Reduce(a, instruments, session)
		}
		return instruments, session
	}

	a0 := action.AdjustInstrumentLevel{Id: 0, Delta: -0.2}
	a1 := action.AdjustInstrumentLevel{Id: 1, Delta: 0.1}

	i1, _ := run([]action.Action{a0, a1})
	i2, _ := run([]action.Action{a1, a0})
	assert.Equal(t, i1.Instruments[0].Mixer.Level, i2.Instruments[0].Mixer.Level)
	assert.Equal(t, i1.Instruments[1].Mixer.Level, i2.Instruments[1].Mixer.Level)
}

func TestTransportStateMachine(t *testing.T) {
	instruments, session := setup()
	pr := &session.PianoRoll

	Reduce(action.PlayStop{}, instruments, session)
	assert.True(t, pr.Playing)

	// PlayStopRecord from playing stops both.
	Reduce(action.PlayStopRecord{}, instruments, session)
	assert.False(t, pr.Playing)
	assert.False(t, pr.Recording)

	// From stopped it starts playing and recording.
	Reduce(action.PlayStopRecord{}, instruments, session)
	assert.True(t, pr.Playing)
	assert.True(t, pr.Recording)

	// PlayStop clears recording on stop.
	Reduce(action.PlayStop{}, instruments, session)
	assert.False(t, pr.Playing)
	assert.False(t, pr.Recording)

	// ToggleLoop does not alter playing.
	Reduce(action.ToggleLoop{}, instruments, session)
	assert.True(t, pr.Looping)
	assert.False(t, pr.Playing)
}

func TestLoopBoundsStayOrdered(t *testing.T) {
	instruments, session := setup()
	Reduce(action.SetLoopEnd{Tick: 1000}, instruments, session)
	Reduce(action.SetLoopStart{Tick: 2000}, instruments, session)
	assert.LessOrEqual(t, session.PianoRoll.LoopStart, session.PianoRoll.LoopEnd)
}

func TestClickReduce(t *testing.T) {
	instruments, session := setup()
	Reduce(action.ToggleClick{}, instruments, session)
	assert.True(t, session.ClickTrack.Enabled)
	Reduce(action.AdjustClickVolume{Delta: 2.0}, instruments, session)
	assert.Equal(t, float32(1.0), session.ClickTrack.Volume)
	Reduce(action.SetClickVolume{Volume: -1}, instruments, session)
	assert.Equal(t, float32(0.0), session.ClickTrack.Volume)
}

func TestSetOutputTargetToMissingBusNormalizes(t *testing.T) {
	instruments, session := setup()
	Reduce(action.AddInstrument{Source: state.SourceSaw}, instruments, session)
	id := instruments.Instruments[0].Id

	Reduce(action.SetOutputTarget{Id: id, Target: state.ToBus(state.BusId(9))}, instruments, session)
	assert.Equal(t, state.ToMaster(), instruments.Instruments[0].Output)
	checkInvariants(t, instruments, session)
}

func TestMasterMuteToggle(t *testing.T) {
	instruments, session := setup()
	Reduce(action.ToggleMasterMute{}, instruments, session)
	assert.True(t, session.Mixer.MasterMute)
	Reduce(action.ToggleMasterMute{}, instruments, session)
	assert.False(t, session.Mixer.MasterMute)
}

func TestAutomationArmDisarmAll(t *testing.T) {
	instruments, session := setup()
	Reduce(action.AddLane{Target: state.AutomationTarget{Kind: state.TargetMasterLevel}}, instruments, session)
	Reduce(action.AddLane{Target: state.AutomationTarget{Kind: state.TargetClickVolume}}, instruments, session)

	Reduce(action.ArmAllLanes{}, instruments, session)
	for _, l := range session.Automation.Lanes {
		assert.True(t, l.RecordArmed)
	}
	Reduce(action.DisarmAllLanes{}, instruments, session)
	for _, l := range session.Automation.Lanes {
		assert.False(t, l.RecordArmed)
	}
}

func TestHumanizeClamped(t *testing.T) {
	instruments, session := setup()
	Reduce(action.AdjustHumanizeVelocity{Delta: 5}, instruments, session)
	assert.Equal(t, float32(1.0), session.Humanize.Velocity)
	Reduce(action.AdjustHumanizeTiming{Delta: -5}, instruments, session)
	assert.Equal(t, float32(0.0), session.Humanize.Timing)
}
