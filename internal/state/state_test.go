package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBusIdZeroPanics(t *testing.T) {
	assert.Panics(t, func() { NewBusId(0) })
	assert.Equal(t, "3", NewBusId(3).String())
}

func TestMixerBusAllocation(t *testing.T) {
	m := NewMixerState()
	id1, ok := m.AddBus()
	assert.True(t, ok)
	assert.Equal(t, BusId(1), id1)
	id2, ok := m.AddBus()
	assert.True(t, ok)
	assert.Equal(t, BusId(2), id2)

	// Ids are never reused after removal.
	assert.True(t, m.RemoveBus(id1))
	id3, ok := m.AddBus()
	assert.True(t, ok)
	assert.Equal(t, BusId(3), id3)
	assert.Nil(t, m.Bus(id1))
	assert.NotNil(t, m.Bus(id3))
}

func TestMixerBusLimit(t *testing.T) {
	m := NewMixerState()
	for i := 0; i < MaxBuses; i++ {
		_, ok := m.AddBus()
		assert.True(t, ok)
	}
	_, ok := m.AddBus()
	assert.False(t, ok)
}

func TestTrackToggleNote(t *testing.T) {
	track := &Track{}
	added := track.ToggleNote(60, 480, 240, 100)
	assert.True(t, added)
	assert.Len(t, track.Notes, 1)

	// Toggling the same (pitch, tick) removes it.
	added = track.ToggleNote(60, 480, 240, 100)
	assert.False(t, added)
	assert.Empty(t, track.Notes)
}

func TestTrackNotesStaySorted(t *testing.T) {
	track := &Track{}
	track.ToggleNote(60, 960, 240, 100)
	track.ToggleNote(62, 0, 240, 100)
	track.ToggleNote(64, 480, 240, 100)

	for i := 1; i < len(track.Notes); i++ {
		assert.LessOrEqual(t, track.Notes[i-1].Tick, track.Notes[i].Tick)
	}
}

func TestAutomationLaneInterpolation(t *testing.T) {
	lane := AutomationLane{Enabled: true}
	lane.AddPoint(0, 0.0)
	lane.AddPoint(100, 1.0)

	v, ok := lane.ValueAt(50)
	assert.True(t, ok)
	assert.InDelta(t, 0.5, v, 1e-6)

	// Before the first and after the last point the edge values hold.
	v, _ = lane.ValueAt(0)
	assert.InDelta(t, 0.0, v, 1e-6)
	v, _ = lane.ValueAt(500)
	assert.InDelta(t, 1.0, v, 1e-6)
}

func TestAutomationCurves(t *testing.T) {
	lane := AutomationLane{}
	lane.AddPoint(0, 0.0)
	lane.AddPoint(100, 1.0)

	lane.Points[0].Curve = CurveHold
	v, _ := lane.ValueAt(99)
	assert.InDelta(t, 0.0, v, 1e-6)

	lane.Points[0].Curve = CurveExponential
	v, _ = lane.ValueAt(50)
	assert.InDelta(t, 0.25, v, 1e-6)

	lane.Points[0].Curve = CurveSmooth
	v, _ = lane.ValueAt(50)
	assert.InDelta(t, 0.5, v, 1e-6)
}

func TestAutomationAddPointClampsAndSorts(t *testing.T) {
	lane := AutomationLane{}
	lane.AddPoint(100, 2.0) // clamps to 1.0
	lane.AddPoint(0, -1.0)  // clamps to 0.0
	assert.Equal(t, uint32(0), lane.Points[0].Tick)
	assert.Equal(t, float32(1.0), lane.Points[1].Value)
	assert.Equal(t, float32(0.0), lane.Points[0].Value)

	// Upsert at an existing tick replaces the value.
	lane.AddPoint(100, 0.25)
	assert.Len(t, lane.Points, 2)
	assert.Equal(t, float32(0.25), lane.Points[1].Value)
}

func TestRemoveLanesForBus(t *testing.T) {
	auto := NewAutomationState()
	auto.AddLane(BusLevelTarget(3))
	auto.AddLane(InstrumentLevelTarget(1))
	auto.RemoveLanesForBus(3)
	assert.Len(t, auto.Lanes, 1)
	assert.Equal(t, TargetInstrumentLevel, auto.Lanes[0].Target.Kind)
}

func TestInstrumentAddSelectsAndAllocatesIds(t *testing.T) {
	s := NewInstrumentState()
	assert.Nil(t, s.SelectedInstrument())

	id0 := s.Add(SourceSaw)
	id1 := s.Add(SourceSine)
	assert.NotEqual(t, id0, id1)
	assert.Equal(t, 1, s.Selected)

	// Removal fixes an out-of-range selection.
	s.Remove(id1)
	assert.Equal(t, 0, s.Selected)
	s.Remove(id0)
	assert.Equal(t, -1, s.Selected)
	assert.Nil(t, s.SelectedInstrument())
}

func TestSyncSendsWithBuses(t *testing.T) {
	inst := NewInstrument(0, SourceSaw)
	inst.SyncSendsWithBuses([]BusId{1, 2})
	assert.Len(t, inst.Sends, 2)

	// Re-syncing does not duplicate.
	inst.SyncSendsWithBuses([]BusId{1, 2})
	assert.Len(t, inst.Sends, 2)
}

func TestThemeCycle(t *testing.T) {
	theme := DarkTheme()
	theme = theme.NextTheme()
	assert.Equal(t, "Light", theme.Name)
	theme = theme.NextTheme()
	assert.Equal(t, "HighContrast", theme.Name)
	theme = theme.NextTheme()
	assert.Equal(t, "Dark", theme.Name)
}

func TestEuclideanPattern(t *testing.T) {
	p := EuclideanPattern(4, 16, 0)
	count := 0
	for _, on := range p {
		if on {
			count++
		}
	}
	assert.Equal(t, 4, count)
	assert.Len(t, p, 16)
	// 4 over 16 is a four-on-the-floor.
	assert.True(t, p[0])
	assert.True(t, p[4])
	assert.True(t, p[8])
	assert.True(t, p[12])

	// Degenerate inputs stay in range.
	assert.Nil(t, EuclideanPattern(4, 0, 0))
	p = EuclideanPattern(20, 8, 0)
	count = 0
	for _, on := range p {
		if on {
			count++
		}
	}
	assert.Equal(t, 8, count)
}

func TestGenVoiceFingerprint(t *testing.T) {
	v := NewGenVoice(1, 0)
	fp1 := v.Fingerprint()
	assert.Equal(t, fp1, v.Fingerprint())

	v.Pulses++
	assert.NotEqual(t, fp1, v.Fingerprint())
}

func TestSessionCloneIsDeep(t *testing.T) {
	s := NewSessionState()
	s.Mixer.AddBus()
	s.PianoRoll.Tracks = append(s.PianoRoll.Tracks, Track{Instrument: 0})
	s.PianoRoll.Tracks[0].ToggleNote(60, 0, 240, 100)
	s.Automation.AddLane(BusLevelTarget(1))

	clone := s.Clone()
	clone.PianoRoll.Tracks[0].ToggleNote(61, 0, 240, 100)
	clone.Mixer.Buses[0].Level = 0.1
	clone.Automation.Lanes[0].AddPoint(0, 0.5)

	assert.Len(t, s.PianoRoll.Tracks[0].Notes, 1)
	assert.Equal(t, float32(0.8), s.Mixer.Buses[0].Level)
	assert.Empty(t, s.Automation.Lanes[0].Points)
}

func TestApplyMusicalSettingsValidation(t *testing.T) {
	s := NewSessionState()
	s.ApplyMusicalSettings(MusicalSettings{Bpm: 500, TimeSigNum: 3, TimeSigDenom: 8, TicksPerBeat: 480})
	// Out-of-range BPM is rejected, valid meter applied.
	assert.Equal(t, float32(120), s.Bpm)
	assert.Equal(t, [2]uint8{3, 8}, s.TimeSignature)

	s.ApplyMusicalSettings(MusicalSettings{Bpm: 140, TimeSigNum: 4, TimeSigDenom: 5, TicksPerBeat: 480})
	// Invalid denominator leaves the signature alone.
	assert.Equal(t, float32(140), s.Bpm)
	assert.Equal(t, [2]uint8{3, 8}, s.TimeSignature)
}

func TestGrooveEffectiveValues(t *testing.T) {
	g := GrooveConfig{}
	assert.False(t, g.HasOverrides())
	assert.Equal(t, float32(0.5), g.EffectiveSwing(0.5))

	swing := float32(0.7)
	g.SwingAmount = &swing
	g.TimingOffsetMs = 5
	assert.True(t, g.HasOverrides())
	assert.Equal(t, float32(0.7), g.EffectiveSwing(0.5))

	g.Reset()
	assert.False(t, g.HasOverrides())
}

func TestChordShapeIntervals(t *testing.T) {
	assert.Equal(t, []int{0}, ChordOff.Intervals())
	assert.Equal(t, []int{0, 4, 7}, ChordMajorShape.Intervals())
	assert.Equal(t, []int{0, 3, 7}, ChordMinorShape.Intervals())
}

func TestScaleIntervals(t *testing.T) {
	assert.Equal(t, []int{0, 2, 4, 5, 7, 9, 11}, ScaleMajor.Intervals())
	assert.Len(t, ScaleChromatic.Intervals(), 12)
	assert.Len(t, ScalePentatonic.Intervals(), 5)
	assert.True(t, InScale(60, KeyC, ScaleMajor))
	assert.False(t, InScale(61, KeyC, ScaleMajor))
}
