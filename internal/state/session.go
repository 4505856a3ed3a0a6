package state

// DefaultTicksPerBeat is the canonical musical resolution.
const DefaultTicksPerBeat = 480

// MaxBpm bounds user-settable tempo; 0 is rejected at reduce time.
const MaxBpm = 300

// MusicalSettings is the editable tempo/meter block.
type MusicalSettings struct {
	Bpm          float32  `json:"bpm"`
	TimeSigNum   uint8    `json:"timeSigNum"`   // <= 16
	TimeSigDenom uint8    `json:"timeSigDenom"` // 2, 4, 8, 16
	TicksPerBeat uint32   `json:"ticksPerBeat"`
	Key          Key      `json:"key"`
	Scale        Scale    `json:"scale"`
}

func DefaultMusicalSettings() MusicalSettings {
	return MusicalSettings{
		Bpm:          120,
		TimeSigNum:   4,
		TimeSigDenom: 4,
		TicksPerBeat: DefaultTicksPerBeat,
		Key:          KeyC,
		Scale:        ScaleMajor,
	}
}

// ClickTrackState is the metronome configuration.
type ClickTrackState struct {
	Enabled bool    `json:"enabled"`
	Muted   bool    `json:"muted"`
	Volume  float32 `json:"volume"`
}

// MidiRecordingConfig selects which device/channel feeds recording.
type MidiRecordingConfig struct {
	Device       string `json:"device"`
	Channel      int    `json:"channel"` // 1-16, 0 = all
	Quantize     bool   `json:"quantize"`
	QuantizeGrid uint32 `json:"quantizeGrid"` // ticks
}

// SessionState is the top-level editable project (everything except the
// instrument list, which lives in InstrumentState so the two can be
// snapshotted independently).
type SessionState struct {
	Bpm           float32                `json:"bpm"`
	TimeSignature [2]uint8               `json:"timeSignature"`
	TicksPerBeat  uint32                 `json:"ticksPerBeat"`
	Key           Key                    `json:"key"`
	Scale         Scale                  `json:"scale"`
	Mixer         MixerState             `json:"mixer"`
	PianoRoll     PianoRollState         `json:"pianoRoll"`
	Automation    AutomationState        `json:"automation"`
	ClickTrack    ClickTrackState        `json:"clickTrack"`
	Arrangement   ArrangementState       `json:"arrangement"`
	Generative    GenerativeState        `json:"generative"`
	VstPlugins    VstPluginRegistry      `json:"vstPlugins"`
	SynthDefs     CustomSynthDefRegistry `json:"synthDefs"`
	Humanize      HumanizeSettings       `json:"humanize"`
	SwingGrid     SwingGrid              `json:"swingGrid"`
	Grooves       map[uint32]GrooveConfig `json:"grooves"` // keyed by InstrumentId
	Theme         Theme                  `json:"theme"`
	MidiRecording MidiRecordingConfig    `json:"midiRecording"`
	Io            IoGeneration           `json:"-"`
}

func NewSessionState() *SessionState {
	s := &SessionState{
		Bpm:           120,
		TimeSignature: [2]uint8{4, 4},
		TicksPerBeat:  DefaultTicksPerBeat,
		Key:           KeyC,
		Scale:         ScaleMajor,
		Mixer:         NewMixerState(),
		PianoRoll:     NewPianoRollState(),
		Automation:    NewAutomationState(),
		ClickTrack:    ClickTrackState{Volume: 0.5},
		Arrangement:   NewArrangementState(),
		Generative:    NewGenerativeState(),
		VstPlugins:    NewVstPluginRegistry(),
		SynthDefs:     NewCustomSynthDefRegistry(),
		Grooves:       make(map[uint32]GrooveConfig),
		Theme:         DarkTheme(),
		MidiRecording: MidiRecordingConfig{Channel: 1, QuantizeGrid: DefaultTicksPerBeat / 4},
	}
	return s
}

// ApplyMusicalSettings copies validated tempo/meter settings into the
// session. Out-of-range tempo, meter and resolution values are rejected: the
// current value is kept.
func (s *SessionState) ApplyMusicalSettings(m MusicalSettings) {
	if m.Bpm > 0 && m.Bpm <= MaxBpm {
		s.Bpm = m.Bpm
	}
	if m.TimeSigNum >= 1 && m.TimeSigNum <= 16 {
		switch m.TimeSigDenom {
		case 2, 4, 8, 16:
			s.TimeSignature = [2]uint8{m.TimeSigNum, m.TimeSigDenom}
			s.PianoRoll.TimeSignature = s.TimeSignature
		}
	}
	if m.TicksPerBeat > 0 {
		s.TicksPerBeat = m.TicksPerBeat
	}
	s.Key = m.Key
	s.Scale = m.Scale
}

// MusicalSettings returns the current tempo/meter block.
func (s *SessionState) MusicalSettings() MusicalSettings {
	return MusicalSettings{
		Bpm:          s.Bpm,
		TimeSigNum:   s.TimeSignature[0],
		TimeSigDenom: s.TimeSignature[1],
		TicksPerBeat: s.TicksPerBeat,
		Key:          s.Key,
		Scale:        s.Scale,
	}
}

// GrooveFor returns the groove config for an instrument (zero value if none
// has been set).
func (s *SessionState) GrooveFor(id InstrumentId) GrooveConfig {
	return s.Grooves[uint32(id)]
}

// SetGrooveFor stores a per-track groove override.
func (s *SessionState) SetGrooveFor(id InstrumentId, g GrooveConfig) {
	if s.Grooves == nil {
		s.Grooves = make(map[uint32]GrooveConfig)
	}
	s.Grooves[uint32(id)] = g
}

// Clone deep-copies the session for snapshot publication and undo.
func (s *SessionState) Clone() *SessionState {
	out := *s
	out.Mixer = s.Mixer.Clone()
	out.PianoRoll = s.PianoRoll.Clone()
	out.Automation = s.Automation.Clone()
	out.Arrangement = s.Arrangement.Clone()
	out.Generative = s.Generative.Clone()
	out.VstPlugins = s.VstPlugins.Clone()
	out.SynthDefs = s.SynthDefs.Clone()
	out.Grooves = make(map[uint32]GrooveConfig, len(s.Grooves))
	for k, v := range s.Grooves {
		out.Grooves[k] = v
	}
	return &out
}

// IoGeneration counters let async save/load completions be matched against
// the operation that started them; stale completions are ignored.
type IoGeneration struct {
	Save            uint64 `json:"-"`
	Load            uint64 `json:"-"`
	ImportSynthDef  uint64 `json:"-"`
	Export          uint64 `json:"-"`
}

func (g *IoGeneration) NextSave() uint64 {
	g.Save++
	return g.Save
}

func (g *IoGeneration) NextLoad() uint64 {
	g.Load++
	return g.Load
}

func (g *IoGeneration) NextImportSynthDef() uint64 {
	g.ImportSynthDef++
	return g.ImportSynthDef
}

func (g *IoGeneration) NextExport() uint64 {
	g.Export++
	return g.Export
}
