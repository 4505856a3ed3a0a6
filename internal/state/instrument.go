package state

import "fmt"

// SourceType identifies what generates sound for an instrument.
type SourceType int

const (
	SourceSaw SourceType = iota
	SourceSquare
	SourceSine
	SourceTriangle
	SourceNoise
	SourceFm
	SourcePluck
	SourceVst
	SourceCustom
	SourceSampler
	SourceKit
	SourceAudioInput
	SourceBusIn
)

func (s SourceType) String() string {
	switch s {
	case SourceSaw:
		return "Saw"
	case SourceSquare:
		return "Square"
	case SourceSine:
		return "Sine"
	case SourceTriangle:
		return "Triangle"
	case SourceNoise:
		return "Noise"
	case SourceFm:
		return "FM"
	case SourcePluck:
		return "Pluck"
	case SourceVst:
		return "VST"
	case SourceCustom:
		return "Custom"
	case SourceSampler:
		return "Sampler"
	case SourceKit:
		return "Kit"
	case SourceAudioInput:
		return "AudioIn"
	case SourceBusIn:
		return "BusIn"
	default:
		return fmt.Sprintf("Source(%d)", int(s))
	}
}

// SynthDefName maps a source type to the SynthDef spawned on the server.
func (s SourceType) SynthDefName() string {
	switch s {
	case SourceSaw:
		return "imbolc_saw"
	case SourceSquare:
		return "imbolc_square"
	case SourceSine:
		return "imbolc_sine"
	case SourceTriangle:
		return "imbolc_triangle"
	case SourceNoise:
		return "imbolc_noise"
	case SourceFm:
		return "imbolc_fm"
	case SourcePluck:
		return "imbolc_pluck"
	case SourceVst:
		return "imbolc_vst"
	case SourceSampler:
		return "imbolc_sampler"
	case SourceKit:
		return "imbolc_kit"
	case SourceAudioInput:
		return "imbolc_audioin"
	case SourceBusIn:
		return "imbolc_busin"
	default:
		return "imbolc_saw"
	}
}

// Envelope is a standard ADSR in seconds / level.
type Envelope struct {
	Attack  float32 `json:"attack"`
	Decay   float32 `json:"decay"`
	Sustain float32 `json:"sustain"`
	Release float32 `json:"release"`
}

func DefaultEnvelope() Envelope {
	return Envelope{Attack: 0.01, Decay: 0.1, Sustain: 0.8, Release: 0.3}
}

type FilterType int

const (
	FilterLowPass FilterType = iota
	FilterHighPass
	FilterBandPass
	FilterNotch
)

func (f FilterType) String() string {
	switch f {
	case FilterLowPass:
		return "lpf"
	case FilterHighPass:
		return "hpf"
	case FilterBandPass:
		return "bpf"
	case FilterNotch:
		return "notch"
	default:
		return "lpf"
	}
}

// FilterConfig is optional per instrument; Enabled false means bypass.
type FilterConfig struct {
	Enabled   bool       `json:"enabled"`
	Type      FilterType `json:"type"`
	Cutoff    float32    `json:"cutoff"`    // Hz
	Resonance float32    `json:"resonance"` // 0-1
	Drive     float32    `json:"drive"`
	KeyTrack  float32    `json:"keyTrack"`
}

func DefaultFilter() FilterConfig {
	return FilterConfig{Type: FilterLowPass, Cutoff: 20000, Resonance: 0.1}
}

type LfoShape int

const (
	LfoSine LfoShape = iota
	LfoTriangle
	LfoSquare
	LfoSawUp
	LfoSawDown
	LfoRandom
)

type LfoConfig struct {
	Enabled bool     `json:"enabled"`
	Shape   LfoShape `json:"shape"`
	Rate    float32  `json:"rate"`  // Hz
	Depth   float32  `json:"depth"` // 0-1
	Target  string   `json:"target"`
}

// EqBandCount is fixed: a 12-band graphic EQ per instrument.
const EqBandCount = 12

type EqConfig struct {
	Enabled bool                 `json:"enabled"`
	GainDB  [EqBandCount]float32 `json:"gainDB"` // -24..+24 dB per band
}

type EffectType int

const (
	EffectReverb EffectType = iota
	EffectDelay
	EffectChorus
	EffectDistortion
	EffectCompressor
	EffectBitcrush
	EffectVstEffect
)

func (e EffectType) String() string {
	switch e {
	case EffectReverb:
		return "reverb"
	case EffectDelay:
		return "delay"
	case EffectChorus:
		return "chorus"
	case EffectDistortion:
		return "distortion"
	case EffectCompressor:
		return "compressor"
	case EffectBitcrush:
		return "bitcrush"
	case EffectVstEffect:
		return "vst"
	default:
		return fmt.Sprintf("effect(%d)", int(e))
	}
}

// EffectSlot is one entry in the ordered effect chain.
type EffectSlot struct {
	Id      EffectId    `json:"id"`
	Type    EffectType  `json:"type"`
	Enabled bool        `json:"enabled"`
	Params  []float32   `json:"params"`
	Vst     VstPluginId `json:"vst,omitempty"` // set when Type == EffectVstEffect
	// Sparse (index, value) pairs for VST effect parameters.
	VstParamValues []VstParamValue `json:"vstParamValues,omitempty"`
}

// VstParamValue is one sparse VST parameter override, normalized 0-1.
type VstParamValue struct {
	Index ParamIndex `json:"index"`
	Value float32    `json:"value"`
}

// OutputTarget routes an instrument to master or to a bus.
type OutputTarget struct {
	// Kind is "master" or "bus".
	Kind string `json:"kind"`
	Bus  BusId  `json:"bus,omitempty"`
}

func ToMaster() OutputTarget      { return OutputTarget{Kind: "master"} }
func ToBus(id BusId) OutputTarget { return OutputTarget{Kind: "bus", Bus: id} }

func (o OutputTarget) IsBus(id BusId) bool { return o.Kind == "bus" && o.Bus == id }

// MixerSend is a per-bus send from an instrument.
type MixerSend struct {
	Bus     BusId   `json:"bus"`
	Level   float32 `json:"level"`
	Enabled bool    `json:"enabled"`
}

// MixerStrip is the channel strip shared by instruments.
type MixerStrip struct {
	Level float32 `json:"level"`
	Pan   float32 `json:"pan"`
	Mute  bool    `json:"mute"`
	Solo  bool    `json:"solo"`
}

func DefaultStrip() MixerStrip { return MixerStrip{Level: 0.8} }

// ArpDirection is the arpeggiator step order.
type ArpDirection int

const (
	ArpUp ArpDirection = iota
	ArpDown
	ArpUpDown
	ArpRandom
	ArpAsPlayed
)

func (d ArpDirection) String() string {
	switch d {
	case ArpUp:
		return "up"
	case ArpDown:
		return "down"
	case ArpUpDown:
		return "updown"
	case ArpRandom:
		return "random"
	case ArpAsPlayed:
		return "asplayed"
	default:
		return "up"
	}
}

// ArpConfig drives the per-instrument arpeggiator.
type ArpConfig struct {
	Enabled   bool         `json:"enabled"`
	Direction ArpDirection `json:"direction"`
	Octaves   int          `json:"octaves"` // 1-4
	Rate      float32      `json:"rate"`    // steps per beat (subdivision)
	GateLen   float32      `json:"gateLen"` // 0-1 fraction of a step
}

func DefaultArpConfig() ArpConfig {
	return ArpConfig{Direction: ArpUp, Octaves: 1, Rate: 4, GateLen: 0.8}
}

// ChordShape transposes incoming notes into a chord before voice spawn.
type ChordShape int

const (
	ChordOff ChordShape = iota
	ChordMajorShape
	ChordMinorShape
	ChordSeventh
	ChordOctaves
)

// Intervals returns semitone offsets added to the played pitch.
func (c ChordShape) Intervals() []int {
	switch c {
	case ChordMajorShape:
		return []int{0, 4, 7}
	case ChordMinorShape:
		return []int{0, 3, 7}
	case ChordSeventh:
		return []int{0, 4, 7, 10}
	case ChordOctaves:
		return []int{0, 12}
	default:
		return []int{0}
	}
}

// NoteInput configures pre-spawn note processing.
type NoteInput struct {
	Arp   ArpConfig  `json:"arp"`
	Chord ChordShape `json:"chord"`
}

// DrumStep is one cell in a drum sequencer pattern.
type DrumStep struct {
	Active      bool    `json:"active"`
	Probability float32 `json:"probability"`
	Velocity    uint8   `json:"velocity"`
}

const (
	DrumPadCount  = 8
	DrumStepCount = 16
)

// DrumPad is one kit voice with its step row.
type DrumPad struct {
	Name    string                   `json:"name"`
	Steps   [DrumStepCount]DrumStep  `json:"steps"`
	Mute    bool                     `json:"mute"`
	Level   float32                  `json:"level"`
	Pitch   float32                  `json:"pitch"` // semitone offset
	Reverse bool                     `json:"reverse"`
	Slice   int                      `json:"slice"`
}

// DrumSequencer is the per-Kit-instrument step sequencer.
type DrumSequencer struct {
	Pads     [DrumPadCount]DrumPad `json:"pads"`
	Rate     float32               `json:"rate"`    // steps per beat
	Pattern  int                   `json:"pattern"` // active pattern index
	StepsLen int                   `json:"stepsLen"`
}

func NewDrumSequencer() DrumSequencer {
	ds := DrumSequencer{Rate: 4, StepsLen: DrumStepCount}
	for i := range ds.Pads {
		ds.Pads[i].Level = 1.0
		ds.Pads[i].Name = fmt.Sprintf("Pad %d", i+1)
		for s := range ds.Pads[i].Steps {
			ds.Pads[i].Steps[s].Probability = 1.0
			ds.Pads[i].Steps[s].Velocity = 100
		}
	}
	return ds
}

// SamplerConfig is the per-Sampler-instrument extra state.
type SamplerConfig struct {
	Path       string  `json:"path"`
	BufferId   int32   `json:"bufferId"`
	SliceCount int     `json:"sliceCount"`
	BaseNote   uint8   `json:"baseNote"`
	StartFrame float32 `json:"startFrame"`
	EndFrame   float32 `json:"endFrame"`
}

// SourceExtra carries the per-source-type payload. Only the field matching
// the instrument's SourceType is meaningful.
type SourceExtra struct {
	VstPlugin      VstPluginId     `json:"vstPlugin,omitempty"`
	VstParamValues []VstParamValue `json:"vstParamValues,omitempty"`
	SynthDef       CustomSynthDefId `json:"synthDef,omitempty"`
	Sampler        *SamplerConfig  `json:"sampler,omitempty"`
	Drums          *DrumSequencer  `json:"drums,omitempty"`
	InputBus       BusId           `json:"inputBus,omitempty"`
}

// Instrument is one playable voice source with its full processing chain.
type Instrument struct {
	Id                InstrumentId `json:"id"`
	Name              string       `json:"name"`
	Source            SourceType   `json:"source"`
	Extra             SourceExtra  `json:"extra"`
	Envelope          Envelope     `json:"envelope"`
	Filter            *FilterConfig `json:"filter,omitempty"`
	Lfo               LfoConfig    `json:"lfo"`
	Eq                EqConfig     `json:"eq"`
	Effects           []EffectSlot `json:"effects"`
	NextEffectId      uint32       `json:"nextEffectId"`
	Mixer             MixerStrip   `json:"mixer"`
	Output            OutputTarget `json:"output"`
	Sends             []MixerSend  `json:"sends"`
	LayerGroup        int          `json:"layerGroup"` // 0 = none
	LayerOctaveOffset int          `json:"layerOctaveOffset"` // -4..4
	NoteInput         NoteInput    `json:"noteInput"`
}

func NewInstrument(id InstrumentId, source SourceType) Instrument {
	inst := Instrument{
		Id:       id,
		Name:     fmt.Sprintf("%s %d", source, id),
		Source:   source,
		Envelope: DefaultEnvelope(),
		Mixer:    DefaultStrip(),
		Output:   ToMaster(),
		NoteInput: NoteInput{
			Arp: DefaultArpConfig(),
		},
		NextEffectId: 1,
	}
	switch source {
	case SourceKit:
		ds := NewDrumSequencer()
		inst.Extra.Drums = &ds
	case SourceSampler:
		inst.Extra.Sampler = &SamplerConfig{BufferId: -1, BaseNote: 60, SliceCount: 1}
	}
	return inst
}

// SyncSendsWithBuses adds a disabled send for any bus the instrument does not
// know about yet. Removed buses keep their send (disabled by the bus-removal
// rewrite, level unchanged); bus ids are never reused, so a newly added bus
// always gets a fresh send.
func (inst *Instrument) SyncSendsWithBuses(busIds []BusId) {
	for _, id := range busIds {
		found := false
		for _, s := range inst.Sends {
			if s.Bus == id {
				found = true
				break
			}
		}
		if !found {
			inst.Sends = append(inst.Sends, MixerSend{Bus: id})
		}
	}
}

// DisableSendForBus disables (but keeps) the send to a removed bus.
func (inst *Instrument) DisableSendForBus(id BusId) {
	for i := range inst.Sends {
		if inst.Sends[i].Bus == id {
			inst.Sends[i].Enabled = false
		}
	}
}

// Send returns the send targeting the given bus, or nil.
func (inst *Instrument) Send(id BusId) *MixerSend {
	for i := range inst.Sends {
		if inst.Sends[i].Bus == id {
			return &inst.Sends[i]
		}
	}
	return nil
}

// Effect returns the effect slot with the given id, or nil.
func (inst *Instrument) Effect(id EffectId) *EffectSlot {
	for i := range inst.Effects {
		if inst.Effects[i].Id == id {
			return &inst.Effects[i]
		}
	}
	return nil
}

// AddEffect appends an effect slot and returns its id.
func (inst *Instrument) AddEffect(t EffectType) EffectId {
	id := EffectId(inst.NextEffectId)
	inst.NextEffectId++
	inst.Effects = append(inst.Effects, EffectSlot{Id: id, Type: t, Enabled: true})
	return id
}

// RemoveEffect removes the effect slot with the given id.
func (inst *Instrument) RemoveEffect(id EffectId) bool {
	for i, e := range inst.Effects {
		if e.Id == id {
			inst.Effects = append(inst.Effects[:i], inst.Effects[i+1:]...)
			return true
		}
	}
	return false
}

func (inst *Instrument) Clone() Instrument {
	out := *inst
	out.Effects = make([]EffectSlot, len(inst.Effects))
	for i, e := range inst.Effects {
		out.Effects[i] = e
		out.Effects[i].Params = append([]float32(nil), e.Params...)
		out.Effects[i].VstParamValues = append([]VstParamValue(nil), e.VstParamValues...)
	}
	out.Sends = append([]MixerSend(nil), inst.Sends...)
	out.Extra.VstParamValues = append([]VstParamValue(nil), inst.Extra.VstParamValues...)
	if inst.Filter != nil {
		f := *inst.Filter
		out.Filter = &f
	}
	if inst.Extra.Sampler != nil {
		s := *inst.Extra.Sampler
		out.Extra.Sampler = &s
	}
	if inst.Extra.Drums != nil {
		d := *inst.Extra.Drums
		out.Extra.Drums = &d
	}
	return out
}

// InstrumentState is the ordered instrument list plus selection.
// Selected is -1 when nothing is selected, otherwise always a valid index.
type InstrumentState struct {
	Instruments []Instrument `json:"instruments"`
	Selected    int          `json:"selected"`
	NextId      uint32       `json:"nextId"`
}

func NewInstrumentState() InstrumentState {
	return InstrumentState{Selected: -1}
}

// Add creates a new instrument with the given source, selects it, and
// returns its id. Ids are monotonic and never reused.
func (s *InstrumentState) Add(source SourceType) InstrumentId {
	id := InstrumentId(s.NextId)
	s.NextId++
	s.Instruments = append(s.Instruments, NewInstrument(id, source))
	s.Selected = len(s.Instruments) - 1
	return id
}

// Remove deletes the instrument with the given id, fixing selection.
func (s *InstrumentState) Remove(id InstrumentId) bool {
	for i, inst := range s.Instruments {
		if inst.Id == id {
			s.Instruments = append(s.Instruments[:i], s.Instruments[i+1:]...)
			if s.Selected >= len(s.Instruments) {
				s.Selected = len(s.Instruments) - 1
			}
			return true
		}
	}
	return false
}

// Instrument returns the instrument with the given id, or nil.
func (s *InstrumentState) Instrument(id InstrumentId) *Instrument {
	for i := range s.Instruments {
		if s.Instruments[i].Id == id {
			return &s.Instruments[i]
		}
	}
	return nil
}

// SelectedInstrument returns the currently selected instrument, or nil.
func (s *InstrumentState) SelectedInstrument() *Instrument {
	if s.Selected < 0 || s.Selected >= len(s.Instruments) {
		return nil
	}
	return &s.Instruments[s.Selected]
}

// GroupMembers returns ids of all instruments in the given layer group.
func (s *InstrumentState) GroupMembers(group int) []InstrumentId {
	var ids []InstrumentId
	for _, inst := range s.Instruments {
		if inst.LayerGroup == group {
			ids = append(ids, inst.Id)
		}
	}
	return ids
}

func (s *InstrumentState) Clone() InstrumentState {
	out := *s
	out.Instruments = make([]Instrument, len(s.Instruments))
	for i := range s.Instruments {
		out.Instruments[i] = s.Instruments[i].Clone()
	}
	return out
}
