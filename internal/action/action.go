// Package action defines the closed set of user intents that flow through
// the dispatcher, plus the result and feedback types that come back. Actions
// are plain structs dispatched by type switch, the same shape bubbletea uses
// for its messages.
package action

import "github.com/mohsenil85/imbolc/internal/state"

// Action is any of the concrete action structs below. The set is closed:
// the reducer, the projection bridge, and the network codec all switch over
// exactly these types.
type Action interface{}

// ---------------------------------------------------------------------------
// Instrument domain

type AddInstrument struct {
	Source state.SourceType
}

type DeleteInstrument struct {
	Id state.InstrumentId
}

type SelectInstrument struct {
	Index int
}

type RenameInstrument struct {
	Id   state.InstrumentId
	Name string
}

type SetInstrumentSource struct {
	Id     state.InstrumentId
	Source state.SourceType
}

// EnvStage indexes the ADSR stages for AdjustEnvelope.
type EnvStage int

const (
	EnvAttack EnvStage = iota
	EnvDecay
	EnvSustain
	EnvRelease
)

type AdjustEnvelope struct {
	Id    state.InstrumentId
	Stage EnvStage
	Delta float32
}

type ToggleFilter struct {
	Id state.InstrumentId
}

type SetFilterType struct {
	Id   state.InstrumentId
	Type state.FilterType
}

type AdjustFilterCutoff struct {
	Id    state.InstrumentId
	Delta float32 // multiplicative semitone-ish steps are applied in the reducer
}

type AdjustFilterResonance struct {
	Id    state.InstrumentId
	Delta float32
}

type ToggleLfo struct {
	Id state.InstrumentId
}

type AdjustLfoRate struct {
	Id    state.InstrumentId
	Delta float32
}

type AdjustLfoDepth struct {
	Id    state.InstrumentId
	Delta float32
}

type ToggleEq struct {
	Id state.InstrumentId
}

type SetEqBand struct {
	Id     state.InstrumentId
	Band   int
	GainDB float32
}

type AddEffect struct {
	Id   state.InstrumentId
	Type state.EffectType
}

type RemoveEffect struct {
	Id     state.InstrumentId
	Effect state.EffectId
}

type ToggleEffect struct {
	Id     state.InstrumentId
	Effect state.EffectId
}

type AdjustEffectParam struct {
	Id     state.InstrumentId
	Effect state.EffectId
	Param  state.ParamIndex
	Delta  float32
}

type AdjustInstrumentLevel struct {
	Id    state.InstrumentId
	Delta float32
}

type AdjustInstrumentPan struct {
	Id    state.InstrumentId
	Delta float32
}

type ToggleInstrumentMute struct {
	Id state.InstrumentId
}

type ToggleInstrumentSolo struct {
	Id state.InstrumentId
}

type SetOutputTarget struct {
	Id     state.InstrumentId
	Target state.OutputTarget
}

type AdjustSendLevel struct {
	Id    state.InstrumentId
	Bus   state.BusId
	Delta float32
}

type ToggleSend struct {
	Id  state.InstrumentId
	Bus state.BusId
}

type SetLayerOctaveOffset struct {
	Id     state.InstrumentId
	Offset int // -4..4
}

type ToggleArp struct {
	Id state.InstrumentId
}

type CycleArpDirection struct {
	Id state.InstrumentId
}

type SetArpRate struct {
	Id   state.InstrumentId
	Rate float32
}

type SetArpOctaves struct {
	Id      state.InstrumentId
	Octaves int
}

type CycleChordShape struct {
	Id state.InstrumentId
}

type SetSamplerPath struct {
	Id   state.InstrumentId
	Path string
}

type SetGroove struct {
	Id     state.InstrumentId
	Groove state.GrooveConfig
}

// ---------------------------------------------------------------------------
// Mixer domain (operates on the current mixer selection)

type SelectMixerNext struct{}
type SelectMixerPrev struct{}

type AdjustMixerLevel struct {
	Delta float32
}

type AdjustMixerPan struct {
	Delta float32
}

type ToggleMixerMute struct{}
type ToggleMixerSolo struct{}

type AdjustMasterLevel struct {
	Delta float32
}

// ---------------------------------------------------------------------------
// Piano roll domain

type ToggleNote struct {
	Track    int
	Pitch    uint8
	Tick     uint32
	Duration uint32
	Velocity uint8
}

type PlayStop struct{}
type PlayStopRecord struct{}
type ToggleLoop struct{}

type SetLoopStart struct {
	Tick uint32
}

type SetLoopEnd struct {
	Tick uint32
}

type SetPlayhead struct {
	Tick uint32
}

type CycleTimeSig struct{}

type TogglePolyMode struct {
	Track int
}

type AdjustSwing struct {
	Delta float32
}

type DeleteNotesInRegion struct {
	Track      int
	StartTick  uint32
	EndTick    uint32
	StartPitch uint8
	EndPitch   uint8
}

// ClipboardNote is a note relative to the copy anchor.
type ClipboardNote struct {
	TickOffset  uint32  `json:"tickOffset"`
	PitchOffset int16   `json:"pitchOffset"`
	Duration    uint32  `json:"duration"`
	Velocity    uint8   `json:"velocity"`
	Probability float32 `json:"probability"`
}

type PasteNotes struct {
	Track       int
	AnchorTick  uint32
	AnchorPitch uint8
	Notes       []ClipboardNote
}

type CopyNotes struct {
	Track      int
	StartTick  uint32
	EndTick    uint32
	StartPitch uint8
	EndPitch   uint8
}

// PlayNote / ReleaseNote audition a pitch live on the selected instrument;
// they mutate no state (voice spawning only).
type PlayNote struct {
	Pitch    uint8
	Velocity uint8
}

type ReleaseNote struct {
	Pitch uint8
}

type RenderToWav struct {
	Instrument state.InstrumentId
	Path       string
}

type BounceToWav struct {
	Path string
}

type ExportStems struct {
	Dir string
}

type CancelExport struct{}

// ---------------------------------------------------------------------------
// Automation domain

type AddLane struct {
	Target state.AutomationTarget
}

type RemoveLane struct {
	Lane state.AutomationLaneId
}

type ToggleLaneEnabled struct {
	Lane state.AutomationLaneId
}

type AddAutomationPoint struct {
	Lane  state.AutomationLaneId
	Tick  uint32
	Value float32
}

type RemoveAutomationPoint struct {
	Lane state.AutomationLaneId
	Tick uint32
}

type MoveAutomationPoint struct {
	Lane    state.AutomationLaneId
	OldTick uint32
	NewTick uint32
	Value   float32
}

type SetCurveType struct {
	Lane  state.AutomationLaneId
	Tick  uint32
	Curve state.CurveType
}

type SelectLane struct {
	Delta int
}

type ClearLane struct {
	Lane state.AutomationLaneId
}

type ToggleLaneArm struct {
	Lane state.AutomationLaneId
}

type ArmAllLanes struct{}
type DisarmAllLanes struct{}

type DeletePointsInRange struct {
	Lane      state.AutomationLaneId
	StartTick uint32
	EndTick   uint32
}

// ClipboardPoint is an automation point relative to the copy anchor.
type ClipboardPoint struct {
	TickOffset uint32  `json:"tickOffset"`
	Value      float32 `json:"value"`
}

type PastePoints struct {
	Lane       state.AutomationLaneId
	AnchorTick uint32
	Points     []ClipboardPoint
}

type CopyPoints struct {
	Lane      state.AutomationLaneId
	StartTick uint32
	EndTick   uint32
}

// ToggleAutomationRecording arms/disarms the global write mode; the flag
// lives on the main thread's AppState, so the action is not reducible.
type ToggleAutomationRecording struct{}

// RecordAutomationValue samples a committed value back into a lane at the
// current playhead while recording.
type RecordAutomationValue struct {
	Lane  state.AutomationLaneId
	Value float32
}

// ---------------------------------------------------------------------------
// Bus domain

type AddBus struct{}

type RemoveBus struct {
	Bus state.BusId
}

type RenameBus struct {
	Bus  state.BusId
	Name string
}

type AdjustBusLevel struct {
	Bus   state.BusId
	Delta float32
}

type AdjustBusPan struct {
	Bus   state.BusId
	Delta float32
}

type ToggleBusMute struct {
	Bus state.BusId
}

type ToggleBusSolo struct {
	Bus state.BusId
}

// ---------------------------------------------------------------------------
// Layer group domain

type LinkInstruments struct {
	Ids []state.InstrumentId
}

type UnlinkInstrument struct {
	Id state.InstrumentId
}

type AdjustLayerMixerLevel struct {
	Group int
	Delta float32
}

// ---------------------------------------------------------------------------
// VST parameter domain

// VstTarget picks the plugin on an instrument: the source plugin or one of
// the effect slots.
type VstTarget struct {
	// Kind is "source" or "effect".
	Kind   string         `json:"kind"`
	Effect state.EffectId `json:"effect,omitempty"`
}

func VstSource() VstTarget                      { return VstTarget{Kind: "source"} }
func VstEffectSlot(id state.EffectId) VstTarget { return VstTarget{Kind: "effect", Effect: id} }

type SetVstParam struct {
	Id     state.InstrumentId
	Target VstTarget
	Param  state.ParamIndex
	Value  float32
}

type AdjustVstParam struct {
	Id     state.InstrumentId
	Target VstTarget
	Param  state.ParamIndex
	Delta  float32
}

type ResetVstParam struct {
	Id     state.InstrumentId
	Target VstTarget
	Param  state.ParamIndex
}

type DiscoverVstParams struct {
	Id     state.InstrumentId
	Target VstTarget
}

type SaveVstState struct {
	Id     state.InstrumentId
	Target VstTarget
}

// ---------------------------------------------------------------------------
// Session domain

type UpdateSession struct {
	Settings state.MusicalSettings
}

// UpdateSessionLive is the same mutation without an undo snapshot, used for
// continuous drags.
type UpdateSessionLive struct {
	Settings state.MusicalSettings
}

type AdjustHumanizeVelocity struct {
	Delta float32
}

type AdjustHumanizeTiming struct {
	Delta float32
}

type ToggleMasterMute struct{}
type CycleTheme struct{}

type ImportVstPlugin struct {
	Path string
	Kind state.VstPluginKind
}

type NewProject struct{}
type SaveProject struct{}

type SaveProjectAs struct {
	Path string
}

type LoadProject struct{}

type LoadProjectFrom struct {
	Path string
}

type ImportCustomSynthDef struct {
	Path string
}

type CreateCheckpoint struct {
	Name string
}

type RestoreCheckpoint struct {
	Name string
}

type DeleteCheckpoint struct {
	Name string
}

// ---------------------------------------------------------------------------
// Click track domain

type ToggleClick struct{}
type ToggleClickMute struct{}

type AdjustClickVolume struct {
	Delta float32
}

type SetClickVolume struct {
	Volume float32
}

// ---------------------------------------------------------------------------
// MIDI domain

type MidiNoteOn struct {
	Pitch    uint8
	Velocity uint8
}

type MidiNoteOff struct {
	Pitch uint8
}

type SetMidiDevice struct {
	Device string
}

type SetMidiChannel struct {
	Channel int
}

type ToggleMidiCapture struct{}

// ---------------------------------------------------------------------------
// Tuner domain

type ToggleTuner struct{}

type SetTunerReference struct {
	Hz float32
}

// ---------------------------------------------------------------------------
// Arrangement domain (not reducible: the audio thread does not hold clip
// note data until a full sync)

type AddClip struct {
	Name        string
	Notes       []state.Note
	LengthTicks uint32
}

type RemoveClip struct {
	Clip state.ClipId
}

type PlaceClip struct {
	Clip       state.ClipId
	Instrument state.InstrumentId
	StartTick  uint32
}

type RemovePlacement struct {
	Placement state.PlacementId
}

type MovePlacement struct {
	Placement state.PlacementId
	StartTick uint32
}

type SetPlacementLength struct {
	Placement state.PlacementId
	Length    uint32
}

// ---------------------------------------------------------------------------
// Sequencer domain: drum sequencer + generative voices (not reducible)

type ToggleDrumStep struct {
	Id   state.InstrumentId
	Pad  int
	Step int
}

type SetDrumStepProbability struct {
	Id          state.InstrumentId
	Pad         int
	Step        int
	Probability float32
}

type ToggleDrumPadMute struct {
	Id  state.InstrumentId
	Pad int
}

type SetDrumPadLevel struct {
	Id    state.InstrumentId
	Pad   int
	Level float32
}

type SetDrumPadPitch struct {
	Id    state.InstrumentId
	Pad   int
	Pitch float32
}

type SetDrumRate struct {
	Id   state.InstrumentId
	Rate float32
}

type AddGenVoice struct {
	Instrument state.InstrumentId
}

type RemoveGenVoice struct {
	Voice state.GenVoiceId
}

type ToggleGenVoice struct {
	Voice state.GenVoiceId
}

type SetGenAlgorithm struct {
	Voice     state.GenVoiceId
	Algorithm state.GenAlgorithm
}

type SetGenEuclid struct {
	Voice    state.GenVoiceId
	Pulses   int
	StepsLen int
	Rotation int
}

type SetGenRate struct {
	Voice state.GenVoiceId
	Rate  float32
}

type CommitCapturedEvents struct {
	Voice state.GenVoiceId
	Track int
}

// ---------------------------------------------------------------------------
// Chopper domain (sampler slicing; not reducible)

type ChopSample struct {
	Id     state.InstrumentId
	Slices int
}

type SetSliceCount struct {
	Id    state.InstrumentId
	Count int
}

// ---------------------------------------------------------------------------
// Server domain (not reducible: drives the external process)

type StartServer struct{}
type StopServer struct{}
type RestartServer struct{}
type RecordMaster struct{}
type FreeAllNodes struct{}

type SetLookahead struct {
	Seconds float64
}

// ---------------------------------------------------------------------------
// History

type Undo struct{}
type Redo struct{}

// AudioFeedbackAction wraps a feedback message pumped back through the
// dispatcher so remote clients observe engine state transitions too.
type AudioFeedbackAction struct {
	Feedback AudioFeedback
}
