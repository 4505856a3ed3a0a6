package netproto

import (
	"fmt"
	"reflect"

	jsoniter "github.com/json-iterator/go"

	"github.com/mohsenil85/imbolc/internal/action"
)

// WireAction is the tagged wire form of an Action: the concrete type's name
// plus its JSON body. The registry below is built from the closed action
// set, so unknown names fail decoding instead of smuggling arbitrary types.
type WireAction struct {
	Name string              `json:"name"`
	Data jsoniter.RawMessage `json:"data"`
}

var actionTypes = map[string]reflect.Type{}

func register(prototypes ...action.Action) {
	for _, p := range prototypes {
		t := reflect.TypeOf(p)
		actionTypes[t.Name()] = t
	}
}

func init() {
	register(
		// Instrument
		action.AddInstrument{}, action.DeleteInstrument{}, action.SelectInstrument{},
		action.RenameInstrument{}, action.SetInstrumentSource{}, action.AdjustEnvelope{},
		action.ToggleFilter{}, action.SetFilterType{}, action.AdjustFilterCutoff{},
		action.AdjustFilterResonance{}, action.ToggleLfo{}, action.AdjustLfoRate{},
		action.AdjustLfoDepth{}, action.ToggleEq{}, action.SetEqBand{},
		action.AddEffect{}, action.RemoveEffect{}, action.ToggleEffect{},
		action.AdjustEffectParam{}, action.AdjustInstrumentLevel{},
		action.AdjustInstrumentPan{}, action.ToggleInstrumentMute{},
		action.ToggleInstrumentSolo{}, action.SetOutputTarget{},
		action.AdjustSendLevel{}, action.ToggleSend{}, action.SetLayerOctaveOffset{},
		action.ToggleArp{}, action.CycleArpDirection{}, action.SetArpRate{},
		action.SetArpOctaves{}, action.CycleChordShape{}, action.SetSamplerPath{},
		action.SetGroove{},
		// Mixer
		action.SelectMixerNext{}, action.SelectMixerPrev{}, action.AdjustMixerLevel{},
		action.AdjustMixerPan{}, action.ToggleMixerMute{}, action.ToggleMixerSolo{},
		action.AdjustMasterLevel{},
		// Piano roll
		action.ToggleNote{}, action.PlayStop{}, action.PlayStopRecord{},
		action.ToggleLoop{}, action.SetLoopStart{}, action.SetLoopEnd{},
		action.SetPlayhead{}, action.CycleTimeSig{}, action.TogglePolyMode{},
		action.AdjustSwing{}, action.DeleteNotesInRegion{}, action.PasteNotes{},
		action.CopyNotes{}, action.PlayNote{}, action.ReleaseNote{},
		action.RenderToWav{}, action.BounceToWav{}, action.ExportStems{},
		action.CancelExport{},
		// Automation
		action.AddLane{}, action.RemoveLane{}, action.ToggleLaneEnabled{},
		action.AddAutomationPoint{}, action.RemoveAutomationPoint{},
		action.MoveAutomationPoint{}, action.SetCurveType{}, action.SelectLane{},
		action.ClearLane{}, action.ToggleLaneArm{}, action.ArmAllLanes{},
		action.DisarmAllLanes{}, action.DeletePointsInRange{}, action.PastePoints{},
		action.CopyPoints{}, action.ToggleAutomationRecording{},
		action.RecordAutomationValue{},
		// Bus
		action.AddBus{}, action.RemoveBus{}, action.RenameBus{},
		action.AdjustBusLevel{}, action.AdjustBusPan{}, action.ToggleBusMute{},
		action.ToggleBusSolo{},
		// Layer group
		action.LinkInstruments{}, action.UnlinkInstrument{}, action.AdjustLayerMixerLevel{},
		// VST
		action.SetVstParam{}, action.AdjustVstParam{}, action.ResetVstParam{},
		action.DiscoverVstParams{}, action.SaveVstState{},
		// Session
		action.UpdateSession{}, action.UpdateSessionLive{},
		action.AdjustHumanizeVelocity{}, action.AdjustHumanizeTiming{},
		action.ToggleMasterMute{}, action.CycleTheme{}, action.ImportVstPlugin{},
		action.NewProject{}, action.SaveProject{}, action.SaveProjectAs{},
		action.LoadProject{}, action.LoadProjectFrom{}, action.ImportCustomSynthDef{},
		action.CreateCheckpoint{}, action.RestoreCheckpoint{}, action.DeleteCheckpoint{},
		// Click
		action.ToggleClick{}, action.ToggleClickMute{}, action.AdjustClickVolume{},
		action.SetClickVolume{},
		// MIDI / tuner
		action.MidiNoteOn{}, action.MidiNoteOff{}, action.SetMidiDevice{},
		action.SetMidiChannel{}, action.ToggleMidiCapture{},
		action.ToggleTuner{}, action.SetTunerReference{},
		// Arrangement
		action.AddClip{}, action.RemoveClip{}, action.PlaceClip{},
		action.RemovePlacement{}, action.MovePlacement{}, action.SetPlacementLength{},
		// Sequencer
		action.ToggleDrumStep{}, action.SetDrumStepProbability{},
		action.ToggleDrumPadMute{}, action.SetDrumPadLevel{}, action.SetDrumPadPitch{},
		action.SetDrumRate{}, action.AddGenVoice{}, action.RemoveGenVoice{},
		action.ToggleGenVoice{}, action.SetGenAlgorithm{}, action.SetGenEuclid{},
		action.SetGenRate{}, action.CommitCapturedEvents{},
		// Chopper
		action.ChopSample{}, action.SetSliceCount{},
		// Server
		action.StartServer{}, action.StopServer{}, action.RestartServer{},
		action.RecordMaster{}, action.FreeAllNodes{}, action.SetLookahead{},
		// History
		action.Undo{}, action.Redo{},
	)
}

// EncodeAction wraps an action into its wire form.
func EncodeAction(a action.Action) (*WireAction, error) {
	t := reflect.TypeOf(a)
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("cannot encode action of type %T", a)
	}
	if _, ok := actionTypes[t.Name()]; !ok {
		return nil, fmt.Errorf("unregistered action type %s", t.Name())
	}
	data, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return &WireAction{Name: t.Name(), Data: data}, nil
}

// DecodeAction unwraps a wire action back into its concrete type.
func DecodeAction(w *WireAction) (action.Action, error) {
	t, ok := actionTypes[w.Name]
	if !ok {
		return nil, fmt.Errorf("unknown action %q", w.Name)
	}
	ptr := reflect.New(t)
	if err := json.Unmarshal(w.Data, ptr.Interface()); err != nil {
		return nil, err
	}
	return ptr.Elem().Interface(), nil
}
