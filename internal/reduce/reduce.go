// Package reduce holds the pure state-mutation reducers. These functions are
// the single source of truth for action -> state mutations: both the
// main-thread dispatcher and the audio thread's action projection call in
// here.
//
// Reducers are pure: they mutate InstrumentState and SessionState only. They
// do NOT construct DispatchResults, record automation, push undo snapshots,
// generate audio effects, or send audio commands.
package reduce

import (
	"github.com/mohsenil85/imbolc/internal/action"
	"github.com/mohsenil85/imbolc/internal/state"
)

// IsReducible reports whether an action can be incrementally reduced on the
// audio thread. It is a static property of the action type: anything that
// replaces state wholesale (undo/redo), touches files, or mutates data the
// audio thread does not hold must go through a full snapshot sync instead.
func IsReducible(a action.Action) bool {
	switch a.(type) {
	// No-ops at this layer: handled, nothing to sync.
	case action.MidiNoteOn, action.MidiNoteOff, action.SetMidiDevice,
		action.SetMidiChannel, action.ToggleMidiCapture,
		action.ToggleTuner, action.SetTunerReference,
		action.AudioFeedbackAction:
		return true

	case action.Undo, action.Redo:
		return false

	// Piano-roll exports are file I/O.
	case action.RenderToWav, action.BounceToWav, action.ExportStems,
		action.CancelExport:
		return false

	// Automation recording toggles a write-mode flag owned by the main
	// thread.
	case action.ToggleAutomationRecording:
		return false

	// VST discovery/state saving talk to the plugin host.
	case action.DiscoverVstParams, action.SaveVstState:
		return false

	// Project-level file I/O and checkpoints.
	case action.NewProject, action.SaveProject, action.SaveProjectAs,
		action.LoadProject, action.LoadProjectFrom, action.ImportCustomSynthDef,
		action.CreateCheckpoint, action.RestoreCheckpoint, action.DeleteCheckpoint:
		return false

	// Whole domains that require full sync.
	case action.AddClip, action.RemoveClip, action.PlaceClip,
		action.RemovePlacement, action.MovePlacement, action.SetPlacementLength:
		return false
	case action.ToggleDrumStep, action.SetDrumStepProbability,
		action.ToggleDrumPadMute, action.SetDrumPadLevel, action.SetDrumPadPitch,
		action.SetDrumRate, action.AddGenVoice, action.RemoveGenVoice,
		action.ToggleGenVoice, action.SetGenAlgorithm, action.SetGenEuclid,
		action.SetGenRate, action.CommitCapturedEvents:
		return false
	case action.ChopSample, action.SetSliceCount:
		return false
	case action.StartServer, action.StopServer, action.RestartServer,
		action.RecordMaster, action.FreeAllNodes, action.SetLookahead:
		return false
	}

	// Everything else (instrument, mixer, bus, layer group, click, and the
	// remaining piano roll / automation / vst-param / session actions) is
	// reducible.
	return true
}

// Reduce applies an action's state mutations. Returns true if the action was
// handled (state mutated, or a recognized no-op at this layer); false means
// the caller must fall back to a full snapshot hand-off.
func Reduce(a action.Action, instruments *state.InstrumentState, session *state.SessionState) bool {
	if !IsReducible(a) {
		return false
	}
	switch act := a.(type) {
	// Instrument domain
	case action.AddInstrument, action.DeleteInstrument, action.SelectInstrument,
		action.RenameInstrument, action.SetInstrumentSource, action.AdjustEnvelope,
		action.ToggleFilter, action.SetFilterType, action.AdjustFilterCutoff,
		action.AdjustFilterResonance, action.ToggleLfo, action.AdjustLfoRate,
		action.AdjustLfoDepth, action.ToggleEq, action.SetEqBand, action.AddEffect,
		action.RemoveEffect, action.ToggleEffect, action.AdjustEffectParam,
		action.AdjustInstrumentLevel, action.AdjustInstrumentPan,
		action.ToggleInstrumentMute, action.ToggleInstrumentSolo,
		action.SetOutputTarget, action.AdjustSendLevel, action.ToggleSend,
		action.SetLayerOctaveOffset, action.ToggleArp, action.CycleArpDirection,
		action.SetArpRate, action.SetArpOctaves, action.CycleChordShape,
		action.SetSamplerPath, action.SetGroove:
		reduceInstrument(a, instruments, session)
		return true

	// Mixer domain
	case action.SelectMixerNext, action.SelectMixerPrev, action.AdjustMixerLevel,
		action.AdjustMixerPan, action.ToggleMixerMute, action.ToggleMixerSolo,
		action.AdjustMasterLevel:
		reduceMixer(a, session)
		return true

	// Bus domain
	case action.AddBus, action.RemoveBus, action.RenameBus, action.AdjustBusLevel,
		action.AdjustBusPan, action.ToggleBusMute, action.ToggleBusSolo:
		reduceBus(a, instruments, session)
		return true

	// Layer group domain
	case action.LinkInstruments, action.UnlinkInstrument, action.AdjustLayerMixerLevel:
		reduceLayerGroup(a, instruments, session)
		return true

	// Piano roll domain
	case action.ToggleNote, action.PlayStop, action.PlayStopRecord, action.ToggleLoop,
		action.SetLoopStart, action.SetLoopEnd, action.SetPlayhead, action.CycleTimeSig,
		action.TogglePolyMode, action.AdjustSwing, action.DeleteNotesInRegion,
		action.PasteNotes, action.CopyNotes, action.PlayNote, action.ReleaseNote:
		reducePianoRoll(a, session)
		return true

	// Automation domain
	case action.AddLane, action.RemoveLane, action.ToggleLaneEnabled,
		action.AddAutomationPoint, action.RemoveAutomationPoint,
		action.MoveAutomationPoint, action.SetCurveType, action.SelectLane,
		action.ClearLane, action.ToggleLaneArm, action.ArmAllLanes,
		action.DisarmAllLanes, action.DeletePointsInRange, action.PastePoints,
		action.CopyPoints, action.RecordAutomationValue:
		reduceAutomation(a, session)
		return true

	// VST param domain
	case action.SetVstParam, action.AdjustVstParam, action.ResetVstParam:
		reduceVstParam(a, instruments, session)
		return true

	// Session domain
	case action.UpdateSession, action.UpdateSessionLive, action.AdjustHumanizeVelocity,
		action.AdjustHumanizeTiming, action.ToggleMasterMute, action.CycleTheme,
		action.ImportVstPlugin:
		reduceSession(a, session)
		return true

	// Click domain
	case action.ToggleClick, action.ToggleClickMute, action.AdjustClickVolume,
		action.SetClickVolume:
		reduceClick(act, session)
		return true
	}

	// Reducible no-ops (MIDI device config, tuner, feedback wrappers).
	return true
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
