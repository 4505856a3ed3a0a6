package dispatch

import (
	"github.com/mohsenil85/imbolc/internal/action"
)

// undoKey classifies an action for undo handling. Returns (key, undoable):
// undoable=false means no snapshot is pushed; a non-empty key coalesces
// rapid repeats of the same edit.
func undoKey(a action.Action) (string, bool) {
	switch act := a.(type) {
	// Continuous adjustments coalesce per target.
	case action.AdjustInstrumentLevel:
		return "inst-level/" + act.Id.String(), true
	case action.AdjustInstrumentPan:
		return "inst-pan/" + act.Id.String(), true
	case action.AdjustEnvelope:
		return "env/" + act.Id.String(), true
	case action.AdjustFilterCutoff:
		return "cutoff/" + act.Id.String(), true
	case action.AdjustFilterResonance:
		return "resonance/" + act.Id.String(), true
	case action.AdjustLfoRate:
		return "lfo-rate/" + act.Id.String(), true
	case action.AdjustLfoDepth:
		return "lfo-depth/" + act.Id.String(), true
	case action.AdjustEffectParam:
		return "fx/" + act.Id.String() + "/" + act.Effect.String(), true
	case action.AdjustSendLevel:
		return "send/" + act.Id.String() + "/" + act.Bus.String(), true
	case action.AdjustMixerLevel:
		return "mixer-level", true
	case action.AdjustMixerPan:
		return "mixer-pan", true
	case action.AdjustMasterLevel:
		return "master-level", true
	case action.AdjustBusLevel:
		return "bus-level/" + act.Bus.String(), true
	case action.AdjustBusPan:
		return "bus-pan/" + act.Bus.String(), true
	case action.AdjustSwing:
		return "swing", true
	case action.AdjustHumanizeVelocity:
		return "humanize-vel", true
	case action.AdjustHumanizeTiming:
		return "humanize-time", true
	case action.AdjustClickVolume:
		return "click-volume", true
	case action.AdjustVstParam:
		return "vst/" + act.Id.String() + "/" + act.Param.String(), true
	case action.AdjustLayerMixerLevel:
		return "layer-level", true

	// Discrete edits get their own snapshot each time.
	case action.AddInstrument, action.DeleteInstrument, action.RenameInstrument,
		action.SetInstrumentSource, action.ToggleFilter, action.SetFilterType,
		action.ToggleLfo, action.ToggleEq, action.SetEqBand, action.AddEffect,
		action.RemoveEffect, action.ToggleEffect, action.ToggleInstrumentMute,
		action.ToggleInstrumentSolo, action.SetOutputTarget, action.ToggleSend,
		action.SetLayerOctaveOffset, action.ToggleArp, action.CycleArpDirection,
		action.SetArpRate, action.SetArpOctaves, action.CycleChordShape,
		action.SetSamplerPath, action.SetGroove,
		action.ToggleNote, action.DeleteNotesInRegion, action.PasteNotes,
		action.CycleTimeSig, action.TogglePolyMode,
		action.AddLane, action.RemoveLane, action.AddAutomationPoint,
		action.RemoveAutomationPoint, action.MoveAutomationPoint,
		action.SetCurveType, action.ClearLane, action.DeletePointsInRange,
		action.PastePoints,
		action.AddBus, action.RemoveBus, action.RenameBus,
		action.ToggleBusMute, action.ToggleBusSolo,
		action.LinkInstruments, action.UnlinkInstrument,
		action.SetVstParam, action.ResetVstParam,
		action.UpdateSession, action.ToggleMasterMute,
		action.AddClip, action.RemoveClip, action.PlaceClip,
		action.RemovePlacement, action.MovePlacement, action.SetPlacementLength,
		action.ToggleDrumStep, action.SetDrumStepProbability,
		action.ToggleDrumPadMute, action.SetDrumPadLevel, action.SetDrumPadPitch,
		action.SetDrumRate, action.AddGenVoice, action.RemoveGenVoice,
		action.ToggleGenVoice, action.SetGenAlgorithm, action.SetGenEuclid,
		action.SetGenRate, action.CommitCapturedEvents,
		action.ChopSample, action.SetSliceCount,
		action.ImportVstPlugin:
		return "", true
	}
	// Transport, selection, navigation, playback-only, I/O, server, and
	// undo/redo themselves are not undoable.
	return "", false
}

// dirtyAndEffectsFor computes dirty flags plus side effects for actions
// whose mutation went through the pure reducer.
func dirtyAndEffectsFor(a action.Action, st *AppState) action.DispatchResult {
	result := action.None()
	d := &result.Dirty

	switch act := a.(type) {
	case action.AddInstrument:
		d.Instruments = true
		d.Routing = true
		result.Effects = append(result.Effects, action.EffectRebuildRouting{})

	case action.DeleteInstrument:
		d.Instruments = true
		d.Routing = true
		d.Automation = true
		result.Effects = append(result.Effects, action.EffectFreeInstrumentNodes{Instrument: act.Id})

	case action.SetInstrumentSource:
		d.Instruments = true
		d.Routing = true
		result.Effects = append(result.Effects,
			action.EffectFreeInstrumentNodes{Instrument: act.Id},
			action.EffectRebuildRouting{})

	case action.SetOutputTarget, action.ToggleSend, action.AdjustSendLevel:
		d.Instruments = true
		d.Routing = true

	case action.AddBus, action.RemoveBus:
		d.Session = true
		d.Routing = true
		d.Automation = true
		result.Effects = append(result.Effects, action.EffectRebuildRouting{})

	case action.RenameBus, action.AdjustBusLevel, action.AdjustBusPan,
		action.ToggleBusMute, action.ToggleBusSolo:
		d.Session = true

	case action.LinkInstruments, action.UnlinkInstrument:
		d.Instruments = true
		d.Session = true
		d.Routing = true
		result.Effects = append(result.Effects, action.EffectRebuildRouting{})

	case action.AdjustLayerMixerLevel:
		d.Session = true

	case action.AdjustEffectParam:
		d.EffectParams = append(d.EffectParams, action.ParamDelta{
			Instrument: act.Id, Effect: act.Effect, Param: act.Param,
		})

	case action.AdjustFilterCutoff:
		d.FilterParams = append(d.FilterParams, action.ParamDelta{
			Instrument: act.Id, Name: "cutoff",
		})

	case action.AdjustFilterResonance:
		d.FilterParams = append(d.FilterParams, action.ParamDelta{
			Instrument: act.Id, Name: "resonance",
		})

	case action.AdjustLfoRate:
		d.LfoParams = append(d.LfoParams, action.ParamDelta{
			Instrument: act.Id, Name: "rate",
		})

	case action.AdjustLfoDepth:
		d.LfoParams = append(d.LfoParams, action.ParamDelta{
			Instrument: act.Id, Name: "depth",
		})

	case action.SetSamplerPath:
		d.Instruments = true
		result.Effects = append(result.Effects, action.EffectLoadSampleBuffer{
			Instrument: act.Id, Path: act.Path,
		})

	case action.PlayNote:
		if inst := st.Instruments.SelectedInstrument(); inst != nil {
			result.Effects = append(result.Effects, action.EffectPlayNote{
				Instrument: inst.Id, Pitch: act.Pitch, Velocity: act.Velocity,
			})
		}

	case action.ReleaseNote:
		if inst := st.Instruments.SelectedInstrument(); inst != nil {
			result.Effects = append(result.Effects, action.EffectReleaseNote{
				Instrument: inst.Id, Pitch: act.Pitch,
			})
		}

	case action.MidiNoteOn:
		if inst := st.Instruments.SelectedInstrument(); inst != nil {
			result.Effects = append(result.Effects, action.EffectPlayNote{
				Instrument: inst.Id, Pitch: act.Pitch, Velocity: act.Velocity,
			})
		}

	case action.MidiNoteOff:
		if inst := st.Instruments.SelectedInstrument(); inst != nil {
			result.Effects = append(result.Effects, action.EffectReleaseNote{
				Instrument: inst.Id, Pitch: act.Pitch,
			})
		}

	case action.ToggleNote, action.DeleteNotesInRegion, action.PasteNotes,
		action.PlayStop, action.PlayStopRecord, action.ToggleLoop,
		action.SetLoopStart, action.SetLoopEnd, action.SetPlayhead,
		action.CycleTimeSig, action.TogglePolyMode, action.AdjustSwing:
		d.Session = true

	case action.AddLane, action.RemoveLane, action.ToggleLaneEnabled,
		action.AddAutomationPoint, action.RemoveAutomationPoint,
		action.MoveAutomationPoint, action.SetCurveType, action.ClearLane,
		action.ToggleLaneArm, action.ArmAllLanes, action.DisarmAllLanes,
		action.DeletePointsInRange, action.PastePoints, action.RecordAutomationValue:
		d.Automation = true

	case action.UpdateSession, action.UpdateSessionLive,
		action.AdjustHumanizeVelocity, action.AdjustHumanizeTiming,
		action.ToggleMasterMute, action.CycleTheme, action.ImportVstPlugin,
		action.ToggleClick, action.ToggleClickMute, action.AdjustClickVolume,
		action.SetClickVolume, action.SetGroove:
		d.Session = true

	case action.AdjustInstrumentLevel, action.AdjustInstrumentPan,
		action.ToggleInstrumentMute, action.ToggleInstrumentSolo,
		action.AdjustEnvelope, action.ToggleFilter, action.SetFilterType,
		action.ToggleLfo, action.ToggleEq, action.SetEqBand, action.AddEffect,
		action.RemoveEffect, action.ToggleEffect, action.RenameInstrument,
		action.SelectInstrument, action.SetLayerOctaveOffset, action.ToggleArp,
		action.CycleArpDirection, action.SetArpRate, action.SetArpOctaves,
		action.CycleChordShape:
		d.Instruments = true

	case action.SetVstParam, action.AdjustVstParam, action.ResetVstParam:
		d.Instruments = true

	case action.SelectMixerNext, action.SelectMixerPrev, action.AdjustMixerLevel,
		action.AdjustMixerPan, action.ToggleMixerMute, action.ToggleMixerSolo,
		action.AdjustMasterLevel:
		d.Session = true
	}

	return result
}
