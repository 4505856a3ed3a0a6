package dispatch

import (
	"github.com/mohsenil85/imbolc/internal/action"
	"github.com/mohsenil85/imbolc/internal/state"
)

// Arrangement, sequencer, and chopper actions are not reducible: the audio
// thread converges on them through the snapshot the bridge publishes after
// dispatch. Mutations happen here, directly on the editing copy.

func dispatchArrangement(a action.Action, st *AppState) action.DispatchResult {
	result := action.None()
	arr := &st.Session.Arrangement
	switch act := a.(type) {
	case action.AddClip:
		arr.AddClip(act.Name, act.Notes, act.LengthTicks)
	case action.RemoveClip:
		arr.RemoveClip(act.Clip)
	case action.PlaceClip:
		if arr.Clip(act.Clip) == nil || st.Instruments.Instrument(act.Instrument) == nil {
			return result
		}
		arr.Place(act.Clip, act.Instrument, act.StartTick)
	case action.RemovePlacement:
		arr.RemovePlacement(act.Placement)
	case action.MovePlacement:
		if p := arr.Placement(act.Placement); p != nil {
			p.StartTick = act.StartTick
		}
	case action.SetPlacementLength:
		if p := arr.Placement(act.Placement); p != nil {
			p.LengthOverride = act.Length
		}
	}
	result.Dirty.Session = true
	return result
}

func dispatchSequencer(a action.Action, st *AppState) action.DispatchResult {
	result := action.None()
	switch act := a.(type) {
	case action.ToggleDrumStep:
		if seq := drumsFor(st, act.Id); seq != nil && validPadStep(act.Pad, act.Step) {
			cell := &seq.Pads[act.Pad].Steps[act.Step]
			cell.Active = !cell.Active
		}
	case action.SetDrumStepProbability:
		if seq := drumsFor(st, act.Id); seq != nil && validPadStep(act.Pad, act.Step) {
			seq.Pads[act.Pad].Steps[act.Step].Probability = clamp01(act.Probability)
		}
	case action.ToggleDrumPadMute:
		if seq := drumsFor(st, act.Id); seq != nil && validPad(act.Pad) {
			seq.Pads[act.Pad].Mute = !seq.Pads[act.Pad].Mute
		}
	case action.SetDrumPadLevel:
		if seq := drumsFor(st, act.Id); seq != nil && validPad(act.Pad) {
			seq.Pads[act.Pad].Level = clamp01(act.Level)
		}
	case action.SetDrumPadPitch:
		if seq := drumsFor(st, act.Id); seq != nil && validPad(act.Pad) {
			seq.Pads[act.Pad].Pitch = clampf(act.Pitch, -24, 24)
		}
	case action.SetDrumRate:
		if seq := drumsFor(st, act.Id); seq != nil && act.Rate > 0 {
			seq.Rate = clampf(act.Rate, 0.25, 32)
		}
	case action.AddGenVoice:
		if st.Instruments.Instrument(act.Instrument) != nil {
			st.Session.Generative.AddVoice(act.Instrument)
		}
	case action.RemoveGenVoice:
		st.Session.Generative.RemoveVoice(act.Voice)
	case action.ToggleGenVoice:
		if v := st.Session.Generative.Voice(act.Voice); v != nil {
			v.Enabled = !v.Enabled
		}
	case action.SetGenAlgorithm:
		if v := st.Session.Generative.Voice(act.Voice); v != nil {
			v.Algorithm = act.Algorithm
		}
	case action.SetGenEuclid:
		if v := st.Session.Generative.Voice(act.Voice); v != nil {
			if act.StepsLen > 0 && act.StepsLen <= 64 {
				v.StepsLen = act.StepsLen
			}
			if act.Pulses >= 0 && act.Pulses <= v.StepsLen {
				v.Pulses = act.Pulses
			}
			v.Rotation = act.Rotation
		}
	case action.SetGenRate:
		if v := st.Session.Generative.Voice(act.Voice); v != nil && act.Rate > 0 {
			v.Rate = clampf(act.Rate, 0.25, 32)
		}
	case action.CommitCapturedEvents:
		commitCaptured(st, act.Voice, act.Track)
	}
	result.Dirty.Session = true
	result.Dirty.Instruments = true
	return result
}

// commitCaptured writes a voice's captured events into a piano-roll track
// and clears them from the buffer.
func commitCaptured(st *AppState, voice state.GenVoiceId, trackIdx int) {
	track := st.Session.PianoRoll.TrackAt(trackIdx)
	if track == nil {
		return
	}
	kept := st.Session.Generative.Captured[:0]
	for _, ev := range st.Session.Generative.Captured {
		if ev.Voice != voice {
			kept = append(kept, ev)
			continue
		}
		if !track.HasNoteAt(ev.Pitch, ev.Tick) {
			track.InsertNote(state.Note{
				Pitch:       ev.Pitch,
				Tick:        ev.Tick,
				Duration:    ev.Duration,
				Velocity:    ev.Velocity,
				Probability: 1.0,
			})
		}
	}
	st.Session.Generative.Captured = kept
}

func dispatchChopper(a action.Action, st *AppState) action.DispatchResult {
	result := action.None()
	switch act := a.(type) {
	case action.ChopSample:
		if inst := st.Instruments.Instrument(act.Id); inst != nil && inst.Extra.Sampler != nil {
			if act.Slices > 0 && act.Slices <= 256 {
				inst.Extra.Sampler.SliceCount = act.Slices
			}
		}
	case action.SetSliceCount:
		if inst := st.Instruments.Instrument(act.Id); inst != nil && inst.Extra.Sampler != nil {
			if act.Count > 0 && act.Count <= 256 {
				inst.Extra.Sampler.SliceCount = act.Count
			}
		}
	}
	result.Dirty.Instruments = true
	return result
}

func drumsFor(st *AppState, id state.InstrumentId) *state.DrumSequencer {
	inst := st.Instruments.Instrument(id)
	if inst == nil {
		return nil
	}
	return inst.Extra.Drums
}

func validPad(pad int) bool {
	return pad >= 0 && pad < state.DrumPadCount
}

func validPadStep(pad, step int) bool {
	return validPad(pad) && step >= 0 && step < state.DrumStepCount
}

func clamp01(v float32) float32 { return clampf(v, 0, 1) }

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
