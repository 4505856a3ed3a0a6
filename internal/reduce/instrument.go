package reduce

import (
	"github.com/mohsenil85/imbolc/internal/action"
	"github.com/mohsenil85/imbolc/internal/state"
)

func reduceInstrument(a action.Action, instruments *state.InstrumentState, session *state.SessionState) {
	switch act := a.(type) {
	case action.AddInstrument:
		id := instruments.Add(act.Source)
		inst := instruments.Instrument(id)
		inst.SyncSendsWithBuses(session.Mixer.BusIds())
		session.PianoRoll.TrackFor(id)

	case action.DeleteInstrument:
		if !instruments.Remove(act.Id) {
			return
		}
		session.PianoRoll.RemoveTrackFor(act.Id)
		session.Automation.RemoveLanesForInstrument(act.Id)
		session.Arrangement.RemoveForInstrument(act.Id)
		delete(session.Grooves, uint32(act.Id))
		// Voices of a deleted instrument die with it.
		kept := session.Generative.Voices[:0]
		for _, v := range session.Generative.Voices {
			if v.Instrument != act.Id {
				kept = append(kept, v)
			}
		}
		session.Generative.Voices = kept

	case action.SelectInstrument:
		if act.Index >= -1 && act.Index < len(instruments.Instruments) {
			instruments.Selected = act.Index
		}

	case action.RenameInstrument:
		if inst := instruments.Instrument(act.Id); inst != nil && act.Name != "" {
			inst.Name = act.Name
		}

	case action.SetInstrumentSource:
		if inst := instruments.Instrument(act.Id); inst != nil {
			inst.Source = act.Source
			inst.Extra = state.SourceExtra{}
			switch act.Source {
			case state.SourceKit:
				ds := state.NewDrumSequencer()
				inst.Extra.Drums = &ds
			case state.SourceSampler:
				inst.Extra.Sampler = &state.SamplerConfig{BufferId: -1, BaseNote: 60, SliceCount: 1}
			}
		}

	case action.AdjustEnvelope:
		if inst := instruments.Instrument(act.Id); inst != nil {
			switch act.Stage {
			case action.EnvAttack:
				inst.Envelope.Attack = clampf(inst.Envelope.Attack+act.Delta, 0.001, 30)
			case action.EnvDecay:
				inst.Envelope.Decay = clampf(inst.Envelope.Decay+act.Delta, 0, 30)
			case action.EnvSustain:
				inst.Envelope.Sustain = clampf(inst.Envelope.Sustain+act.Delta, 0, 1)
			case action.EnvRelease:
				inst.Envelope.Release = clampf(inst.Envelope.Release+act.Delta, 0.001, 30)
			}
		}

	case action.ToggleFilter:
		if inst := instruments.Instrument(act.Id); inst != nil {
			if inst.Filter == nil {
				f := state.DefaultFilter()
				f.Enabled = true
				inst.Filter = &f
			} else {
				inst.Filter.Enabled = !inst.Filter.Enabled
			}
		}

	case action.SetFilterType:
		if inst := instruments.Instrument(act.Id); inst != nil && inst.Filter != nil {
			inst.Filter.Type = act.Type
		}

	case action.AdjustFilterCutoff:
		if inst := instruments.Instrument(act.Id); inst != nil && inst.Filter != nil {
			inst.Filter.Cutoff = clampf(inst.Filter.Cutoff*(1+act.Delta), 20, 20000)
		}

	case action.AdjustFilterResonance:
		if inst := instruments.Instrument(act.Id); inst != nil && inst.Filter != nil {
			inst.Filter.Resonance = clampf(inst.Filter.Resonance+act.Delta, 0, 1)
		}

	case action.ToggleLfo:
		if inst := instruments.Instrument(act.Id); inst != nil {
			inst.Lfo.Enabled = !inst.Lfo.Enabled
		}

	case action.AdjustLfoRate:
		if inst := instruments.Instrument(act.Id); inst != nil {
			inst.Lfo.Rate = clampf(inst.Lfo.Rate+act.Delta, 0.01, 40)
		}

	case action.AdjustLfoDepth:
		if inst := instruments.Instrument(act.Id); inst != nil {
			inst.Lfo.Depth = clampf(inst.Lfo.Depth+act.Delta, 0, 1)
		}

	case action.ToggleEq:
		if inst := instruments.Instrument(act.Id); inst != nil {
			inst.Eq.Enabled = !inst.Eq.Enabled
		}

	case action.SetEqBand:
		if inst := instruments.Instrument(act.Id); inst != nil {
			if act.Band >= 0 && act.Band < state.EqBandCount {
				inst.Eq.GainDB[act.Band] = clampf(act.GainDB, -24, 24)
			}
		}

	case action.AddEffect:
		if inst := instruments.Instrument(act.Id); inst != nil {
			inst.AddEffect(act.Type)
		}

	case action.RemoveEffect:
		if inst := instruments.Instrument(act.Id); inst != nil {
			if inst.RemoveEffect(act.Effect) {
				// Lanes targeting a removed effect are dead.
				kept := session.Automation.Lanes[:0]
				for _, l := range session.Automation.Lanes {
					if !(l.Target.Kind == state.TargetEffectParam &&
						l.Target.Instrument == act.Id && l.Target.Effect == act.Effect) {
						kept = append(kept, l)
					}
				}
				session.Automation.Lanes = kept
			}
		}

	case action.ToggleEffect:
		if inst := instruments.Instrument(act.Id); inst != nil {
			if e := inst.Effect(act.Effect); e != nil {
				e.Enabled = !e.Enabled
			}
		}

	case action.AdjustEffectParam:
		if inst := instruments.Instrument(act.Id); inst != nil {
			if e := inst.Effect(act.Effect); e != nil {
				idx := int(act.Param)
				for len(e.Params) <= idx {
					e.Params = append(e.Params, 0.5)
				}
				e.Params[idx] = clampf(e.Params[idx]+act.Delta, 0, 1)
			}
		}

	case action.AdjustInstrumentLevel:
		if inst := instruments.Instrument(act.Id); inst != nil {
			inst.Mixer.Level = clampf(inst.Mixer.Level+act.Delta, 0, 1)
		}

	case action.AdjustInstrumentPan:
		if inst := instruments.Instrument(act.Id); inst != nil {
			inst.Mixer.Pan = clampf(inst.Mixer.Pan+act.Delta, -1, 1)
		}

	case action.ToggleInstrumentMute:
		if inst := instruments.Instrument(act.Id); inst != nil {
			inst.Mixer.Mute = !inst.Mixer.Mute
		}

	case action.ToggleInstrumentSolo:
		if inst := instruments.Instrument(act.Id); inst != nil {
			inst.Mixer.Solo = !inst.Mixer.Solo
		}

	case action.SetOutputTarget:
		if inst := instruments.Instrument(act.Id); inst != nil {
			// A target naming a nonexistent bus is normalized to master.
			if act.Target.Kind == "bus" && session.Mixer.Bus(act.Target.Bus) == nil {
				inst.Output = state.ToMaster()
			} else {
				inst.Output = act.Target
			}
		}

	case action.AdjustSendLevel:
		if inst := instruments.Instrument(act.Id); inst != nil {
			if s := inst.Send(act.Bus); s != nil {
				s.Level = clampf(s.Level+act.Delta, 0, 1)
			}
		}

	case action.ToggleSend:
		if inst := instruments.Instrument(act.Id); inst != nil {
			// Only sends to live buses can be enabled.
			if session.Mixer.Bus(act.Bus) == nil {
				return
			}
			if s := inst.Send(act.Bus); s != nil {
				s.Enabled = !s.Enabled
			}
		}

	case action.SetLayerOctaveOffset:
		if inst := instruments.Instrument(act.Id); inst != nil {
			if act.Offset >= -4 && act.Offset <= 4 {
				inst.LayerOctaveOffset = act.Offset
			}
		}

	case action.ToggleArp:
		if inst := instruments.Instrument(act.Id); inst != nil {
			inst.NoteInput.Arp.Enabled = !inst.NoteInput.Arp.Enabled
		}

	case action.CycleArpDirection:
		if inst := instruments.Instrument(act.Id); inst != nil {
			inst.NoteInput.Arp.Direction = (inst.NoteInput.Arp.Direction + 1) % 5
		}

	case action.SetArpRate:
		if inst := instruments.Instrument(act.Id); inst != nil && act.Rate > 0 {
			inst.NoteInput.Arp.Rate = clampf(act.Rate, 0.25, 32)
		}

	case action.SetArpOctaves:
		if inst := instruments.Instrument(act.Id); inst != nil {
			if act.Octaves >= 1 && act.Octaves <= 4 {
				inst.NoteInput.Arp.Octaves = act.Octaves
			}
		}

	case action.CycleChordShape:
		if inst := instruments.Instrument(act.Id); inst != nil {
			inst.NoteInput.Chord = (inst.NoteInput.Chord + 1) % 5
		}

	case action.SetSamplerPath:
		if inst := instruments.Instrument(act.Id); inst != nil && inst.Extra.Sampler != nil {
			inst.Extra.Sampler.Path = act.Path
		}

	case action.SetGroove:
		session.SetGrooveFor(act.Id, act.Groove)
	}
}
