package reduce

import (
	"github.com/mohsenil85/imbolc/internal/action"
	"github.com/mohsenil85/imbolc/internal/state"
)

func reducePianoRoll(a action.Action, session *state.SessionState) {
	pr := &session.PianoRoll
	switch act := a.(type) {
	case action.ToggleNote:
		if t := pr.TrackAt(act.Track); t != nil && act.Pitch <= 127 {
			vel := act.Velocity
			if vel > 127 {
				vel = 127
			}
			t.ToggleNote(act.Pitch, act.Tick, act.Duration, vel)
		}

	case action.PlayStop:
		pr.Playing = !pr.Playing
		if !pr.Playing {
			pr.Recording = false
		}

	case action.PlayStopRecord:
		if !pr.Playing {
			pr.Playing = true
			pr.Recording = true
		} else {
			pr.Playing = false
			pr.Recording = false
		}

	case action.ToggleLoop:
		pr.Looping = !pr.Looping

	case action.SetLoopStart:
		pr.LoopStart = act.Tick
		if pr.LoopEnd < pr.LoopStart {
			pr.LoopEnd = pr.LoopStart
		}

	case action.SetLoopEnd:
		pr.LoopEnd = act.Tick
		if pr.LoopStart > pr.LoopEnd {
			pr.LoopStart = pr.LoopEnd
		}

	case action.SetPlayhead:
		pr.PlayheadTicks = float64(act.Tick)

	case action.CycleTimeSig:
		var next [2]uint8
		switch session.TimeSignature {
		case [2]uint8{4, 4}:
			next = [2]uint8{3, 4}
		case [2]uint8{3, 4}:
			next = [2]uint8{6, 8}
		case [2]uint8{6, 8}:
			next = [2]uint8{5, 4}
		case [2]uint8{5, 4}:
			next = [2]uint8{7, 8}
		default:
			next = [2]uint8{4, 4}
		}
		session.TimeSignature = next
		pr.TimeSignature = next

	case action.TogglePolyMode:
		if t := pr.TrackAt(act.Track); t != nil {
			t.Polyphonic = !t.Polyphonic
		}

	case action.AdjustSwing:
		pr.SwingAmount = clampf(pr.SwingAmount+act.Delta, 0, 1)

	case action.DeleteNotesInRegion:
		if t := pr.TrackAt(act.Track); t != nil {
			kept := t.Notes[:0]
			for _, n := range t.Notes {
				inRegion := n.Pitch >= act.StartPitch && n.Pitch <= act.EndPitch &&
					n.Tick >= act.StartTick && n.Tick < act.EndTick
				if !inRegion {
					kept = append(kept, n)
				}
			}
			t.Notes = kept
		}

	case action.PasteNotes:
		t := pr.TrackAt(act.Track)
		if t == nil {
			return
		}
		for _, cn := range act.Notes {
			tick := act.AnchorTick + cn.TickOffset
			pitch := int16(act.AnchorPitch) + cn.PitchOffset
			// Pitches pushed outside the MIDI range are silently discarded.
			if pitch < 0 || pitch > 127 {
				continue
			}
			if t.HasNoteAt(uint8(pitch), tick) {
				continue
			}
			t.InsertNote(state.Note{
				Pitch:       uint8(pitch),
				Tick:        tick,
				Duration:    cn.Duration,
				Velocity:    cn.Velocity,
				Probability: cn.Probability,
			})
		}

	// CopyNotes: clipboard only. PlayNote/ReleaseNote: voice spawning only.
	case action.CopyNotes, action.PlayNote, action.ReleaseNote:
	}
}
