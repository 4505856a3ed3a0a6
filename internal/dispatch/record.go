package dispatch

import (
	"math"

	"github.com/mohsenil85/imbolc/internal/action"
	"github.com/mohsenil85/imbolc/internal/state"
)

// recordMidi writes captured MIDI notes into the selected instrument's
// track while the transport is recording, quantized per the session config.
func (d *Dispatcher) recordMidi(a action.Action) {
	st := d.State
	pr := &st.Session.PianoRoll
	if !pr.Recording || !pr.Playing {
		return
	}
	on, ok := a.(action.MidiNoteOn)
	if !ok {
		return
	}
	inst := st.Instruments.SelectedInstrument()
	if inst == nil {
		return
	}

	tick := uint32(pr.PlayheadTicks)
	cfg := st.Session.MidiRecording
	if cfg.Quantize && cfg.QuantizeGrid > 0 {
		grid := cfg.QuantizeGrid
		tick = (tick + grid/2) / grid * grid
	}

	track := pr.TrackFor(inst.Id)
	if track.HasNoteAt(on.Pitch, tick) {
		return
	}
	track.InsertNote(state.Note{
		Pitch:       on.Pitch,
		Tick:        tick,
		Duration:    st.Session.TicksPerBeat / 4,
		Velocity:    on.Velocity,
		Probability: 1.0,
	})
}

// recordAutomation samples the committed value of an adjustment back into
// any armed lane targeting the same parameter, at the current playhead.
// Only active while write mode is on and the transport is playing.
func (d *Dispatcher) recordAutomation(a action.Action) {
	st := d.State
	if !st.AutomationRecording || !st.Session.PianoRoll.Playing {
		return
	}

	var target state.AutomationTarget
	var value float32
	matched := false

	switch act := a.(type) {
	case action.AdjustInstrumentLevel:
		if inst := st.Instruments.Instrument(act.Id); inst != nil {
			target = state.InstrumentLevelTarget(act.Id)
			value = inst.Mixer.Level
			matched = true
		}
	case action.AdjustInstrumentPan:
		if inst := st.Instruments.Instrument(act.Id); inst != nil {
			target = state.AutomationTarget{Kind: state.TargetInstrumentPan, Instrument: act.Id}
			value = (inst.Mixer.Pan + 1) / 2
			matched = true
		}
	case action.AdjustFilterCutoff:
		if inst := st.Instruments.Instrument(act.Id); inst != nil && inst.Filter != nil {
			target = state.AutomationTarget{Kind: state.TargetFilterCutoff, Instrument: act.Id}
			// Inverse of the engine's exponential 20 Hz - 20 kHz mapping.
			value = cutoffToNormalized(inst.Filter.Cutoff)
			matched = true
		}
	case action.AdjustBusLevel:
		if b := st.Session.Mixer.Bus(act.Bus); b != nil {
			target = state.BusLevelTarget(act.Bus)
			value = b.Level
			matched = true
		}
	case action.AdjustMasterLevel:
		target = state.AutomationTarget{Kind: state.TargetMasterLevel}
		value = st.Session.Mixer.MasterLevel
		matched = true
	case action.SetVstParam:
		target = state.AutomationTarget{
			Kind: state.TargetVstParam, Instrument: act.Id, Param: act.Param,
		}
		value = act.Value
		matched = true
	case action.AdjustVstParam:
		target = state.AutomationTarget{
			Kind: state.TargetVstParam, Instrument: act.Id, Param: act.Param,
		}
		value = currentVstValue(st, act.Id, act.Target, act.Param)
		matched = true
	}

	if !matched {
		return
	}

	playhead := uint32(st.Session.PianoRoll.PlayheadTicks)
	for i := range st.Session.Automation.Lanes {
		lane := &st.Session.Automation.Lanes[i]
		if lane.RecordArmed && lane.Target == target {
			lane.AddPoint(playhead, value)
		}
	}
}

func currentVstValue(st *AppState, id state.InstrumentId, target action.VstTarget, param state.ParamIndex) float32 {
	inst := st.Instruments.Instrument(id)
	if inst == nil {
		return 0.5
	}
	var values []state.VstParamValue
	switch target.Kind {
	case "source":
		values = inst.Extra.VstParamValues
	case "effect":
		if e := inst.Effect(target.Effect); e != nil {
			values = e.VstParamValues
		}
	}
	for _, v := range values {
		if v.Index == param {
			return v.Value
		}
	}
	return 0.5
}

// cutoffToNormalized inverts the engine's exponential cutoff mapping
// (value = log_1000(hz/20)).
func cutoffToNormalized(hz float32) float32 {
	if hz <= 20 {
		return 0
	}
	if hz >= 20000 {
		return 1
	}
	return float32(math.Log(float64(hz)/20.0) / math.Log(1000.0))
}
