package reduce

import (
	"github.com/mohsenil85/imbolc/internal/action"
	"github.com/mohsenil85/imbolc/internal/state"
)

func reduceVstParam(a action.Action, instruments *state.InstrumentState, session *state.SessionState) {
	switch act := a.(type) {
	case action.SetVstParam:
		setParam(instruments, act.Id, act.Target, act.Param, clampf(act.Value, 0, 1))

	case action.AdjustVstParam:
		current := currentParam(instruments, session, act.Id, act.Target, act.Param)
		setParam(instruments, act.Id, act.Target, act.Param, clampf(current+act.Delta, 0, 1))

	case action.ResetVstParam:
		def := float32(0.5)
		if inst := instruments.Instrument(act.Id); inst != nil {
			if pid, ok := pluginIdFor(inst, act.Target); ok {
				def = session.VstPlugins.ParamDefault(pid, act.Param)
			}
		}
		setParam(instruments, act.Id, act.Target, act.Param, def)
	}
}

// currentParam reads the sparse override, falling back to the plugin's
// discovered default, then to 0.5.
func currentParam(instruments *state.InstrumentState, session *state.SessionState,
	id state.InstrumentId, target action.VstTarget, param state.ParamIndex) float32 {
	inst := instruments.Instrument(id)
	if inst == nil {
		return 0.5
	}
	if values := paramValues(inst, target); values != nil {
		for _, v := range *values {
			if v.Index == param {
				return v.Value
			}
		}
	}
	if pid, ok := pluginIdFor(inst, target); ok {
		return session.VstPlugins.ParamDefault(pid, param)
	}
	return 0.5
}

// setParam upserts into the sparse (index, value) list.
func setParam(instruments *state.InstrumentState, id state.InstrumentId,
	target action.VstTarget, param state.ParamIndex, value float32) {
	inst := instruments.Instrument(id)
	if inst == nil {
		return
	}
	values := paramValues(inst, target)
	if values == nil {
		return
	}
	for i := range *values {
		if (*values)[i].Index == param {
			(*values)[i].Value = value
			return
		}
	}
	*values = append(*values, state.VstParamValue{Index: param, Value: value})
}

func paramValues(inst *state.Instrument, target action.VstTarget) *[]state.VstParamValue {
	switch target.Kind {
	case "source":
		if inst.Source == state.SourceVst {
			return &inst.Extra.VstParamValues
		}
	case "effect":
		if e := inst.Effect(target.Effect); e != nil && e.Type == state.EffectVstEffect {
			return &e.VstParamValues
		}
	}
	return nil
}

func pluginIdFor(inst *state.Instrument, target action.VstTarget) (state.VstPluginId, bool) {
	switch target.Kind {
	case "source":
		if inst.Source == state.SourceVst {
			return inst.Extra.VstPlugin, true
		}
	case "effect":
		if e := inst.Effect(target.Effect); e != nil && e.Type == state.EffectVstEffect {
			return e.Vst, true
		}
	}
	return 0, false
}
