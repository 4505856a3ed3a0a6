package action

import (
	"time"

	"github.com/mohsenil85/imbolc/internal/state"
)

// ParamDelta is a targeted single-parameter change that lets the audio
// thread update one node control without a full rebuild.
type ParamDelta struct {
	Instrument state.InstrumentId
	Effect     state.EffectId
	Param      state.ParamIndex
	Name       string
	Value      float32
}

// AudioDirty carries granular flags telling the audio side what changed.
type AudioDirty struct {
	Session     bool
	Instruments bool
	Routing     bool
	Automation  bool

	EffectParams []ParamDelta
	FilterParams []ParamDelta
	LfoParams    []ParamDelta
}

// Any reports whether anything at all was marked dirty.
func (d *AudioDirty) Any() bool {
	return d.Session || d.Instruments || d.Routing || d.Automation ||
		len(d.EffectParams) > 0 || len(d.FilterParams) > 0 || len(d.LfoParams) > 0
}

// NavIntent asks the shell to open, close, or pop a pane.
type NavIntent struct {
	// Kind is one of "open", "close", "pop".
	Kind string
	Pane string
}

// StatusEvent is a timed message for the status bar. IsError changes the
// styling, nothing else; the dispatcher never returns errors.
type StatusEvent struct {
	Message  string
	IsError  bool
	Duration time.Duration
}

func Status(msg string) StatusEvent {
	return StatusEvent{Message: msg, Duration: 3 * time.Second}
}

func ErrorStatus(msg string) StatusEvent {
	return StatusEvent{Message: msg, IsError: true, Duration: 5 * time.Second}
}

// AudioEffect is a side effect the audio thread must perform that is not
// captured by the pure reduction (buffer loads, node frees, VST queries).
type AudioEffect interface{}

type EffectLoadSampleBuffer struct {
	Instrument state.InstrumentId
	Path       string
}

type EffectFreeInstrumentNodes struct {
	Instrument state.InstrumentId
}

type EffectFreeAllNodes struct{}

type EffectRebuildRouting struct{}

type EffectPlayNote struct {
	Instrument state.InstrumentId
	Pitch      uint8
	Velocity   uint8
}

type EffectReleaseNote struct {
	Instrument state.InstrumentId
	Pitch      uint8
}

type EffectDiscoverVstParams struct {
	Instrument state.InstrumentId
	Target     VstTarget
}

type EffectSaveVstState struct {
	Instrument state.InstrumentId
	Target     VstTarget
}

type EffectLoadSynthDefDir struct {
	Dir string
}

type EffectStartRender struct {
	Kind ExportKind
	Path string
}

type EffectCancelRender struct{}

// DispatchResult is what the dispatcher hands back to the caller: dirty
// flags for the audio bridge, side effects, UI surfaces, and the quit flag.
// Errors never appear here; every recoverable fault becomes a StatusEvent.
type DispatchResult struct {
	Dirty        AudioDirty
	Effects      []AudioEffect
	Nav          []NavIntent
	StatusEvents []StatusEvent
	Quit         bool
}

func None() DispatchResult { return DispatchResult{} }

// Merge folds another result into this one.
func (r *DispatchResult) Merge(other DispatchResult) {
	r.Dirty.Session = r.Dirty.Session || other.Dirty.Session
	r.Dirty.Instruments = r.Dirty.Instruments || other.Dirty.Instruments
	r.Dirty.Routing = r.Dirty.Routing || other.Dirty.Routing
	r.Dirty.Automation = r.Dirty.Automation || other.Dirty.Automation
	r.Dirty.EffectParams = append(r.Dirty.EffectParams, other.Dirty.EffectParams...)
	r.Dirty.FilterParams = append(r.Dirty.FilterParams, other.Dirty.FilterParams...)
	r.Dirty.LfoParams = append(r.Dirty.LfoParams, other.Dirty.LfoParams...)
	r.Effects = append(r.Effects, other.Effects...)
	r.Nav = append(r.Nav, other.Nav...)
	r.StatusEvents = append(r.StatusEvents, other.StatusEvents...)
	r.Quit = r.Quit || other.Quit
}
