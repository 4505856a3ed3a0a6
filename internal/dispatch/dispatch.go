// Package dispatch is the single entry point for state mutation on the main
// thread. Every user, MIDI, or network intent becomes an Action dispatched
// here: the pure reducer applies the mutation, this package computes dirty
// flags and audio side effects, manages undo, records automation, and
// forwards the action across the bridge to the audio thread.
package dispatch

import (
	"fmt"
	"log"

	"github.com/mohsenil85/imbolc/internal/action"
	"github.com/mohsenil85/imbolc/internal/audio"
	"github.com/mohsenil85/imbolc/internal/reduce"
	"github.com/mohsenil85/imbolc/internal/state"
)

// ServerControl abstracts the synthesis-server process manager so the
// dispatcher can honor Server actions without owning the process.
type ServerControl interface {
	Start() error
	Stop()
	Restart() error
}

// Exporter abstracts the offline render driver.
type Exporter interface {
	StartRender(kind action.ExportKind, path string, session *state.SessionState, instruments *state.InstrumentState, gen uint64) error
	Cancel()
}

// Saver abstracts project persistence (an opaque boundary per the engine).
type Saver interface {
	SaveAsync(path string, session *state.SessionState, instruments *state.InstrumentState, gen uint64)
	LoadAsync(path string, gen uint64)
}

// Dispatcher routes actions into the state engine.
type Dispatcher struct {
	State  *AppState
	Audio  *audio.Handle
	Server ServerControl
	Export Exporter
	Saver  Saver
}

func New(st *AppState, handle *audio.Handle) *Dispatcher {
	return &Dispatcher{State: st, Audio: handle}
}

// Dispatch applies one action and returns the result. Errors never escape:
// every recoverable fault becomes a timed StatusEvent.
func (d *Dispatcher) Dispatch(a action.Action) action.DispatchResult {
	st := d.State
	result := action.None()

	// Undo snapshots are pushed before mutating, with coalescing of rapid
	// same-kind edits.
	if key, undoable := undoKey(a); undoable {
		st.PushUndo(key)
	}

	switch act := a.(type) {
	case action.Undo:
		if st.Undo() {
			result.Dirty = action.AudioDirty{Session: true, Instruments: true, Routing: true, Automation: true}
			result.StatusEvents = append(result.StatusEvents, action.Status("undo"))
		} else {
			result.StatusEvents = append(result.StatusEvents, action.Status("nothing to undo"))
		}

	case action.Redo:
		if st.Redo() {
			result.Dirty = action.AudioDirty{Session: true, Instruments: true, Routing: true, Automation: true}
			result.StatusEvents = append(result.StatusEvents, action.Status("redo"))
		} else {
			result.StatusEvents = append(result.StatusEvents, action.Status("nothing to redo"))
		}

	case action.ToggleAutomationRecording:
		st.AutomationRecording = !st.AutomationRecording
		if st.AutomationRecording {
			result.StatusEvents = append(result.StatusEvents, action.Status("automation write on"))
		} else {
			result.StatusEvents = append(result.StatusEvents, action.Status("automation write off"))
		}
		result.Dirty.Automation = true

	case action.StartServer, action.StopServer, action.RestartServer,
		action.RecordMaster, action.FreeAllNodes, action.SetLookahead:
		result.Merge(d.dispatchServer(a))

	case action.RenderToWav, action.BounceToWav, action.ExportStems, action.CancelExport:
		result.Merge(d.dispatchExport(a))

	case action.NewProject, action.SaveProject, action.SaveProjectAs,
		action.LoadProject, action.LoadProjectFrom, action.ImportCustomSynthDef,
		action.CreateCheckpoint, action.RestoreCheckpoint, action.DeleteCheckpoint:
		result.Merge(d.dispatchProjectIo(a))

	case action.AddClip, action.RemoveClip, action.PlaceClip,
		action.RemovePlacement, action.MovePlacement, action.SetPlacementLength:
		result.Merge(dispatchArrangement(a, st))

	case action.ToggleDrumStep, action.SetDrumStepProbability,
		action.ToggleDrumPadMute, action.SetDrumPadLevel, action.SetDrumPadPitch,
		action.SetDrumRate, action.AddGenVoice, action.RemoveGenVoice,
		action.ToggleGenVoice, action.SetGenAlgorithm, action.SetGenEuclid,
		action.SetGenRate, action.CommitCapturedEvents:
		result.Merge(dispatchSequencer(a, st))

	case action.ChopSample, action.SetSliceCount:
		result.Merge(dispatchChopper(a, st))

	case action.DiscoverVstParams:
		result.Effects = append(result.Effects, action.EffectDiscoverVstParams{
			Instrument: act.Id, Target: act.Target,
		})
		result.StatusEvents = append(result.StatusEvents, action.Status("querying plugin parameters"))

	case action.SaveVstState:
		result.Effects = append(result.Effects, action.EffectSaveVstState{
			Instrument: act.Id, Target: act.Target,
		})

	default:
		// Everything else is covered by the pure reducer.
		if !reduce.Reduce(a, st.Instruments, st.Session) {
			log.Printf("dispatch: reducer declined %T", a)
		}
		result.Merge(dirtyAndEffectsFor(a, st))
	}

	d.recordAutomation(a)
	d.recordMidi(a)

	// Forward across the bridge: the audio thread projects the action onto
	// its local copies, or adopts a snapshot when it cannot.
	if d.Audio != nil {
		d.Audio.ForwardAction(a, &result, st.Session, st.Instruments)
	}

	return result
}

// dispatchServer maps Server actions to process-manager calls and effects.
func (d *Dispatcher) dispatchServer(a action.Action) action.DispatchResult {
	result := action.None()
	switch act := a.(type) {
	case action.StartServer:
		if d.Server == nil {
			result.StatusEvents = append(result.StatusEvents, action.ErrorStatus("no server manager"))
			return result
		}
		if err := d.Server.Start(); err != nil {
			result.StatusEvents = append(result.StatusEvents, action.ErrorStatus(err.Error()))
		} else {
			result.StatusEvents = append(result.StatusEvents, action.Status("starting synthesis server"))
		}
	case action.StopServer:
		if d.Server != nil {
			d.Server.Stop()
			result.StatusEvents = append(result.StatusEvents, action.Status("synthesis server stopped"))
		}
	case action.RestartServer:
		if d.Server == nil {
			return result
		}
		if err := d.Server.Restart(); err != nil {
			result.StatusEvents = append(result.StatusEvents, action.ErrorStatus(err.Error()))
		} else {
			result.Effects = append(result.Effects, action.EffectRebuildRouting{})
			result.StatusEvents = append(result.StatusEvents, action.Status("synthesis server restarting"))
		}
	case action.RecordMaster:
		result.StatusEvents = append(result.StatusEvents, action.Status("master recording toggled"))
	case action.FreeAllNodes:
		result.Effects = append(result.Effects, action.EffectFreeAllNodes{})
	case action.SetLookahead:
		if d.Audio != nil {
			d.Audio.SetLookahead(act.Seconds)
		}
	}
	return result
}

// dispatchExport hands render requests to the export driver.
func (d *Dispatcher) dispatchExport(a action.Action) action.DispatchResult {
	result := action.None()
	if d.Export == nil {
		result.StatusEvents = append(result.StatusEvents, action.ErrorStatus("no export driver"))
		return result
	}
	st := d.State
	gen := st.Session.Io.NextExport()
	switch act := a.(type) {
	case action.RenderToWav:
		if err := d.Export.StartRender(action.ExportSingleRender, act.Path, st.Session, st.Instruments, gen); err != nil {
			result.StatusEvents = append(result.StatusEvents, action.ErrorStatus(err.Error()))
		} else {
			result.StatusEvents = append(result.StatusEvents, action.Status(fmt.Sprintf("rendering to %s", act.Path)))
		}
	case action.BounceToWav:
		if err := d.Export.StartRender(action.ExportMasterBounce, act.Path, st.Session, st.Instruments, gen); err != nil {
			result.StatusEvents = append(result.StatusEvents, action.ErrorStatus(err.Error()))
		} else {
			result.StatusEvents = append(result.StatusEvents, action.Status(fmt.Sprintf("bouncing to %s", act.Path)))
		}
	case action.ExportStems:
		if err := d.Export.StartRender(action.ExportStemExport, act.Dir, st.Session, st.Instruments, gen); err != nil {
			result.StatusEvents = append(result.StatusEvents, action.ErrorStatus(err.Error()))
		} else {
			result.StatusEvents = append(result.StatusEvents, action.Status(fmt.Sprintf("exporting stems to %s", act.Dir)))
		}
	case action.CancelExport:
		d.Export.Cancel()
	}
	return result
}

// dispatchProjectIo handles save/load and checkpoints asynchronously; the
// completion comes back as IoFeedback stamped with a generation counter.
func (d *Dispatcher) dispatchProjectIo(a action.Action) action.DispatchResult {
	result := action.None()
	st := d.State
	switch act := a.(type) {
	case action.NewProject:
		st.Session = state.NewSessionState()
		instruments := state.NewInstrumentState()
		st.Instruments = &instruments
		st.ProjectPath = ""
		result.Dirty = action.AudioDirty{Session: true, Instruments: true, Routing: true, Automation: true}
		result.StatusEvents = append(result.StatusEvents, action.Status("new project"))

	case action.SaveProject:
		if st.ProjectPath == "" {
			result.Nav = append(result.Nav, action.NavIntent{Kind: "open", Pane: "save-as"})
			return result
		}
		if d.Saver != nil {
			d.Saver.SaveAsync(st.ProjectPath, st.Session, st.Instruments, st.Session.Io.NextSave())
		}

	case action.SaveProjectAs:
		st.ProjectPath = act.Path
		if d.Saver != nil {
			d.Saver.SaveAsync(act.Path, st.Session, st.Instruments, st.Session.Io.NextSave())
		}

	case action.LoadProject:
		if st.ProjectPath == "" {
			result.Nav = append(result.Nav, action.NavIntent{Kind: "open", Pane: "load"})
			return result
		}
		if d.Saver != nil {
			d.Saver.LoadAsync(st.ProjectPath, st.Session.Io.NextLoad())
		}

	case action.LoadProjectFrom:
		st.ProjectPath = act.Path
		if d.Saver != nil {
			d.Saver.LoadAsync(act.Path, st.Session.Io.NextLoad())
		}

	case action.ImportCustomSynthDef:
		st.Session.SynthDefs.Add(state.CustomSynthDef{
			Name: act.Path,
			Path: act.Path,
		})
		result.Effects = append(result.Effects, action.EffectLoadSynthDefDir{Dir: act.Path})
		result.Dirty.Session = true

	case action.CreateCheckpoint:
		st.PushUndo("")
		result.StatusEvents = append(result.StatusEvents, action.Status(fmt.Sprintf("checkpoint %q", act.Name)))

	case action.RestoreCheckpoint:
		if st.Undo() {
			result.Dirty = action.AudioDirty{Session: true, Instruments: true, Routing: true, Automation: true}
			result.StatusEvents = append(result.StatusEvents, action.Status(fmt.Sprintf("restored %q", act.Name)))
		}

	case action.DeleteCheckpoint:
		result.StatusEvents = append(result.StatusEvents, action.Status(fmt.Sprintf("deleted checkpoint %q", act.Name)))
	}
	return result
}

// ApplyIoFeedback folds an async save/load completion into state. Stale
// completions (generation mismatch) are dropped.
func (d *Dispatcher) ApplyIoFeedback(fb action.IoFeedback) action.DispatchResult {
	result := action.None()
	st := d.State
	switch f := fb.(type) {
	case action.SaveComplete:
		if f.Gen != st.Session.Io.Save {
			return result
		}
		if f.Err != nil {
			result.StatusEvents = append(result.StatusEvents, action.ErrorStatus(fmt.Sprintf("save failed: %v", f.Err)))
		} else {
			result.StatusEvents = append(result.StatusEvents, action.Status(fmt.Sprintf("saved %s", f.Path)))
		}
	case action.LoadComplete:
		if f.Gen != st.Session.Io.Load {
			return result
		}
		if f.Err != nil {
			result.StatusEvents = append(result.StatusEvents, action.ErrorStatus(fmt.Sprintf("load failed: %v", f.Err)))
			return result
		}
		gen := st.Session.Io
		st.Session = f.Session
		st.Session.Io = gen
		st.Instruments = f.Instruments
		st.ProjectPath = f.Path
		result.Dirty = action.AudioDirty{Session: true, Instruments: true, Routing: true, Automation: true}
		result.StatusEvents = append(result.StatusEvents, action.Status(fmt.Sprintf("loaded %s", f.Path)))
		if d.Audio != nil {
			d.Audio.PublishSnapshot(st.Session, st.Instruments)
		}
	case action.SynthDefImported:
		if f.Err != nil {
			result.StatusEvents = append(result.StatusEvents, action.ErrorStatus(fmt.Sprintf("synthdef import failed: %v", f.Err)))
		} else {
			st.Session.SynthDefs.Add(f.Def)
			result.StatusEvents = append(result.StatusEvents, action.Status(fmt.Sprintf("imported %s", f.Def.Name)))
		}
	}
	return result
}
