package netproto

import (
	"reflect"

	"github.com/mohsenil85/imbolc/internal/action"
	"github.com/mohsenil85/imbolc/internal/state"
)

// requiresPrivilege reports whether an action is reserved for the single
// privileged client: server control, transport, arrangement, and
// project-level operations.
func requiresPrivilege(a action.Action) bool {
	switch a.(type) {
	// Server control
	case action.StartServer, action.StopServer, action.RestartServer,
		action.RecordMaster, action.FreeAllNodes, action.SetLookahead:
		return true
	// Transport
	case action.PlayStop, action.PlayStopRecord, action.ToggleLoop,
		action.SetLoopStart, action.SetLoopEnd, action.SetPlayhead:
		return true
	// Arrangement
	case action.AddClip, action.RemoveClip, action.PlaceClip,
		action.RemovePlacement, action.MovePlacement, action.SetPlacementLength:
		return true
	// Project-level session operations
	case action.NewProject, action.SaveProject, action.SaveProjectAs,
		action.LoadProject, action.LoadProjectFrom, action.ImportCustomSynthDef,
		action.CreateCheckpoint, action.RestoreCheckpoint, action.DeleteCheckpoint,
		action.UpdateSession:
		return true
	// Exports run on the host machine.
	case action.RenderToWav, action.BounceToWav, action.ExportStems,
		action.CancelExport:
		return true
	// History rewrites everyone's state.
	case action.Undo, action.Redo:
		return true
	}
	return false
}

// targetInstrument extracts the instrument an action addresses, if any.
// Every instrument-scoped action carries the id in a field named Id or
// Instrument of type state.InstrumentId; the closed action set makes this
// reflection safe.
func targetInstrument(a action.Action) (state.InstrumentId, bool) {
	v := reflect.ValueOf(a)
	if v.Kind() != reflect.Struct {
		return 0, false
	}
	idType := reflect.TypeOf(state.InstrumentId(0))
	for _, name := range []string{"Id", "Instrument"} {
		f := v.FieldByName(name)
		if f.IsValid() && f.Type() == idType {
			return f.Interface().(state.InstrumentId), true
		}
	}
	return 0, false
}
