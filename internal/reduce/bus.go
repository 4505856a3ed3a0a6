package reduce

import (
	"github.com/mohsenil85/imbolc/internal/action"
	"github.com/mohsenil85/imbolc/internal/state"
)

func reduceBus(a action.Action, instruments *state.InstrumentState, session *state.SessionState) {
	switch act := a.(type) {
	case action.AddBus:
		if _, ok := session.Mixer.AddBus(); ok {
			ids := session.Mixer.BusIds()
			for i := range instruments.Instruments {
				instruments.Instruments[i].SyncSendsWithBuses(ids)
			}
		}

	case action.RemoveBus:
		removeBus(act.Bus, instruments, session)

	case action.RenameBus:
		if b := session.Mixer.Bus(act.Bus); b != nil {
			b.Name = act.Name
		}

	case action.AdjustBusLevel:
		if b := session.Mixer.Bus(act.Bus); b != nil {
			b.Level = clampf(b.Level+act.Delta, 0, 1)
		}

	case action.AdjustBusPan:
		if b := session.Mixer.Bus(act.Bus); b != nil {
			b.Pan = clampf(b.Pan+act.Delta, -1, 1)
		}

	case action.ToggleBusMute:
		if b := session.Mixer.Bus(act.Bus); b != nil {
			b.Mute = !b.Mute
		}

	case action.ToggleBusSolo:
		if b := session.Mixer.Bus(act.Bus); b != nil {
			b.Solo = !b.Solo
		}
	}
}

// removeBus is a multi-step graph rewrite, atomic within the reducer:
// reroute outputs, disable sends, purge automation, remove the bus, and fix
// the mixer selection.
func removeBus(id state.BusId, instruments *state.InstrumentState, session *state.SessionState) {
	if session.Mixer.Bus(id) == nil {
		return
	}

	for i := range instruments.Instruments {
		inst := &instruments.Instruments[i]
		if inst.Output.IsBus(id) {
			inst.Output = state.ToMaster()
		}
		inst.DisableSendForBus(id)
	}

	session.Automation.RemoveLanesForBus(id)
	session.Mixer.RemoveBus(id)

	if session.Mixer.Selection.Kind == "bus" && session.Mixer.Selection.Bus == id {
		if ids := session.Mixer.BusIds(); len(ids) > 0 {
			session.Mixer.Selection = state.SelectBus(ids[0])
		} else {
			session.Mixer.Selection = state.SelectMaster()
		}
	}
}

func reduceLayerGroup(a action.Action, instruments *state.InstrumentState, session *state.SessionState) {
	switch act := a.(type) {
	case action.LinkInstruments:
		if len(act.Ids) < 2 {
			return
		}
		group := nextLayerGroup(instruments)
		linked := 0
		for _, id := range act.Ids {
			if inst := instruments.Instrument(id); inst != nil {
				inst.LayerGroup = group
				linked++
			}
		}
		if linked >= 2 {
			session.Mixer.LayerMixerFor(group)
		} else {
			// Not enough real members; dissolve immediately.
			for _, id := range act.Ids {
				if inst := instruments.Instrument(id); inst != nil {
					inst.LayerGroup = 0
				}
			}
		}

	case action.UnlinkInstrument:
		inst := instruments.Instrument(act.Id)
		if inst == nil || inst.LayerGroup == 0 {
			return
		}
		group := inst.LayerGroup
		inst.LayerGroup = 0
		inst.LayerOctaveOffset = 0
		dissolveIfSingle(group, instruments, session)

	case action.AdjustLayerMixerLevel:
		lm := session.Mixer.LayerMixerFor(act.Group)
		lm.Level = clampf(lm.Level+act.Delta, 0, 1)
	}
}

// dissolveIfSingle enforces the invariant that layer groups with one or zero
// remaining members are dissolved and their sub-mixer removed.
func dissolveIfSingle(group int, instruments *state.InstrumentState, session *state.SessionState) {
	members := instruments.GroupMembers(group)
	if len(members) > 1 {
		return
	}
	for _, id := range members {
		if inst := instruments.Instrument(id); inst != nil {
			inst.LayerGroup = 0
			inst.LayerOctaveOffset = 0
		}
	}
	session.Mixer.RemoveLayerMixer(group)
}

func nextLayerGroup(instruments *state.InstrumentState) int {
	max := 0
	for _, inst := range instruments.Instruments {
		if inst.LayerGroup > max {
			max = inst.LayerGroup
		}
	}
	return max + 1
}
