package reduce

import (
	"github.com/mohsenil85/imbolc/internal/action"
	"github.com/mohsenil85/imbolc/internal/state"
)

func reduceMixer(a action.Action, session *state.SessionState) {
	m := &session.Mixer
	switch act := a.(type) {
	case action.SelectMixerNext:
		ids := m.BusIds()
		if m.Selection.Kind == "master" {
			if len(ids) > 0 {
				m.Selection = state.SelectBus(ids[0])
			}
			return
		}
		for i, id := range ids {
			if id == m.Selection.Bus {
				if i+1 < len(ids) {
					m.Selection = state.SelectBus(ids[i+1])
				} else {
					m.Selection = state.SelectMaster()
				}
				return
			}
		}
		m.Selection = state.SelectMaster()

	case action.SelectMixerPrev:
		ids := m.BusIds()
		if m.Selection.Kind == "master" {
			if len(ids) > 0 {
				m.Selection = state.SelectBus(ids[len(ids)-1])
			}
			return
		}
		for i, id := range ids {
			if id == m.Selection.Bus {
				if i > 0 {
					m.Selection = state.SelectBus(ids[i-1])
				} else {
					m.Selection = state.SelectMaster()
				}
				return
			}
		}
		m.Selection = state.SelectMaster()

	case action.AdjustMixerLevel:
		if m.Selection.Kind == "master" {
			m.MasterLevel = clampf(m.MasterLevel+act.Delta, 0, 1)
		} else if b := m.Bus(m.Selection.Bus); b != nil {
			b.Level = clampf(b.Level+act.Delta, 0, 1)
		}

	case action.AdjustMixerPan:
		if m.Selection.Kind == "bus" {
			if b := m.Bus(m.Selection.Bus); b != nil {
				b.Pan = clampf(b.Pan+act.Delta, -1, 1)
			}
		}

	case action.ToggleMixerMute:
		if m.Selection.Kind == "master" {
			m.MasterMute = !m.MasterMute
		} else if b := m.Bus(m.Selection.Bus); b != nil {
			b.Mute = !b.Mute
		}

	case action.ToggleMixerSolo:
		if m.Selection.Kind == "bus" {
			if b := m.Bus(m.Selection.Bus); b != nil {
				b.Solo = !b.Solo
			}
		}

	case action.AdjustMasterLevel:
		m.MasterLevel = clampf(m.MasterLevel+act.Delta, 0, 1)
	}
}
