package state

import "fmt"

// MixerSelection tracks which strip the mixer pane is focused on.
type MixerSelection struct {
	// Kind is one of "master" or "bus".
	Kind string `json:"kind"`
	Bus  BusId  `json:"bus,omitempty"`
}

func SelectMaster() MixerSelection      { return MixerSelection{Kind: "master"} }
func SelectBus(id BusId) MixerSelection { return MixerSelection{Kind: "bus", Bus: id} }

// MixerBus is an aux/group bus. Ids are allocated monotonically starting at 1
// and never reused, so a stale automation target can't silently re-attach to
// a new bus.
type MixerBus struct {
	Id    BusId   `json:"id"`
	Name  string  `json:"name"`
	Level float32 `json:"level"`
	Pan   float32 `json:"pan"`
	Mute  bool    `json:"mute"`
	Solo  bool    `json:"solo"`
}

func NewMixerBus(id BusId) MixerBus {
	return MixerBus{
		Id:    id,
		Name:  fmt.Sprintf("Bus %d", id),
		Level: 0.8,
	}
}

// LayerMixer is the sub-mixer created for a layer group.
type LayerMixer struct {
	Group int     `json:"group"`
	Level float32 `json:"level"`
	Pan   float32 `json:"pan"`
	Mute  bool    `json:"mute"`
}

// MixerState holds master strip, buses, and layer-group sub-mixers.
type MixerState struct {
	MasterLevel float32        `json:"masterLevel"`
	MasterMute  bool           `json:"masterMute"`
	Buses       []MixerBus     `json:"buses"`
	Selection   MixerSelection `json:"selection"`
	LayerMixers []LayerMixer   `json:"layerMixers"`
	NextBusId   uint8          `json:"nextBusId"`
}

const MaxBuses = 8

func NewMixerState() MixerState {
	return MixerState{
		MasterLevel: 0.8,
		Selection:   SelectMaster(),
		NextBusId:   1,
	}
}

// AddBus allocates the next id. Returns 0, false if the bus limit is reached
// or the id space is exhausted.
func (m *MixerState) AddBus() (BusId, bool) {
	if len(m.Buses) >= MaxBuses || m.NextBusId == 0 {
		return 0, false
	}
	id := NewBusId(m.NextBusId)
	m.NextBusId++
	m.Buses = append(m.Buses, NewMixerBus(id))
	return id, true
}

// RemoveBus removes the bus with the given id. Returns false if no such bus.
func (m *MixerState) RemoveBus(id BusId) bool {
	for i, b := range m.Buses {
		if b.Id == id {
			m.Buses = append(m.Buses[:i], m.Buses[i+1:]...)
			return true
		}
	}
	return false
}

// Bus returns the bus with the given id, or nil.
func (m *MixerState) Bus(id BusId) *MixerBus {
	for i := range m.Buses {
		if m.Buses[i].Id == id {
			return &m.Buses[i]
		}
	}
	return nil
}

// BusIds returns the ids of all existing buses in order.
func (m *MixerState) BusIds() []BusId {
	ids := make([]BusId, len(m.Buses))
	for i, b := range m.Buses {
		ids[i] = b.Id
	}
	return ids
}

// LayerMixerFor returns the sub-mixer for a layer group, creating it if
// missing.
func (m *MixerState) LayerMixerFor(group int) *LayerMixer {
	for i := range m.LayerMixers {
		if m.LayerMixers[i].Group == group {
			return &m.LayerMixers[i]
		}
	}
	m.LayerMixers = append(m.LayerMixers, LayerMixer{Group: group, Level: 0.8})
	return &m.LayerMixers[len(m.LayerMixers)-1]
}

// RemoveLayerMixer drops the sub-mixer for a dissolved layer group.
func (m *MixerState) RemoveLayerMixer(group int) {
	for i := range m.LayerMixers {
		if m.LayerMixers[i].Group == group {
			m.LayerMixers = append(m.LayerMixers[:i], m.LayerMixers[i+1:]...)
			return
		}
	}
}

func (m *MixerState) Clone() MixerState {
	out := *m
	out.Buses = append([]MixerBus(nil), m.Buses...)
	out.LayerMixers = append([]LayerMixer(nil), m.LayerMixers...)
	return out
}
