package state

import "fmt"

// Typed identifiers for every entity that can be referenced across the
// session. Keeping them as distinct types prevents an instrument id from
// being handed to a bus lookup and vice versa.

type InstrumentId uint32

func (id InstrumentId) String() string { return fmt.Sprintf("%d", uint32(id)) }

type EffectId uint32

func (id EffectId) String() string { return fmt.Sprintf("%d", uint32(id)) }

// BusId is always >= 1; 0 is reserved so that the zero value of a send or
// output target can never silently address a real bus.
type BusId uint8

// NewBusId panics on zero. Buses are allocated by MixerState which starts
// its counter at 1, so a zero here is always a programming error.
func NewBusId(id uint8) BusId {
	if id == 0 {
		panic("BusId cannot be zero")
	}
	return BusId(id)
}

func (id BusId) String() string { return fmt.Sprintf("%d", uint8(id)) }

type VstPluginId uint32

func (id VstPluginId) String() string { return fmt.Sprintf("%d", uint32(id)) }

type CustomSynthDefId uint32

func (id CustomSynthDefId) String() string { return fmt.Sprintf("%d", uint32(id)) }

// ParamIndex is the 0-based index of a parameter within an effect's or
// plugin's parameter list.
type ParamIndex uint32

func (id ParamIndex) String() string { return fmt.Sprintf("%d", uint32(id)) }

type AutomationLaneId uint32

func (id AutomationLaneId) String() string { return fmt.Sprintf("%d", uint32(id)) }

type ClipId uint32

func (id ClipId) String() string { return fmt.Sprintf("%d", uint32(id)) }

type PlacementId uint32

func (id PlacementId) String() string { return fmt.Sprintf("%d", uint32(id)) }

type GenVoiceId uint32

func (id GenVoiceId) String() string { return fmt.Sprintf("%d", uint32(id)) }
