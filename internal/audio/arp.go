package audio

import (
	"time"

	"github.com/mohsenil85/imbolc/internal/state"
)

// arpPlayState is the per-instrument arpeggiator runtime state.
type arpPlayState struct {
	stepIndex    int
	accumulator  float64
	ascending    bool
	currentPitch int   // -1 when nothing sounding
	currentNode  int32 // node of the sounding step, 0 when none
}

func newArpPlayState() *arpPlayState {
	return &arpPlayState{ascending: true, currentPitch: -1}
}

// tickArps steps every arp-enabled instrument that has held notes.
func (e *Engine) tickArps(elapsed time.Duration) {
	bpm := float64(e.session.Bpm)
	if bpm <= 0 {
		return
	}
	beatsPerSecond := bpm / 60.0

	for i := range e.instruments.Instruments {
		inst := &e.instruments.Instruments[i]
		arp := &inst.NoteInput.Arp
		if !arp.Enabled {
			continue
		}
		held := e.heldNotes[inst.Id]
		ps, ok := e.arpStates[inst.Id]
		if !ok {
			ps = newArpPlayState()
			e.arpStates[inst.Id] = ps
		}
		if len(held) == 0 {
			// Nothing held: release whatever is sounding and idle.
			if ps.currentNode != 0 {
				e.builder.NodeSet(ps.currentNode, "gate", float32(0))
				e.registry.Unregister(ps.currentNode)
				ps.currentNode = 0
				ps.currentPitch = -1
			}
			ps.accumulator = 0
			ps.stepIndex = 0
			continue
		}

		ps.accumulator += elapsed.Seconds() * beatsPerSecond * float64(arp.Rate)
		for ps.accumulator >= 1.0 {
			ps.accumulator -= 1.0
			e.arpStep(inst, arp, ps, held)
		}
	}
}

// arpStep releases the previously sounding pitch and spawns the next one in
// the configured direction across held notes x octaves.
func (e *Engine) arpStep(inst *state.Instrument, arp *state.ArpConfig, ps *arpPlayState, held []uint8) {
	if ps.currentNode != 0 {
		e.builder.NodeSet(ps.currentNode, "gate", float32(0))
		e.registry.Unregister(ps.currentNode)
		ps.currentNode = 0
	}

	seqLen := len(held) * arp.Octaves
	if seqLen == 0 {
		return
	}

	var idx int
	switch arp.Direction {
	case state.ArpUp, state.ArpAsPlayed:
		idx = ps.stepIndex % seqLen
		ps.stepIndex++
	case state.ArpDown:
		idx = seqLen - 1 - (ps.stepIndex % seqLen)
		ps.stepIndex++
	case state.ArpUpDown:
		// Ping-pong without repeating the turnaround notes.
		span := 2*seqLen - 2
		if span <= 0 {
			span = 1
		}
		pos := ps.stepIndex % span
		if pos < seqLen {
			idx = pos
		} else {
			idx = span - pos
		}
		ps.stepIndex++
	case state.ArpRandom:
		idx = e.rng.Intn(seqLen)
	}

	octave := idx / len(held)
	pitch := int(held[idx%len(held)]) + octave*12
	if pitch > 127 {
		pitch -= 12 * ((pitch - 127 + 11) / 12)
	}
	if pitch < 0 {
		return
	}

	node := e.spawnVoice(inst, uint8(pitch), 100, 0, 0)
	if node != 0 {
		ps.currentPitch = pitch
		ps.currentNode = node
		// Gate closes after the configured fraction of the step.
		stepTicks := float64(e.session.TicksPerBeat) / float64(arp.Rate)
		releaseAt := e.session.PianoRoll.PlayheadTicks + stepTicks*float64(arp.GateLen)
		e.releases = append(e.releases, pendingRelease{nodeId: node, tick: releaseAt})
	}
}
