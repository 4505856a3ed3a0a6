package audio

import (
	"time"

	"github.com/mohsenil85/imbolc/internal/action"
	"github.com/mohsenil85/imbolc/internal/music"
	"github.com/mohsenil85/imbolc/internal/state"
)

// drumPlayState is the per-Kit-instrument sequencer runtime state.
type drumPlayState struct {
	accumulator float64
	stepIndex   int
}

// tickDrums advances every Kit instrument's step sequencer at its pattern
// rate, honoring per-step probability and pad mute/level/pitch/reverse.
func (e *Engine) tickDrums(elapsed time.Duration) {
	bpm := float64(e.session.Bpm)
	if bpm <= 0 {
		return
	}
	beatsPerSecond := bpm / 60.0

	for i := range e.instruments.Instruments {
		inst := &e.instruments.Instruments[i]
		if inst.Source != state.SourceKit || inst.Extra.Drums == nil {
			continue
		}
		seq := inst.Extra.Drums
		ps, ok := e.drumStates[inst.Id]
		if !ok {
			// New state mid-playback fires its first step immediately.
			ps = &drumPlayState{accumulator: 1.0}
			e.drumStates[inst.Id] = ps
		}

		ps.accumulator += elapsed.Seconds() * beatsPerSecond * float64(seq.Rate)
		for ps.accumulator >= 1.0 {
			ps.accumulator -= 1.0
			e.drumStep(inst, seq, ps)
		}
	}
}

func (e *Engine) drumStep(inst *state.Instrument, seq *state.DrumSequencer, ps *drumPlayState) {
	stepsLen := seq.StepsLen
	if stepsLen <= 0 || stepsLen > state.DrumStepCount {
		stepsLen = state.DrumStepCount
	}
	step := ps.stepIndex % stepsLen
	ps.stepIndex++

	for pad := range seq.Pads {
		p := &seq.Pads[pad]
		if p.Mute {
			continue
		}
		cell := p.Steps[step]
		if !cell.Active {
			continue
		}
		if cell.Probability < 1.0 && e.rng.Float32() >= cell.Probability {
			continue
		}
		e.spawnDrumVoice(inst, pad, p, cell)
	}

	e.sendFeedback(action.DrumSequencerStep{Instrument: inst.Id, Step: step})
}

func (e *Engine) spawnDrumVoice(inst *state.Instrument, pad int, p *state.DrumPad, cell state.DrumStep) {
	if !e.connected || e.effectiveMuted(inst) {
		return
	}
	node := e.allocNodeId()
	amp := music.AmpFromVelocity(cell.Velocity) * p.Level * inst.Mixer.Level
	reverse := float32(0)
	if p.Reverse {
		reverse = 1
	}
	e.builder.SynthNew(inst.Source.SynthDefName(), node, e.groupNodes[inst.Id],
		"pad", float32(pad),
		"amp", amp,
		"rate", float32(1),
		"pitch", p.Pitch,
		"reverse", reverse,
		"slice", float32(p.Slice),
		"pan", inst.Mixer.Pan,
	)
	// Drum hits are one-shots freed server-side on envelope end; they are
	// never tracked in the registry.
}
