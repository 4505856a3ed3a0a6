package audio

import (
	"math/rand"
	"strings"
	"time"

	"github.com/mohsenil85/imbolc/internal/state"
)

// voicePlayState is the per-generative-voice runtime state on the audio
// thread. Cached patterns/expansions are keyed by the voice's configuration
// fingerprint and rebuilt whenever it changes.
type voicePlayState struct {
	accumulator float64
	stepIndex   int
	currentNode int32

	euclideanPattern []bool

	markovRng       *rand.Rand
	markovCurrentPc uint8

	lsystemExpanded     string
	lsystemCursor       int
	lsystemCurrentPitch int
	lsystemPitchStack   []int

	configFingerprint uint64
}

func (s *voicePlayState) invalidate() {
	s.euclideanPattern = nil
	s.lsystemExpanded = ""
	s.lsystemCursor = 0
	s.lsystemPitchStack = s.lsystemPitchStack[:0]
	s.configFingerprint = 0
}

// tickGenerative steps every enabled generative voice with the same
// fractional-accumulator shape as the click track.
func (e *Engine) tickGenerative(elapsed time.Duration) {
	bpm := float64(e.session.Bpm)
	if bpm <= 0 {
		return
	}
	beatsPerSecond := bpm / 60.0

	for i := range e.session.Generative.Voices {
		voice := &e.session.Generative.Voices[i]
		if !voice.Enabled {
			continue
		}
		inst := e.instruments.Instrument(voice.Instrument)
		if inst == nil {
			continue
		}

		ps, ok := e.genStates[voice.Id]
		if !ok {
			// New state mid-playback fires its first step immediately.
			ps = &voicePlayState{accumulator: 1.0, lsystemCurrentPitch: int(voice.BasePitch)}
			e.genStates[voice.Id] = ps
		}

		// Config changed: rebuild caches before stepping.
		if fp := voice.Fingerprint(); fp != ps.configFingerprint {
			ps.invalidate()
			ps.configFingerprint = fp
			ps.lsystemCurrentPitch = int(voice.BasePitch)
			ps.markovRng = rand.New(rand.NewSource(voice.MarkovSeed))
			ps.markovCurrentPc = voice.BasePitch % 12
		}

		ps.accumulator += elapsed.Seconds() * beatsPerSecond * float64(voice.Rate)
		for ps.accumulator >= 1.0 {
			ps.accumulator -= 1.0
			e.genStep(voice, inst, ps)
		}
	}
}

func (e *Engine) genStep(voice *state.GenVoice, inst *state.Instrument, ps *voicePlayState) {
	var pitch int
	var emit bool

	switch voice.Algorithm {
	case state.GenEuclidean:
		if ps.euclideanPattern == nil {
			ps.euclideanPattern = state.EuclideanPattern(voice.Pulses, voice.StepsLen, voice.Rotation)
		}
		if len(ps.euclideanPattern) == 0 {
			return
		}
		step := ps.stepIndex % len(ps.euclideanPattern)
		ps.stepIndex++
		if ps.euclideanPattern[step] {
			pitch = int(voice.BasePitch)
			emit = true
		}

	case state.GenMarkov:
		if ps.markovRng == nil {
			ps.markovRng = rand.New(rand.NewSource(voice.MarkovSeed))
		}
		ps.markovCurrentPc = markovNextPc(ps.markovCurrentPc, e.session.Key, e.session.Scale, ps.markovRng)
		pitch = int(voice.BasePitch)/12*12 + int(ps.markovCurrentPc)
		emit = true
		ps.stepIndex++

	case state.GenLSystem:
		if ps.lsystemExpanded == "" {
			ps.lsystemExpanded = expandLSystem(voice.Axiom, voice.Rule, voice.Iterations)
			ps.lsystemCursor = 0
			ps.lsystemCurrentPitch = int(voice.BasePitch)
		}
		pitch, emit = e.lsystemStep(voice, ps)
	}

	if !emit {
		return
	}
	if pitch < 0 || pitch > 127 {
		return
	}

	if ps.currentNode != 0 {
		e.builder.NodeSet(ps.currentNode, "gate", float32(0))
		e.registry.Unregister(ps.currentNode)
		ps.currentNode = 0
	}
	node := e.spawnVoice(inst, uint8(pitch), voice.Velocity, 0, 0)
	if node != 0 {
		ps.currentNode = node
		stepTicks := float64(e.session.TicksPerBeat) / float64(voice.Rate)
		releaseAt := e.session.PianoRoll.PlayheadTicks + stepTicks*float64(voice.GateLen)
		e.releases = append(e.releases, pendingRelease{nodeId: node, tick: releaseAt})

		e.session.Generative.Captured = append(e.session.Generative.Captured, state.CapturedEvent{
			Voice:    voice.Id,
			Pitch:    uint8(pitch),
			Tick:     uint32(e.session.PianoRoll.PlayheadTicks),
			Duration: uint32(stepTicks * float64(voice.GateLen)),
			Velocity: voice.Velocity,
		})
	}
}

// lsystemStep walks the expanded string until it plays one note or exhausts
// a cycle. F plays, + / - move a scale step, [ ] push/pop the pitch.
func (e *Engine) lsystemStep(voice *state.GenVoice, ps *voicePlayState) (int, bool) {
	intervals := e.session.Scale.Intervals()
	for scanned := 0; scanned < len(ps.lsystemExpanded); scanned++ {
		if ps.lsystemCursor >= len(ps.lsystemExpanded) {
			ps.lsystemCursor = 0
			ps.lsystemCurrentPitch = int(voice.BasePitch)
			ps.lsystemPitchStack = ps.lsystemPitchStack[:0]
		}
		ch := ps.lsystemExpanded[ps.lsystemCursor]
		ps.lsystemCursor++
		switch ch {
		case 'F':
			return ps.lsystemCurrentPitch, true
		case '+':
			ps.lsystemCurrentPitch += scaleStep(intervals, 1)
		case '-':
			ps.lsystemCurrentPitch -= scaleStep(intervals, 1)
		case '[':
			ps.lsystemPitchStack = append(ps.lsystemPitchStack, ps.lsystemCurrentPitch)
		case ']':
			if n := len(ps.lsystemPitchStack); n > 0 {
				ps.lsystemCurrentPitch = ps.lsystemPitchStack[n-1]
				ps.lsystemPitchStack = ps.lsystemPitchStack[:n-1]
			}
		}
	}
	return 0, false
}

// expandLSystem rewrites 'F' by the rule for the given iteration count,
// capped so a hostile rule can't blow up the audio thread.
func expandLSystem(axiom, rule string, iterations int) string {
	const maxLen = 4096
	cur := axiom
	for i := 0; i < iterations; i++ {
		var b strings.Builder
		for _, ch := range cur {
			if ch == 'F' {
				b.WriteString(rule)
			} else {
				b.WriteRune(ch)
			}
			if b.Len() > maxLen {
				return b.String()[:maxLen]
			}
		}
		cur = b.String()
	}
	return cur
}

// markovNextPc picks the next pitch class, biased to stay near the current
// one and constrained to the session scale.
func markovNextPc(current uint8, key state.Key, scale state.Scale, rng *rand.Rand) uint8 {
	intervals := scale.Intervals()
	if len(intervals) == 0 {
		return current
	}
	// Find the current degree, then step -1/0/+1 with neighbor bias.
	degree := 0
	root := key.Semitone()
	for i, iv := range intervals {
		if (root+iv)%12 == int(current)%12 {
			degree = i
			break
		}
	}
	switch rng.Intn(4) {
	case 0:
		degree--
	case 1, 2:
		degree++
	}
	degree = ((degree % len(intervals)) + len(intervals)) % len(intervals)
	return uint8((root + intervals[degree]) % 12)
}

func scaleStep(intervals []int, steps int) int {
	if len(intervals) < 2 {
		return steps
	}
	// Approximate one scale step as the gap between the first two intervals.
	return intervals[1] - intervals[0]
}
