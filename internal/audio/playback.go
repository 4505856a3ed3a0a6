package audio

import (
	"math"

	"github.com/mohsenil85/imbolc/internal/music"
	"github.com/mohsenil85/imbolc/internal/state"
)

// tickPianoRoll emits voice spawns for every note whose tick falls inside
// [prevPlayhead, playhead), with humanization and groove applied.
func (e *Engine) tickPianoRoll() {
	pr := &e.session.PianoRoll
	prev, cur := e.prevPlayhead, pr.PlayheadTicks
	if cur <= prev {
		return
	}

	for ti := range pr.Tracks {
		track := &pr.Tracks[ti]
		inst := e.instruments.Instrument(track.Instrument)
		if inst == nil {
			continue
		}
		groove := e.session.GrooveFor(inst.Id)
		for _, n := range track.Notes {
			nt := float64(n.Tick)
			if nt < prev || nt >= cur {
				continue
			}
			if n.Probability < 1.0 && e.rng.Float32() >= n.Probability {
				continue
			}

			velocity := e.humanizeVelocity(n.Velocity, groove)
			timingOffset := e.humanizeTiming(groove) + float64(groove.TimingOffsetMs)/1000.0
			timingOffset += e.swingOffsetSecs(n.Tick, groove)

			e.spawnNoteVoice(inst, n.Pitch, velocity, n.Tick, n.Duration, timingOffset)
		}
	}
}

// spawnNoteVoice spawns a voice (and layer-group copies) for a piano-roll
// note and schedules its gate-off.
func (e *Engine) spawnNoteVoice(inst *state.Instrument, pitch uint8, velocity uint8, tick, duration uint32, timingOffset float64) {
	e.spawnVoice(inst, pitch, velocity, float64(tick)+float64(duration), timingOffset)

	// Layer groups receive copied spawns, transposed by each member's
	// octave offset.
	if inst.LayerGroup != 0 {
		for i := range e.instruments.Instruments {
			member := &e.instruments.Instruments[i]
			if member.Id == inst.Id || member.LayerGroup != inst.LayerGroup {
				continue
			}
			p := int(pitch) + member.LayerOctaveOffset*12
			if p < 0 || p > 127 {
				continue
			}
			e.spawnVoice(member, uint8(p), velocity, float64(tick)+float64(duration), timingOffset)
		}
	}
}

// spawnVoice emits one /s_new for the instrument. releaseTick > 0 schedules
// a gate-off when the playhead reaches it; 0 means the voice is released by
// an explicit ReleaseNote or arp step. Returns the allocated node id, or 0
// when the spawn was dropped.
func (e *Engine) spawnVoice(inst *state.Instrument, pitch uint8, velocity uint8, releaseTick float64, timingOffset float64) int32 {
	if !e.connected || e.effectiveMuted(inst) {
		return 0
	}

	// Chord shape expands a single pitch into several spawns; the root's
	// node is the one tracked for release.
	intervals := inst.NoteInput.Chord.Intervals()
	var rootNode int32
	for i, iv := range intervals {
		p := int(pitch) + iv
		if p < 0 || p > 127 {
			continue
		}
		node := e.allocNodeId()
		group := e.groupNodes[inst.Id]
		freq := float32(music.MidiToFreq(float64(p)))
		// Channel level is applied by the strip node; voice amp carries
		// velocity only.
		amp := music.AmpFromVelocity(velocity)

		params := []interface{}{
			"freq", freq,
			"amp", amp,
			"pan", inst.Mixer.Pan,
			"attack", inst.Envelope.Attack,
			"decay", inst.Envelope.Decay,
			"sustain", inst.Envelope.Sustain,
			"release", inst.Envelope.Release,
			"gate", float32(1),
			"timingOffset", float32(timingOffset),
		}
		if inst.Filter != nil && inst.Filter.Enabled {
			params = append(params,
				"cutoff", inst.Filter.Cutoff,
				"resonance", inst.Filter.Resonance,
			)
		}
		if inst.Source == state.SourceSampler && inst.Extra.Sampler != nil {
			params = append(params, "bufnum", float32(inst.Extra.Sampler.BufferId))
		}

		e.builder.SynthNew(inst.Source.SynthDefName(), node, group, params...)
		e.registry.Register(node)

		if releaseTick > 0 {
			e.releases = append(e.releases, pendingRelease{nodeId: node, tick: releaseTick})
		}
		if i == 0 {
			rootNode = node
		}
	}
	return rootNode
}

// humanizeVelocity jitters velocity by up to the humanize amount.
func (e *Engine) humanizeVelocity(velocity uint8, groove state.GrooveConfig) uint8 {
	amount := groove.EffectiveHumanizeVelocity(e.session.Humanize.Velocity)
	if amount <= 0 {
		return velocity
	}
	noise := (e.rng.Float64()*2 - 1) * float64(amount) * 16
	v := int(velocity) + int(noise)
	if v < 1 {
		v = 1
	}
	if v > 127 {
		v = 127
	}
	return uint8(v)
}

// humanizeTiming returns a timing jitter in seconds. Applied as a negative
// offset so humanized notes never sound late relative to the grid.
func (e *Engine) humanizeTiming(groove state.GrooveConfig) float64 {
	amount := groove.EffectiveHumanizeTiming(e.session.Humanize.Timing)
	if amount <= 0 {
		return 0
	}
	return -e.rng.Float64() * float64(amount) * 0.02
}

// swingOffsetSecs delays off-grid subdivisions by the swing amount.
func (e *Engine) swingOffsetSecs(tick uint32, groove state.GrooveConfig) float64 {
	swing := groove.EffectiveSwing(e.session.PianoRoll.SwingAmount)
	if swing <= 0 || e.session.TicksPerBeat == 0 || e.session.Bpm <= 0 {
		return 0
	}
	grid := groove.EffectiveSwingGrid(e.session.SwingGrid)

	secsPerBeat := 60.0 / float64(e.session.Bpm)
	tpb := e.session.TicksPerBeat

	apply := func(div uint32) float64 {
		sub := tpb / div
		if sub == 0 {
			return 0
		}
		pos := (tick / sub) % 2
		if pos == 1 && tick%sub == 0 {
			// Odd subdivision on the grid: push it late.
			return float64(swing) * secsPerBeat / float64(div) / 3.0
		}
		return 0
	}

	switch grid {
	case state.SwingEighths:
		return apply(2)
	case state.SwingSixteenths:
		return apply(4)
	default:
		if off := apply(2); off != 0 {
			return off
		}
		return apply(4)
	}
}

// tickAutomation interpolates every enabled lane at the playhead and emits a
// parameter set when the value moved more than epsilon since last send.
func (e *Engine) tickAutomation() {
	playhead := e.session.PianoRoll.PlayheadTicks
	for i := range e.session.Automation.Lanes {
		lane := &e.session.Automation.Lanes[i]
		if !lane.Enabled {
			continue
		}
		value, ok := lane.ValueAt(playhead)
		if !ok {
			continue
		}
		last, seen := e.lastAutomation[lane.Id]
		if seen && absf(value-last) <= automationEpsilon {
			continue
		}
		if e.emitAutomationValue(lane, value) {
			e.lastAutomation[lane.Id] = value
		}
	}
}

// emitAutomationValue maps the normalized lane value onto its target and
// appends the n_set. Missing nodes are silently skipped; the next routing
// rebuild recreates them.
func (e *Engine) emitAutomationValue(lane *state.AutomationLane, value float32) bool {
	if !e.connected {
		return false
	}
	t := lane.Target
	switch t.Kind {
	case state.TargetMasterLevel:
		e.builder.ControlSet(masterLevelBus, value)
		return true
	case state.TargetBusLevel:
		if b := e.session.Mixer.Bus(t.Bus); b != nil {
			e.builder.ControlSet(busLevelBusBase+int32(t.Bus), value)
			return true
		}
		return false
	case state.TargetBusPan:
		if b := e.session.Mixer.Bus(t.Bus); b != nil {
			e.builder.ControlSet(busPanBusBase+int32(t.Bus), value*2-1)
			return true
		}
		return false
	case state.TargetClickVolume:
		e.builder.ControlSet(clickVolumeBus, value)
		return true
	}

	node, ok := e.stripNodes[t.Instrument]
	if !ok {
		return false
	}
	switch t.Kind {
	case state.TargetInstrumentLevel:
		e.builder.NodeSet(node, "level", value)
	case state.TargetInstrumentPan:
		e.builder.NodeSet(node, "pan", value*2-1)
	case state.TargetFilterCutoff:
		// Exponential sweep 20 Hz - 20 kHz.
		freq := float32(20.0 * math.Pow(1000.0, float64(value)))
		e.builder.NodeSet(node, "cutoff", freq)
	case state.TargetFilterResonance:
		e.builder.NodeSet(node, "resonance", value)
	case state.TargetLfoRate:
		e.builder.NodeSet(node, "lfoRate", value*40)
	case state.TargetLfoDepth:
		e.builder.NodeSet(node, "lfoDepth", value)
	case state.TargetEffectParam:
		e.builder.NodeSet(node, "fxParam", value)
	case state.TargetVstParam:
		e.builder.VstSetParam(node, int32(t.Param), value)
	default:
		return false
	}
	return true
}

// Control bus layout for global parameters.
const (
	masterLevelBus  int32 = 0
	clickVolumeBus  int32 = 1
	busLevelBusBase int32 = 16
	busPanBusBase   int32 = 32
)

func absf(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
