package state

import (
	"encoding/binary"
	"hash/fnv"
	"math"
)

// GenAlgorithm selects which pattern generator a voice runs.
type GenAlgorithm int

const (
	GenEuclidean GenAlgorithm = iota
	GenMarkov
	GenLSystem
)

func (g GenAlgorithm) String() string {
	switch g {
	case GenEuclidean:
		return "euclidean"
	case GenMarkov:
		return "markov"
	case GenLSystem:
		return "lsystem"
	default:
		return "euclidean"
	}
}

// GenVoice is the editable configuration for one generative voice.
// Runtime play-state (accumulators, cached patterns) lives on the audio
// thread, keyed by the voice's Fingerprint.
type GenVoice struct {
	Id         GenVoiceId   `json:"id"`
	Instrument InstrumentId `json:"instrument"`
	Algorithm  GenAlgorithm `json:"algorithm"`
	Enabled    bool         `json:"enabled"`
	Rate       float32      `json:"rate"` // steps per beat
	BasePitch  uint8        `json:"basePitch"`
	Velocity   uint8        `json:"velocity"`
	GateLen    float32      `json:"gateLen"`

	// Euclidean
	Pulses   int `json:"pulses"`
	StepsLen int `json:"stepsLen"`
	Rotation int `json:"rotation"`

	// Markov: row-stochastic transition weights over 12 pitch classes.
	MarkovSeed int64 `json:"markovSeed"`

	// L-System
	Axiom      string `json:"axiom"`
	Rule       string `json:"rule"` // rewrite for 'F'
	Iterations int    `json:"iterations"`
}

func NewGenVoice(id GenVoiceId, instrument InstrumentId) GenVoice {
	return GenVoice{
		Id:         id,
		Instrument: instrument,
		Algorithm:  GenEuclidean,
		Rate:       4,
		BasePitch:  60,
		Velocity:   100,
		GateLen:    0.8,
		Pulses:     5,
		StepsLen:   16,
		Axiom:      "F",
		Rule:       "F+F-F",
		Iterations: 3,
	}
}

// Fingerprint hashes the algorithmic configuration. The audio thread keys
// its cached pattern/expansion on this value and rebuilds when it changes,
// which avoids deep equality checks in the hot path.
func (v *GenVoice) Fingerprint() uint64 {
	h := fnv.New64a()
	var buf [8]byte
	put := func(x uint64) {
		binary.LittleEndian.PutUint64(buf[:], x)
		h.Write(buf[:])
	}
	put(uint64(v.Algorithm))
	put(uint64(v.Pulses))
	put(uint64(v.StepsLen))
	put(uint64(int64(v.Rotation)))
	put(uint64(v.MarkovSeed))
	put(uint64(v.Iterations))
	put(uint64(math.Float32bits(v.Rate)))
	put(uint64(v.BasePitch))
	h.Write([]byte(v.Axiom))
	h.Write([]byte{0})
	h.Write([]byte(v.Rule))
	return h.Sum64()
}

// CapturedEvent is one generative emission recorded into the capture buffer
// so patterns the user likes can be committed to the piano roll.
type CapturedEvent struct {
	Voice    GenVoiceId `json:"voice"`
	Pitch    uint8      `json:"pitch"`
	Tick     uint32     `json:"tick"`
	Duration uint32     `json:"duration"`
	Velocity uint8      `json:"velocity"`
}

// GenerativeState holds voice definitions plus the capture buffer.
type GenerativeState struct {
	Voices   []GenVoice      `json:"voices"`
	Captured []CapturedEvent `json:"captured"`
	NextId   uint32          `json:"nextId"`
}

func NewGenerativeState() GenerativeState {
	return GenerativeState{NextId: 1}
}

// AddVoice creates a voice for the instrument and returns its id.
func (g *GenerativeState) AddVoice(instrument InstrumentId) GenVoiceId {
	id := GenVoiceId(g.NextId)
	g.NextId++
	g.Voices = append(g.Voices, NewGenVoice(id, instrument))
	return id
}

// RemoveVoice deletes the voice with the given id.
func (g *GenerativeState) RemoveVoice(id GenVoiceId) {
	for i, v := range g.Voices {
		if v.Id == id {
			g.Voices = append(g.Voices[:i], g.Voices[i+1:]...)
			return
		}
	}
}

// Voice returns the voice with the given id, or nil.
func (g *GenerativeState) Voice(id GenVoiceId) *GenVoice {
	for i := range g.Voices {
		if g.Voices[i].Id == id {
			return &g.Voices[i]
		}
	}
	return nil
}

func (g *GenerativeState) Clone() GenerativeState {
	out := *g
	out.Voices = append([]GenVoice(nil), g.Voices...)
	out.Captured = append([]CapturedEvent(nil), g.Captured...)
	return out
}

// EuclideanPattern distributes pulses evenly over steps (Bjorklund), then
// rotates. Returned slice has length steps; true marks an onset.
func EuclideanPattern(pulses, steps, rotation int) []bool {
	if steps <= 0 {
		return nil
	}
	if pulses < 0 {
		pulses = 0
	}
	if pulses > steps {
		pulses = steps
	}
	pattern := make([]bool, steps)
	if pulses == 0 {
		return pattern
	}
	// Bresenham-style even distribution; equivalent to Bjorklund for our use.
	prev := -1
	for i := 0; i < steps; i++ {
		cur := i * pulses / steps
		if cur != prev {
			pattern[i] = true
			prev = cur
		}
	}
	if rotation != 0 {
		rotated := make([]bool, steps)
		for i := range pattern {
			rotated[(i+rotation%steps+steps)%steps] = pattern[i]
		}
		pattern = rotated
	}
	return pattern
}
