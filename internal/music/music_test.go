package music

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMidiToFreq(t *testing.T) {
	assert.InDelta(t, 440.0, MidiToFreq(69), 1e-9)
	assert.InDelta(t, 261.626, MidiToFreq(60), 0.001)
	assert.InDelta(t, 880.0, MidiToFreq(81), 1e-6)
	// Fractional pitches land between semitones.
	assert.Greater(t, MidiToFreq(69.5), 440.0)
	assert.Less(t, MidiToFreq(69.5), MidiToFreq(70))
}

func TestFreqToMidiInverts(t *testing.T) {
	for _, pitch := range []float64{21, 60, 69, 108} {
		assert.InDelta(t, pitch, FreqToMidi(MidiToFreq(pitch)), 1e-9)
	}
	assert.Zero(t, FreqToMidi(0))
}

func TestMidiToNoteName(t *testing.T) {
	assert.Equal(t, "c-4", MidiToNoteName(60))
	assert.Equal(t, "a-4", MidiToNoteName(69))
	assert.Equal(t, "c#4", MidiToNoteName(61))
	assert.Equal(t, "---", MidiToNoteName(-1))
	assert.Equal(t, "---", MidiToNoteName(128))
}

func TestAmpFromVelocity(t *testing.T) {
	assert.Equal(t, float32(0), AmpFromVelocity(0))
	assert.Equal(t, float32(1), AmpFromVelocity(127))
	assert.InDelta(t, 100.0/127.0, float64(AmpFromVelocity(100)), 1e-6)
}

func TestDbAmpRoundTrip(t *testing.T) {
	assert.InDelta(t, 0.0, AmpToDb(1.0), 1e-9)
	assert.InDelta(t, 1.0, DbToAmp(0), 1e-9)
	assert.InDelta(t, -6.0, AmpToDb(DbToAmp(-6)), 1e-9)
	assert.Equal(t, -96.0, AmpToDb(0))
}
