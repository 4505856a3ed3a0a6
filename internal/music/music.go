// Package music holds small pitch/frequency helpers shared by the audio
// engine and the views.
package music

import (
	"fmt"
	"math"
	"strings"
)

// MidiToFreq converts a MIDI pitch (possibly fractional) to Hz, A4 = 440.
func MidiToFreq(pitch float64) float64 {
	return 440.0 * math.Pow(2, (pitch-69.0)/12.0)
}

// FreqToMidi converts Hz back to a fractional MIDI pitch.
func FreqToMidi(freq float64) float64 {
	if freq <= 0 {
		return 0
	}
	return 69.0 + 12.0*math.Log2(freq/440.0)
}

// MidiToNoteName converts MIDI note number (0-127) to a name like "c-4" or
// "f#2". Out-of-range values render as "---".
func MidiToNoteName(midiNote int) string {
	if midiNote < 0 || midiNote > 127 {
		return "---"
	}

	noteNames := []string{"c", "c#", "d", "d#", "e", "f", "f#", "g", "g#", "a", "a#", "b"}
	octave := (midiNote / 12) - 1
	noteName := noteNames[midiNote%12]

	if strings.Contains(noteName, "#") {
		if octave < 0 {
			return fmt.Sprintf("%s%d", noteName, -octave)
		}
		return fmt.Sprintf("%s%d", noteName, octave)
	}
	if octave < 0 {
		return fmt.Sprintf("%s-%d", noteName, -octave)
	}
	return fmt.Sprintf("%s-%d", noteName, octave)
}

// AmpFromVelocity maps MIDI velocity to linear amplitude.
func AmpFromVelocity(velocity uint8) float32 {
	if velocity > 127 {
		velocity = 127
	}
	return float32(velocity) / 127.0
}

// DbToAmp converts decibels to linear amplitude.
func DbToAmp(db float64) float64 {
	return math.Pow(10, db/20.0)
}

// AmpToDb converts linear amplitude to decibels (-96 floor).
func AmpToDb(amp float64) float64 {
	if amp <= 0 {
		return -96
	}
	db := 20 * math.Log10(amp)
	if db < -96 {
		return -96
	}
	return db
}
