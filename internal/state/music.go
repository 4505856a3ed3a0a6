package state

// Key is a musical key (pitch class).
type Key int

const (
	KeyC Key = iota
	KeyCs
	KeyD
	KeyDs
	KeyE
	KeyF
	KeyFs
	KeyG
	KeyGs
	KeyA
	KeyAs
	KeyB
)

var keyNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

func (k Key) Name() string {
	if k < 0 || int(k) >= len(keyNames) {
		return "C"
	}
	return keyNames[k]
}

// Semitone returns the pitch class 0-11.
func (k Key) Semitone() int { return int(k) % 12 }

// Scale is a set of intervals from the root.
type Scale int

const (
	ScaleMajor Scale = iota
	ScaleMinor
	ScaleDorian
	ScalePhrygian
	ScaleLydian
	ScaleMixolydian
	ScaleAeolian
	ScaleLocrian
	ScalePentatonic
	ScaleBlues
	ScaleChromatic
)

func (s Scale) Name() string {
	switch s {
	case ScaleMajor:
		return "Major"
	case ScaleMinor:
		return "Minor"
	case ScaleDorian:
		return "Dorian"
	case ScalePhrygian:
		return "Phrygian"
	case ScaleLydian:
		return "Lydian"
	case ScaleMixolydian:
		return "Mixolydian"
	case ScaleAeolian:
		return "Aeolian"
	case ScaleLocrian:
		return "Locrian"
	case ScalePentatonic:
		return "Pentatonic"
	case ScaleBlues:
		return "Blues"
	case ScaleChromatic:
		return "Chromatic"
	default:
		return "Major"
	}
}

// Intervals returns semitone offsets from the root for this scale.
func (s Scale) Intervals() []int {
	switch s {
	case ScaleMajor:
		return []int{0, 2, 4, 5, 7, 9, 11}
	case ScaleMinor, ScaleAeolian:
		return []int{0, 2, 3, 5, 7, 8, 10}
	case ScaleDorian:
		return []int{0, 2, 3, 5, 7, 9, 10}
	case ScalePhrygian:
		return []int{0, 1, 3, 5, 7, 8, 10}
	case ScaleLydian:
		return []int{0, 2, 4, 6, 7, 9, 11}
	case ScaleMixolydian:
		return []int{0, 2, 4, 5, 7, 9, 10}
	case ScaleLocrian:
		return []int{0, 1, 3, 5, 6, 8, 10}
	case ScalePentatonic:
		return []int{0, 2, 4, 7, 9}
	case ScaleBlues:
		return []int{0, 3, 5, 6, 7, 10}
	case ScaleChromatic:
		return []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}
	default:
		return []int{0, 2, 4, 5, 7, 9, 11}
	}
}

// InScale reports whether a MIDI pitch falls in the key/scale.
func InScale(pitch uint8, key Key, scale Scale) bool {
	pc := (int(pitch) - key.Semitone()) % 12
	if pc < 0 {
		pc += 12
	}
	for _, iv := range scale.Intervals() {
		if iv == pc {
			return true
		}
	}
	return false
}
