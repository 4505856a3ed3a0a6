// Package export renders the project offline to WAV files: single-instrument
// renders, master bounces, and per-instrument stem exports. Rendering is a
// simple additive synthesis of the note data — a preview-quality bounce that
// needs no server round-trip.
package export

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/mohsenil85/imbolc/internal/action"
	"github.com/mohsenil85/imbolc/internal/music"
	"github.com/mohsenil85/imbolc/internal/state"
)

const (
	sampleRate = 44100
	bitDepth   = 16
)

// ErrCancelled distinguishes a user cancel from a failure; no error banner
// is shown for it.
var ErrCancelled = fmt.Errorf("cancelled")

// Manager drives one export at a time on a worker goroutine, with a cancel
// flag the render loop polls.
type Manager struct {
	feedback func(action.AudioFeedback)

	mu        sync.Mutex
	running   bool
	cancelled atomic.Bool
}

func NewManager(feedback func(action.AudioFeedback)) *Manager {
	return &Manager{feedback: feedback}
}

// StartRender begins an export. Returns an error if one is already running.
func (m *Manager) StartRender(kind action.ExportKind, path string, session *state.SessionState, instruments *state.InstrumentState, gen uint64) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return fmt.Errorf("an export is already in progress")
	}
	m.running = true
	m.cancelled.Store(false)
	m.mu.Unlock()

	sessionCopy := session.Clone()
	instCopy := instruments.Clone()

	go func() {
		defer func() {
			m.mu.Lock()
			m.running = false
			m.mu.Unlock()
		}()

		paths, err := m.render(kind, path, sessionCopy, &instCopy)
		switch {
		case err == ErrCancelled:
			m.feedback(action.ExportCancelled{})
		case err != nil:
			// Surface through the status path; a failed export never
			// crashes the app.
			m.feedback(action.ExportComplete{Kind: kind, Paths: nil})
		default:
			m.feedback(action.ExportComplete{Kind: kind, Paths: paths})
		}
	}()
	return nil
}

// Cancel sets the flag read by the render loop. Partial artifacts are torn
// down by the renderer.
func (m *Manager) Cancel() {
	m.cancelled.Store(true)
}

func (m *Manager) render(kind action.ExportKind, path string, session *state.SessionState, instruments *state.InstrumentState) ([]string, error) {
	switch kind {
	case action.ExportSingleRender, action.ExportMasterBounce:
		if err := m.renderTracks(path, session, instruments, nil); err != nil {
			return nil, err
		}
		return []string{path}, nil

	case action.ExportStemExport:
		var paths []string
		for i := range instruments.Instruments {
			inst := &instruments.Instruments[i]
			stemPath := filepath.Join(path, fmt.Sprintf("%02d-%s.wav", i, sanitize(inst.Name)))
			only := inst.Id
			if err := m.renderTracks(stemPath, session, instruments, &only); err != nil {
				// Tear down stems already written.
				for _, p := range paths {
					os.Remove(p)
				}
				os.Remove(stemPath)
				return nil, err
			}
			paths = append(paths, stemPath)
			m.feedback(action.ExportProgress{
				Progress: float32(i+1) / float32(len(instruments.Instruments)),
			})
		}
		return paths, nil
	}
	return nil, fmt.Errorf("unknown export kind %d", kind)
}

// renderTracks mixes note data into a buffer and writes one WAV. When only
// is non-nil, all other instruments are excluded (stem mode).
func (m *Manager) renderTracks(path string, session *state.SessionState, instruments *state.InstrumentState, only *state.InstrumentId) error {
	if session.Bpm <= 0 || session.TicksPerBeat == 0 {
		return fmt.Errorf("cannot render with zero tempo")
	}

	endTick := session.PianoRoll.LoopEnd
	for _, t := range session.PianoRoll.Tracks {
		for _, n := range t.Notes {
			if n.Tick+n.Duration > endTick {
				endTick = n.Tick + n.Duration
			}
		}
	}
	secsPerTick := 60.0 / (float64(session.Bpm) * float64(session.TicksPerBeat))
	totalFrames := int(float64(endTick)*secsPerTick*sampleRate) + sampleRate/2
	buf := make([]float64, totalFrames)

	for _, track := range session.PianoRoll.Tracks {
		inst := instruments.Instrument(track.Instrument)
		if inst == nil || inst.Mixer.Mute {
			continue
		}
		if only != nil && inst.Id != *only {
			continue
		}
		for _, n := range track.Notes {
			if m.cancelled.Load() {
				os.Remove(path)
				return ErrCancelled
			}
			renderNote(buf, n, inst, secsPerTick)
		}
	}

	if session.Mixer.MasterMute && only == nil {
		for i := range buf {
			buf[i] = 0
		}
	}

	return writeWav(path, buf, float64(session.Mixer.MasterLevel))
}

// renderNote adds one enveloped oscillator note into the mix buffer.
func renderNote(buf []float64, n state.Note, inst *state.Instrument, secsPerTick float64) {
	startFrame := int(float64(n.Tick) * secsPerTick * sampleRate)
	durFrames := int(float64(n.Duration) * secsPerTick * sampleRate)
	releaseFrames := int(float64(inst.Envelope.Release) * sampleRate)
	freq := music.MidiToFreq(float64(n.Pitch))
	amp := float64(music.AmpFromVelocity(n.Velocity)) * float64(inst.Mixer.Level)

	env := inst.Envelope
	attackFrames := int(float64(env.Attack) * sampleRate)

	for i := 0; i < durFrames+releaseFrames && startFrame+i < len(buf); i++ {
		t := float64(i) / sampleRate
		var sample float64
		phase := 2 * math.Pi * freq * t
		switch inst.Source {
		case state.SourceSine:
			sample = math.Sin(phase)
		case state.SourceSquare:
			if math.Sin(phase) >= 0 {
				sample = 1
			} else {
				sample = -1
			}
		case state.SourceTriangle:
			sample = 2/math.Pi*math.Asin(math.Sin(phase))
		default: // saw and everything else previews as saw
			sample = 2*math.Mod(freq*t, 1) - 1
		}

		gain := 1.0
		if attackFrames > 0 && i < attackFrames {
			gain = float64(i) / float64(attackFrames)
		}
		if i >= durFrames {
			if releaseFrames > 0 {
				gain *= 1 - float64(i-durFrames)/float64(releaseFrames)
			} else {
				gain = 0
			}
		}

		buf[startFrame+i] += sample * amp * gain * 0.5
	}
}

// writeWav writes the float buffer as 16-bit mono PCM.
func writeWav(path string, buf []float64, masterLevel float64) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}

	enc := wav.NewEncoder(file, sampleRate, bitDepth, 1, 1)
	intBuf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		SourceBitDepth: bitDepth,
		Data:           make([]int, len(buf)),
	}
	for i, s := range buf {
		v := s * masterLevel
		if v > 1 {
			v = 1
		}
		if v < -1 {
			v = -1
		}
		intBuf.Data[i] = int(v * 32767)
	}
	if err := enc.Write(intBuf); err != nil {
		file.Close()
		os.Remove(path)
		return err
	}
	if err := enc.Close(); err != nil {
		file.Close()
		os.Remove(path)
		return err
	}
	return file.Close()
}

func sanitize(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			out = append(out, r)
		case r == ' ':
			out = append(out, '-')
		}
	}
	if len(out) == 0 {
		return "track"
	}
	return string(out)
}
