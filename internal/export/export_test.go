package export

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"

	"github.com/mohsenil85/imbolc/internal/action"
	"github.com/mohsenil85/imbolc/internal/state"
)

func testProject() (*state.SessionState, *state.InstrumentState) {
	session := state.NewSessionState()
	instruments := state.NewInstrumentState()
	id := instruments.Add(state.SourceSine)
	track := session.PianoRoll.TrackFor(id)
	track.ToggleNote(60, 0, 480, 100)
	track.ToggleNote(67, 480, 480, 90)
	return session, &instruments
}

func waitFeedback(t *testing.T, ch <-chan action.AudioFeedback) action.AudioFeedback {
	t.Helper()
	select {
	case fb := <-ch:
		return fb
	case <-time.After(10 * time.Second):
		t.Fatal("no export feedback")
		return nil
	}
}

func TestMasterBounceWritesWav(t *testing.T) {
	session, instruments := testProject()
	path := filepath.Join(t.TempDir(), "bounce.wav")

	feedback := make(chan action.AudioFeedback, 4)
	m := NewManager(func(fb action.AudioFeedback) { feedback <- fb })
	assert.NoError(t, m.StartRender(action.ExportMasterBounce, path, session, instruments, 1))

	fb := waitFeedback(t, feedback)
	complete, ok := fb.(action.ExportComplete)
	assert.True(t, ok)
	assert.Equal(t, []string{path}, complete.Paths)

	// The artifact is a valid, non-empty WAV.
	file, err := os.Open(path)
	assert.NoError(t, err)
	defer file.Close()
	dec := wav.NewDecoder(file)
	assert.True(t, dec.IsValidFile())
	dur, err := dec.Duration()
	assert.NoError(t, err)
	assert.Greater(t, dur, time.Duration(0))
}

func TestStemExportWritesOneFilePerInstrument(t *testing.T) {
	session, instruments := testProject()
	instruments.Add(state.SourceSaw)
	dir := t.TempDir()

	feedback := make(chan action.AudioFeedback, 8)
	m := NewManager(func(fb action.AudioFeedback) { feedback <- fb })
	assert.NoError(t, m.StartRender(action.ExportStemExport, dir, session, instruments, 1))

	var complete action.ExportComplete
	for {
		fb := waitFeedback(t, feedback)
		if c, ok := fb.(action.ExportComplete); ok {
			complete = c
			break
		}
	}
	assert.Len(t, complete.Paths, 2)
	for _, p := range complete.Paths {
		_, err := os.Stat(p)
		assert.NoError(t, err)
	}
}

func TestOnlyOneExportAtATime(t *testing.T) {
	session, instruments := testProject()
	dir := t.TempDir()

	feedback := make(chan action.AudioFeedback, 8)
	m := NewManager(func(fb action.AudioFeedback) { feedback <- fb })
	assert.NoError(t, m.StartRender(action.ExportMasterBounce, filepath.Join(dir, "a.wav"), session, instruments, 1))
	err := m.StartRender(action.ExportMasterBounce, filepath.Join(dir, "b.wav"), session, instruments, 2)
	assert.Error(t, err)
}

// Cancellation tears down the partial artifact and reports ErrCancelled,
// which is distinct from a failure.
func TestCancelledRenderLeavesNoArtifact(t *testing.T) {
	session, instruments := testProject()
	path := filepath.Join(t.TempDir(), "cancelled.wav")

	m := NewManager(func(action.AudioFeedback) {})
	m.cancelled.Store(true)
	_, err := m.render(action.ExportMasterBounce, path, session, instruments)
	assert.Equal(t, ErrCancelled, err)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestZeroTempoRenderFails(t *testing.T) {
	session, instruments := testProject()
	session.Bpm = 0
	m := NewManager(func(action.AudioFeedback) {})
	_, err := m.render(action.ExportMasterBounce, filepath.Join(t.TempDir(), "x.wav"), session, instruments)
	assert.Error(t, err)
	assert.NotEqual(t, ErrCancelled, err)
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "My-Synth_2", sanitize("My Synth_2"))
	assert.Equal(t, "track", sanitize("!!!"))
}
