package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mohsenil85/imbolc/internal/state"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "project.imbolc.gz")

	session := state.NewSessionState()
	session.Bpm = 97
	session.Mixer.AddBus()
	instruments := state.NewInstrumentState()
	id := instruments.Add(state.SourceSine)
	track := session.PianoRoll.TrackFor(id)
	track.ToggleNote(60, 0, 240, 100)
	track.ToggleNote(64, 480, 240, 90)
	session.Automation.AddLane(state.BusLevelTarget(1))

	assert.NoError(t, Save(path, session, &instruments))

	loadedSession, loadedInstruments, err := Load(path)
	assert.NoError(t, err)
	assert.Equal(t, float32(97), loadedSession.Bpm)
	assert.Len(t, loadedSession.Mixer.Buses, 1)
	assert.Len(t, loadedInstruments.Instruments, 1)
	assert.Equal(t, state.SourceSine, loadedInstruments.Instruments[0].Source)
	assert.Len(t, loadedSession.PianoRoll.Tracks[0].Notes, 2)
	assert.Len(t, loadedSession.Automation.Lanes, 1)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "nope.gz"))
	assert.Error(t, err)
}

func TestSaveOverwritesAtomically(t *testing.T) {
	path := filepath.Join(t.TempDir(), "project.gz")
	session := state.NewSessionState()
	instruments := state.NewInstrumentState()

	assert.NoError(t, Save(path, session, &instruments))
	session.Bpm = 140
	assert.NoError(t, Save(path, session, &instruments))

	loaded, _, err := Load(path)
	assert.NoError(t, err)
	assert.Equal(t, float32(140), loaded.Bpm)

	// No temp file left behind.
	_, _, err = Load(path + ".tmp")
	assert.Error(t, err)
}
