// Package storage persists projects as gzip-compressed JSON. The schema is
// opaque to the engine: Save/Load are the whole interface.
package storage

import (
	"compress/gzip"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/mohsenil85/imbolc/internal/action"
	"github.com/mohsenil85/imbolc/internal/state"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// projectFile is the on-disk shape of a saved project.
type projectFile struct {
	Version     int                    `json:"version"`
	Session     *state.SessionState    `json:"session"`
	Instruments *state.InstrumentState `json:"instruments"`
}

const formatVersion = 1

// Save writes the project to path atomically (write temp, rename).
func Save(path string, session *state.SessionState, instruments *state.InstrumentState) error {
	data, err := json.Marshal(projectFile{
		Version:     formatVersion,
		Session:     session,
		Instruments: instruments,
	})
	if err != nil {
		return fmt.Errorf("marshaling project: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	tmp := path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return err
	}
	gz := gzip.NewWriter(file)
	if _, err := gz.Write(data); err != nil {
		gz.Close()
		file.Close()
		os.Remove(tmp)
		return err
	}
	if err := gz.Close(); err != nil {
		file.Close()
		os.Remove(tmp)
		return err
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// Load reads a project saved by Save.
func Load(path string) (*state.SessionState, *state.InstrumentState, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	gz, err := gzip.NewReader(file)
	if err != nil {
		return nil, nil, fmt.Errorf("opening gzip stream: %w", err)
	}
	defer gz.Close()

	var pf projectFile
	if err := json.NewDecoder(gz).Decode(&pf); err != nil {
		return nil, nil, fmt.Errorf("decoding project: %w", err)
	}
	if pf.Session == nil || pf.Instruments == nil {
		return nil, nil, fmt.Errorf("project file missing session or instruments")
	}
	if pf.Session.Grooves == nil {
		pf.Session.Grooves = make(map[uint32]state.GrooveConfig)
	}
	return pf.Session, pf.Instruments, nil
}

// AsyncSaver runs saves and loads on worker goroutines and reports
// completions (stamped with the caller's generation) over the feedback
// channel. It also provides a debounced autosave.
type AsyncSaver struct {
	feedback chan<- action.IoFeedback

	mu    sync.Mutex
	timer *time.Timer
}

const autosaveDebounce = 1 * time.Second

func NewAsyncSaver(feedback chan<- action.IoFeedback) *AsyncSaver {
	return &AsyncSaver{feedback: feedback}
}

// SaveAsync snapshots the state on the calling (main) thread, then writes
// on a worker.
func (s *AsyncSaver) SaveAsync(path string, session *state.SessionState, instruments *state.InstrumentState, gen uint64) {
	sessionCopy := session.Clone()
	instCopy := instruments.Clone()
	go func() {
		start := time.Now()
		err := Save(path, sessionCopy, &instCopy)
		if err == nil {
			log.Printf("storage: saved %s in %d ms", path, time.Since(start).Milliseconds())
		}
		s.feedback <- action.SaveComplete{Gen: gen, Path: path, Err: err}
	}()
}

// LoadAsync reads on a worker and hands the parsed state back.
func (s *AsyncSaver) LoadAsync(path string, gen uint64) {
	go func() {
		session, instruments, err := Load(path)
		s.feedback <- action.LoadComplete{
			Gen:         gen,
			Path:        path,
			Session:     session,
			Instruments: instruments,
			Err:         err,
		}
	}()
}

// Autosave schedules a debounced save: rapid edits collapse into one write.
func (s *AsyncSaver) Autosave(path string, session *state.SessionState, instruments *state.InstrumentState, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
	}
	sessionCopy := session.Clone()
	instCopy := instruments.Clone()
	s.timer = time.AfterFunc(autosaveDebounce, func() {
		start := time.Now()
		err := Save(path, sessionCopy, &instCopy)
		if err != nil {
			log.Printf("storage: autosave failed: %v", err)
			return
		}
		log.Printf("storage: autosaved in %d ms", time.Since(start).Milliseconds())
		s.feedback <- action.SaveComplete{Gen: gen, Path: path, Err: nil}
	})
}
