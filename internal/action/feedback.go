package action

import "github.com/mohsenil85/imbolc/internal/state"

// ServerStatus is the synthesis-server connection state machine.
type ServerStatus int

const (
	ServerStopped ServerStatus = iota
	ServerStarting
	ServerRunning
	ServerConnected
	ServerError
)

func (s ServerStatus) String() string {
	switch s {
	case ServerStopped:
		return "stopped"
	case ServerStarting:
		return "starting"
	case ServerRunning:
		return "running"
	case ServerConnected:
		return "connected"
	case ServerError:
		return "error"
	default:
		return "stopped"
	}
}

// ExportKind distinguishes master bounces from stem exports.
type ExportKind int

const (
	ExportMasterBounce ExportKind = iota
	ExportStemExport
	ExportSingleRender
)

// AudioFeedback messages flow audio thread -> main thread over an unbounded
// channel drained each UI frame.
type AudioFeedback interface{}

type PlayheadPosition struct {
	Tick uint32
}

type BpmUpdate struct {
	Bpm float32
}

type PlayingChanged struct {
	Playing bool
}

type DrumSequencerStep struct {
	Instrument state.InstrumentId
	Step       int
}

type ServerStatusChanged struct {
	Status        ServerStatus
	Message       string
	ServerRunning bool
}

type RecordingState struct {
	Recording   bool
	ElapsedSecs uint64
}

type RenderComplete struct {
	Instrument state.InstrumentId
	Path       string
}

type ExportComplete struct {
	Kind  ExportKind
	Paths []string
}

type ExportProgress struct {
	Progress float32
}

type ExportCancelled struct{}

type VstParamsDiscovered struct {
	Instrument state.InstrumentId
	Target     VstTarget
	Plugin     state.VstPluginId
	Params     []state.VstParamSpec
}

type VstStateSaved struct {
	Instrument state.InstrumentId
	Target     VstTarget
	Path       string
}

// ServerCrashed means the synthesis server process died or became
// unreachable. All tracked nodes have been invalidated.
type ServerCrashed struct {
	Message string
}

// TelemetrySummary is the periodic audio-thread performance report.
type TelemetrySummary struct {
	AvgTickUs  uint32
	MaxTickUs  uint32
	P95TickUs  uint32
	Overruns   uint64
	QueueDepth int
}

// MeterLevels carries master peak/RMS readings from the analysis synth.
type MeterLevels struct {
	PeakL float32
	PeakR float32
	RmsL  float32
	RmsR  float32
}

// IoFeedback messages flow from I/O worker goroutines back to the main
// thread. Gen is matched against the session's IoGeneration counter; stale
// completions from superseded operations are dropped.
type IoFeedback interface{}

type SaveComplete struct {
	Gen  uint64
	Path string
	Err  error
}

type LoadComplete struct {
	Gen         uint64
	Path        string
	Session     *state.SessionState
	Instruments *state.InstrumentState
	Err         error
}

type SynthDefImported struct {
	Gen  uint64
	Def  state.CustomSynthDef
	Err  error
}
