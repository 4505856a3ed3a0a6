package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/hypebeast/go-osc/osc"

	"github.com/mohsenil85/imbolc/internal/action"
	"github.com/mohsenil85/imbolc/internal/audio"
	"github.com/mohsenil85/imbolc/internal/dispatch"
	"github.com/mohsenil85/imbolc/internal/export"
	"github.com/mohsenil85/imbolc/internal/midiconnector"
	"github.com/mohsenil85/imbolc/internal/netproto"
	"github.com/mohsenil85/imbolc/internal/state"
	"github.com/mohsenil85/imbolc/internal/storage"
	"github.com/mohsenil85/imbolc/internal/views"
)

func main() {
	var oscPort int
	var projectFile string
	var debugLog string
	var serveAddr string
	var connectAddr string
	var clientName string
	flag.IntVar(&oscPort, "osc-port", 57110, "UDP port of the synthesis server")
	flag.StringVar(&projectFile, "project", "", "Project file to load on startup")
	flag.StringVar(&debugLog, "debug", "", "If set, write debug logs to this file; empty disables logging")
	flag.StringVar(&serveAddr, "serve", "", "Host a collaborative session on this address (e.g. :9000)")
	flag.StringVar(&connectAddr, "connect", "", "Join a collaborative session at this address")
	flag.StringVar(&clientName, "name", "imbolc", "Client name for collaborative sessions")
	flag.Parse()

	if debugLog != "" {
		f, err := tea.LogToFile(debugLog, "debug")
		if err != nil {
			fmt.Fprintf(os.Stderr, "cannot open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		log.SetOutput(f)
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	} else {
		log.SetOutput(io.Discard)
	}

	log.Printf("imbolc starting, synthesis server port %d", oscPort)

	// Wire engine -> sender -> handle.
	sender, err := audio.NewSender(fmt.Sprintf("127.0.0.1:%d", oscPort))
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot open OSC socket: %v\n", err)
		os.Exit(1)
	}
	engine := audio.NewEngine(sender)
	go engine.Run()
	handle := audio.NewHandle(engine)

	// Async feedback: audio feedback from export/server goes through an
	// extra channel so those subsystems never block.
	asyncFeedback := make(chan action.AudioFeedback, 256)
	notify := func(fb action.AudioFeedback) {
		select {
		case asyncFeedback <- fb:
		default:
		}
	}

	ioFeedback := make(chan action.IoFeedback, 64)
	saver := storage.NewAsyncSaver(ioFeedback)
	exporter := export.NewManager(notify)
	server := audio.NewServerManager(oscPort, handle, notify)

	st := dispatch.NewAppState()
	d := dispatch.New(st, handle)
	d.Server = server
	d.Export = exporter
	d.Saver = saver

	// Feedback OSC server: meter/status traffic from the synthesis server.
	dispatcher := osc.NewStandardDispatcher()
	meterCh := make(chan action.MeterLevels, 64)
	dispatcher.AddMsgHandler("/imbolc/meter", func(msg *osc.Message) {
		if len(msg.Arguments) < 4 {
			return
		}
		levels := action.MeterLevels{}
		if v, ok := msg.Arguments[0].(float32); ok {
			levels.PeakL = v
		}
		if v, ok := msg.Arguments[1].(float32); ok {
			levels.PeakR = v
		}
		if v, ok := msg.Arguments[2].(float32); ok {
			levels.RmsL = v
		}
		if v, ok := msg.Arguments[3].(float32); ok {
			levels.RmsR = v
		}
		select {
		case meterCh <- levels:
		default:
		}
	})
	feedbackServer := &osc.Server{
		Addr:       fmt.Sprintf(":%d", oscPort+1),
		Dispatcher: dispatcher,
	}
	go func() {
		log.Printf("starting OSC feedback server on port %d", oscPort+1)
		if err := feedbackServer.ListenAndServe(); err != nil {
			log.Printf("OSC feedback server: %v", err)
		}
	}()

	// Optional collaboration hosting.
	var netServer *netproto.NetServer
	if serveAddr != "" {
		netServer, err = netproto.Bind(serveAddr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "cannot host session: %v\n", err)
			os.Exit(1)
		}
		log.Printf("hosting collaborative session on %s", netServer.LocalAddr())
	}

	// Optional remote mode: dispatch goes to the host instead.
	var remote *netproto.RemoteDispatcher
	if connectAddr != "" {
		var token *netproto.SessionToken
		if saved := netproto.LoadSession(); saved != nil && saved.ServerAddr == connectAddr {
			token = &saved.Token
		}
		remote, err = netproto.Connect(connectAddr, clientName, nil, false, token)
		if err != nil {
			fmt.Fprintf(os.Stderr, "cannot join session: %v\n", err)
			os.Exit(1)
		}
		netproto.SaveSession(connectAddr, remote.Token(), clientName)
		log.Printf("joined session at %s", connectAddr)
	}

	// MIDI capture into the action queue.
	midiActions := make(chan action.Action, 64)
	if devices := midiconnector.Devices(); len(devices) > 0 {
		st.Session.MidiRecording.Device = devices[0]
		listener, err := midiconnector.Listen(devices[0], st.Session.MidiRecording.Channel,
			func(a action.Action) {
				select {
				case midiActions <- a:
				default:
				}
			})
		if err != nil {
			log.Printf("midi: %v", err)
		} else {
			defer listener.Close()
		}
	}
	defer midiconnector.Cleanup()

	if projectFile != "" {
		if session, instruments, err := storage.Load(projectFile); err == nil {
			st.Session = session
			st.Instruments = instruments
			st.ProjectPath = projectFile
			handle.PublishSnapshot(st.Session, st.Instruments)
			log.Printf("loaded project %s", projectFile)
		} else {
			log.Printf("could not load %s: %v", projectFile, err)
		}
	}

	// Start the synthesis server unless IMBOLC_NO_AUDIO is set.
	if err := server.Start(); err != nil {
		log.Printf("synthesis server: %v", err)
	}

	setupCleanupOnExit(server, sender, handle)

	shell := &shellModel{
		dispatcher:    d,
		remote:        remote,
		netServer:     netServer,
		handle:        handle,
		server:        server,
		ioFeedback:    ioFeedback,
		asyncFeedback: asyncFeedback,
		meterCh:       meterCh,
		midiActions:   midiActions,
		status: views.StatusModel{
			Session:     st.Session,
			Instruments: st.Instruments,
		},
	}

	p := tea.NewProgram(shell, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Printf("error: %v", err)
	}

	handle.Stop()
	server.Stop()
	sender.Close()
	if netServer != nil {
		netServer.Close()
	}
	if remote != nil {
		remote.Close()
	}
}

func setupCleanupOnExit(server *audio.ServerManager, sender *audio.Sender, handle *audio.Handle) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-c
		handle.Stop()
		server.Stop()
		sender.Close()
		midiconnector.Cleanup()
		os.Exit(0)
	}()
}

// frameTickMsg drives the shell's poll loop at 30fps: drain feedback,
// pump the collaboration server, redraw.
type frameTickMsg struct{}

func frameTick() tea.Cmd {
	return tea.Tick(time.Second/30, func(time.Time) tea.Msg {
		return frameTickMsg{}
	})
}

// shellModel is the bubbletea program: a status/transport front end over
// the dispatcher.
type shellModel struct {
	dispatcher    *dispatch.Dispatcher
	remote        *netproto.RemoteDispatcher
	netServer     *netproto.NetServer
	handle        *audio.Handle
	server        *audio.ServerManager
	ioFeedback    <-chan action.IoFeedback
	asyncFeedback <-chan action.AudioFeedback
	meterCh       <-chan action.MeterLevels
	midiActions   <-chan action.Action

	status views.StatusModel
}

func (m *shellModel) Init() tea.Cmd {
	return frameTick()
}

func (m *shellModel) dispatch(a action.Action) {
	if m.remote != nil {
		m.remote.Dispatch(a)
		return
	}
	result := m.dispatcher.Dispatch(a)
	m.applyResult(result)
	if m.netServer != nil {
		m.netServer.Broadcast(m.dispatcher.State.Session, m.dispatcher.State.Instruments)
	}
}

func (m *shellModel) applyResult(result action.DispatchResult) {
	for _, ev := range result.StatusEvents {
		m.status.StatusMessage = ev.Message
		m.status.StatusIsError = ev.IsError
		m.status.StatusUntil = time.Now().Add(ev.Duration)
	}
}

func (m *shellModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.status.Width = msg.Width
		m.status.Height = msg.Height
		return m, nil

	case frameTickMsg:
		m.pump()
		return m, frameTick()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

// pump drains every feedback source once per frame.
func (m *shellModel) pump() {
	st := m.dispatcher.State

	for _, fb := range m.handle.DrainFeedback() {
		m.applyAudioFeedback(fb)
	}
	for {
		select {
		case fb := <-m.asyncFeedback:
			m.applyAudioFeedback(fb)
			continue
		default:
		}
		break
	}
	for {
		select {
		case fb := <-m.ioFeedback:
			m.applyResult(m.dispatcher.ApplyIoFeedback(fb))
			continue
		default:
		}
		break
	}
	for {
		select {
		case levels := <-m.meterCh:
			m.status.Meters = levels
			continue
		default:
		}
		break
	}
	for {
		select {
		case a := <-m.midiActions:
			m.dispatch(a)
			continue
		default:
		}
		break
	}

	// Collaboration: accept, poll remote actions through the same
	// dispatcher, broadcast the updated state.
	if m.netServer != nil {
		m.netServer.AcceptConnections()
		actions := m.netServer.PollActions(st.Session, st.Instruments)
		for _, ca := range actions {
			m.applyResult(m.dispatcher.Dispatch(ca.Action))
		}
		if len(actions) > 0 {
			m.netServer.Broadcast(st.Session, st.Instruments)
		}
		m.status.ClientCount = m.netServer.ClientCount()
	}

	if m.remote != nil {
		if update := m.remote.LastState(); update != nil {
			m.status.Session = update.Session
			m.status.Instruments = update.Instruments
		}
		for _, reason := range m.remote.TakeRejections() {
			m.status.StatusMessage = reason
			m.status.StatusIsError = true
			m.status.StatusUntil = time.Now().Add(5 * time.Second)
		}
	} else {
		m.status.Session = st.Session
		m.status.Instruments = st.Instruments
	}
	m.status.ServerStatus = m.server.Status()
}

func (m *shellModel) applyAudioFeedback(fb action.AudioFeedback) {
	switch f := fb.(type) {
	case action.TelemetrySummary:
		m.status.Telemetry = f
	case action.MeterLevels:
		m.status.Meters = f
	case action.ServerCrashed:
		m.status.StatusMessage = "synthesis server crashed: " + f.Message
		m.status.StatusIsError = true
		m.status.StatusUntil = time.Now().Add(10 * time.Second)
	case action.ServerStatusChanged:
		m.status.ServerStatus = f.Status
	case action.ExportCancelled:
		m.status.StatusMessage = "export cancelled"
		m.status.StatusUntil = time.Now().Add(3 * time.Second)
	case action.ExportComplete:
		m.status.StatusMessage = fmt.Sprintf("export complete (%d files)", len(f.Paths))
		m.status.StatusUntil = time.Now().Add(5 * time.Second)
	}
}

func (m *shellModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case " ":
		m.dispatch(action.PlayStop{})
	case "r":
		m.dispatch(action.PlayStopRecord{})
	case "l":
		m.dispatch(action.ToggleLoop{})
	case "c":
		m.dispatch(action.ToggleClick{})
	case "m":
		m.dispatch(action.ToggleMasterMute{})
	case "a":
		m.dispatch(action.AddInstrument{Source: state.SourceSaw})
	case "t":
		m.dispatch(action.CycleTheme{})
	case "u":
		m.dispatch(action.Undo{})
	case "U":
		m.dispatch(action.Redo{})
	case "s":
		m.dispatch(action.SaveProject{})
	case "up":
		m.dispatch(action.UpdateSessionLive{Settings: bumpBpm(m.currentSession(), 1)})
	case "down":
		m.dispatch(action.UpdateSessionLive{Settings: bumpBpm(m.currentSession(), -1)})
	case "tab":
		next := m.dispatcher.State.Instruments.Selected + 1
		if next >= len(m.dispatcher.State.Instruments.Instruments) {
			next = 0
		}
		m.dispatch(action.SelectInstrument{Index: next})
	}
	return m, nil
}

func (m *shellModel) currentSession() *state.SessionState {
	return m.dispatcher.State.Session
}

func bumpBpm(s *state.SessionState, delta float32) state.MusicalSettings {
	settings := s.MusicalSettings()
	settings.Bpm += delta
	if settings.Bpm < 1 {
		settings.Bpm = 1
	}
	if settings.Bpm > state.MaxBpm {
		settings.Bpm = state.MaxBpm
	}
	return settings
}

func (m *shellModel) View() string {
	return views.RenderStatus(&m.status)
}

