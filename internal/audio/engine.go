package audio

import (
	"log"
	"math/rand"
	"time"

	"github.com/hypebeast/go-osc/osc"

	"github.com/mohsenil85/imbolc/internal/action"
	"github.com/mohsenil85/imbolc/internal/reduce"
	"github.com/mohsenil85/imbolc/internal/state"
	"github.com/mohsenil85/imbolc/internal/triplebuffer"
)

const (
	// DefaultTickPeriod is the audio loop period.
	DefaultTickPeriod = time.Millisecond

	// Lookahead bounds: timestamps are now + lookahead so the server can
	// schedule sample-accurately.
	MinLookahead     = 0.02
	MaxLookahead     = 0.1
	DefaultLookahead = 0.05

	// tickBudgetUs is the telemetry overrun threshold.
	tickBudgetUs = 500

	// telemetryInterval is how many ticks pass between summary emissions.
	telemetryInterval = 1024

	// automationEpsilon gates parameter re-sends.
	automationEpsilon = 0.001

	// firstNodeId keeps dynamically allocated nodes clear of the server's
	// reserved low ids.
	firstNodeId = 1000
)

// pendingRelease schedules a gate-off for a spawned voice.
type pendingRelease struct {
	nodeId int32
	tick   float64
}

// Engine is the realtime audio tick loop. It owns local copies of the
// session and instrument state, a node registry, and per-voice play states.
// It never blocks: inbound commands arrive on a buffered channel drained
// with try-receives, snapshots come through a wait-free triple buffer, and
// outbound bundles go through the bounded sender queue.
type Engine struct {
	session     *state.SessionState
	instruments *state.InstrumentState

	registry *NodeRegistry
	sender   *Sender
	builder  *BundleBuilder

	cmds      chan Cmd
	snapshots *triplebuffer.TripleBuffer[*Snapshot]
	feedback  chan action.AudioFeedback

	telemetry  Telemetry
	tickPeriod time.Duration
	lookahead  float64
	rng        *rand.Rand

	connected bool
	status    action.ServerStatus

	prevPlayhead float64

	clickAccum    float64
	arpStates     map[state.InstrumentId]*arpPlayState
	drumStates    map[state.InstrumentId]*drumPlayState
	genStates     map[state.GenVoiceId]*voicePlayState
	heldNotes     map[state.InstrumentId][]uint8
	stripNodes    map[state.InstrumentId]int32
	groupNodes    map[state.InstrumentId]int32
	lastAutomation map[state.AutomationLaneId]float32

	releases     []pendingRelease
	nextNodeId   int32
	tickCount    uint64
	quiesceTicks int
	wasPlaying   bool

	// capture, when set, receives each tick's messages instead of the
	// sender. Used by tests to observe the wire traffic.
	capture func(msgs []*osc.Message)

	done chan struct{}
}

// NewEngine builds an engine around the given sender. The caller wires the
// returned channels through a Handle.
func NewEngine(sender *Sender) *Engine {
	return &Engine{
		session:        state.NewSessionState(),
		instruments:    &state.InstrumentState{Selected: -1},
		registry:       NewNodeRegistry(),
		sender:         sender,
		builder:        NewBundleBuilder(),
		cmds:           make(chan Cmd, 1024),
		snapshots:      triplebuffer.New[*Snapshot](),
		feedback:       make(chan action.AudioFeedback, 4096),
		tickPeriod:     DefaultTickPeriod,
		lookahead:      DefaultLookahead,
		rng:            rand.New(rand.NewSource(time.Now().UnixNano())),
		arpStates:      make(map[state.InstrumentId]*arpPlayState),
		drumStates:     make(map[state.InstrumentId]*drumPlayState),
		genStates:      make(map[state.GenVoiceId]*voicePlayState),
		heldNotes:      make(map[state.InstrumentId][]uint8),
		stripNodes:     make(map[state.InstrumentId]int32),
		groupNodes:     make(map[state.InstrumentId]int32),
		lastAutomation: make(map[state.AutomationLaneId]float32),
		releases:       make([]pendingRelease, 0, 256),
		nextNodeId:     firstNodeId,
		done:           make(chan struct{}),
	}
}

// Run is the audio goroutine body. It ticks at the engine period until a
// CmdStop arrives.
func (e *Engine) Run() {
	defer close(e.done)
	ticker := time.NewTicker(e.tickPeriod)
	defer ticker.Stop()

	last := time.Now()
	for {
		now := <-ticker.C
		elapsed := now.Sub(last)
		last = now
		if stop := e.Tick(elapsed); stop {
			return
		}
	}
}

// Tick performs one full engine pass. Exposed so tests can drive the engine
// deterministically. Returns true when the engine should stop.
func (e *Engine) Tick(elapsed time.Duration) bool {
	start := time.Now()

	e.builder.Reset()

	if stop := e.drainCommands(); stop {
		return true
	}

	// Transport edges: prime the step accumulators on start (so the beat at
	// the playhead fires immediately), silence everything on stop.
	if e.session.PianoRoll.Playing != e.wasPlaying {
		if e.session.PianoRoll.Playing {
			e.onTransportStart()
		} else {
			e.onTransportStop()
		}
		e.wasPlaying = e.session.PianoRoll.Playing
	}

	e.advanceTransport(elapsed)

	pr := &e.session.PianoRoll
	if pr.Playing && e.session.Bpm > 0 && e.session.TicksPerBeat > 0 && e.quiesceTicks == 0 {
		// Emission order within the tick: click, arpeggiator, drums,
		// generative, piano roll, automation. All events share this tick's
		// timestamp base and differ only by sub-tick offsets.
		e.tickClick(elapsed)
		e.tickArps(elapsed)
		e.tickDrums(elapsed)
		e.tickGenerative(elapsed)
		e.tickPianoRoll()
	}
	if e.quiesceTicks > 0 {
		e.quiesceTicks--
	}
	e.tickReleases()
	if pr.Playing {
		e.tickAutomation()
	}

	e.flush()
	e.emitPeriodicFeedback()

	e.telemetry.Record(time.Since(start), tickBudgetUs)
	e.tickCount++
	return false
}

// drainCommands empties the inbound ring without blocking.
func (e *Engine) drainCommands() (stop bool) {
	for {
		select {
		case cmd := <-e.cmds:
			switch c := cmd.(type) {
			case CmdProjection:
				e.applyProjection(c)
			case CmdServerStatus:
				e.status = c.Status
				e.connected = c.Status == action.ServerConnected
			case CmdServerCrashed:
				e.registry.InvalidateAll()
				e.stripNodes = make(map[state.InstrumentId]int32)
				e.groupNodes = make(map[state.InstrumentId]int32)
				e.releases = e.releases[:0]
				e.connected = false
				e.status = action.ServerError
				e.sendFeedback(action.ServerCrashed{Message: c.Message})
			case CmdSetLookahead:
				e.lookahead = clampLookahead(c.Seconds)
			case CmdStop:
				return true
			}
		default:
			return false
		}
	}
}

// applyProjection runs the forwarded action through the shared reducer on
// the engine's local state. When the reducer declines — or the bridge
// already flagged a full sync — the engine adopts the latest snapshot.
func (e *Engine) applyProjection(c CmdProjection) {
	needSnapshot := c.FullSync
	if c.Action != nil {
		e.trackHeldNotes(c.Action)
		if !reduce.Reduce(c.Action, e.instruments, e.session) {
			needSnapshot = true
		}
	}
	if needSnapshot {
		if snap, ok := e.snapshots.TryRead(); ok && snap != nil {
			e.session = snap.Session
			e.instruments = snap.Instruments
			// Stale play state can address pads and voices that no longer
			// exist; quiesce spawns for one tick after adopting.
			e.quiesceTicks = 1
			e.invalidateCaches()
		}
	}
	for _, eff := range c.Effects {
		e.applyEffect(eff)
	}
}

// trackHeldNotes keeps the per-instrument held-note sets current for the
// arpeggiator. Live-audition and MIDI notes address the selected instrument.
func (e *Engine) trackHeldNotes(a action.Action) {
	inst := e.instruments.SelectedInstrument()
	if inst == nil {
		return
	}
	switch act := a.(type) {
	case action.PlayNote:
		e.holdNote(inst.Id, act.Pitch)
	case action.ReleaseNote:
		e.releaseHeld(inst.Id, act.Pitch)
	case action.MidiNoteOn:
		e.holdNote(inst.Id, act.Pitch)
	case action.MidiNoteOff:
		e.releaseHeld(inst.Id, act.Pitch)
	}
}

func (e *Engine) holdNote(id state.InstrumentId, pitch uint8) {
	held := e.heldNotes[id]
	for _, p := range held {
		if p == pitch {
			return
		}
	}
	// Keep sorted so Up/Down directions are stable.
	pos := len(held)
	for i, p := range held {
		if p > pitch {
			pos = i
			break
		}
	}
	held = append(held, 0)
	copy(held[pos+1:], held[pos:])
	held[pos] = pitch
	e.heldNotes[id] = held
}

func (e *Engine) releaseHeld(id state.InstrumentId, pitch uint8) {
	held := e.heldNotes[id]
	for i, p := range held {
		if p == pitch {
			e.heldNotes[id] = append(held[:i], held[i+1:]...)
			return
		}
	}
}

func (e *Engine) applyEffect(eff action.AudioEffect) {
	switch ef := eff.(type) {
	case action.EffectLoadSampleBuffer:
		if !e.connected {
			return
		}
		buf := e.allocNodeId()
		e.builder.BufferRead(buf, ef.Path)
		if inst := e.instruments.Instrument(ef.Instrument); inst != nil && inst.Extra.Sampler != nil {
			inst.Extra.Sampler.BufferId = buf
		}
	case action.EffectFreeInstrumentNodes:
		if node, ok := e.stripNodes[ef.Instrument]; ok {
			e.builder.NodeFree(node)
			e.registry.Unregister(node)
			delete(e.stripNodes, ef.Instrument)
		}
		if group, ok := e.groupNodes[ef.Instrument]; ok {
			e.builder.NodeFree(group)
			e.registry.Unregister(group)
			delete(e.groupNodes, ef.Instrument)
		}
	case action.EffectFreeAllNodes:
		for _, node := range e.stripNodes {
			e.builder.NodeFree(node)
		}
		e.stripNodes = make(map[state.InstrumentId]int32)
		e.groupNodes = make(map[state.InstrumentId]int32)
		e.registry.InvalidateAll()
		e.releases = e.releases[:0]
	case action.EffectRebuildRouting:
		e.rebuildRouting()
	case action.EffectPlayNote:
		if inst := e.instruments.Instrument(ef.Instrument); inst != nil {
			e.holdNote(inst.Id, ef.Pitch)
			if !inst.NoteInput.Arp.Enabled {
				e.spawnVoice(inst, ef.Pitch, ef.Velocity, 0, 0)
			}
		}
	case action.EffectReleaseNote:
		e.releaseHeld(ef.Instrument, ef.Pitch)
	case action.EffectDiscoverVstParams:
		if node, ok := e.stripNodes[ef.Instrument]; ok && e.registry.CheckNode(node) {
			e.builder.UgenCmd(node, 0, vstSelParamCount)
			e.builder.VstParamQuery(node, 0, 128)
		}
	case action.EffectSaveVstState:
		if node, ok := e.stripNodes[ef.Instrument]; ok && e.registry.CheckNode(node) {
			e.builder.VstProgramWrite(node, "")
		}
	case action.EffectLoadSynthDefDir:
		e.builder.DefLoadDir(ef.Dir)
	}
}

// advanceTransport moves the playhead and handles loop wrap.
func (e *Engine) advanceTransport(elapsed time.Duration) {
	pr := &e.session.PianoRoll
	e.prevPlayhead = pr.PlayheadTicks
	if !pr.Playing || e.session.Bpm <= 0 || e.session.TicksPerBeat == 0 {
		return
	}

	ticksPerSec := float64(e.session.Bpm) * float64(e.session.TicksPerBeat) / 60.0
	pr.PlayheadTicks += elapsed.Seconds() * ticksPerSec

	if pr.Looping && pr.LoopEnd > pr.LoopStart && pr.PlayheadTicks >= float64(pr.LoopEnd) {
		pr.PlayheadTicks = float64(pr.LoopStart)
		e.prevPlayhead = pr.PlayheadTicks
		e.onLoopWrap()
	}
}

// onTransportStart primes every fractional accumulator to 1.0 so the step
// or beat at the current playhead position fires on the first tick instead
// of one interval late.
func (e *Engine) onTransportStart() {
	e.clickAccum = 1.0
	for _, s := range e.arpStates {
		s.accumulator = 1.0
	}
	for _, s := range e.drumStates {
		s.accumulator = 1.0
		s.stepIndex = 0
	}
	for _, s := range e.genStates {
		s.accumulator = 1.0
		s.stepIndex = 0
	}
	e.sendFeedback(action.PlayingChanged{Playing: true})
}

// onTransportStop releases everything that is sounding.
func (e *Engine) onTransportStop() {
	e.onLoopWrap()
	e.sendFeedback(action.PlayingChanged{Playing: false})
}

// onLoopWrap releases sounding voices and re-phases step accumulators so the
// wrap does not double-trigger or smear beats across the boundary.
func (e *Engine) onLoopWrap() {
	for _, rel := range e.releases {
		e.builder.NodeSet(rel.nodeId, "gate", float32(0))
		e.registry.Unregister(rel.nodeId)
	}
	e.releases = e.releases[:0]
	e.clickAccum = 0
	for _, s := range e.arpStates {
		s.accumulator = 0
		if s.currentNode != 0 {
			e.builder.NodeSet(s.currentNode, "gate", float32(0))
			e.registry.Unregister(s.currentNode)
			s.currentNode = 0
			s.currentPitch = -1
		}
	}
	for _, s := range e.drumStates {
		s.accumulator = 0
	}
	for _, s := range e.genStates {
		s.accumulator = 0
		if s.currentNode != 0 {
			e.builder.NodeSet(s.currentNode, "gate", float32(0))
			e.registry.Unregister(s.currentNode)
			s.currentNode = 0
		}
	}
}

// invalidateCaches drops generative caches after a snapshot adoption.
func (e *Engine) invalidateCaches() {
	for _, s := range e.genStates {
		s.invalidate()
	}
}

// tickReleases emits scheduled gate-offs whose tick has passed.
func (e *Engine) tickReleases() {
	playhead := e.session.PianoRoll.PlayheadTicks
	kept := e.releases[:0]
	for _, rel := range e.releases {
		if playhead >= rel.tick {
			if e.connected {
				e.builder.NodeSet(rel.nodeId, "gate", float32(0))
			}
			e.registry.Unregister(rel.nodeId)
		} else {
			kept = append(kept, rel)
		}
	}
	e.releases = kept
}

// flush encodes the tick's bundle once and hands it to the sender. On a full
// queue it degrades to an inline send so no event is lost.
func (e *Engine) flush() {
	if e.builder.Len() == 0 || !e.connected {
		e.builder.Reset()
		return
	}
	if e.capture != nil {
		e.capture(append([]*osc.Message(nil), e.builder.messages...))
		e.builder.Reset()
		return
	}
	frame := e.builder.Encode(time.Now().Add(time.Duration(e.lookahead * float64(time.Second))))
	e.builder.Reset()
	if frame == nil || e.sender == nil {
		return
	}
	if e.sender.TryQueue(frame) == QueueFull {
		e.sender.SendInline(frame)
	}
}

func (e *Engine) emitPeriodicFeedback() {
	if e.tickCount%64 == 0 {
		e.sendFeedback(action.PlayheadPosition{Tick: uint32(e.session.PianoRoll.PlayheadTicks)})
	}
	if e.tickCount%telemetryInterval == 0 && e.tickCount > 0 {
		avg, max, p95, overruns := e.telemetry.TakeSummary()
		depth := 0
		if e.sender != nil {
			depth = e.sender.QueueDepth()
		}
		e.sendFeedback(action.TelemetrySummary{
			AvgTickUs:  avg,
			MaxTickUs:  max,
			P95TickUs:  p95,
			Overruns:   overruns,
			QueueDepth: depth,
		})
	}
}

// sendFeedback never blocks the tick; if the main thread has fallen far
// behind, the message is dropped.
func (e *Engine) sendFeedback(fb action.AudioFeedback) {
	select {
	case e.feedback <- fb:
	default:
		log.Printf("audio: feedback channel full, dropping %T", fb)
	}
}

func (e *Engine) allocNodeId() int32 {
	id := e.nextNodeId
	e.nextNodeId++
	return id
}

// effectiveMuted decides whether a voice spawn for this instrument should be
// dropped pre-encode (cheaper than sending and gating on the server).
func (e *Engine) effectiveMuted(inst *state.Instrument) bool {
	if e.session.Mixer.MasterMute || inst.Mixer.Mute {
		return true
	}
	if inst.Output.Kind == "bus" {
		if b := e.session.Mixer.Bus(inst.Output.Bus); b != nil && b.Mute {
			return true
		}
	}
	anySolo := false
	for i := range e.instruments.Instruments {
		if e.instruments.Instruments[i].Mixer.Solo {
			anySolo = true
			break
		}
	}
	return anySolo && !inst.Mixer.Solo
}

// rebuildRouting recreates per-instrument groups and strip nodes. Nodes that
// went missing (after a crash) are recreated here.
func (e *Engine) rebuildRouting() {
	if !e.connected {
		return
	}
	for i := range e.instruments.Instruments {
		inst := &e.instruments.Instruments[i]
		if _, ok := e.groupNodes[inst.Id]; !ok {
			group := e.allocNodeId()
			e.builder.GroupNew(group, 0)
			e.registry.Register(group)
			e.groupNodes[inst.Id] = group
		}
		if _, ok := e.stripNodes[inst.Id]; !ok {
			node := e.allocNodeId()
			e.builder.SynthNew("imbolc_strip", node, e.groupNodes[inst.Id],
				"level", inst.Mixer.Level,
				"pan", inst.Mixer.Pan,
			)
			e.registry.Register(node)
			e.stripNodes[inst.Id] = node
		}
	}
}

// Feedback returns the audio -> main feedback channel.
func (e *Engine) Feedback() <-chan action.AudioFeedback { return e.feedback }

// Cmds returns the inbound command channel.
func (e *Engine) Cmds() chan<- Cmd { return e.cmds }

// Snapshots returns the triple buffer the bridge publishes into.
func (e *Engine) Snapshots() *triplebuffer.TripleBuffer[*Snapshot] { return e.snapshots }

// Done is closed when the engine goroutine exits.
func (e *Engine) Done() <-chan struct{} { return e.done }

// Registry exposes the node registry for tests.
func (e *Engine) Registry() *NodeRegistry { return e.registry }

func clampLookahead(s float64) float64 {
	if s < MinLookahead {
		return MinLookahead
	}
	if s > MaxLookahead {
		return MaxLookahead
	}
	return s
}
