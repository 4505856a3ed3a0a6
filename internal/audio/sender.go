package audio

import (
	"log"
	"net"
	"sync/atomic"
)

// sendQueueCapacity bounds the pre-encoded bundle queue between the audio
// goroutine and the sender. At ~1000 ticks/sec with one bundle per active
// tick the sender drains far faster than this fills.
const sendQueueCapacity = 512

// QueueResult is the outcome of a non-blocking enqueue.
type QueueResult int

const (
	Queued QueueResult = iota
	QueueFull
	QueueDisconnected
)

// Sender owns the UDP socket on a dedicated goroutine so socket syscalls
// stay off the audio tick. Bundles are pre-encoded []byte frames.
type Sender struct {
	ch         chan []byte
	queueDepth atomic.Int64
	conn       *net.UDPConn
	addr       *net.UDPAddr
	done       chan struct{}
	closed     atomic.Bool
}

// NewSender resolves the server address, opens the socket, and starts the
// sender goroutine.
func NewSender(serverAddr string) (*Sender, error) {
	addr, err := net.ResolveUDPAddr("udp", serverAddr)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4zero, Port: 0})
	if err != nil {
		return nil, err
	}
	s := &Sender{
		ch:   make(chan []byte, sendQueueCapacity),
		conn: conn,
		addr: addr,
		done: make(chan struct{}),
	}
	go s.loop()
	return s, nil
}

func (s *Sender) loop() {
	defer close(s.done)
	for frame := range s.ch {
		s.queueDepth.Add(-1)
		// UDP is lossy by design; a failed send is retried in spirit by the
		// next tick's equivalent traffic.
		if _, err := s.conn.WriteToUDP(frame, s.addr); err != nil {
			continue
		}
	}
}

// TryQueue enqueues a pre-encoded bundle without blocking.
func (s *Sender) TryQueue(frame []byte) QueueResult {
	if s.closed.Load() {
		return QueueDisconnected
	}
	select {
	case s.ch <- frame:
		s.queueDepth.Add(1)
		return Queued
	default:
		log.Printf("audio: OSC send queue full, falling back to direct send")
		return QueueFull
	}
}

// SendInline transmits on the calling goroutine. Used as the last-resort
// fallback when the queue is full so no event is lost.
func (s *Sender) SendInline(frame []byte) {
	if s.closed.Load() {
		return
	}
	if _, err := s.conn.WriteToUDP(frame, s.addr); err != nil {
		log.Printf("audio: inline OSC send failed: %v", err)
	}
}

// QueueDepth exposes the current backlog for telemetry.
func (s *Sender) QueueDepth() int {
	return int(s.queueDepth.Load())
}

// Close stops the sender goroutine and closes the socket.
func (s *Sender) Close() {
	if s.closed.Swap(true) {
		return
	}
	close(s.ch)
	<-s.done
	s.conn.Close()
}
