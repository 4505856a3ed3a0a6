package netproto

import (
	"log"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mohsenil85/imbolc/internal/action"
	"github.com/mohsenil85/imbolc/internal/state"
)

// acceptPollTimeout bounds the non-blocking accept pass.
const acceptPollTimeout = 2 * time.Millisecond

// clientConn is one connected collaborator.
type clientConn struct {
	id      ClientId
	name    string
	conn    net.Conn
	writeMu sync.Mutex
	token   SessionToken
	closed  bool
}

// inboundMsg pairs a parsed client message with its sender.
type inboundMsg struct {
	client *clientConn
	msg    *ClientMessage
	err    error
}

// NetServer hosts a collaborative session. It is driven from the main
// thread: AcceptConnections + PollActions each frame, Broadcast after each
// applied action.
type NetServer struct {
	listener *net.TCPListener

	mu         sync.Mutex
	clients    map[ClientId]*clientConn
	nextClient uint64
	privileged ClientId // 0 = none

	// ownership maps instrument -> owning client.
	ownership map[state.InstrumentId]ClientId

	// parked holds ownership of disconnected clients keyed by reconnect
	// token; presenting the token in Hello restores it.
	parked map[SessionToken][]state.InstrumentId
	names  map[SessionToken]string

	inbox chan inboundMsg
}

// Bind starts listening. Use addr "127.0.0.1:0" to pick a free port.
func Bind(addr string) (*NetServer, error) {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &NetServer{
		listener:  l.(*net.TCPListener),
		clients:   make(map[ClientId]*clientConn),
		ownership: make(map[state.InstrumentId]ClientId),
		parked:    make(map[SessionToken][]state.InstrumentId),
		names:     make(map[SessionToken]string),
		inbox:     make(chan inboundMsg, 256),
	}, nil
}

// LocalAddr returns the bound address.
func (s *NetServer) LocalAddr() net.Addr {
	return s.listener.Addr()
}

// ClientCount returns the number of live clients.
func (s *NetServer) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// AcceptConnections accepts any pending connections without blocking longer
// than the poll timeout. Each connection gets a reader goroutine feeding the
// inbox.
func (s *NetServer) AcceptConnections() {
	for {
		s.listener.SetDeadline(time.Now().Add(acceptPollTimeout))
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.nextClient++
		c := &clientConn{id: ClientId(s.nextClient), conn: conn}
		s.clients[c.id] = c
		s.mu.Unlock()
		go s.readLoop(c)
	}
}

func (s *NetServer) readLoop(c *clientConn) {
	for {
		var msg ClientMessage
		if err := ReadMessage(c.conn, &msg); err != nil {
			s.inbox <- inboundMsg{client: c, err: err}
			return
		}
		s.inbox <- inboundMsg{client: c, msg: &msg}
	}
}

// PollActions drains the inbox, handling handshakes, privilege requests and
// disconnects internally. Permitted remote actions are returned for the
// caller to dispatch; after dispatching, call Broadcast.
func (s *NetServer) PollActions(session *state.SessionState, instruments *state.InstrumentState) []ClientAction {
	var actions []ClientAction
	for {
		select {
		case in := <-s.inbox:
			if in.err != nil {
				s.disconnect(in.client)
				continue
			}
			switch in.msg.Type {
			case MsgHello:
				if in.msg.Hello != nil {
					s.handleHello(in.client, in.msg.Hello, instruments)
				}
			case MsgAction:
				if in.msg.Action == nil {
					continue
				}
				a, err := DecodeAction(in.msg.Action)
				if err != nil {
					s.sendTo(in.client, &ServerMessage{Type: MsgActionRejected, Reason: err.Error()})
					continue
				}
				if reason, ok := s.authorize(in.client, a); !ok {
					s.sendTo(in.client, &ServerMessage{Type: MsgActionRejected, Reason: reason})
					continue
				}
				actions = append(actions, ClientAction{Client: in.client.id, Action: a})
			case MsgRequestPrivilege:
				s.transferPrivilege(in.client)
			case MsgBye:
				s.disconnect(in.client)
			}
		default:
			return actions
		}
	}
}

// handleHello completes a handshake: grants unowned requested instruments
// (or restores parked ownership for a valid reconnect token), grants
// privilege when requested and free, and sends the Welcome.
func (s *NetServer) handleHello(c *clientConn, hello *Hello, instruments *state.InstrumentState) {
	s.mu.Lock()
	c.name = hello.ClientName

	var granted []state.InstrumentId

	if hello.ReconnectToken != nil {
		if parked, ok := s.parked[*hello.ReconnectToken]; ok {
			for _, id := range parked {
				if _, taken := s.ownership[id]; !taken {
					s.ownership[id] = c.id
					granted = append(granted, id)
				}
			}
			delete(s.parked, *hello.ReconnectToken)
			delete(s.names, *hello.ReconnectToken)
			c.token = *hello.ReconnectToken
		}
	}
	if c.token == "" {
		c.token = SessionToken(uuid.NewString())
	}

	for _, id := range hello.RequestedInstruments {
		if instruments.Instrument(id) == nil {
			continue
		}
		if _, taken := s.ownership[id]; taken {
			continue
		}
		s.ownership[id] = c.id
		granted = append(granted, id)
	}

	privilege := PrivilegeNormal
	if hello.RequestPrivilege && s.privileged == 0 {
		s.privileged = c.id
		privilege = PrivilegePrivileged
	}
	s.mu.Unlock()

	if granted == nil {
		granted = []state.InstrumentId{}
	}
	s.sendTo(c, &ServerMessage{
		Type: MsgWelcome,
		Welcome: &Welcome{
			ClientId:           c.id,
			SessionToken:       c.token,
			GrantedInstruments: granted,
			Privilege:          privilege,
		},
	})
	log.Printf("net: %s connected as client %d (%d instruments, %s)",
		c.name, c.id, len(granted), privilege)
}

// transferPrivilege atomically reassigns the privileged role: the current
// holder gets PrivilegeRevoked, the requester PrivilegeGranted.
func (s *NetServer) transferPrivilege(c *clientConn) {
	s.mu.Lock()
	prev := s.privileged
	s.privileged = c.id
	var prevConn *clientConn
	if prev != 0 && prev != c.id {
		prevConn = s.clients[prev]
	}
	s.mu.Unlock()

	s.sendTo(c, &ServerMessage{Type: MsgPrivilegeGranted})
	if prevConn != nil {
		s.sendTo(prevConn, &ServerMessage{Type: MsgPrivilegeRevoked})
	}
}

// authorize checks privilege and ownership for a remote action.
func (s *NetServer) authorize(c *clientConn, a action.Action) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if requiresPrivilege(a) && s.privileged != c.id {
		return "action requires privilege", false
	}
	if id, ok := targetInstrument(a); ok {
		if owner, owned := s.ownership[id]; owned && owner != c.id {
			return "instrument owned by another client", false
		}
	}
	return "", true
}

// disconnect removes a client, parks its ownership under its token, and
// surrenders privilege.
func (s *NetServer) disconnect(c *clientConn) {
	s.mu.Lock()
	if c.closed {
		s.mu.Unlock()
		return
	}
	c.closed = true
	delete(s.clients, c.id)

	var owned []state.InstrumentId
	for id, owner := range s.ownership {
		if owner == c.id {
			owned = append(owned, id)
			delete(s.ownership, id)
		}
	}
	if len(owned) > 0 && c.token != "" {
		s.parked[c.token] = owned
		s.names[c.token] = c.name
	}
	if s.privileged == c.id {
		s.privileged = 0
	}
	s.mu.Unlock()

	c.conn.Close()
	log.Printf("net: client %d (%s) disconnected", c.id, c.name)
}

// Broadcast serializes one StateUpdate and writes the same frame to every
// connection, so serialization cost is O(state), not O(state x clients).
func (s *NetServer) Broadcast(session *state.SessionState, instruments *state.InstrumentState) {
	update := &ServerMessage{
		Type: MsgStateUpdate,
		StateUpdate: &StateUpdate{
			Session:          session,
			Instruments:      instruments,
			Ownership:        s.BuildOwnershipMap(),
			PrivilegedClient: s.PrivilegedClientInfo(),
		},
	}
	frame, err := SerializeFrame(update)
	if err != nil {
		log.Printf("net: broadcast serialization failed: %v", err)
		return
	}

	s.mu.Lock()
	conns := make([]*clientConn, 0, len(s.clients))
	for _, c := range s.clients {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		c.writeMu.Lock()
		err := WriteRawFrame(c.conn, frame)
		c.writeMu.Unlock()
		if err != nil {
			s.disconnect(c)
		}
	}
}

// BuildOwnershipMap snapshots instrument ownership for a StateUpdate.
func (s *NetServer) BuildOwnershipMap() map[uint32]OwnerInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[uint32]OwnerInfo, len(s.ownership))
	for id, owner := range s.ownership {
		name := ""
		if c, ok := s.clients[owner]; ok {
			name = c.name
		}
		out[uint32(id)] = OwnerInfo{Client: owner, Name: name}
	}
	return out
}

// PrivilegedClientInfo returns the privileged client id, or nil.
func (s *NetServer) PrivilegedClientInfo() *ClientId {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.privileged == 0 {
		return nil
	}
	id := s.privileged
	return &id
}

// Close shuts down the listener and all client connections.
func (s *NetServer) Close() {
	s.listener.Close()
	s.mu.Lock()
	conns := make([]*clientConn, 0, len(s.clients))
	for _, c := range s.clients {
		conns = append(conns, c)
	}
	s.mu.Unlock()
	for _, c := range conns {
		s.disconnect(c)
	}
}

func (s *NetServer) sendTo(c *clientConn, msg *ServerMessage) {
	c.writeMu.Lock()
	err := WriteMessage(c.conn, msg)
	c.writeMu.Unlock()
	if err != nil {
		s.disconnect(c)
	}
}
