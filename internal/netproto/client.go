package netproto

import (
	"fmt"
	"log"
	"net"
	"sync"
	"time"

	"github.com/mohsenil85/imbolc/internal/action"
	"github.com/mohsenil85/imbolc/internal/state"
)

// RemoteDispatcher is the client side of a collaborative session: it sends
// actions to the host and receives state updates in return. The local UI
// renders from the last received StateUpdate.
type RemoteDispatcher struct {
	conn net.Conn

	writeMu sync.Mutex

	mu         sync.Mutex
	clientId   ClientId
	token      SessionToken
	granted    []state.InstrumentId
	privilege  PrivilegeLevel
	lastUpdate *StateUpdate
	rejections []string
	closed     bool

	updates chan struct{}
}

// Connect dials the host and performs the Hello/Welcome handshake. Passing
// a saved token restores prior instrument ownership.
func Connect(addr, name string, requested []state.InstrumentId, wantPrivilege bool, token *SessionToken) (*RemoteDispatcher, error) {
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return nil, err
	}

	rd := &RemoteDispatcher{
		conn:      conn,
		privilege: PrivilegeNormal,
		updates:   make(chan struct{}, 1),
	}

	hello := &ClientMessage{
		Type: MsgHello,
		Hello: &Hello{
			ClientName:           name,
			RequestedInstruments: requested,
			RequestPrivilege:     wantPrivilege,
			ReconnectToken:       token,
		},
	}
	if err := WriteMessage(conn, hello); err != nil {
		conn.Close()
		return nil, err
	}

	var welcome ServerMessage
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := ReadMessage(conn, &welcome); err != nil {
		conn.Close()
		return nil, err
	}
	conn.SetReadDeadline(time.Time{})
	if welcome.Type != MsgWelcome || welcome.Welcome == nil {
		conn.Close()
		return nil, fmt.Errorf("expected welcome, got %q", welcome.Type)
	}

	rd.clientId = welcome.Welcome.ClientId
	rd.token = welcome.Welcome.SessionToken
	rd.granted = welcome.Welcome.GrantedInstruments
	rd.privilege = welcome.Welcome.Privilege

	go rd.readLoop()
	return rd, nil
}

func (rd *RemoteDispatcher) readLoop() {
	for {
		var msg ServerMessage
		if err := ReadMessage(rd.conn, &msg); err != nil {
			rd.mu.Lock()
			rd.closed = true
			rd.mu.Unlock()
			return
		}
		rd.mu.Lock()
		switch msg.Type {
		case MsgStateUpdate:
			rd.lastUpdate = msg.StateUpdate
		case MsgActionRejected:
			rd.rejections = append(rd.rejections, msg.Reason)
			log.Printf("net: action rejected: %s", msg.Reason)
		case MsgPrivilegeGranted:
			rd.privilege = PrivilegePrivileged
		case MsgPrivilegeRevoked:
			rd.privilege = PrivilegeNormal
		}
		rd.mu.Unlock()
		select {
		case rd.updates <- struct{}{}:
		default:
		}
	}
}

// Dispatch sends an action to the host. The mutation lands when the next
// StateUpdate arrives; the returned result is empty.
func (rd *RemoteDispatcher) Dispatch(a action.Action) action.DispatchResult {
	wire, err := EncodeAction(a)
	if err != nil {
		log.Printf("net: cannot encode %T: %v", a, err)
		return action.None()
	}
	msg := &ClientMessage{Type: MsgAction, Action: wire}
	rd.writeMu.Lock()
	err = WriteMessage(rd.conn, msg)
	rd.writeMu.Unlock()
	if err != nil {
		log.Printf("net: send failed: %v", err)
	}
	return action.None()
}

// RequestPrivilege asks the host for the privileged role.
func (rd *RemoteDispatcher) RequestPrivilege() {
	rd.writeMu.Lock()
	defer rd.writeMu.Unlock()
	WriteMessage(rd.conn, &ClientMessage{Type: MsgRequestPrivilege})
}

// Updates signals when a new server message has been folded in.
func (rd *RemoteDispatcher) Updates() <-chan struct{} { return rd.updates }

// LastState returns the most recent StateUpdate (nil before the first).
func (rd *RemoteDispatcher) LastState() *StateUpdate {
	rd.mu.Lock()
	defer rd.mu.Unlock()
	return rd.lastUpdate
}

// TakeRejections returns and clears accumulated rejection reasons.
func (rd *RemoteDispatcher) TakeRejections() []string {
	rd.mu.Lock()
	defer rd.mu.Unlock()
	out := rd.rejections
	rd.rejections = nil
	return out
}

// Privilege returns the client's current privilege level.
func (rd *RemoteDispatcher) Privilege() PrivilegeLevel {
	rd.mu.Lock()
	defer rd.mu.Unlock()
	return rd.privilege
}

// Token returns the session token for persistence.
func (rd *RemoteDispatcher) Token() SessionToken {
	rd.mu.Lock()
	defer rd.mu.Unlock()
	return rd.token
}

// Granted returns the instruments granted at handshake.
func (rd *RemoteDispatcher) Granted() []state.InstrumentId {
	rd.mu.Lock()
	defer rd.mu.Unlock()
	return rd.granted
}

// Close says goodbye and drops the connection.
func (rd *RemoteDispatcher) Close() {
	rd.writeMu.Lock()
	WriteMessage(rd.conn, &ClientMessage{Type: MsgBye})
	rd.writeMu.Unlock()
	rd.conn.Close()
}
