package netproto

import (
	"github.com/mohsenil85/imbolc/internal/state"
)

// ClientId identifies a connected client for the session's lifetime.
type ClientId uint64

// SessionToken survives client restarts; presenting it in Hello restores
// instrument ownership.
type SessionToken string

// PrivilegeLevel gates session-wide actions. At most one client is
// privileged at any time.
type PrivilegeLevel string

const (
	PrivilegeNormal     PrivilegeLevel = "normal"
	PrivilegePrivileged PrivilegeLevel = "privileged"
)

// Client -> server message types.
const (
	MsgHello            = "hello"
	MsgAction           = "action"
	MsgRequestPrivilege = "requestPrivilege"
	MsgBye              = "bye"
)

// Server -> client message types.
const (
	MsgWelcome          = "welcome"
	MsgStateUpdate      = "stateUpdate"
	MsgActionRejected   = "actionRejected"
	MsgPrivilegeGranted = "privilegeGranted"
	MsgPrivilegeRevoked = "privilegeRevoked"
)

// ClientMessage is the client -> server envelope.
type ClientMessage struct {
	Type   string      `json:"type"`
	Hello  *Hello      `json:"hello,omitempty"`
	Action *WireAction `json:"action,omitempty"`
}

// Hello opens a session: requested instruments are filtered to those not
// yet owned; the remainder are granted.
type Hello struct {
	ClientName           string               `json:"clientName"`
	RequestedInstruments []state.InstrumentId `json:"requestedInstruments"`
	RequestPrivilege     bool                 `json:"requestPrivilege"`
	ReconnectToken       *SessionToken        `json:"reconnectToken,omitempty"`
}

// OwnerInfo names the client holding an instrument.
type OwnerInfo struct {
	Client ClientId `json:"client"`
	Name   string   `json:"name"`
}

// ServerMessage is the server -> client envelope.
type ServerMessage struct {
	Type        string       `json:"type"`
	Welcome     *Welcome     `json:"welcome,omitempty"`
	StateUpdate *StateUpdate `json:"stateUpdate,omitempty"`
	Reason      string       `json:"reason,omitempty"`
}

// Welcome completes the handshake.
type Welcome struct {
	ClientId           ClientId             `json:"clientId"`
	SessionToken       SessionToken         `json:"sessionToken"`
	GrantedInstruments []state.InstrumentId `json:"grantedInstruments"`
	Privilege          PrivilegeLevel       `json:"privilege"`
}

// StateUpdate broadcasts the full session after each applied remote action.
// It is serialized once and the same frame written to every connection.
type StateUpdate struct {
	Session          *state.SessionState     `json:"session"`
	Instruments      *state.InstrumentState  `json:"instruments"`
	Ownership        map[uint32]OwnerInfo    `json:"ownership"`
	PrivilegedClient *ClientId               `json:"privilegedClient,omitempty"`
}

// ClientAction pairs a decoded remote action with its sender.
type ClientAction struct {
	Client ClientId
	Action interface{}
}
