package audio

import (
	"log"
	"time"
)

// NodeRegistry is a best-effort set of synth nodes believed to be alive on
// the server. It is not authoritative — the server is — but when scsynth
// crashes mid-session, InvalidateAll clears the set so subsequent CheckNode
// calls surface stale-node warnings instead of silently sending OSC to dead
// nodes.
type NodeRegistry struct {
	liveNodes map[int32]struct{}
	createdAt map[int32]time.Time
}

func NewNodeRegistry() *NodeRegistry {
	return &NodeRegistry{
		liveNodes: make(map[int32]struct{}),
		createdAt: make(map[int32]time.Time),
	}
}

// Register records that a node has been created on the server.
func (r *NodeRegistry) Register(nodeId int32) {
	r.liveNodes[nodeId] = struct{}{}
	r.createdAt[nodeId] = time.Now()
}

// Unregister records that a node has been freed (or is about to be freed).
func (r *NodeRegistry) Unregister(nodeId int32) {
	delete(r.liveNodes, nodeId)
	delete(r.createdAt, nodeId)
}

// InvalidateAll marks every node as dead (e.g. after a server crash).
func (r *NodeRegistry) InvalidateAll() {
	r.liveNodes = make(map[int32]struct{})
	r.createdAt = make(map[int32]time.Time)
}

// LiveCount returns the number of nodes currently believed alive.
func (r *NodeRegistry) LiveCount() int {
	return len(r.liveNodes)
}

// IsLive reports whether the node is tracked as alive.
func (r *NodeRegistry) IsLive(nodeId int32) bool {
	_, ok := r.liveNodes[nodeId]
	return ok
}

// CheckNode returns true when the node is tracked as live; otherwise it logs
// a warning and returns false.
func (r *NodeRegistry) CheckNode(nodeId int32) bool {
	if r.IsLive(nodeId) {
		return true
	}
	log.Printf("audio: node %d is not tracked as live", nodeId)
	return false
}
