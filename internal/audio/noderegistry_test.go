package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mohsenil85/imbolc/internal/action"
)

func TestRegisterAndUnregister(t *testing.T) {
	reg := NewNodeRegistry()
	reg.Register(100)
	assert.True(t, reg.IsLive(100))
	assert.Equal(t, 1, reg.LiveCount())

	reg.Unregister(100)
	assert.False(t, reg.IsLive(100))
	assert.Equal(t, 0, reg.LiveCount())
}

func TestRegisterUnregisterLeavesCountUnchanged(t *testing.T) {
	reg := NewNodeRegistry()
	reg.Register(1)
	before := reg.LiveCount()
	reg.Register(42)
	reg.Unregister(42)
	assert.Equal(t, before, reg.LiveCount())
}

func TestInvalidateAllClearsEverything(t *testing.T) {
	reg := NewNodeRegistry()
	reg.Register(1)
	reg.Register(2)
	reg.Register(3)
	assert.Equal(t, 3, reg.LiveCount())

	reg.InvalidateAll()
	assert.Equal(t, 0, reg.LiveCount())
	assert.False(t, reg.IsLive(1))
}

func TestCheckNodeReturnsFalseForUnknown(t *testing.T) {
	reg := NewNodeRegistry()
	assert.False(t, reg.CheckNode(999))
}

func TestCheckNodeReturnsTrueForLive(t *testing.T) {
	reg := NewNodeRegistry()
	reg.Register(42)
	assert.True(t, reg.CheckNode(42))
}

// Crash recovery: after a ServerCrashed event every previously registered
// node must be reported dead.
func TestCrashRecovery(t *testing.T) {
	engine := NewEngine(nil)
	for _, node := range []int32{100, 101, 102} {
		engine.registry.Register(node)
	}
	assert.Equal(t, 3, engine.registry.LiveCount())

	engine.Cmds() <- CmdServerCrashed{Message: "scsynth died"}
	engine.Tick(0)

	assert.Equal(t, 0, engine.registry.LiveCount())
	for _, node := range []int32{100, 101, 102} {
		assert.False(t, engine.registry.CheckNode(node))
	}

	// The crash is surfaced to the main thread.
	var sawCrash bool
	for done := false; !done; {
		select {
		case fb := <-engine.Feedback():
			if _, ok := fb.(action.ServerCrashed); ok {
				sawCrash = true
			}
		default:
			done = true
		}
	}
	assert.True(t, sawCrash)
}
