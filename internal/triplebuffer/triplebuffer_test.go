package triplebuffer

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmptyReadReturnsNothing(t *testing.T) {
	tb := New[int]()
	_, ok := tb.TryRead()
	assert.False(t, ok)
}

func TestWriteThenRead(t *testing.T) {
	tb := New[int]()
	tb.Write(42)
	v, ok := tb.TryRead()
	assert.True(t, ok)
	assert.Equal(t, 42, v)

	// Second read without a new write returns nothing fresh.
	_, ok = tb.TryRead()
	assert.False(t, ok)
	assert.Equal(t, 42, tb.Front())
}

func TestReaderSeesNewestPublish(t *testing.T) {
	tb := New[int]()
	tb.Write(1)
	tb.Write(2)
	tb.Write(3)
	v, ok := tb.TryRead()
	assert.True(t, ok)
	assert.Equal(t, 3, v)
}

func TestPublishCountMonotonic(t *testing.T) {
	tb := New[int]()
	assert.Equal(t, uint64(0), tb.Published())
	tb.Write(1)
	tb.Write(2)
	assert.Equal(t, uint64(2), tb.Published())
}

// Reads racing writes must always observe monotonically nondecreasing
// values, never torn or stale-after-fresh ones.
func TestConcurrentMonotonicReads(t *testing.T) {
	tb := New[uint64]()
	const writes = 100000

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := uint64(1); i <= writes; i++ {
			tb.Write(i)
		}
	}()

	var violations int
	go func() {
		defer wg.Done()
		var last uint64
		for last < writes {
			v, ok := tb.TryRead()
			if !ok {
				continue
			}
			if v < last {
				violations++
			}
			last = v
		}
	}()

	wg.Wait()
	assert.Zero(t, violations, "reader observed an older snapshot after a newer one")
}
