package audio

import (
	"sort"
	"time"
)

// tickBufferSize is the ring size for tick duration samples.
const tickBufferSize = 256

// Telemetry collects tick-duration metrics in a fixed-size ring buffer.
// Everything is allocation-free so it can run inside the audio tick.
type Telemetry struct {
	tickDurationsUs [tickBufferSize]uint32
	sortScratch     [tickBufferSize]uint32
	tickIdx         int
	maxTickUs       uint32
	overrunCount    uint64
	sampleCount     int
}

// Record stores one tick duration. budgetUs is the target tick budget in
// microseconds; exceeding it counts as an overrun.
func (t *Telemetry) Record(d time.Duration, budgetUs uint32) {
	us := uint32(d.Microseconds())

	t.tickDurationsUs[t.tickIdx] = us
	t.tickIdx = (t.tickIdx + 1) % tickBufferSize

	if t.sampleCount < tickBufferSize {
		t.sampleCount++
	}
	if us > t.maxTickUs {
		t.maxTickUs = us
	}
	if us > budgetUs {
		t.overrunCount++
	}
}

// TakeSummary returns (avg, max, p95, overruns) over the current window and
// resets the max for the next window. The overrun count stays cumulative.
func (t *Telemetry) TakeSummary() (avg, max, p95 uint32, overruns uint64) {
	if t.sampleCount == 0 {
		return 0, 0, 0, t.overrunCount
	}

	var sum uint64
	for _, us := range t.tickDurationsUs[:t.sampleCount] {
		sum += uint64(us)
	}
	avg = uint32(sum / uint64(t.sampleCount))

	copy(t.sortScratch[:t.sampleCount], t.tickDurationsUs[:t.sampleCount])
	window := t.sortScratch[:t.sampleCount]
	sort.Slice(window, func(i, j int) bool { return window[i] < window[j] })
	p95Idx := t.sampleCount * 95 / 100
	if p95Idx > 0 {
		p95Idx--
	}
	if p95Idx >= t.sampleCount {
		p95Idx = t.sampleCount - 1
	}
	p95 = window[p95Idx]

	max = t.maxTickUs
	overruns = t.overrunCount
	t.maxTickUs = 0

	return avg, max, p95, overruns
}
