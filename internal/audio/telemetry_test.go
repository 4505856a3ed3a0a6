package audio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTelemetryBasic(t *testing.T) {
	var tel Telemetry
	tel.Record(100*time.Microsecond, 500)
	tel.Record(200*time.Microsecond, 500)
	tel.Record(300*time.Microsecond, 500)

	avg, max, _, overruns := tel.TakeSummary()
	assert.Equal(t, uint32(200), avg)
	assert.Equal(t, uint32(300), max)
	assert.Equal(t, uint64(0), overruns)
}

func TestTelemetryOverruns(t *testing.T) {
	var tel Telemetry
	tel.Record(400*time.Microsecond, 500)
	tel.Record(600*time.Microsecond, 500)
	tel.Record(800*time.Microsecond, 500)

	_, _, _, overruns := tel.TakeSummary()
	assert.Equal(t, uint64(2), overruns)

	// Overruns are cumulative across windows, max is not.
	tel.Record(100*time.Microsecond, 500)
	_, max, _, overruns := tel.TakeSummary()
	assert.Equal(t, uint64(2), overruns)
	assert.Equal(t, uint32(100), max)
}

func TestTelemetryEmpty(t *testing.T) {
	var tel Telemetry
	avg, max, p95, overruns := tel.TakeSummary()
	assert.Zero(t, avg)
	assert.Zero(t, max)
	assert.Zero(t, p95)
	assert.Zero(t, overruns)
}

func TestTelemetryRingWraps(t *testing.T) {
	var tel Telemetry
	for i := 0; i < tickBufferSize*2; i++ {
		tel.Record(50*time.Microsecond, 500)
	}
	avg, _, p95, _ := tel.TakeSummary()
	assert.Equal(t, uint32(50), avg)
	assert.Equal(t, uint32(50), p95)
}
