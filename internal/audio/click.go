package audio

import (
	"time"

	"github.com/hypebeast/go-osc/osc"
)

// tickClick spawns metronome clicks on beat boundaries crossed during this
// tick, using a fractional beat accumulator so no boundary is missed or
// doubled regardless of tick jitter.
func (e *Engine) tickClick(elapsed time.Duration) {
	ct := &e.session.ClickTrack
	pr := &e.session.PianoRoll
	if !ct.Enabled || ct.Muted || !pr.Playing {
		return
	}

	bpm := float64(e.session.Bpm)
	ticksPerBeat := float64(e.session.TicksPerBeat)
	if bpm <= 0 || ticksPerBeat <= 0 {
		return
	}

	beatsPerSecond := bpm / 60.0
	secsPerBeat := 1.0 / beatsPerSecond

	oldAccum := e.clickAccum
	e.clickAccum += elapsed.Seconds() * beatsPerSecond

	beatsPerBar := uint32(e.session.TimeSignature[0])
	tpb := e.session.TicksPerBeat
	ticksPerBar := beatsPerBar * tpb
	if ticksPerBar == 0 {
		return
	}

	// Tick position where the accumulator last stood at zero: the first beat
	// consumed below falls one beat after it.
	baseTick := pr.PlayheadTicks - e.clickAccum*ticksPerBeat

	var beatCount uint32
	for e.clickAccum >= 1.0 {
		e.clickAccum -= 1.0
		beatCount++

		beatTickF := baseTick + float64(beatCount)*ticksPerBeat
		if beatTickF < 0 {
			beatTickF = 0
		}
		beatTick := uint32(beatTickF)
		beatInBar := (beatTick % ticksPerBar) / tpb
		isDownbeat := beatInBar == 0

		offsetSecs := (float64(beatCount) - oldAccum) * secsPerBeat
		if offsetSecs < 0 {
			offsetSecs = 0
		}

		e.spawnClick(isDownbeat, ct.Volume, offsetSecs)
	}
}

// spawnClick emits one click voice. Downbeats get a higher pitch.
func (e *Engine) spawnClick(isDownbeat bool, volume float32, offsetSecs float64) {
	if !e.connected || e.session.Mixer.MasterMute {
		return
	}
	freq := float32(1000)
	if isDownbeat {
		freq = 1500
	}
	msg := osc.NewMessage(cmdSynthNew)
	msg.Append("imbolc_click")
	msg.Append(e.allocNodeId())
	msg.Append(int32(0))
	msg.Append(int32(0))
	msg.Append("freq")
	msg.Append(freq)
	msg.Append("amp")
	msg.Append(volume)
	msg.Append("timingOffset")
	msg.Append(float32(offsetSecs))
	e.builder.Add(msg)
}
