// Package midiconnector enumerates MIDI input devices and turns incoming
// note events into dispatcher actions.
package midiconnector

import (
	"fmt"
	"log"
	"strings"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/mohsenil85/imbolc/internal/action"
)

// Devices lists the names of available MIDI input ports.
func Devices() []string {
	ins := midi.GetInPorts()
	names := make([]string, 0, len(ins))
	for _, in := range ins {
		names = append(names, in.String())
	}
	return names
}

// Listener captures note events from one device and forwards them as
// actions onto the main thread's action queue.
type Listener struct {
	stop func()
}

// Listen opens the named device (prefix/contains matching, like everything
// else that deals with rtmidi's decorated port names) and forwards note
// on/off events for the configured channel (0 = all). emit is called from
// the MIDI driver's callback goroutine; the caller routes into its own
// queue.
func Listen(deviceName string, channel int, emit func(action.Action)) (*Listener, error) {
	in, err := findInPort(deviceName)
	if err != nil {
		return nil, err
	}

	stopFn, err := midi.ListenTo(in, func(msg midi.Message, timestampms int32) {
		var ch, key, vel uint8
		switch {
		case msg.GetNoteStart(&ch, &key, &vel):
			if channel > 0 && int(ch) != channel-1 {
				return
			}
			emit(action.MidiNoteOn{Pitch: key, Velocity: vel})
		case msg.GetNoteEnd(&ch, &key):
			if channel > 0 && int(ch) != channel-1 {
				return
			}
			emit(action.MidiNoteOff{Pitch: key})
		}
	})
	if err != nil {
		return nil, fmt.Errorf("listening to %s: %w", in.String(), err)
	}

	log.Printf("midi: listening on %s (channel %d)", in.String(), channel)
	return &Listener{stop: stopFn}, nil
}

// Close stops listening.
func (l *Listener) Close() {
	if l.stop != nil {
		l.stop()
		l.stop = nil
	}
}

// Cleanup releases the MIDI driver; call once at program exit.
func Cleanup() {
	midi.CloseDriver()
}

func findInPort(name string) (drivers.In, error) {
	ins := midi.GetInPorts()
	if len(ins) == 0 {
		return nil, fmt.Errorf("no MIDI input devices available")
	}
	if name == "" {
		return ins[0], nil
	}
	for _, in := range ins {
		if strings.EqualFold(in.String(), name) {
			return in, nil
		}
	}
	for _, in := range ins {
		if strings.HasPrefix(strings.ToLower(in.String()), strings.ToLower(name)) {
			return in, nil
		}
	}
	for _, in := range ins {
		if strings.Contains(strings.ToLower(in.String()), strings.ToLower(name)) {
			return in, nil
		}
	}
	return nil, fmt.Errorf("could not find MIDI device %q", name)
}
