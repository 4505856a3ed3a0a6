package netproto

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mohsenil85/imbolc/internal/action"
	"github.com/mohsenil85/imbolc/internal/state"
)

func TestRoundtripString(t *testing.T) {
	var buf bytes.Buffer
	assert.NoError(t, WriteMessage(&buf, "hello world"))

	var out string
	assert.NoError(t, ReadMessage(&buf, &out))
	assert.Equal(t, "hello world", out)
}

func TestRoundtripStruct(t *testing.T) {
	type testMsg struct {
		Id   uint32 `json:"id"`
		Name string `json:"name"`
	}
	msg := testMsg{Id: 42, Name: "test"}

	var buf bytes.Buffer
	assert.NoError(t, WriteMessage(&buf, &msg))

	var out testMsg
	assert.NoError(t, ReadMessage(&buf, &out))
	assert.Equal(t, msg, out)
}

func TestSerializeFrameMatchesWriteMessage(t *testing.T) {
	msg := ClientMessage{Type: MsgRequestPrivilege}

	frame, err := SerializeFrame(&msg)
	assert.NoError(t, err)

	var buf bytes.Buffer
	assert.NoError(t, WriteMessage(&buf, &msg))
	assert.Equal(t, buf.Bytes(), frame)
}

func TestWriteRawFrameRoundtrip(t *testing.T) {
	frame, err := SerializeFrame("raw frame test")
	assert.NoError(t, err)

	var buf bytes.Buffer
	assert.NoError(t, WriteRawFrame(&buf, frame))

	var out string
	assert.NoError(t, ReadMessage(&buf, &out))
	assert.Equal(t, "raw frame test", out)
}

func TestOversizedFrameRejected(t *testing.T) {
	// Header claiming 200 MB.
	buf := bytes.NewBuffer([]byte{0x0B, 0xEB, 0xC2, 0x00})
	var out string
	err := ReadMessage(buf, &out)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
}

func TestActionCodecRoundtrip(t *testing.T) {
	cases := []action.Action{
		action.ToggleNote{Track: 1, Pitch: 60, Tick: 480, Duration: 240, Velocity: 100},
		action.AdjustInstrumentLevel{Id: 3, Delta: -0.25},
		action.RemoveBus{Bus: state.BusId(2)},
		action.PlayStop{},
		action.PasteNotes{
			Track:       0,
			AnchorTick:  100,
			AnchorPitch: 64,
			Notes:       []action.ClipboardNote{{TickOffset: 10, PitchOffset: -2, Duration: 50, Velocity: 90}},
		},
		action.Undo{},
	}

	for _, original := range cases {
		wire, err := EncodeAction(original)
		assert.NoError(t, err)

		// Through the frame layer and back, bit-exact.
		var buf bytes.Buffer
		assert.NoError(t, WriteMessage(&buf, &ClientMessage{Type: MsgAction, Action: wire}))
		var msg ClientMessage
		assert.NoError(t, ReadMessage(&buf, &msg))

		decoded, err := DecodeAction(msg.Action)
		assert.NoError(t, err)
		assert.Equal(t, original, decoded)
	}
}

func TestDecodeUnknownActionFails(t *testing.T) {
	_, err := DecodeAction(&WireAction{Name: "NoSuchAction", Data: []byte("{}")})
	assert.Error(t, err)
}
