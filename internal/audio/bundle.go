package audio

import (
	"time"

	"github.com/hypebeast/go-osc/osc"
)

// Server command addresses (OSC 1.0, scsynth command set).
const (
	cmdSynthNew    = "/s_new"
	cmdNodeFree    = "/n_free"
	cmdNodeSet     = "/n_set"
	cmdControlSet  = "/c_set"
	cmdBufferAlloc = "/b_alloc"
	cmdBufferRead  = "/b_read"
	cmdBufferFree  = "/b_free"
	cmdDefLoad     = "/d_load"
	cmdDefLoadDir  = "/d_loadDir"
	cmdGroupNew    = "/g_new"
	cmdUgenCmd     = "/u_cmd"
)

// VST ugen selectors for /u_cmd.
const (
	vstSelMidiMsg      = "/midi_msg"
	vstSelSet          = "/set"
	vstSelParamCount   = "/param_count"
	vstSelParamQuery   = "/param_query"
	vstSelParamInfo    = "/param_info"
	vstSelProgramRead  = "/program_read"
	vstSelProgramWrite = "/program_write"
)

// BundleBuilder accumulates one audio tick's commands into a single
// timestamped bundle. The message slice is reused across ticks so the only
// per-tick allocation is the encoded frame handed to the sender.
type BundleBuilder struct {
	messages []*osc.Message
}

func NewBundleBuilder() *BundleBuilder {
	return &BundleBuilder{messages: make([]*osc.Message, 0, 64)}
}

// Reset clears accumulated messages for the next tick.
func (b *BundleBuilder) Reset() {
	b.messages = b.messages[:0]
}

// Len returns the number of pending messages.
func (b *BundleBuilder) Len() int {
	return len(b.messages)
}

// Add appends a raw message.
func (b *BundleBuilder) Add(msg *osc.Message) {
	b.messages = append(b.messages, msg)
}

// SynthNew spawns a synth node. Param pairs are (name, value) with float32
// values.
func (b *BundleBuilder) SynthNew(defName string, nodeId, group int32, params ...interface{}) {
	msg := osc.NewMessage(cmdSynthNew)
	msg.Append(defName)
	msg.Append(nodeId)
	msg.Append(int32(0)) // add to head
	msg.Append(group)
	for _, p := range params {
		msg.Append(p)
	}
	b.Add(msg)
}

// NodeSet sets controls on an existing node.
func (b *BundleBuilder) NodeSet(nodeId int32, params ...interface{}) {
	msg := osc.NewMessage(cmdNodeSet)
	msg.Append(nodeId)
	for _, p := range params {
		msg.Append(p)
	}
	b.Add(msg)
}

// NodeFree frees a node.
func (b *BundleBuilder) NodeFree(nodeId int32) {
	msg := osc.NewMessage(cmdNodeFree)
	msg.Append(nodeId)
	b.Add(msg)
}

// ControlSet sets a control bus value.
func (b *BundleBuilder) ControlSet(bus int32, value float32) {
	msg := osc.NewMessage(cmdControlSet)
	msg.Append(bus)
	msg.Append(value)
	b.Add(msg)
}

// GroupNew creates a group node.
func (b *BundleBuilder) GroupNew(groupId, target int32) {
	msg := osc.NewMessage(cmdGroupNew)
	msg.Append(groupId)
	msg.Append(int32(0))
	msg.Append(target)
	b.Add(msg)
}

// BufferAlloc allocates a server buffer.
func (b *BundleBuilder) BufferAlloc(bufNum, frames, channels int32) {
	msg := osc.NewMessage(cmdBufferAlloc)
	msg.Append(bufNum)
	msg.Append(frames)
	msg.Append(channels)
	b.Add(msg)
}

// BufferRead reads a sound file into a buffer.
func (b *BundleBuilder) BufferRead(bufNum int32, path string) {
	msg := osc.NewMessage(cmdBufferRead)
	msg.Append(bufNum)
	msg.Append(path)
	msg.Append(int32(0))  // start frame
	msg.Append(int32(-1)) // whole file
	b.Add(msg)
}

// BufferFree frees a server buffer.
func (b *BundleBuilder) BufferFree(bufNum int32) {
	msg := osc.NewMessage(cmdBufferFree)
	msg.Append(bufNum)
	b.Add(msg)
}

// DefLoadDir asks the server to load every synthdef under a directory.
func (b *BundleBuilder) DefLoadDir(dir string) {
	msg := osc.NewMessage(cmdDefLoadDir)
	msg.Append(dir)
	b.Add(msg)
}

// UgenCmd sends a /u_cmd to a unit (used for VST hosting).
func (b *BundleBuilder) UgenCmd(nodeId, ugenIdx int32, selector string, args ...interface{}) {
	msg := osc.NewMessage(cmdUgenCmd)
	msg.Append(nodeId)
	msg.Append(ugenIdx)
	msg.Append(selector)
	for _, a := range args {
		msg.Append(a)
	}
	b.Add(msg)
}

// VstMidiMsg sends a 3-byte MIDI message into a VST node.
func (b *BundleBuilder) VstMidiMsg(nodeId int32, status, data1, data2 byte) {
	b.UgenCmd(nodeId, 0, vstSelMidiMsg, []byte{status, data1, data2})
}

// VstSetParam sets one normalized VST parameter.
func (b *BundleBuilder) VstSetParam(nodeId int32, index int32, value float32) {
	b.UgenCmd(nodeId, 0, vstSelSet, index, value)
}

// VstParamQuery asks the plugin to report a parameter range.
func (b *BundleBuilder) VstParamQuery(nodeId int32, from, count int32) {
	b.UgenCmd(nodeId, 0, vstSelParamQuery, from, count)
}

// VstProgramRead loads a plugin program file.
func (b *BundleBuilder) VstProgramRead(nodeId int32, path string) {
	b.UgenCmd(nodeId, 0, vstSelProgramRead, path)
}

// VstProgramWrite saves the plugin's current program to a file.
func (b *BundleBuilder) VstProgramWrite(nodeId int32, path string) {
	b.UgenCmd(nodeId, 0, vstSelProgramWrite, path)
}

// Encode marshals all pending messages into one bundle stamped at the given
// absolute time (now + lookahead). Returns nil if the bundle is empty.
func (b *BundleBuilder) Encode(at time.Time) []byte {
	if len(b.messages) == 0 {
		return nil
	}
	bundle := osc.NewBundle(at)
	for _, m := range b.messages {
		if err := bundle.Append(m); err != nil {
			continue
		}
	}
	data, err := bundle.MarshalBinary()
	if err != nil {
		return nil
	}
	return data
}
