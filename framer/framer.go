// Package framer implements the GSM 07.10 multiplexing codec: byte-accurate
// frame/deframe over a raw stream, CRC validation, and the command-line
// extraction shared by both framed and raw transport.
package framer

import (
	"errors"
	"fmt"

	"github.com/sandia-minimega/phonesim/atutil"
)

const (
	// Flag delimits every frame, and runs of it between frames are filler.
	Flag = 0xF9

	// MaxPayload is the largest payload a single basic-option frame may
	// carry; longer writes are chunked by the caller.
	MaxPayload = 31

	// Frame types (PF bit, 0x10, stripped before comparing).
	TypeUI  = 0x03
	TypeUIH = 0xEF

	pfBit = 0x10

	// bufferCap bounds the incoming/line buffers; overflow bytes are
	// silently dropped rather than growing the buffer without limit.
	bufferCap = 4096
)

// discPayload is the channel-0 UIH payload that signals DISC (deactivate
// multiplexing) in this simulator's dialect of 07.10.
var discPayload = []byte{0xC3, 0x01}

// StripPF masks off the poll/final bit so frame types can be compared
// regardless of its setting.
func StripPF(ctrl byte) byte {
	return ctrl &^ pfBit
}

// Frame is one decoded 07.10 frame.
type Frame struct {
	Channel int
	Type    byte // PF-stripped
	Payload []byte
}

// EncodeFrame builds one basic-option, short-header frame. payload must be
// at most MaxPayload bytes.
func EncodeFrame(channel int, frameType byte, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayload {
		return nil, fmt.Errorf("framer: payload of %d bytes exceeds max %d", len(payload), MaxPayload)
	}
	addr := byte((channel << 2) | (1 << 1) | 1)
	ctrl := frameType
	lenByte := byte((len(payload) << 1) | 1)
	crc := atutil.CRC(addr, ctrl, lenByte)

	out := make([]byte, 0, 6+len(payload))
	out = append(out, Flag, addr, ctrl, lenByte)
	out = append(out, payload...)
	out = append(out, crc, Flag)
	return out, nil
}

// parseResult classifies one attempt at locating a frame at the front of
// buf.
type parseResult int

const (
	resultNeedMore parseResult = iota
	resultGarbage
	resultOK
)

var errNeedMore = errors.New("framer: incomplete frame")

// parseFrame looks for one frame starting at the first Flag byte.
// consumed is how many leading bytes of buf to drop regardless of result
// (skipped filler/garbage, or the whole parsed frame on success).
func parseFrame(buf []byte) (frame Frame, consumed int, result parseResult) {
	start := 0
	for start < len(buf) && buf[start] != Flag {
		start++
	}
	if start > 0 {
		return Frame{}, start, resultGarbage
	}
	if len(buf) < 1 {
		return Frame{}, 0, resultNeedMore
	}
	// skip a run of consecutive flags (inter-frame filler)
	i := 0
	for i < len(buf) && buf[i] == Flag {
		i++
	}
	if i >= len(buf) {
		return Frame{}, i, resultNeedMore
	}
	// i now indexes the address byte of a candidate frame
	if i+3 > len(buf) {
		return Frame{}, i, resultNeedMore
	}
	addr := buf[i]
	ctrl := buf[i+1]
	lenByte := buf[i+2]
	if addr&1 == 0 || lenByte&1 == 0 {
		// EA flag unset: not a short-header frame we understand
		return Frame{}, i + 1, resultGarbage
	}
	length := int(lenByte >> 1)
	need := i + 3 + length + 2 // header + payload + crc + closing flag
	if need > len(buf) {
		return Frame{}, i, resultNeedMore
	}
	payload := buf[i+3 : i+3+length]
	gotCRC := buf[i+3+length]
	wantCRC := atutil.CRC(addr, ctrl, lenByte)
	if gotCRC != wantCRC {
		return Frame{}, i + 3 + length + 1, resultGarbage
	}
	if buf[i+3+length+1] != Flag {
		return Frame{}, i + 3 + length + 1, resultGarbage
	}
	f := Frame{
		Channel: int(addr >> 2),
		Type:    StripPF(ctrl),
		Payload: append([]byte(nil), payload...),
	}
	return f, need, resultOK
}

// Command is one extracted, line-terminated AT command, tagged with the
// multiplexer channel it arrived on (1 when GSM 07.10 is not enabled).
type Command struct {
	Channel int
	Text    string
}

// Codec owns the incoming/line buffers and 07.10 enable state for one
// session, and turns raw inbound bytes into complete commands.
type Codec struct {
	Enabled        bool
	CurrentChannel int

	incoming []byte
	line     []byte
}

// NewCodec returns a disabled codec defaulting to channel 1.
func NewCodec() *Codec {
	return &Codec{CurrentChannel: 1}
}

// Feed appends raw bytes read from the transport and returns every command
// line they complete, in order. Malformed frames and stray bytes are
// dropped silently: they are not logged and nothing about them is
// returned.
func (c *Codec) Feed(data []byte) []Command {
	if !c.Enabled {
		return c.feedRaw(data)
	}
	return c.feedFramed(data)
}

func (c *Codec) feedRaw(data []byte) []Command {
	var cmds []Command
	for _, b := range data {
		cmds = append(cmds, c.appendLineByte(c.CurrentChannel, b)...)
	}
	return cmds
}

func (c *Codec) feedFramed(data []byte) []Command {
	c.incoming = appendBounded(c.incoming, data)

	var cmds []Command
	for {
		if len(c.incoming) == 0 {
			break
		}
		frame, consumed, result := parseFrame(c.incoming)
		if result == resultNeedMore {
			break
		}
		c.incoming = c.incoming[consumed:]
		if result != resultOK {
			continue
		}

		if frame.Type != TypeUI && frame.Type != TypeUIH {
			continue
		}
		if frame.Channel == 0 && bytesEqual(frame.Payload, discPayload) {
			c.Enabled = false
			// skip a trailing flag byte if one is sitting at the front
			// of the remaining stream, then resume as raw text.
			if len(c.incoming) > 0 && c.incoming[0] == Flag {
				c.incoming = c.incoming[1:]
			}
			cmds = append(cmds, c.feedRaw(c.incoming)...)
			c.incoming = nil
			break
		}

		for _, b := range frame.Payload {
			cmds = append(cmds, c.appendLineByte(frame.Channel, b)...)
		}
	}
	return cmds
}

// appendLineByte feeds one byte into the shared line buffer, tagging
// completed commands with channel, and implements the \r, \n, \r\n, 0x1A
// terminator rules.
func (c *Codec) appendLineByte(channel int, b byte) []Command {
	const (
		cr  = '\r'
		lf  = '\n'
		sub = 0x1A
	)
	if b == cr || b == lf || b == sub {
		if len(c.line) == 0 {
			// bare terminator with nothing buffered: ignore, except
			// 0x1A which always completes (possibly empty) input.
			if b != sub {
				return nil
			}
		}
		text := string(c.line)
		c.line = c.line[:0]
		return []Command{{Channel: channel, Text: text}}
	}
	if len(c.line) >= bufferCap {
		return nil // overflow: drop silently
	}
	c.line = append(c.line, b)
	return nil
}

// EncodeOutbound splits payload into <=MaxPayload chunks and frames each as
// UIH on channel, or returns payload unchanged when 07.10 is disabled.
func (c *Codec) EncodeOutbound(channel int, payload []byte) ([]byte, error) {
	if !c.Enabled {
		return payload, nil
	}
	var out []byte
	for len(payload) > 0 {
		n := len(payload)
		if n > MaxPayload {
			n = MaxPayload
		}
		chunk, err := EncodeFrame(channel, TypeUIH, payload[:n])
		if err != nil {
			return nil, err
		}
		out = append(out, chunk...)
		payload = payload[n:]
	}
	if len(out) == 0 {
		// still emit an empty frame so a zero-length write is observable
		chunk, err := EncodeFrame(channel, TypeUIH, nil)
		if err != nil {
			return nil, err
		}
		out = chunk
	}
	return out, nil
}

func appendBounded(buf, data []byte) []byte {
	buf = append(buf, data...)
	if len(buf) > bufferCap {
		buf = buf[len(buf)-bufferCap:]
	}
	return buf
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
