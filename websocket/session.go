/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package websocket

import (
	"net"

	liberr "github.com/DreamTraveler233/sylar-sub003/errors"
)

// Message is a logical WSFrameMessage: the concatenation of frames sharing
// one opcode up to and including the FIN frame, per spec.md §3.
type Message struct {
	Opcode  Opcode
	Payload []byte
}

// Conn is a WebSocket connection whose handshake is already completed,
// now exchanging frames; client selects whether outgoing frames are masked.
type Conn struct {
	nc     net.Conn
	client bool // true: mask outgoing frames, per spec.md §4.5
}

func NewConn(nc net.Conn, client bool) *Conn {
	return &Conn{nc: nc, client: client}
}

// SendMessage emits a single frame unless the caller wants to fragment
// manually via SendFrame.
func (c *Conn) SendMessage(payload []byte, op Opcode, fin bool) liberr.Error {
	return c.SendFrame(Frame{Fin: fin, Opcode: op, Payload: payload})
}

func (c *Conn) SendFrame(f Frame) liberr.Error {
	raw, e := Encode(f, c.client)
	if e != nil {
		return e
	}
	if _, err := c.nc.Write(raw); err != nil {
		return ErrorInvalidFrame.Error(err)
	}
	return nil
}

func (c *Conn) Ping(payload []byte) liberr.Error {
	return c.SendFrame(Frame{Fin: true, Opcode: OpPing, Payload: payload})
}

func (c *Conn) Pong(payload []byte) liberr.Error {
	return c.SendFrame(Frame{Fin: true, Opcode: OpPong, Payload: payload})
}

// ReadMessage assembles frames until a FIN is seen, auto-responding to
// unsolicited PINGs with a PONG carrying the same payload, per spec.md
// §4.5. Returns the first non-control logical message; a CLOSE frame ends
// the read with an empty Message and a nil error.
func (c *Conn) ReadMessage() (Message, liberr.Error) {
	var msg Message
	started := false
	for {
		f, e := Decode(c.nc)
		if e != nil {
			return Message{}, e
		}
		switch f.Opcode {
		case OpPing:
			if e := c.Pong(f.Payload); e != nil {
				return Message{}, e
			}
			continue
		case OpPong:
			continue
		case OpClose:
			return Message{}, nil
		}
		if !started {
			msg.Opcode = f.Opcode
			started = true
		}
		msg.Payload = append(msg.Payload, f.Payload...)
		if f.Fin {
			return msg, nil
		}
	}
}

func (c *Conn) Close() error { return c.nc.Close() }
