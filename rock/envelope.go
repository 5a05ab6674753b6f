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

package rock

import (
	"encoding/binary"

	"github.com/google/uuid"

	"github.com/DreamTraveler233/sylar-sub003/bytearray"
	liberr "github.com/DreamTraveler233/sylar-sub003/errors"
	"github.com/DreamTraveler233/sylar-sub003/netstream"
)

// MagicHeader and WireVersion are the bit-exact constants from spec.md §6.
const (
	MagicHeader   uint16 = 0xABCD
	WireVersion   uint8  = 0x01
	headerSize           = 8
	DefaultMaxFrame = 4 << 20
)

type FrameType uint8

const (
	TypeRequest  FrameType = 1
	TypeResponse FrameType = 2
	TypeNotify   FrameType = 3
)

// Envelope is the C9 body payload: sn, cmd, optional result/result_str,
// opaque body, optional trace_id, per spec.md §3.
type Envelope struct {
	Sn        uint32
	Cmd       uint32
	Result    uint32
	ResultStr string
	TraceID   string
	Body      []byte
}

// Encode serializes an Envelope via the byte-buffer contract (varint
// integers, vint length-prefixed strings), per spec.md §6.
func (e Envelope) Encode() []byte {
	ba := bytearray.New(0)
	ba.WriteUint32(e.Sn)
	ba.WriteUint32(e.Cmd)
	ba.WriteUint32(e.Result)
	ba.WriteStringVint(e.ResultStr)
	ba.WriteStringVint(e.TraceID)
	ba.WriteStringVint(string(e.Body))
	return ba.Bytes()
}

func DecodeEnvelope(raw []byte) (Envelope, liberr.Error) {
	ba := bytearray.New(0)
	if _, err := ba.Write(raw); err != nil {
		return Envelope{}, liberr.UnknownError.Error(err)
	}
	ba.SetPosition(0)
	var e Envelope
	var le liberr.Error
	if e.Sn, le = ba.ReadUint32(); le != nil {
		return e, le
	}
	if e.Cmd, le = ba.ReadUint32(); le != nil {
		return e, le
	}
	if e.Result, le = ba.ReadUint32(); le != nil {
		return e, le
	}
	if e.ResultStr, le = ba.ReadStringVint(); le != nil {
		return e, le
	}
	if e.TraceID, le = ba.ReadStringVint(); le != nil {
		return e, le
	}
	body, le := ba.ReadStringVint()
	if le != nil {
		return e, le
	}
	e.Body = []byte(body)
	return e, nil
}

// NewTraceID generates a fresh trace identifier for an outbound request.
func NewTraceID() string { return uuid.NewString() }

// Frame is one on-wire Rock message: the 8-byte fixed header plus its
// encoded Envelope body.
type Frame struct {
	Type FrameType
	Env  Envelope
}

// WriteFrame serializes and writes f to stream.
func WriteFrame(stream *netstream.Stream, f Frame) liberr.Error {
	body := f.Env.Encode()
	hdr := make([]byte, headerSize)
	binary.BigEndian.PutUint16(hdr[0:2], MagicHeader)
	hdr[2] = WireVersion
	hdr[3] = byte(f.Type)
	binary.BigEndian.PutUint32(hdr[4:8], uint32(len(body)))

	if _, e := stream.WriteFixSize(hdr); e != nil {
		return e
	}
	if _, e := stream.WriteFixSize(body); e != nil {
		return e
	}
	return nil
}

// ReadFrame reads and validates one frame's fixed header, then its body,
// enforcing maxFrame as the per-connection size cap from spec.md §4.7.
func ReadFrame(stream *netstream.Stream, maxFrame int) (Frame, liberr.Error) {
	hdr := make([]byte, headerSize)
	if _, e := stream.ReadFixSize(hdr); e != nil {
		return Frame{}, e
	}
	magic := binary.BigEndian.Uint16(hdr[0:2])
	if magic != MagicHeader {
		return Frame{}, ErrorBadMagic.Error(nil)
	}
	if hdr[2] != WireVersion {
		return Frame{}, ErrorBadVersion.Error(nil)
	}
	typ := FrameType(hdr[3])
	if typ != TypeRequest && typ != TypeResponse && typ != TypeNotify {
		return Frame{}, ErrorUnknownType.Error(nil)
	}
	length := binary.BigEndian.Uint32(hdr[4:8])
	if maxFrame > 0 && int(length) > maxFrame {
		return Frame{}, ErrorFrameTooLarge.Error(nil)
	}
	body := make([]byte, length)
	if length > 0 {
		if _, e := stream.ReadFixSize(body); e != nil {
			return Frame{}, e
		}
	}
	env, e := DecodeEnvelope(body)
	if e != nil {
		return Frame{}, e
	}
	return Frame{Type: typ, Env: env}, nil
}
