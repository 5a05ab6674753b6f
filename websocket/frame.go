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
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"io"

	liberr "github.com/DreamTraveler233/sylar-sub003/errors"
)

type Opcode uint8

const (
	OpContinuation Opcode = 0x0
	OpText         Opcode = 0x1
	OpBinary       Opcode = 0x2
	OpClose        Opcode = 0x8
	OpPing         Opcode = 0x9
	OpPong         Opcode = 0xA
)

func (o Opcode) isControl() bool { return o >= OpClose }

// Frame is one on-wire WebSocket frame, per spec.md §3.
type Frame struct {
	Fin     bool
	Opcode  Opcode
	Masked  bool
	MaskKey [4]byte
	Payload []byte
}

// Encode serializes f. maskPayload controls whether the payload is XOR
// masked with a freshly generated key — callers set this true only for
// client-originated frames, per spec.md §4.5 ("Client frames MUST be
// masked; server frames MUST NOT").
func Encode(f Frame, maskPayload bool) ([]byte, liberr.Error) {
	if f.Opcode.isControl() {
		if len(f.Payload) > 125 {
			return nil, ErrorControlFrameTooLarge.Error(nil)
		}
		if !f.Fin {
			return nil, ErrorControlFrameFragmented.Error(nil)
		}
	}

	var b bytes.Buffer
	first := byte(f.Opcode) & 0x0f
	if f.Fin {
		first |= 0x80
	}
	b.WriteByte(first)

	length := len(f.Payload)
	maskBit := byte(0)
	if maskPayload {
		maskBit = 0x80
	}
	switch {
	case length <= 125:
		b.WriteByte(maskBit | byte(length))
	case length <= 0xFFFF:
		b.WriteByte(maskBit | 126)
		var ext [2]byte
		binary.BigEndian.PutUint16(ext[:], uint16(length))
		b.Write(ext[:])
	default:
		b.WriteByte(maskBit | 127)
		var ext [8]byte
		binary.BigEndian.PutUint64(ext[:], uint64(length))
		b.Write(ext[:])
	}

	payload := f.Payload
	if maskPayload {
		var key [4]byte
		if _, err := io.ReadFull(rand.Reader, key[:]); err != nil {
			return nil, ErrorInvalidFrame.Error(err)
		}
		b.Write(key[:])
		masked := make([]byte, length)
		for i := range payload {
			masked[i] = payload[i] ^ key[i%4]
		}
		payload = masked
	}
	b.Write(payload)
	return b.Bytes(), nil
}

// Decode reads exactly one frame from r.
func Decode(r io.Reader) (Frame, liberr.Error) {
	var hdr [2]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return Frame{}, ErrorInvalidFrame.Error(err)
	}
	if hdr[0]&0x70 != 0 {
		return Frame{}, ErrorReservedBitsSet.Error(nil)
	}
	f := Frame{
		Fin:    hdr[0]&0x80 != 0,
		Opcode: Opcode(hdr[0] & 0x0f),
		Masked: hdr[1]&0x80 != 0,
	}
	length := int64(hdr[1] & 0x7f)
	switch length {
	case 126:
		var ext [2]byte
		if _, err := io.ReadFull(r, ext[:]); err != nil {
			return Frame{}, ErrorInvalidFrame.Error(err)
		}
		length = int64(binary.BigEndian.Uint16(ext[:]))
	case 127:
		var ext [8]byte
		if _, err := io.ReadFull(r, ext[:]); err != nil {
			return Frame{}, ErrorInvalidFrame.Error(err)
		}
		length = int64(binary.BigEndian.Uint64(ext[:]))
		if length < 0 {
			return Frame{}, ErrorInvalidFrame.Error(nil)
		}
	}
	if f.Opcode.isControl() {
		if length > 125 {
			return Frame{}, ErrorControlFrameTooLarge.Error(nil)
		}
		if !f.Fin {
			return Frame{}, ErrorControlFrameFragmented.Error(nil)
		}
	}
	if f.Masked {
		if _, err := io.ReadFull(r, f.MaskKey[:]); err != nil {
			return Frame{}, ErrorInvalidFrame.Error(err)
		}
	}
	payload := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return Frame{}, ErrorInvalidFrame.Error(err)
		}
	}
	if f.Masked {
		for i := range payload {
			payload[i] ^= f.MaskKey[i%4]
		}
	}
	f.Payload = payload
	return f, nil
}
