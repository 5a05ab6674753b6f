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

package bytearray

import (
	"encoding/binary"
	"math"
	"os"

	liberr "github.com/DreamTraveler233/sylar-sub003/errors"
)

// DefaultBaseSize is the default size of a single chain node, in bytes.
const DefaultBaseSize = 4096

// node is one fixed-size block in the chain backing a ByteArray.
type node struct {
	buf  []byte
	next *node
}

// ByteArray is a logical byte stream with independent read/write cursors,
// backed by a singly linked chain of fixed-size nodes. It is not safe for
// concurrent use: callers must serialize access, matching the ownership
// rules of the surrounding socket-stream / session types.
type ByteArray struct {
	baseSize int
	root     *node
	curNode  *node // node currently addressed by position
	curIdx   int   // offset of position within curNode
	position int   // read/write cursor
	size     int   // high-water mark of data written
	capacity int   // total capacity across all nodes
	bigE     bool  // true = big endian, false = little endian
}

// New creates a ByteArray whose chain nodes are baseSize bytes each.
// A baseSize <= 0 selects DefaultBaseSize.
func New(baseSize int) *ByteArray {
	if baseSize <= 0 {
		baseSize = DefaultBaseSize
	}

	root := &node{buf: make([]byte, baseSize)}

	return &ByteArray{
		baseSize: baseSize,
		root:     root,
		curNode:  root,
		capacity: baseSize,
		bigE:     true,
	}
}

// SetLittleEndian switches the integer codecs to little-endian. Must not be
// called while a multi-byte value is partway through being read or written.
func (b *ByteArray) SetLittleEndian() { b.bigE = false }

// SetBigEndian switches the integer codecs to big-endian (the default).
func (b *ByteArray) SetBigEndian() { b.bigE = true }

// IsLittleEndian reports the current endianness.
func (b *ByteArray) IsLittleEndian() bool { return !b.bigE }

// Size returns the high-water mark of data written to the buffer.
func (b *ByteArray) Size() int { return b.size }

// Position returns the current read/write cursor.
func (b *ByteArray) Position() int { return b.position }

// Capacity returns the total allocated capacity across all chain nodes.
func (b *ByteArray) Capacity() int { return b.capacity }

// Readable returns the number of bytes left to read before Size.
func (b *ByteArray) Readable() int { return b.size - b.position }

// Clear resets size and cursor to zero while keeping the root chain node.
func (b *ByteArray) Clear() {
	b.position = 0
	b.size = 0
	b.curNode = b.root
	b.curIdx = 0
}

// SetPosition moves the read/write cursor to an absolute offset. An offset
// beyond Capacity grows the chain to cover it, and an offset beyond Size
// raises Size to it.
func (b *ByteArray) SetPosition(pos int) {
	if pos > b.capacity {
		b.addCapacity(pos - b.capacity)
	}
	if pos > b.size {
		b.size = pos
	}
	b.position = pos
	b.curNode = b.root
	b.curIdx = pos
	for b.curIdx >= b.baseSize && b.curNode.next != nil {
		b.curIdx -= b.baseSize
		b.curNode = b.curNode.next
	}
}

// addCapacity grows the tail of the chain by whole nodes until at least
// delta additional bytes are available beyond the current capacity.
func (b *ByteArray) addCapacity(delta int) {
	if delta <= 0 {
		return
	}

	old := b.capacity
	need := delta
	tail := b.root
	for tail.next != nil {
		tail = tail.next
	}

	for need > 0 {
		n := &node{buf: make([]byte, b.baseSize)}
		tail.next = n
		tail = n
		b.capacity += b.baseSize
		need -= b.baseSize
	}
	_ = old
}

// Write appends buf to the stream, advancing the write cursor and growing
// the chain as needed. The read cursor (shared with write in this design,
// matching the teacher's single position cursor) also advances.
func (b *ByteArray) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	need := b.position + len(p) - b.capacity
	if need > 0 {
		b.addCapacity(need)
	}

	written := 0
	for written < len(p) {
		if b.curNode == nil {
			break
		}
		avail := len(b.curNode.buf) - b.curIdx
		n := len(p) - written
		if n > avail {
			n = avail
		}
		copy(b.curNode.buf[b.curIdx:b.curIdx+n], p[written:written+n])
		written += n
		b.curIdx += n
		b.position += n
		if b.curIdx == len(b.curNode.buf) {
			if b.curNode.next == nil {
				b.addCapacity(b.baseSize)
			}
			b.curNode = b.curNode.next
			b.curIdx = 0
		}
	}

	if b.position > b.size {
		b.size = b.position
	}

	return written, nil
}

// Read consumes up to len(p) bytes starting at the current position,
// advancing the cursor. It returns ErrorUnderflow wrapped in liberr.Error if
// fewer than len(p) bytes remain before Size.
func (b *ByteArray) Read(p []byte) (int, liberr.Error) {
	if len(p) == 0 {
		return 0, nil
	}
	if b.Readable() < len(p) {
		return 0, ErrorUnderflow.Error(nil)
	}

	read := 0
	for read < len(p) {
		avail := len(b.curNode.buf) - b.curIdx
		n := len(p) - read
		if n > avail {
			n = avail
		}
		copy(p[read:read+n], b.curNode.buf[b.curIdx:b.curIdx+n])
		read += n
		b.curIdx += n
		b.position += n
		if b.curIdx == len(b.curNode.buf) && b.curNode.next != nil {
			b.curNode = b.curNode.next
			b.curIdx = 0
		}
	}

	return read, nil
}

// Peek is a stateless read: it copies len(p) bytes starting at pos without
// moving the cursor.
func (b *ByteArray) Peek(p []byte, pos int) (int, liberr.Error) {
	if pos+len(p) > b.size {
		return 0, ErrorUnderflow.Error(nil)
	}

	save := b.position
	saveNode, saveIdx := b.curNode, b.curIdx
	b.SetPosition(pos)
	n, e := b.Read(p)
	b.position = save
	b.curNode, b.curIdx = saveNode, saveIdx
	return n, e
}

// Bytes returns the entire written region (0..Size) as a single contiguous
// slice, copying data out of the chain.
func (b *ByteArray) Bytes() []byte {
	out := make([]byte, b.size)
	n := b.root
	off := 0
	for n != nil && off < b.size {
		c := len(n.buf)
		if off+c > b.size {
			c = b.size - off
		}
		copy(out[off:off+c], n.buf[:c])
		off += c
		n = n.next
	}
	return out
}

func (b *ByteArray) writeByte(v byte) {
	_, _ = b.Write([]byte{v})
}

func (b *ByteArray) readByte() (byte, liberr.Error) {
	var v [1]byte
	if _, e := b.Read(v[:]); e != nil {
		return 0, e
	}
	return v[0], nil
}

func (b *ByteArray) order() binary.ByteOrder {
	if b.bigE {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// WriteFInt8 writes a fixed-length 8-bit signed integer.
func (b *ByteArray) WriteFInt8(v int8) { b.writeByte(byte(v)) }

// WriteFUint8 writes a fixed-length 8-bit unsigned integer.
func (b *ByteArray) WriteFUint8(v uint8) { b.writeByte(v) }

// WriteFInt16 writes a fixed-length, endian-honoring 16-bit signed integer.
func (b *ByteArray) WriteFInt16(v int16) { b.WriteFUint16(uint16(v)) }

// WriteFUint16 writes a fixed-length, endian-honoring 16-bit unsigned integer.
func (b *ByteArray) WriteFUint16(v uint16) {
	var buf [2]byte
	b.order().PutUint16(buf[:], v)
	_, _ = b.Write(buf[:])
}

// WriteFInt32 writes a fixed-length, endian-honoring 32-bit signed integer.
func (b *ByteArray) WriteFInt32(v int32) { b.WriteFUint32(uint32(v)) }

// WriteFUint32 writes a fixed-length, endian-honoring 32-bit unsigned integer.
func (b *ByteArray) WriteFUint32(v uint32) {
	var buf [4]byte
	b.order().PutUint32(buf[:], v)
	_, _ = b.Write(buf[:])
}

// WriteFInt64 writes a fixed-length, endian-honoring 64-bit signed integer.
func (b *ByteArray) WriteFInt64(v int64) { b.WriteFUint64(uint64(v)) }

// WriteFUint64 writes a fixed-length, endian-honoring 64-bit unsigned integer.
func (b *ByteArray) WriteFUint64(v uint64) {
	var buf [8]byte
	b.order().PutUint64(buf[:], v)
	_, _ = b.Write(buf[:])
}

// zigzag32 maps signed to unsigned so small-magnitude negatives stay small.
func zigzag32(v int32) uint32 { return uint32((v << 1) ^ (v >> 31)) }
func unzigzag32(v uint32) int32 { return int32(v>>1) ^ -int32(v&1) }
func zigzag64(v int64) uint64 { return uint64((v << 1) ^ (v >> 63)) }
func unzigzag64(v uint64) int64 { return int64(v>>1) ^ -int64(v&1) }

// WriteUint32 writes a 32-bit unsigned integer as a LEB128-style varint.
func (b *ByteArray) WriteUint32(v uint32) {
	for v >= 0x80 {
		b.writeByte(byte(v) | 0x80)
		v >>= 7
	}
	b.writeByte(byte(v))
}

// WriteInt32 writes a zigzag+varint encoded 32-bit signed integer.
func (b *ByteArray) WriteInt32(v int32) { b.WriteUint32(zigzag32(v)) }

// WriteUint64 writes a 64-bit unsigned integer as a LEB128-style varint.
func (b *ByteArray) WriteUint64(v uint64) {
	for v >= 0x80 {
		b.writeByte(byte(v) | 0x80)
		v >>= 7
	}
	b.writeByte(byte(v))
}

// WriteInt64 writes a zigzag+varint encoded 64-bit signed integer.
func (b *ByteArray) WriteInt64(v int64) { b.WriteUint64(zigzag64(v)) }

// WriteFloat writes a single-precision IEEE-754 float.
func (b *ByteArray) WriteFloat(v float32) { b.WriteFUint32(math.Float32bits(v)) }

// WriteDouble writes a double-precision IEEE-754 float.
func (b *ByteArray) WriteDouble(v float64) { b.WriteFUint64(math.Float64bits(v)) }

// WriteStringF16 writes a string preceded by its length as a fixed uint16.
func (b *ByteArray) WriteStringF16(s string) {
	b.WriteFUint16(uint16(len(s)))
	_, _ = b.Write([]byte(s))
}

// WriteStringF32 writes a string preceded by its length as a fixed uint32.
func (b *ByteArray) WriteStringF32(s string) {
	b.WriteFUint32(uint32(len(s)))
	_, _ = b.Write([]byte(s))
}

// WriteStringF64 writes a string preceded by its length as a fixed uint64.
func (b *ByteArray) WriteStringF64(s string) {
	b.WriteFUint64(uint64(len(s)))
	_, _ = b.Write([]byte(s))
}

// WriteStringVint writes a string preceded by its length as a varint.
func (b *ByteArray) WriteStringVint(s string) {
	b.WriteUint64(uint64(len(s)))
	_, _ = b.Write([]byte(s))
}

// WriteStringWithoutLength writes raw string bytes with no length prefix.
func (b *ByteArray) WriteStringWithoutLength(s string) {
	_, _ = b.Write([]byte(s))
}

// ReadFInt8 reads a fixed-length 8-bit signed integer.
func (b *ByteArray) ReadFInt8() (int8, liberr.Error) {
	v, e := b.readByte()
	return int8(v), e
}

// ReadFUint8 reads a fixed-length 8-bit unsigned integer.
func (b *ByteArray) ReadFUint8() (uint8, liberr.Error) { return b.readByte() }

// ReadFInt16 reads a fixed-length, endian-honoring 16-bit signed integer.
func (b *ByteArray) ReadFInt16() (int16, liberr.Error) {
	v, e := b.ReadFUint16()
	return int16(v), e
}

// ReadFUint16 reads a fixed-length, endian-honoring 16-bit unsigned integer.
func (b *ByteArray) ReadFUint16() (uint16, liberr.Error) {
	var buf [2]byte
	if _, e := b.Read(buf[:]); e != nil {
		return 0, e
	}
	return b.order().Uint16(buf[:]), nil
}

// ReadFInt32 reads a fixed-length, endian-honoring 32-bit signed integer.
func (b *ByteArray) ReadFInt32() (int32, liberr.Error) {
	v, e := b.ReadFUint32()
	return int32(v), e
}

// ReadFUint32 reads a fixed-length, endian-honoring 32-bit unsigned integer.
func (b *ByteArray) ReadFUint32() (uint32, liberr.Error) {
	var buf [4]byte
	if _, e := b.Read(buf[:]); e != nil {
		return 0, e
	}
	return b.order().Uint32(buf[:]), nil
}

// ReadFInt64 reads a fixed-length, endian-honoring 64-bit signed integer.
func (b *ByteArray) ReadFInt64() (int64, liberr.Error) {
	v, e := b.ReadFUint64()
	return int64(v), e
}

// ReadFUint64 reads a fixed-length, endian-honoring 64-bit unsigned integer.
func (b *ByteArray) ReadFUint64() (uint64, liberr.Error) {
	var buf [8]byte
	if _, e := b.Read(buf[:]); e != nil {
		return 0, e
	}
	return b.order().Uint64(buf[:]), nil
}

// ReadUint32 reads a LEB128-style varint into a 32-bit unsigned integer.
func (b *ByteArray) ReadUint32() (uint32, liberr.Error) {
	var v uint32
	var shift uint
	for {
		c, e := b.readByte()
		if e != nil {
			return 0, e
		}
		v |= uint32(c&0x7f) << shift
		if c&0x80 == 0 {
			break
		}
		shift += 7
	}
	return v, nil
}

// ReadInt32 reads a zigzag+varint encoded 32-bit signed integer.
func (b *ByteArray) ReadInt32() (int32, liberr.Error) {
	v, e := b.ReadUint32()
	if e != nil {
		return 0, e
	}
	return unzigzag32(v), nil
}

// ReadUint64 reads a LEB128-style varint into a 64-bit unsigned integer.
func (b *ByteArray) ReadUint64() (uint64, liberr.Error) {
	var v uint64
	var shift uint
	for {
		c, e := b.readByte()
		if e != nil {
			return 0, e
		}
		v |= uint64(c&0x7f) << shift
		if c&0x80 == 0 {
			break
		}
		shift += 7
	}
	return v, nil
}

// ReadInt64 reads a zigzag+varint encoded 64-bit signed integer.
func (b *ByteArray) ReadInt64() (int64, liberr.Error) {
	v, e := b.ReadUint64()
	if e != nil {
		return 0, e
	}
	return unzigzag64(v), nil
}

// ReadFloat reads a single-precision IEEE-754 float.
func (b *ByteArray) ReadFloat() (float32, liberr.Error) {
	v, e := b.ReadFUint32()
	if e != nil {
		return 0, e
	}
	return math.Float32frombits(v), nil
}

// ReadDouble reads a double-precision IEEE-754 float.
func (b *ByteArray) ReadDouble() (float64, liberr.Error) {
	v, e := b.ReadFUint64()
	if e != nil {
		return 0, e
	}
	return math.Float64frombits(v), nil
}

// ReadStringF16 reads a string preceded by its length as a fixed uint16.
func (b *ByteArray) ReadStringF16() (string, liberr.Error) {
	n, e := b.ReadFUint16()
	if e != nil {
		return "", e
	}
	return b.readString(int(n))
}

// ReadStringF32 reads a string preceded by its length as a fixed uint32.
func (b *ByteArray) ReadStringF32() (string, liberr.Error) {
	n, e := b.ReadFUint32()
	if e != nil {
		return "", e
	}
	return b.readString(int(n))
}

// ReadStringF64 reads a string preceded by its length as a fixed uint64.
func (b *ByteArray) ReadStringF64() (string, liberr.Error) {
	n, e := b.ReadFUint64()
	if e != nil {
		return "", e
	}
	return b.readString(int(n))
}

// ReadStringVint reads a string preceded by its length as a varint.
func (b *ByteArray) ReadStringVint() (string, liberr.Error) {
	n, e := b.ReadUint64()
	if e != nil {
		return "", e
	}
	return b.readString(int(n))
}

func (b *ByteArray) readString(n int) (string, liberr.Error) {
	buf := make([]byte, n)
	if _, e := b.Read(buf); e != nil {
		return "", e
	}
	return string(buf), nil
}

// GetReadBuffers returns up to len bytes' worth of (base,len) spans of the
// current read window, starting at pos if given, else at Position. It never
// mutates the cursor.
func (b *ByteArray) GetReadBuffers(length int, pos ...int) [][]byte {
	start := b.position
	if len(pos) > 0 {
		start = pos[0]
	}
	if start+length > b.size {
		length = b.size - start
	}
	if length <= 0 {
		return nil
	}

	var out [][]byte
	n := b.root
	off := 0
	remaining := length
	for n != nil && remaining > 0 {
		nodeEnd := off + len(n.buf)
		if nodeEnd > start {
			from := 0
			if start > off {
				from = start - off
			}
			avail := len(n.buf) - from
			if avail > remaining {
				avail = remaining
			}
			if avail > 0 {
				out = append(out, n.buf[from:from+avail])
				remaining -= avail
			}
		}
		off = nodeEnd
		n = n.next
	}
	return out
}

// GetWriteBuffers grows capacity to cover length bytes starting at Position,
// then returns the writable spans backing that window. Callers that fill
// these spans directly (e.g. via a scatter-gather syscall) must call
// SetPosition to advance the cursor afterwards.
func (b *ByteArray) GetWriteBuffers(length int) [][]byte {
	need := b.position + length - b.capacity
	if need > 0 {
		b.addCapacity(need)
	}

	var out [][]byte
	n := b.root
	off := 0
	remaining := length
	for n != nil && remaining > 0 {
		nodeEnd := off + len(n.buf)
		if nodeEnd > b.position {
			from := 0
			if b.position > off {
				from = b.position - off
			}
			avail := len(n.buf) - from
			if avail > remaining {
				avail = remaining
			}
			if avail > 0 {
				out = append(out, n.buf[from:from+avail])
				remaining -= avail
			}
		}
		off = nodeEnd
		n = n.next
	}
	return out
}

// WriteToFile writes the entire written region (0..Size) to path.
func (b *ByteArray) WriteToFile(path string) liberr.Error {
	if e := os.WriteFile(path, b.Bytes(), 0o644); e != nil {
		return ErrorFile.Error(e)
	}
	return nil
}

// ReadFromFile replaces the buffer's contents with the bytes at path.
func (b *ByteArray) ReadFromFile(path string) liberr.Error {
	data, e := os.ReadFile(path)
	if e != nil {
		return ErrorFile.Error(e)
	}
	b.Clear()
	_, _ = b.Write(data)
	b.SetPosition(0)
	return nil
}
