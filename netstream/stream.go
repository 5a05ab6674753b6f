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

package netstream

import (
	"io"
	"net"
	"time"

	liberr "github.com/DreamTraveler233/sylar-sub003/errors"
)

// Stream is a blocking read/write facade over a net.Conn. At most one
// reader and one writer may be active on a Stream at a time: the caller
// owns serialization, per spec.md's "within one socket-stream, read/write
// operations are totally ordered" rule.
type Stream struct {
	conn   net.Conn
	owner  bool
	closed bool
}

// New wraps conn. When owner is true, Close closes the underlying conn;
// when false, Close is a no-op and the caller retains responsibility for
// the conn's lifetime (used when a stream is a temporary view over a
// connection owned by a pool, per §3's ownership rules).
func New(conn net.Conn, owner bool) *Stream {
	return &Stream{conn: conn, owner: owner}
}

// Conn returns the underlying net.Conn.
func (s *Stream) Conn() net.Conn { return s.conn }

// RemoteAddr returns the remote address string, or "" if unconnected.
func (s *Stream) RemoteAddr() string {
	if s.conn == nil {
		return ""
	}
	return s.conn.RemoteAddr().String()
}

// LocalAddr returns the local address string, or "" if unconnected.
func (s *Stream) LocalAddr() string {
	if s.conn == nil {
		return ""
	}
	return s.conn.LocalAddr().String()
}

// SetDeadline carries a timeout (absolute instant, not duration) forward to
// the underlying conn, per §5's "every blocking network operation carries a
// deadline".
func (s *Stream) SetDeadline(t time.Time) error {
	if s.conn == nil {
		return nil
	}
	return s.conn.SetDeadline(t)
}

// Read performs a single read into buf: >0 bytes read, 0 on orderly peer
// close, a liberr.Error on any other failure.
func (s *Stream) Read(buf []byte) (int, liberr.Error) {
	n, e := s.conn.Read(buf)
	if n > 0 {
		return n, nil
	}
	if e == io.EOF {
		return 0, nil
	}
	if e != nil {
		return 0, ErrorSocket.Error(e)
	}
	return 0, nil
}

// Write performs a single write of buf, returning the number of bytes
// actually written.
func (s *Stream) Write(buf []byte) (int, liberr.Error) {
	n, e := s.conn.Write(buf)
	if e != nil {
		return n, ErrorSocket.Error(e)
	}
	return n, nil
}

// ReadFixSize loops Read until exactly len(buf) bytes have been read, the
// peer closes (returns the short count and ErrorPeerClosed), or an error
// occurs.
func (s *Stream) ReadFixSize(buf []byte) (int, liberr.Error) {
	total := 0
	for total < len(buf) {
		n, e := s.Read(buf[total:])
		if e != nil {
			return total, e
		}
		if n == 0 {
			return total, ErrorPeerClosed.Error(nil)
		}
		total += n
	}
	return total, nil
}

// WriteFixSize loops Write until exactly len(buf) bytes have been written or
// an error occurs.
func (s *Stream) WriteFixSize(buf []byte) (int, liberr.Error) {
	total := 0
	for total < len(buf) {
		n, e := s.Write(buf[total:])
		if e != nil {
			return total, e
		}
		if n == 0 {
			return total, ErrorShortWrite.Error(nil)
		}
		total += n
	}
	return total, nil
}

// IsConnected reports whether the stream still has a live underlying conn.
// Best-effort: Go's net.Conn offers no direct liveness probe, so this only
// reflects whether Close has been called on this Stream.
func (s *Stream) IsConnected() bool {
	return s.conn != nil && !s.closed
}

var _ = io.EOF

// Close closes the underlying conn if this Stream owns it.
func (s *Stream) Close() liberr.Error {
	if s.closed {
		return nil
	}
	s.closed = true
	if !s.owner || s.conn == nil {
		return nil
	}
	if e := s.conn.Close(); e != nil {
		return ErrorSocket.Error(e)
	}
	return nil
}
