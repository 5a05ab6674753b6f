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

package httpsession

import (
	"time"

	"github.com/sirupsen/logrus"

	liberr "github.com/DreamTraveler233/sylar-sub003/errors"
	"github.com/DreamTraveler233/sylar-sub003/httpwire"
	"github.com/DreamTraveler233/sylar-sub003/mempool"
	"github.com/DreamTraveler233/sylar-sub003/netstream"
)

// State is the session's position in the IDLE -> PARSING -> HANDLING ->
// SENDING -> IDLE|CLOSED state machine from spec.md §4.3.
type State int

const (
	StateIdle State = iota
	StateParsing
	StateHandling
	StateSending
	StateClosed
)

// Handler processes one fully-parsed request, writing the response fields
// the session will then serialize and send.
type Handler func(req *httpwire.Request, resp *httpwire.Response)

// Session drives one accepted connection's request/response loop.
type Session struct {
	stream      *netstream.Stream
	handler     Handler
	idleTimeout time.Duration
	maxBodySize int
	poolEnabled bool

	state   State
	leftover []byte
	log     *logrus.Entry
}

type Option func(*Session)

func WithIdleTimeout(d time.Duration) Option { return func(s *Session) { s.idleTimeout = d } }
func WithMaxBodySize(n int) Option           { return func(s *Session) { s.maxBodySize = n } }
func WithArenaEnabled(enabled bool) Option   { return func(s *Session) { s.poolEnabled = enabled } }
func WithLogger(l *logrus.Entry) Option      { return func(s *Session) { s.log = l } }

func New(stream *netstream.Stream, handler Handler, opts ...Option) *Session {
	s := &Session{
		stream:      stream,
		handler:     handler,
		idleTimeout: 60 * time.Second,
		maxBodySize: httpwire.DefaultMaxBodySize,
		poolEnabled: true,
		log:         logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Session) State() State { return s.state }

// Serve runs the session loop until the peer closes, an I/O error occurs,
// the handler sets response.Close, or the idle timeout fires. It allocates
// a fresh per-request arena (C3) on each iteration, per spec.md §4.3.
func (s *Session) Serve() liberr.Error {
	for {
		s.state = StateIdle
		if e := s.stream.SetDeadline(time.Now().Add(s.idleTimeout)); e != nil {
			s.state = StateClosed
			return nil
		}

		arena := mempool.New(s.poolEnabled, 0)

		s.state = StateParsing
		req, e := s.readRequest(arena)
		if e != nil {
			s.state = StateClosed
			return e
		}
		if req == nil {
			s.state = StateClosed
			return nil // orderly peer close
		}

		s.state = StateHandling
		resp := httpwire.NewResponse()
		resp.Version = req.Version
		s.handler(req, resp)

		s.state = StateSending
		if e := s.writeResponse(resp); e != nil {
			s.state = StateClosed
			return e
		}

		arena.Reset()

		if resp.Close || req.Close {
			s.state = StateClosed
			_ = s.stream.Close()
			return nil
		}
	}
}

// readRequest feeds the parser starting with any leftover bytes from a
// previous pipelined read, per spec.md §4.3's "read is overridden to
// prepend leftover buffer bytes" rule.
func (s *Session) readRequest(arena *mempool.Pool) (*httpwire.Request, liberr.Error) {
	p := httpwire.NewRequestParser()
	p.SetMaxBodySize(s.maxBodySize)

	if len(s.leftover) > 0 {
		n, e := p.Feed(s.leftover)
		if e != nil {
			return nil, ErrorParseFailed.Error(e)
		}
		s.leftover = s.leftover[n:]
		if p.IsFinished() {
			return p.Result(), nil
		}
	}

	buf := make([]byte, 8192)
	for !p.IsFinished() {
		n, e := s.stream.Read(buf)
		if e != nil {
			return nil, ErrorReadFailed.Error(e)
		}
		if n == 0 {
			return nil, nil
		}
		consumed, perr := p.Feed(buf[:n])
		if perr != nil {
			return nil, ErrorParseFailed.Error(perr)
		}
		if consumed < n {
			leftover := make([]byte, n-consumed)
			copy(leftover, buf[consumed:n])
			s.leftover = append(leftover, s.leftover...)
		}
	}
	return p.Result(), nil
}

func (s *Session) writeResponse(resp *httpwire.Response) liberr.Error {
	raw := resp.Dump()
	if _, e := s.stream.WriteFixSize(raw); e != nil {
		return ErrorWriteFailed.Error(e)
	}
	return nil
}
