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
	"sync"

	"github.com/DreamTraveler233/sylar-sub003/netstream"
)

// ModuleHandler processes one REQUEST or NOTIFY envelope and returns the
// fields for a RESPONSE (ignored for NOTIFY).
type ModuleHandler func(env Envelope) (result uint32, resultStr string, body []byte)

// Router dispatches inbound frames by cmd to a registered ModuleHandler.
// Unknown cmd yields {result=500, result_str="unhandled"}, per spec.md
// §4.7.
type Router struct {
	mu       sync.RWMutex
	handlers map[uint32]ModuleHandler
	maxFrame int
}

func NewRouter(maxFrame int) *Router {
	if maxFrame <= 0 {
		maxFrame = DefaultMaxFrame
	}
	return &Router{handlers: make(map[uint32]ModuleHandler), maxFrame: maxFrame}
}

func (r *Router) Register(cmd uint32, h ModuleHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[cmd] = h
}

// Serve reads frames from stream until an I/O error or the peer closes,
// dispatching REQUEST/NOTIFY and writing back RESPONSE frames with the
// same sn, per spec.md §4.7's "every REQUEST expects exactly one RESPONSE
// with matching sn" invariant.
func (r *Router) Serve(stream *netstream.Stream) {
	for {
		f, e := ReadFrame(stream, r.maxFrame)
		if e != nil {
			_ = stream.Close()
			return
		}
		switch f.Type {
		case TypeNotify:
			r.dispatch(f.Env)
		case TypeRequest:
			result, resultStr, body := r.dispatch(f.Env)
			resp := Frame{Type: TypeResponse, Env: Envelope{
				Sn:        f.Env.Sn,
				Cmd:       f.Env.Cmd,
				Result:    result,
				ResultStr: resultStr,
				TraceID:   f.Env.TraceID,
				Body:      body,
			}}
			if e := WriteFrame(stream, resp); e != nil {
				_ = stream.Close()
				return
			}
		default:
			_ = stream.Close()
			return
		}
	}
}

func (r *Router) dispatch(env Envelope) (uint32, string, []byte) {
	r.mu.RLock()
	h, ok := r.handlers[env.Cmd]
	r.mu.RUnlock()
	if !ok {
		return 500, "unhandled", nil
	}
	return h(env)
}

// Client issues correlated REQUEST/RESPONSE pairs and fire-and-forget
// NOTIFY frames over one Rock connection. One in-flight request per sn.
type Client struct {
	stream   *netstream.Stream
	maxFrame int

	mu      sync.Mutex
	pending map[uint32]chan Envelope
	nextSn  uint32
}

func NewClient(stream *netstream.Stream, maxFrame int) *Client {
	if maxFrame <= 0 {
		maxFrame = DefaultMaxFrame
	}
	return &Client{stream: stream, maxFrame: maxFrame, pending: make(map[uint32]chan Envelope)}
}

// Run pumps inbound RESPONSE frames to their waiting caller. Must run in
// its own goroutine for the lifetime of the connection.
func (c *Client) Run() {
	for {
		f, e := ReadFrame(c.stream, c.maxFrame)
		if e != nil {
			c.failAll()
			return
		}
		if f.Type != TypeResponse {
			continue
		}
		c.mu.Lock()
		ch, ok := c.pending[f.Env.Sn]
		if ok {
			delete(c.pending, f.Env.Sn)
		}
		c.mu.Unlock()
		if ok {
			ch <- f.Env
		}
	}
}

func (c *Client) failAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for sn, ch := range c.pending {
		close(ch)
		delete(c.pending, sn)
	}
}

// Request sends a REQUEST with a freshly allocated sn and blocks for the
// matching RESPONSE.
func (c *Client) Request(cmd uint32, body []byte) (Envelope, bool) {
	c.mu.Lock()
	c.nextSn++
	sn := c.nextSn
	ch := make(chan Envelope, 1)
	c.pending[sn] = ch
	c.mu.Unlock()

	env := Envelope{Sn: sn, Cmd: cmd, TraceID: NewTraceID(), Body: body}
	if e := WriteFrame(c.stream, Frame{Type: TypeRequest, Env: env}); e != nil {
		c.mu.Lock()
		delete(c.pending, sn)
		c.mu.Unlock()
		return Envelope{}, false
	}
	resp, ok := <-ch
	return resp, ok
}

// Notify sends a one-way NOTIFY frame; there is no response to correlate.
func (c *Client) Notify(cmd uint32, body []byte) bool {
	env := Envelope{Cmd: cmd, TraceID: NewTraceID(), Body: body}
	return WriteFrame(c.stream, Frame{Type: TypeNotify, Env: env}) == nil
}
