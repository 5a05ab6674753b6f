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

package httpclient

import (
	"net"
	"time"

	"github.com/DreamTraveler233/sylar-sub003/mempool"
	"github.com/DreamTraveler233/sylar-sub003/netstream"
)

// conn is one pooled client connection, per spec.md §3's
// {socket, created_at, request_count, owner, per-conn arena} model.
type conn struct {
	stream       *netstream.Stream
	createdAt    time.Time
	requestCount int
	arena        *mempool.Pool
	origin       originKey
}

func newConn(nc net.Conn, origin originKey, arenaEnabled bool) *conn {
	return &conn{
		stream:    netstream.New(nc, true),
		createdAt: time.Now(),
		arena:     mempool.New(arenaEnabled, 0),
		origin:    origin,
	}
}

// evictable reports whether c must not be returned to the pool, per
// spec.md §3: "!connected ∨ now−created_at ≥ max_alive ∨ request_count ≥
// max_request".
func (c *conn) evictable(opt PoolOptions) bool {
	if !c.stream.IsConnected() {
		return true
	}
	if opt.MaxAlive > 0 && time.Since(c.createdAt) >= opt.MaxAlive {
		return true
	}
	if opt.MaxRequest > 0 && c.requestCount >= opt.MaxRequest {
		return true
	}
	return false
}

func (c *conn) close() {
	_ = c.stream.Close()
}

// Handle is the tagged, deleter-bearing handle from spec.md §9's "custom
// deleter returning to pool": Release must be called exactly once.
type Handle struct {
	c       *conn
	mgr     *Manager
	released bool
}

func (h *Handle) Stream() *netstream.Stream { return h.c.stream }
func (h *Handle) Arena() *mempool.Pool      { return h.c.arena }

// Release increments request_count then either re-queues the connection or
// destroys it, following the same eviction rules as acquisition.
func (h *Handle) Release() {
	if h.released {
		return
	}
	h.released = true
	h.c.requestCount++
	h.mgr.put(h.c)
}

// Discard destroys the underlying connection unconditionally — used when
// the caller knows the codec state is unrecoverable (mid-frame I/O error).
func (h *Handle) Discard() {
	if h.released {
		return
	}
	h.released = true
	h.c.close()
}
