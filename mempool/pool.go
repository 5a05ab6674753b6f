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

package mempool

import (
	liberr "github.com/DreamTraveler233/sylar-sub003/errors"
)

// DefaultBlockSize mirrors the nginx-style pool this is grounded on: one
// page, minus the block's own bookkeeping.
const DefaultBlockSize = 4096 - 1

// LargeThreshold: allocations at or above this size bypass the bump
// allocator and go on the large-allocation side list instead.
const LargeThreshold = DefaultBlockSize

// CleanupFunc runs when the arena is Reset or Destroy'd.
type CleanupFunc func()

// Pool is a request- or connection-scoped arena: allocate freely, then
// Reset once to release everything at once. Not safe for concurrent use —
// one Pool belongs to exactly one in-flight request or one connection, per
// spec.md §5 ("memory pools are per connection or per request... not shared
// across tasks").
type Pool struct {
	enabled   bool
	blockSize int
	gen       uint64

	small    [][]byte // bump-allocated blocks; small[len-1] is the current block
	smallOff int       // offset of next free byte within the current block
	large    [][]byte  // large allocations, one slice per allocation

	cleanups []CleanupFunc
}

// New creates a Pool. blockSize <= 0 selects DefaultBlockSize. When enabled
// is false, every Alloc falls back to a plain heap allocation per call (the
// mempool.enable=false configuration knob from spec.md §6) — useful for
// running under a race detector or a GC profiler where per-arena reuse
// would otherwise mask bugs.
func New(enabled bool, blockSize int) *Pool {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	p := &Pool{enabled: enabled, blockSize: blockSize}
	if enabled {
		p.small = [][]byte{make([]byte, blockSize)}
	}
	return p
}

// Ref is a generation-stamped handle to a region of arena memory. It
// remains valid only as long as the arena's generation hasn't advanced
// past Ref.gen, i.e. until the next Reset.
type Ref struct {
	pool *Pool
	gen  uint64
	buf  []byte
}

// Bytes returns the referenced slice, or ErrorStaleRef if the arena has
// been reset since this Ref was obtained.
func (r Ref) Bytes() ([]byte, liberr.Error) {
	if r.pool == nil {
		return nil, nil
	}
	if r.gen != r.pool.gen {
		return nil, ErrorStaleRef.Error(nil)
	}
	return r.buf, nil
}

// Alloc returns size bytes of zeroed memory, using the small bump allocator
// below LargeThreshold and the large side-list at or above it.
func (p *Pool) Alloc(size int) Ref {
	if size <= 0 {
		return Ref{pool: p, gen: p.gen, buf: nil}
	}
	if !p.enabled {
		return Ref{pool: p, gen: p.gen, buf: make([]byte, size)}
	}
	if size >= LargeThreshold {
		buf := make([]byte, size)
		p.large = append(p.large, buf)
		return Ref{pool: p, gen: p.gen, buf: buf}
	}
	return Ref{pool: p, gen: p.gen, buf: p.allocSmall(size)}
}

func (p *Pool) allocSmall(size int) []byte {
	cur := p.small[len(p.small)-1]
	if p.smallOff+size > len(cur) {
		blockSize := p.blockSize
		if size > blockSize {
			blockSize = size
		}
		cur = make([]byte, blockSize)
		p.small = append(p.small, cur)
		p.smallOff = 0
	}
	buf := cur[p.smallOff : p.smallOff+size]
	p.smallOff += size
	return buf
}

// OnReset registers a cleanup callback run (in registration order) at the
// start of the next Reset or Destroy.
func (p *Pool) OnReset(cb CleanupFunc) {
	if cb != nil {
		p.cleanups = append(p.cleanups, cb)
	}
}

// Reset invokes all registered cleanup callbacks, then releases every large
// allocation and rewinds the bump pointer to the start of the first small
// block, reusing that block's backing array. Every Ref obtained before this
// call becomes stale atomically: its generation no longer matches.
func (p *Pool) Reset() {
	p.runCleanups()

	p.large = nil
	if p.enabled && len(p.small) > 0 {
		p.small = p.small[:1]
	}
	p.smallOff = 0
	p.gen++
}

// Destroy runs cleanups and drops all arena memory. The Pool must not be
// used afterwards.
func (p *Pool) Destroy() {
	p.runCleanups()
	p.small = nil
	p.large = nil
	p.gen++
}

func (p *Pool) runCleanups() {
	cbs := p.cleanups
	p.cleanups = nil
	for _, cb := range cbs {
		cb()
	}
}

// Generation returns the current reset generation, for tests that need to
// assert a Reset actually advanced it.
func (p *Pool) Generation() uint64 { return p.gen }
