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

package timer

import (
	"container/heap"
	"sync"
)

// Callback runs when a timer fires. It receives no arguments: callers
// close over whatever state they need, per spec.md §9's "this-capturing
// callbacks -> pass an explicit owner handle" guidance (the owner is
// whatever the closure captures).
type Callback func()

// WeakRef lets a condition timer check, at fire time, whether its subject
// is still alive — a generation-counter-and-slot substitute for a C++
// weak_ptr, per spec.md §9.
type WeakRef interface {
	Alive() bool
}

type entry struct {
	deadlineMs int64
	periodMs   int64
	recurring  bool
	seq        uint64
	cb         Callback
	weak       WeakRef
	cancelled  bool
	index      int // heap index, maintained by container/heap
}

// timerHeap orders by (deadlineMs, seq) so that equal deadlines break ties
// by insertion order, per spec.md §4.6 and testable property 7.
type timerHeap []*entry

func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool {
	if h[i].deadlineMs != h[j].deadlineMs {
		return h[i].deadlineMs < h[j].deadlineMs
	}
	return h[i].seq < h[j].seq
}
func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *timerHeap) Push(x interface{}) {
	e := x.(*entry)
	e.index = len(*h)
	*h = append(*h, e)
}
func (h *timerHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// Manager is the C7 ordered timer set. Safe for concurrent use: lookups
// take a shared lock, inserts/erases an exclusive one, per spec.md §5.
type Manager struct {
	mu      sync.RWMutex
	h       timerHeap
	seq     uint64
	prevNow int64
	onFront func()
}

// New creates a Manager. onInsertedAtFront, if non-nil, is invoked
// whenever an insertion lands in an empty manager or has an earlier
// deadline than every pending timer — the reactor-wake hook from spec.md §4.6.
func New(onInsertedAtFront func()) *Manager {
	return &Manager{onFront: onInsertedAtFront}
}

// Handle is returned by AddTimer / AddConditionTimer.
type Handle struct {
	mgr *Manager
	e   *entry
}

// AddTimer schedules cb to fire at now+ms (one-shot) or every ms
// (recurring).
func (m *Manager) AddTimer(nowMs, ms int64, cb Callback, recurring bool) *Handle {
	return m.addTimer(nowMs, ms, cb, nil, recurring)
}

// AddConditionTimer schedules cb, but skips invocation at fire time if
// weak.Alive() is false.
func (m *Manager) AddConditionTimer(nowMs, ms int64, cb Callback, weak WeakRef, recurring bool) *Handle {
	return m.addTimer(nowMs, ms, cb, weak, recurring)
}

func (m *Manager) addTimer(nowMs, ms int64, cb Callback, weak WeakRef, recurring bool) *Handle {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	e := &entry{
		deadlineMs: nowMs + ms,
		periodMs:   ms,
		recurring:  recurring,
		seq:        m.seq,
		cb:         cb,
		weak:       weak,
	}
	wasEmpty := len(m.h) == 0
	prevMin := int64(0)
	if !wasEmpty {
		prevMin = m.h[0].deadlineMs
	}
	heap.Push(&m.h, e)
	if (wasEmpty || e.deadlineMs < prevMin) && m.onFront != nil {
		m.onFront()
	}
	return &Handle{mgr: m, e: e}
}

// Cancel removes the timer and clears its callback. Idempotent.
func (h *Handle) Cancel() {
	m := h.mgr
	m.mu.Lock()
	defer m.mu.Unlock()
	if h.e.cancelled {
		return
	}
	h.e.cancelled = true
	h.e.cb = nil
	if h.e.index >= 0 {
		heap.Remove(&m.h, h.e.index)
	}
}

// Refresh recomputes deadline = now + period and re-inserts.
func (h *Handle) Refresh(nowMs int64) {
	m := h.mgr
	m.mu.Lock()
	defer m.mu.Unlock()
	if h.e.cancelled {
		return
	}
	if h.e.index >= 0 {
		heap.Remove(&m.h, h.e.index)
	}
	h.e.deadlineMs = nowMs + h.e.periodMs
	heap.Push(&m.h, h.e)
}

// Reset changes the period. If fromNow, the new deadline anchors to nowMs;
// otherwise it anchors to the timer's original start (anchorMs).
func (h *Handle) Reset(nowMs, anchorMs, ms int64, fromNow bool) {
	m := h.mgr
	m.mu.Lock()
	defer m.mu.Unlock()
	if h.e.cancelled {
		return
	}
	h.e.periodMs = ms
	if h.e.index >= 0 {
		heap.Remove(&m.h, h.e.index)
	}
	if fromNow {
		h.e.deadlineMs = nowMs + ms
	} else {
		h.e.deadlineMs = anchorMs + ms
	}
	heap.Push(&m.h, h.e)
}

// GetNextTimer returns the number of milliseconds until the next timer, or
// -1 if none are scheduled.
func (m *Manager) GetNextTimer(nowMs int64) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.h) == 0 {
		return -1
	}
	d := m.h[0].deadlineMs - nowMs
	if d < 0 {
		d = 0
	}
	return d
}

// rolloverWindowMs: if now regresses by more than this from the previous
// call, every pending timer is treated as expired this round, per spec.md
// §4.6's clock-rollover policy.
const rolloverWindowMs = 3600_000

// ListExpiredCb atomically pops every timer with deadline <= nowMs,
// appending its callback to out (recurring timers are advanced by their
// period and re-inserted). The caller drives execution: the manager itself
// never invokes a callback.
func (m *Manager) ListExpiredCb(nowMs int64, out []Callback) []Callback {
	m.mu.Lock()
	defer m.mu.Unlock()

	rollover := m.prevNow != 0 && nowMs < m.prevNow-rolloverWindowMs
	m.prevNow = nowMs

	var fired []*entry
	for len(m.h) > 0 && (rollover || m.h[0].deadlineMs <= nowMs) {
		e := heap.Pop(&m.h).(*entry)
		fired = append(fired, e)
	}
	for _, e := range fired {
		if e.cancelled {
			continue
		}
		if e.weak != nil && !e.weak.Alive() {
			if e.recurring {
				m.reinsert(e, nowMs)
			}
			continue
		}
		if e.cb != nil {
			out = append(out, e.cb)
		}
		if e.recurring {
			m.reinsert(e, nowMs)
		}
	}
	return out
}

func (m *Manager) reinsert(e *entry, nowMs int64) {
	e.deadlineMs = nowMs + e.periodMs
	m.seq++
	e.seq = m.seq
	heap.Push(&m.h, e)
}

// Len reports the number of currently scheduled timers.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.h)
}
