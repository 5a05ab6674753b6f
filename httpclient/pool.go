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
	"crypto/tls"
	"net"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/prometheus/client_golang/prometheus"

	liberr "github.com/DreamTraveler233/sylar-sub003/errors"
)

// originKey identifies one (host, vhost, port, scheme) pool, per spec.md §3.
type originKey struct {
	host   string
	vhost  string
	port   string
	scheme string
}

// PoolOptions mirrors the connection-pool fields from spec.md §3.
type PoolOptions struct {
	MaxSize    int // soft cap on retained idle connections, unless EnforceMaxSize
	MaxAlive   time.Duration
	MaxRequest int
	// EnforceMaxSize resolves Open Question (c): when true, Get fails at
	// once with ErrorPoolGetConnection (it never blocks) when no idle
	// connection is reusable and in-use has reached MaxSize, instead of the
	// source's soft-cap-only behavior. Default false preserves the
	// original soft-cap semantics.
	EnforceMaxSize bool
	DialTimeout    time.Duration
	TLSConfig      *tls.Config
	ArenaEnabled   bool
}

func DefaultPoolOptions() PoolOptions {
	return PoolOptions{
		MaxSize:     16,
		MaxAlive:    90 * time.Second,
		MaxRequest:  0,
		DialTimeout: 5 * time.Second,
		ArenaEnabled: true,
	}
}

// originPool is the free-list for one origin.
type originPool struct {
	mu     sync.RWMutex
	idle   []*conn
	inUse  int
	opt    PoolOptions
}

var (
	metricPoolIdle = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "sylar",
		Subsystem: "httpclient",
		Name:      "pool_idle_connections",
		Help:      "Idle connections currently retained per origin pool.",
	}, []string{"origin"})
	metricPoolInUse = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "sylar",
		Subsystem: "httpclient",
		Name:      "pool_in_use_connections",
		Help:      "Connections currently checked out per origin pool.",
	}, []string{"origin"})
)

func init() {
	prometheus.MustRegister(metricPoolIdle, metricPoolInUse)
}

// Manager owns one originPool per (host,vhost,port,scheme), bounded by an
// LRU cache so that rarely-used origins don't retain pools forever.
type Manager struct {
	opt    PoolOptions
	pools  *lru.Cache
	mu     sync.Mutex
}

func NewManager(opt PoolOptions, maxOrigins int) *Manager {
	if maxOrigins <= 0 {
		maxOrigins = 256
	}
	m := &Manager{opt: opt}
	m.pools, _ = lru.NewWithEvict(maxOrigins, func(key interface{}, value interface{}) {
		p := value.(*originPool)
		p.mu.Lock()
		defer p.mu.Unlock()
		for _, c := range p.idle {
			c.close()
		}
		p.idle = nil
	})
	return m
}

func (m *Manager) poolFor(o originKey) *originPool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.pools.Get(o); ok {
		return v.(*originPool)
	}
	p := &originPool{opt: m.opt}
	m.pools.Add(o, p)
	return p
}

// Get pops the front of the free-list, discarding entries that are
// disconnected or stale, and otherwise dials a fresh connection, per
// spec.md §4.4.
func (m *Manager) Get(o originKey, dial func() (net.Conn, liberr.Error)) (*Handle, liberr.Error) {
	p := m.poolFor(o)

	p.mu.Lock()
	for len(p.idle) > 0 {
		c := p.idle[0]
		p.idle = p.idle[1:]
		if c.evictable(p.opt) {
			c.close()
			continue
		}
		p.inUse++
		p.mu.Unlock()
		metricPoolIdle.WithLabelValues(o.host).Set(float64(len(p.idle)))
		metricPoolInUse.WithLabelValues(o.host).Set(float64(p.inUse))
		return &Handle{c: c, mgr: m}, nil
	}
	if p.opt.EnforceMaxSize && p.opt.MaxSize > 0 && p.inUse >= p.opt.MaxSize {
		p.mu.Unlock()
		return nil, ErrorPoolGetConnection.Error(nil)
	}
	p.inUse++
	p.mu.Unlock()

	nc, e := dial()
	if e != nil {
		p.mu.Lock()
		p.inUse--
		p.mu.Unlock()
		return nil, e
	}
	c := newConn(nc, o, p.opt.ArenaEnabled)
	metricPoolInUse.WithLabelValues(o.host).Set(float64(p.inUse))
	return &Handle{c: c, mgr: m}, nil
}

// put re-queues c if still eligible, respecting MaxSize as a soft cap on
// retained idle connections (not a concurrency cap), or destroys it.
func (m *Manager) put(c *conn) {
	p := m.poolFor(c.origin)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inUse--
	if c.evictable(p.opt) {
		c.close()
	} else if p.opt.MaxSize <= 0 || len(p.idle) < p.opt.MaxSize {
		c.arena.Reset()
		p.idle = append(p.idle, c)
	} else {
		c.close()
	}
	metricPoolIdle.WithLabelValues(c.origin.host).Set(float64(len(p.idle)))
	metricPoolInUse.WithLabelValues(c.origin.host).Set(float64(p.inUse))
}

// IdleCount reports the number of retained idle connections for an origin.
func (m *Manager) IdleCount(o originKey) int {
	p := m.poolFor(o)
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.idle)
}
