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

package presence

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	liberr "github.com/DreamTraveler233/sylar-sub003/errors"
)

// Record is the presence value, per spec.md §3: {gateway_rpc, last_seen_ms}.
type Record struct {
	GatewayRPC string `json:"gateway_rpc"`
	LastSeenMs int64  `json:"last_seen_ms"`
}

// Store is the TTL key-value authority presence is built on. Every
// operation is a single external call and never retries, per spec.md §4.8
// — the caller retries at the next heartbeat.
type Store interface {
	Set(ctx context.Context, key string, rec Record, ttl time.Duration) liberr.Error
	Get(ctx context.Context, key string) (Record, time.Duration, liberr.Error) // remaining TTL; ErrorNotFound if absent/expired
	Delete(ctx context.Context, key string) liberr.Error
}

// decodeValue accepts both legacy raw strings (bare "host:port") and JSON
// blobs on read, for forward compatibility per spec.md §4.8.
func decodeValue(raw string, lastSeenFallback int64) (Record, liberr.Error) {
	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err == nil && rec.GatewayRPC != "" {
		return rec, nil
	}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Record{}, ErrorNotFound.Error(nil)
	}
	return Record{GatewayRPC: trimmed, LastSeenMs: lastSeenFallback}, nil
}

// MemStore is an in-process TTL map, the default Store when no external
// backend is configured.
type MemStore struct {
	mu   sync.RWMutex
	data map[string]memEntry
}

type memEntry struct {
	rec      Record
	expireAt time.Time
}

func NewMemStore() *MemStore {
	return &MemStore{data: make(map[string]memEntry)}
}

func (m *MemStore) Set(_ context.Context, key string, rec Record, ttl time.Duration) liberr.Error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = memEntry{rec: rec, expireAt: time.Now().Add(ttl)}
	return nil
}

func (m *MemStore) Get(_ context.Context, key string) (Record, time.Duration, liberr.Error) {
	m.mu.RLock()
	e, ok := m.data[key]
	m.mu.RUnlock()
	if !ok {
		return Record{}, 0, ErrorNotFound.Error(nil)
	}
	remaining := time.Until(e.expireAt)
	if remaining <= 0 {
		m.mu.Lock()
		delete(m.data, key)
		m.mu.Unlock()
		return Record{}, 0, ErrorNotFound.Error(nil)
	}
	return e.rec, remaining, nil
}

func (m *MemStore) Delete(_ context.Context, key string) liberr.Error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
