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

package httpwire

import "strings"

// headerEntry preserves the original casing a header was set or parsed
// with, while Headers compares keys case-insensitively per spec.md §3.
type headerEntry struct {
	key    string // original case, as first seen
	values []string
}

// Headers is an insertion-ordered, case-insensitive multi-map of HTTP
// header fields.
type Headers struct {
	order []string // lower-cased keys, insertion order
	data  map[string]*headerEntry
}

func NewHeaders() *Headers {
	return &Headers{data: make(map[string]*headerEntry)}
}

// Add appends a value, preserving any existing values under that key.
func (h *Headers) Add(key, value string) {
	if h.data == nil {
		h.data = make(map[string]*headerEntry)
	}
	lk := strings.ToLower(key)
	if e, ok := h.data[lk]; ok {
		e.values = append(e.values, value)
		return
	}
	h.data[lk] = &headerEntry{key: key, values: []string{value}}
	h.order = append(h.order, lk)
}

// Set replaces all existing values under key with a single value.
func (h *Headers) Set(key, value string) {
	if h.data == nil {
		h.data = make(map[string]*headerEntry)
	}
	lk := strings.ToLower(key)
	if e, ok := h.data[lk]; ok {
		e.key = key
		e.values = []string{value}
		return
	}
	h.data[lk] = &headerEntry{key: key, values: []string{value}}
	h.order = append(h.order, lk)
}

// Get returns the header's value, joining multiple occurrences with ", "
// per spec.md §4.2. Returns "", false if absent.
func (h *Headers) Get(key string) (string, bool) {
	if h.data == nil {
		return "", false
	}
	e, ok := h.data[strings.ToLower(key)]
	if !ok {
		return "", false
	}
	return strings.Join(e.values, ", "), true
}

// Del removes a header entirely.
func (h *Headers) Del(key string) {
	lk := strings.ToLower(key)
	if _, ok := h.data[lk]; !ok {
		return
	}
	delete(h.data, lk)
	for i, k := range h.order {
		if k == lk {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
}

// Has reports whether key is present, case-insensitively.
func (h *Headers) Has(key string) bool {
	_, ok := h.Get(key)
	return ok
}

// Range calls fn once per header key, in insertion order, with the
// original casing and the joined value.
func (h *Headers) Range(fn func(key, value string)) {
	for _, lk := range h.order {
		e := h.data[lk]
		fn(e.key, strings.Join(e.values, ", "))
	}
}

// Clone returns a deep copy.
func (h *Headers) Clone() *Headers {
	out := NewHeaders()
	h.Range(func(k, v string) { out.Add(k, v) })
	return out
}
