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

// Package mempool implements component C3: an arena allocator scoped to one
// request or one connection, with a small-object bump pointer, a large
// allocation side list, and a cleanup callback chain invoked on reset.
//
// Go cannot (and should not) hand out raw invalidated pointers the way the
// nginx-style pool this is grounded on does; instead every allocation is
// returned as a Ref, a generation-stamped handle. A Ref whose generation no
// longer matches the arena's current generation is stale and Bytes()
// reports that instead of returning a dangling slice, giving the "all
// pointers handed out since the last reset become invalid atomically on
// reset" contract from spec.md §5 a safe Go realization.
package mempool

import (
	liberr "github.com/DreamTraveler233/sylar-sub003/errors"
)

const (
	ErrorStaleRef = liberr.CodeError(liberr.MinPkgMempool + iota)
)

func init() {
	liberr.RegisterIdFctMessage(liberr.MinPkgMempool, getMessage)
}

func getMessage(code liberr.CodeError) string {
	switch code {
	case ErrorStaleRef:
		return "memory pool reference is stale: arena was reset"
	}
	return liberr.UnknownMessage
}
