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

// Package rock implements component C9: the length-prefixed Rock RPC
// framing layer — an 8-byte fixed header followed by a byte-buffer-encoded
// envelope — plus request/response correlation by sn and a cmd-dispatch
// server router.
package rock

import (
	liberr "github.com/DreamTraveler233/sylar-sub003/errors"
)

const (
	ErrorBadMagic = liberr.CodeError(liberr.MinPkgRock + iota)
	ErrorBadVersion
	ErrorFrameTooLarge
	ErrorUnknownType
	ErrorUnmatchedResponse
	ErrorDuplicateSn
)

func init() {
	liberr.RegisterIdFctMessage(liberr.MinPkgRock, getMessage)
}

func getMessage(code liberr.CodeError) string {
	switch code {
	case ErrorBadMagic:
		return "frame magic mismatch"
	case ErrorBadVersion:
		return "unsupported frame version"
	case ErrorFrameTooLarge:
		return "frame exceeds per-connection size cap"
	case ErrorUnknownType:
		return "unknown frame type"
	case ErrorUnmatchedResponse:
		return "response sn has no matching in-flight request"
	case ErrorDuplicateSn:
		return "sn already in-flight for this connection"
	}
	return liberr.UnknownMessage
}
