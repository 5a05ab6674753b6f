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

// Package httpwire implements component C4: a table-driven HTTP/1.1
// request/response codec — parser and dumper — sitting on top of a plain
// byte window, independent of any particular socket implementation.
package httpwire

import (
	liberr "github.com/DreamTraveler233/sylar-sub003/errors"
)

const (
	ErrorInvalidMethod = liberr.CodeError(liberr.MinPkgHttpWire + iota)
	ErrorInvalidRequestLine
	ErrorInvalidStatusLine
	ErrorInvalidHeader
	ErrorInvalidChunk
	ErrorBodyTooLarge
	ErrorUnsupportedEncoding
)

func init() {
	liberr.RegisterIdFctMessage(liberr.MinPkgHttpWire, getMessage)
}

func getMessage(code liberr.CodeError) string {
	switch code {
	case ErrorInvalidMethod:
		return "unrecognized HTTP method"
	case ErrorInvalidRequestLine:
		return "malformed request line"
	case ErrorInvalidStatusLine:
		return "malformed status line"
	case ErrorInvalidHeader:
		return "malformed header line"
	case ErrorInvalidChunk:
		return "malformed chunked-encoding segment"
	case ErrorBodyTooLarge:
		return "message body exceeds configured cap"
	case ErrorUnsupportedEncoding:
		return "unsupported content-encoding"
	}
	return liberr.UnknownMessage
}
