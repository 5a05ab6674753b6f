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

// Package netstream implements component C2: a blocking read/write facade
// over a (possibly TLS) net.Conn, with readFixSize/writeFixSize loops and an
// ownership flag controlling close-on-drop.
package netstream

import (
	liberr "github.com/DreamTraveler233/sylar-sub003/errors"
)

const (
	ErrorPeerClosed = liberr.CodeError(liberr.MinPkgNetstream + iota)
	ErrorSocket
	ErrorShortWrite
)

func init() {
	liberr.RegisterIdFctMessage(liberr.MinPkgNetstream, getMessage)
}

func getMessage(code liberr.CodeError) string {
	switch code {
	case ErrorPeerClosed:
		return "remote peer closed the connection"
	case ErrorSocket:
		return "socket I/O error"
	case ErrorShortWrite:
		return "short write to socket"
	}
	return liberr.UnknownMessage
}
