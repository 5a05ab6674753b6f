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

// Package httpclient implements component C6: client-side request/response
// over the C4 codec, and a keep-alive connection pool keyed by
// (host, vhost, port, scheme) with age/request-count/liveness eviction.
package httpclient

import (
	liberr "github.com/DreamTraveler233/sylar-sub003/errors"
)

const (
	ErrorInvalidURL = liberr.CodeError(liberr.MinPkgHttpClient + iota)
	ErrorInvalidHost
	ErrorConnectFailed
	ErrorSendClosedByPeer
	ErrorSendSocketError
	ErrorTimeout
	ErrorCreateSocketError
	ErrorPoolGetConnection
	ErrorPoolInvalidConnection
)

func init() {
	liberr.RegisterIdFctMessage(liberr.MinPkgHttpClient, getMessage)
}

func getMessage(code liberr.CodeError) string {
	switch code {
	case ErrorInvalidURL:
		return "invalid URL"
	case ErrorInvalidHost:
		return "invalid or unresolvable host"
	case ErrorConnectFailed:
		return "connection attempt failed"
	case ErrorSendClosedByPeer:
		return "peer closed connection during send"
	case ErrorSendSocketError:
		return "socket error during send"
	case ErrorTimeout:
		return "request timed out"
	case ErrorCreateSocketError:
		return "failed to create socket"
	case ErrorPoolGetConnection:
		return "failed to obtain a pooled connection"
	case ErrorPoolInvalidConnection:
		return "pooled connection handle is no longer valid"
	}
	return liberr.UnknownMessage
}
