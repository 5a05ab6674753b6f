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

package websocket

import (
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"io"
	"net"

	liberr "github.com/DreamTraveler233/sylar-sub003/errors"
	"github.com/DreamTraveler233/sylar-sub003/httpwire"
)

// MagicGUID is the RFC 6455 handshake constant.
const MagicGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

// AcceptKey computes Sec-WebSocket-Accept for the given request key.
func AcceptKey(key string) string {
	h := sha1.New()
	_, _ = io.WriteString(h, key)
	_, _ = io.WriteString(h, MagicGUID)
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

func newClientKey() (string, liberr.Error) {
	var b [16]byte
	if _, err := io.ReadFull(rand.Reader, b[:]); err != nil {
		return "", ErrorHandshakeFailed.Error(err)
	}
	return base64.StdEncoding.EncodeToString(b[:]), nil
}

// Handshake performs the client-side upgrade over conn, writing the GET
// request and validating the 101 response, per spec.md §4.5.
func Handshake(conn net.Conn, host, path string) liberr.Error {
	key, e := newClientKey()
	if e != nil {
		return e
	}

	req := httpwire.NewRequest()
	req.Method = "GET"
	req.Path = path
	req.Headers.Set("Host", host)
	req.Headers.Set("Upgrade", "websocket")
	req.Headers.Set("Connection", "Upgrade")
	req.Headers.Set("Sec-WebSocket-Key", key)
	req.Headers.Set("Sec-WebSocket-Version", "13")
	req.IsWebsocket = true

	if _, err := conn.Write(req.Dump()); err != nil {
		return ErrorHandshakeFailed.Error(err)
	}

	p := httpwire.NewResponseParser()
	buf := make([]byte, 4096)
	for !p.IsFinished() {
		n, err := conn.Read(buf)
		if err != nil {
			return ErrorHandshakeFailed.Error(err)
		}
		if n == 0 {
			return ErrorHandshakeFailed.Error(nil)
		}
		if _, perr := p.Feed(buf[:n]); perr != nil {
			return ErrorHandshakeFailed.Error(perr)
		}
	}
	resp, perr := p.Result()
	if perr != nil {
		return ErrorHandshakeFailed.Error(perr)
	}
	if resp.Status != 101 {
		return ErrorHandshakeFailed.Error(nil)
	}
	accept, ok := resp.GetHeader("Sec-WebSocket-Accept")
	if !ok || accept != AcceptKey(key) {
		return ErrorHandshakeFailed.Error(nil)
	}
	return nil
}
