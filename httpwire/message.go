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

// Version is a packed nibble pair: high nibble major, low nibble minor.
// 0x11 == HTTP/1.1, 0x10 == HTTP/1.0, per spec.md §3.
type Version uint8

const (
	Version10 Version = 0x10
	Version11 Version = 0x11
)

func (v Version) Major() int { return int(v >> 4) }
func (v Version) Minor() int { return int(v & 0x0f) }
func (v Version) String() string {
	return "HTTP/" + itoa(v.Major()) + "." + itoa(v.Minor())
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [4]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// Cookie is a single request Cookie: or response Set-Cookie: entry.
type Cookie struct {
	Name     string
	Value    string
	Path     string
	Domain   string
	MaxAge   int
	HttpOnly bool
	Secure   bool
}

// Request is the C4 request data model.
type Request struct {
	Method      string
	Path        string
	Query       string
	Fragment    string
	Version     Version
	Headers     *Headers
	Cookies     []Cookie
	Params      map[string]string
	Body        []byte
	Close       bool
	IsWebsocket bool

	closeComputed bool
}

// Response is the C4 response data model.
type Response struct {
	Status      int
	Reason      string
	Version     Version
	Headers     *Headers
	SetCookies  []Cookie
	Body        []byte
	Close       bool
	IsWebsocket bool

	closeComputed bool
}

func NewRequest() *Request {
	return &Request{Version: Version11, Headers: NewHeaders(), Params: map[string]string{}}
}

func NewResponse() *Response {
	return &Response{Version: Version11, Headers: NewHeaders()}
}

// init derives Close from the Connection header with version-default
// fallback. Per spec.md §3 this is computed exactly once; later header
// mutation does not re-derive it.
func (r *Request) init() {
	if r.closeComputed {
		return
	}
	r.Close = deriveClose(r.Headers, r.Version)
	r.closeComputed = true
}

func (resp *Response) init() {
	if resp.closeComputed {
		return
	}
	resp.Close = deriveClose(resp.Headers, resp.Version)
	resp.closeComputed = true
}

func deriveClose(h *Headers, v Version) bool {
	if conn, ok := h.Get("Connection"); ok {
		switch strings.ToLower(strings.TrimSpace(conn)) {
		case "close":
			return true
		case "keep-alive":
			return false
		}
	}
	// HTTP/1.0 defaults to close, HTTP/1.1 defaults to keep-alive.
	return v == Version10
}

// GetHeader is a case-insensitive header lookup.
func (r *Request) GetHeader(key string) (string, bool) { return r.Headers.Get(key) }
func (resp *Response) GetHeader(key string) (string, bool) { return resp.Headers.Get(key) }

// SetRedirect sets a 3xx status and a Location header — the Open Question
// (b) decision: unlike the source this is grounded on, where setRedirect
// was a no-op stub, here it actually mutates the response.
func (resp *Response) SetRedirect(location string, status int) {
	if status == 0 {
		status = 302
	}
	resp.Status = status
	resp.Headers.Set("Location", location)
}

// SetCookie appends a Set-Cookie entry, again a real mutation rather than
// the stubbed-out behavior of the source.
func (resp *Response) SetCookie(c Cookie) {
	resp.SetCookies = append(resp.SetCookies, c)
}
