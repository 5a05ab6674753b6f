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

import (
	"bytes"
	"strconv"
)

// Dump serializes the request byte-exact per spec.md §4.2:
// "METHOD path[?query][#fragment] HTTP/<maj>.<min>\r\n" then headers then
// body.
func (r *Request) Dump() []byte {
	r.init()
	var b bytes.Buffer
	b.WriteString(r.Method)
	b.WriteByte(' ')
	b.WriteString(r.Path)
	if r.Query != "" {
		b.WriteByte('?')
		b.WriteString(r.Query)
	}
	if r.Fragment != "" {
		b.WriteByte('#')
		b.WriteString(r.Fragment)
	}
	b.WriteByte(' ')
	b.WriteString(r.Version.String())
	b.WriteString("\r\n")

	r.Headers.Range(func(k, v string) {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(v)
		b.WriteString("\r\n")
	})
	for _, c := range r.Cookies {
		b.WriteString("Cookie: ")
		b.WriteString(c.Name)
		b.WriteByte('=')
		b.WriteString(c.Value)
		b.WriteString("\r\n")
	}
	if !r.IsWebsocket {
		if r.Close {
			b.WriteString("connection: close\r\n")
		} else {
			b.WriteString("connection: keep-alive\r\n")
		}
	}
	if len(r.Body) > 0 {
		b.WriteString("content-length: ")
		b.WriteString(strconv.Itoa(len(r.Body)))
		b.WriteString("\r\n\r\n")
		b.Write(r.Body)
	} else {
		b.WriteString("\r\n")
	}
	return b.Bytes()
}

// Dump serializes the response byte-exact per spec.md §4.2:
// "HTTP/<maj>.<min> <code> <reason>\r\n" then headers, then Set-Cookie
// lines, then the connection header (skipped for websocket upgrades), then
// content-length + body.
func (resp *Response) Dump() []byte {
	resp.init()
	var b bytes.Buffer
	b.WriteString(resp.Version.String())
	b.WriteByte(' ')
	b.WriteString(strconv.Itoa(resp.Status))
	b.WriteByte(' ')
	b.WriteString(resp.Reason)
	b.WriteString("\r\n")

	resp.Headers.Range(func(k, v string) {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(v)
		b.WriteString("\r\n")
	})
	for _, c := range resp.SetCookies {
		b.WriteString("Set-Cookie: ")
		b.WriteString(dumpCookie(c))
		b.WriteString("\r\n")
	}
	if !resp.IsWebsocket {
		if resp.Close {
			b.WriteString("connection: close\r\n")
		} else {
			b.WriteString("connection: keep-alive\r\n")
		}
	}
	if len(resp.Body) > 0 {
		b.WriteString("content-length: ")
		b.WriteString(strconv.Itoa(len(resp.Body)))
		b.WriteString("\r\n\r\n")
		b.Write(resp.Body)
	} else {
		b.WriteString("\r\n")
	}
	return b.Bytes()
}

func dumpCookie(c Cookie) string {
	var b bytes.Buffer
	b.WriteString(c.Name)
	b.WriteByte('=')
	b.WriteString(c.Value)
	if c.Path != "" {
		b.WriteString("; Path=")
		b.WriteString(c.Path)
	}
	if c.Domain != "" {
		b.WriteString("; Domain=")
		b.WriteString(c.Domain)
	}
	if c.MaxAge != 0 {
		b.WriteString("; Max-Age=")
		b.WriteString(strconv.Itoa(c.MaxAge))
	}
	if c.HttpOnly {
		b.WriteString("; HttpOnly")
	}
	if c.Secure {
		b.WriteString("; Secure")
	}
	return b.String()
}
