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
	"compress/flate"
	"compress/gzip"
	"io"
	"strconv"
	"strings"

	liberr "github.com/DreamTraveler233/sylar-sub003/errors"
)

type phase int

const (
	phaseLine phase = iota
	phaseHeaders
	phaseBody
	phaseDone
)

// DefaultMaxBodySize bounds how large a body the parser will accept before
// failing hard, per spec.md §4.2 "bodies exceeding a fixed cap are
// rejected".
const DefaultMaxBodySize = 16 << 20

var methodSet = map[string]bool{
	"GET": true, "HEAD": true, "POST": true, "PUT": true, "DELETE": true,
	"CONNECT": true, "OPTIONS": true, "TRACE": true, "PATCH": true,
	"COPY": true, "LOCK": true, "MKCOL": true, "MOVE": true,
	"PROPFIND": true, "PROPPATCH": true, "SEARCH": true, "UNLOCK": true,
}

// RequestParser is a table-driven, incremental HTTP request parser: feed it
// arbitrary byte windows via Feed until IsFinished reports true. It never
// retains a reference into a buffer passed to Feed past that call, per
// spec.md §4.2.
type RequestParser struct {
	phase       phase
	buf         bytes.Buffer
	req         *Request
	maxBodySize int
	contentLen  int
	haveLen     bool
	chunked     bool
	bodyNeeded  int
}

func NewRequestParser() *RequestParser {
	return &RequestParser{req: NewRequest(), maxBodySize: DefaultMaxBodySize}
}

func (p *RequestParser) SetMaxBodySize(n int) { p.maxBodySize = n }

func (p *RequestParser) IsFinished() bool { return p.phase == phaseDone }

func (p *RequestParser) Result() *Request {
	p.req.init()
	return p.req
}

func (p *RequestParser) ContentLength() int { return p.contentLen }
func (p *RequestParser) Chunked() bool      { return p.chunked }

// Feed consumes as much of data as the current phase can use and returns
// the number of bytes consumed. Call repeatedly until IsFinished().
func (p *RequestParser) Feed(data []byte) (int, liberr.Error) {
	consumed := 0
	for consumed < len(data) && p.phase != phaseDone {
		switch p.phase {
		case phaseLine:
			n, e := p.feedLine(data[consumed:])
			consumed += n
			if e != nil {
				return consumed, e
			}
			if n == 0 {
				return consumed, nil
			}
		case phaseHeaders:
			n, e := p.feedHeaders(data[consumed:])
			consumed += n
			if e != nil {
				return consumed, e
			}
			if n == 0 {
				return consumed, nil
			}
		case phaseBody:
			n, e := p.feedBody(data[consumed:])
			consumed += n
			if e != nil {
				return consumed, e
			}
			if n == 0 {
				return consumed, nil
			}
		}
	}
	return consumed, nil
}

func findCRLF(b []byte) int {
	return bytes.Index(b, []byte("\r\n"))
}

func (p *RequestParser) feedLine(data []byte) (int, liberr.Error) {
	p.buf.Write(data)
	raw := p.buf.Bytes()
	idx := findCRLF(raw)
	if idx < 0 {
		return len(data), nil
	}
	line := string(raw[:idx])
	used := len(data) - len(raw[idx+2:])
	p.buf.Reset()

	fields := strings.Fields(line)
	if len(fields) != 3 {
		return len(data), ErrorInvalidRequestLine.Error(nil)
	}
	method, target, ver := fields[0], fields[1], fields[2]
	if !methodSet[method] {
		return len(data), ErrorInvalidMethod.Error(nil)
	}
	v, e := parseVersion(ver)
	if e != nil {
		return len(data), e
	}
	p.req.Method = method
	p.req.Version = v
	parseTarget(p.req, target)
	p.phase = phaseHeaders
	return used, nil
}

func parseVersion(s string) (Version, liberr.Error) {
	switch s {
	case "HTTP/1.1":
		return Version11, nil
	case "HTTP/1.0":
		return Version10, nil
	}
	return 0, ErrorInvalidRequestLine.Error(nil)
}

func parseTarget(r *Request, target string) {
	path := target
	if i := strings.IndexByte(path, '#'); i >= 0 {
		r.Fragment = path[i+1:]
		path = path[:i]
	}
	if i := strings.IndexByte(path, '?'); i >= 0 {
		r.Query = path[i+1:]
		path = path[:i]
	}
	r.Path = path
}

func (p *RequestParser) feedHeaders(data []byte) (int, liberr.Error) {
	p.buf.Write(data)
	for {
		raw := p.buf.Bytes()
		idx := findCRLF(raw)
		if idx < 0 {
			return len(data), nil
		}
		line := raw[:idx]
		rest := raw[idx+2:]
		if len(line) == 0 {
			used := len(data) - len(rest)
			p.buf.Reset()
			return p.finishHeaders(data[:used])
		}
		if e := applyHeaderLine(p.req.Headers, string(line)); e != nil {
			return len(data), e
		}
		tmp := make([]byte, len(rest))
		copy(tmp, rest)
		p.buf.Reset()
		p.buf.Write(tmp)
	}
}

func applyHeaderLine(h *Headers, line string) liberr.Error {
	idx := strings.IndexByte(line, ':')
	if idx < 0 {
		return ErrorInvalidHeader.Error(nil)
	}
	key := strings.TrimSpace(line[:idx])
	val := strings.TrimSpace(line[idx+1:])
	if key == "" {
		return ErrorInvalidHeader.Error(nil)
	}
	h.Add(key, val)
	return nil
}

func (p *RequestParser) finishHeaders(data []byte) (int, liberr.Error) {
	if conn, ok := p.req.Headers.Get("Connection"); ok && strings.EqualFold(strings.TrimSpace(conn), "upgrade") {
		if up, ok2 := p.req.Headers.Get("Upgrade"); ok2 && strings.EqualFold(up, "websocket") {
			p.req.IsWebsocket = true
		}
	}
	if te, ok := p.req.Headers.Get("Transfer-Encoding"); ok && strings.Contains(strings.ToLower(te), "chunked") {
		p.chunked = true
	} else if cl, ok := p.req.Headers.Get("Content-Length"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(cl))
		if err != nil || n < 0 {
			return len(data), ErrorInvalidHeader.Error(nil)
		}
		p.contentLen = n
		p.haveLen = true
	}
	if p.contentLen > p.maxBodySize {
		return len(data), ErrorBodyTooLarge.Error(nil)
	}
	if !p.chunked && (!p.haveLen || p.contentLen == 0) {
		p.phase = phaseDone
		return len(data), nil
	}
	p.phase = phaseBody
	p.bodyNeeded = p.contentLen
	return len(data), nil
}

func (p *RequestParser) feedBody(data []byte) (int, liberr.Error) {
	if p.chunked {
		return feedChunkedBody(&p.buf, &p.req.Body, data, p.maxBodySize, &p.phase)
	}
	need := p.bodyNeeded - len(p.req.Body)
	if need > len(data) {
		need = len(data)
	}
	p.req.Body = append(p.req.Body, data[:need]...)
	if len(p.req.Body) >= p.bodyNeeded {
		p.phase = phaseDone
	}
	return need, nil
}

// feedChunkedBody drives the {size-line -> payload -> CRLF} loop from
// spec.md §4.2 against whatever carryover bytes sit in carry plus the new
// window in data, appending decoded bytes to *body.
func feedChunkedBody(carry *bytes.Buffer, body *[]byte, data []byte, maxSize int, ph *phase) (int, liberr.Error) {
	carry.Write(data)
	consumedTotal := len(data)
	for {
		raw := carry.Bytes()
		idx := findCRLF(raw)
		if idx < 0 {
			return consumedTotal, nil
		}
		sizeLine := strings.TrimSpace(string(raw[:idx]))
		if sc := strings.IndexByte(sizeLine, ';'); sc >= 0 {
			sizeLine = sizeLine[:sc]
		}
		size, err := strconv.ParseInt(sizeLine, 16, 64)
		if err != nil || size < 0 {
			return consumedTotal, ErrorInvalidChunk.Error(nil)
		}
		rest := raw[idx+2:]
		if size == 0 {
			// trailing CRLF after the zero chunk
			if len(rest) < 2 {
				carry.Reset()
				carry.Write(raw[:idx+2])
				carry.Write(rest)
				return consumedTotal, nil
			}
			carry.Reset()
			carry.Write(rest[2:])
			*ph = phaseDone
			return consumedTotal, nil
		}
		if len(*body)+int(size) > maxSize {
			return consumedTotal, ErrorBodyTooLarge.Error(nil)
		}
		if len(rest) < int(size)+2 {
			return consumedTotal, nil
		}
		*body = append(*body, rest[:size]...)
		carry.Reset()
		carry.Write(rest[size+2:])
	}
}

// decodeBody inflates gzip/deflate bodies per spec.md §4.2. Returns the
// original slice unchanged when Content-Encoding is absent or empty; any
// other encoding yields ErrorUnsupportedEncoding.
func decodeBody(h *Headers, body []byte) ([]byte, liberr.Error) {
	enc, ok := h.Get("Content-Encoding")
	if !ok {
		return body, nil
	}
	switch strings.ToLower(strings.TrimSpace(enc)) {
	case "":
		return body, nil
	case "gzip":
		r, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, ErrorUnsupportedEncoding.Error(err)
		}
		defer r.Close()
		out, err := io.ReadAll(r)
		if err != nil {
			return nil, ErrorUnsupportedEncoding.Error(err)
		}
		return out, nil
	case "deflate":
		r := flate.NewReader(bytes.NewReader(body))
		defer r.Close()
		out, err := io.ReadAll(r)
		if err != nil {
			return nil, ErrorUnsupportedEncoding.Error(err)
		}
		return out, nil
	default:
		return nil, ErrorUnsupportedEncoding.Error(nil)
	}
}

// ResponseParser mirrors RequestParser for the status-line + headers + body
// phases of a response.
type ResponseParser struct {
	phase       phase
	buf         bytes.Buffer
	resp        *Response
	maxBodySize int
	contentLen  int
	haveLen     bool
	chunked     bool
	bodyNeeded  int
}

func NewResponseParser() *ResponseParser {
	return &ResponseParser{resp: NewResponse(), maxBodySize: DefaultMaxBodySize}
}

func (p *ResponseParser) SetMaxBodySize(n int) { p.maxBodySize = n }
func (p *ResponseParser) IsFinished() bool     { return p.phase == phaseDone }
func (p *ResponseParser) ContentLength() int   { return p.contentLen }
func (p *ResponseParser) Chunked() bool        { return p.chunked }

func (p *ResponseParser) Result() (*Response, liberr.Error) {
	p.resp.init()
	decoded, e := decodeBody(p.resp.Headers, p.resp.Body)
	if e != nil {
		return p.resp, e
	}
	p.resp.Body = decoded
	return p.resp, nil
}

func (p *ResponseParser) Feed(data []byte) (int, liberr.Error) {
	consumed := 0
	for consumed < len(data) && p.phase != phaseDone {
		switch p.phase {
		case phaseLine:
			n, e := p.feedLine(data[consumed:])
			consumed += n
			if e != nil {
				return consumed, e
			}
			if n == 0 {
				return consumed, nil
			}
		case phaseHeaders:
			n, e := p.feedHeaders(data[consumed:])
			consumed += n
			if e != nil {
				return consumed, e
			}
			if n == 0 {
				return consumed, nil
			}
		case phaseBody:
			n, e := p.feedBody(data[consumed:])
			consumed += n
			if e != nil {
				return consumed, e
			}
			if n == 0 {
				return consumed, nil
			}
		}
	}
	return consumed, nil
}

func (p *ResponseParser) feedLine(data []byte) (int, liberr.Error) {
	p.buf.Write(data)
	raw := p.buf.Bytes()
	idx := findCRLF(raw)
	if idx < 0 {
		return len(data), nil
	}
	line := string(raw[:idx])
	used := len(data) - len(raw[idx+2:])
	p.buf.Reset()

	fields := strings.SplitN(line, " ", 3)
	if len(fields) < 2 {
		return len(data), ErrorInvalidStatusLine.Error(nil)
	}
	v, e := parseVersion(fields[0])
	if e != nil {
		return len(data), e
	}
	code, err := strconv.Atoi(fields[1])
	if err != nil {
		return len(data), ErrorInvalidStatusLine.Error(err)
	}
	p.resp.Version = v
	p.resp.Status = code
	if len(fields) == 3 {
		p.resp.Reason = fields[2]
	}
	p.phase = phaseHeaders
	return used, nil
}

func (p *ResponseParser) feedHeaders(data []byte) (int, liberr.Error) {
	p.buf.Write(data)
	for {
		raw := p.buf.Bytes()
		idx := findCRLF(raw)
		if idx < 0 {
			return len(data), nil
		}
		line := raw[:idx]
		rest := raw[idx+2:]
		if len(line) == 0 {
			used := len(data) - len(rest)
			p.buf.Reset()
			return p.finishHeaders(data[:used])
		}
		if e := applyHeaderLine(p.resp.Headers, string(line)); e != nil {
			return len(data), e
		}
		tmp := make([]byte, len(rest))
		copy(tmp, rest)
		p.buf.Reset()
		p.buf.Write(tmp)
	}
}

func (p *ResponseParser) finishHeaders(data []byte) (int, liberr.Error) {
	if conn, ok := p.resp.Headers.Get("Connection"); ok && strings.EqualFold(strings.TrimSpace(conn), "upgrade") {
		p.resp.IsWebsocket = true
	}
	if p.resp.Status == 101 {
		p.phase = phaseDone
		return len(data), nil
	}
	if te, ok := p.resp.Headers.Get("Transfer-Encoding"); ok && strings.Contains(strings.ToLower(te), "chunked") {
		p.chunked = true
	} else if cl, ok := p.resp.Headers.Get("Content-Length"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(cl))
		if err != nil || n < 0 {
			return len(data), ErrorInvalidHeader.Error(nil)
		}
		p.contentLen = n
		p.haveLen = true
	}
	if p.contentLen > p.maxBodySize {
		return len(data), ErrorBodyTooLarge.Error(nil)
	}
	if !p.chunked && (!p.haveLen || p.contentLen == 0) {
		p.phase = phaseDone
		return len(data), nil
	}
	p.phase = phaseBody
	p.bodyNeeded = p.contentLen
	return len(data), nil
}

func (p *ResponseParser) feedBody(data []byte) (int, liberr.Error) {
	if p.chunked {
		return feedChunkedBody(&p.buf, &p.resp.Body, data, p.maxBodySize, &p.phase)
	}
	need := p.bodyNeeded - len(p.resp.Body)
	if need > len(data) {
		need = len(data)
	}
	p.resp.Body = append(p.resp.Body, data[:need]...)
	if len(p.resp.Body) >= p.bodyNeeded {
		p.phase = phaseDone
	}
	return need, nil
}
