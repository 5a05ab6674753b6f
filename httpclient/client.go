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

package httpclient

import (
	"crypto/tls"
	"net"
	"net/url"
	"time"

	liberr "github.com/DreamTraveler233/sylar-sub003/errors"
	"github.com/DreamTraveler233/sylar-sub003/httpwire"
)

// Result is the DoRequest outcome variant from spec.md §4.4.
type Result int

const (
	ResultOK Result = iota
	ResultInvalidURL
	ResultInvalidHost
	ResultConnectFail
	ResultSendCloseByPeer
	ResultSendSocketError
	ResultTimeout
	ResultCreateSocketError
	ResultPoolGetConnection
	ResultPoolInvalidConnection
)

// Client issues requests against a Manager-backed connection pool. No
// retries: retry policy is the caller's, per spec.md §4.4.
type Client struct {
	mgr *Manager
}

func NewClient(opt PoolOptions, maxOrigins int) *Client {
	return &Client{mgr: NewManager(opt, maxOrigins)}
}

// DoRequest builds the wire request (ensuring a Host header), sends it,
// receives the response, and returns the spec'd result variant.
func (c *Client) DoRequest(method, rawURL string, body []byte, timeout time.Duration) (*httpwire.Response, Result, liberr.Error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return nil, ResultInvalidURL, ErrorInvalidURL.Error(err)
	}
	scheme := u.Scheme
	if scheme == "" {
		scheme = "http"
	}
	host := u.Hostname()
	if host == "" {
		return nil, ResultInvalidHost, ErrorInvalidHost.Error(nil)
	}
	port := u.Port()
	if port == "" {
		if scheme == "https" {
			port = "443"
		} else {
			port = "80"
		}
	}
	origin := originKey{host: host, vhost: u.Host, port: port, scheme: scheme}

	handle, e := c.mgr.Get(origin, dialer(origin, c.mgr.opt))
	if e != nil {
		return nil, ResultPoolGetConnection, e
	}
	if handle == nil || handle.Stream() == nil {
		return nil, ResultPoolInvalidConnection, ErrorPoolInvalidConnection.Error(nil)
	}

	req := httpwire.NewRequest()
	req.Method = method
	req.Path = u.Path
	if req.Path == "" {
		req.Path = "/"
	}
	req.Query = u.RawQuery
	req.Fragment = u.Fragment
	req.Body = body
	if !req.Headers.Has("Host") {
		req.Headers.Set("Host", u.Host)
	}

	if timeout > 0 {
		_ = handle.Stream().SetDeadline(time.Now().Add(timeout))
	}

	if _, e := handle.Stream().WriteFixSize(req.Dump()); e != nil {
		handle.Discard()
		if isTimeout(e) {
			return nil, ResultTimeout, e
		}
		return nil, ResultSendSocketError, ErrorSendSocketError.Error(e)
	}

	resp, e, closedByPeer := c.readResponse(handle)
	if e != nil {
		handle.Discard()
		if isTimeout(e) {
			return nil, ResultTimeout, e
		}
		if closedByPeer {
			return nil, ResultSendCloseByPeer, ErrorSendClosedByPeer.Error(e)
		}
		return nil, ResultSendSocketError, e
	}

	if resp.Close {
		handle.Discard()
	} else {
		handle.Release()
	}
	return resp, ResultOK, nil
}

func (c *Client) readResponse(handle *Handle) (*httpwire.Response, liberr.Error, bool) {
	p := httpwire.NewResponseParser()
	buf := make([]byte, 8192)
	for !p.IsFinished() {
		n, e := handle.Stream().Read(buf)
		if e != nil {
			return nil, e, false
		}
		if n == 0 {
			return nil, ErrorSendClosedByPeer.Error(nil), true
		}
		if _, e := p.Feed(buf[:n]); e != nil {
			return nil, e, false
		}
	}
	resp, e := p.Result()
	if e != nil {
		return nil, e, false
	}
	return resp, nil, false
}

func dialer(o originKey, opt PoolOptions) func() (net.Conn, liberr.Error) {
	return func() (net.Conn, liberr.Error) {
		addr := net.JoinHostPort(o.host, o.port)
		d := net.Dialer{Timeout: opt.DialTimeout}
		if opt.DialTimeout <= 0 {
			d.Timeout = 5 * time.Second
		}
		if o.scheme == "https" {
			cfg := opt.TLSConfig
			if cfg == nil {
				cfg = &tls.Config{ServerName: o.host}
			}
			nc, err := tls.DialWithDialer(&d, "tcp", addr, cfg)
			if err != nil {
				return nil, ErrorConnectFailed.Error(err)
			}
			return nc, nil
		}
		nc, err := d.Dial("tcp", addr)
		if err != nil {
			return nil, ErrorConnectFailed.Error(err)
		}
		return nc, nil
	}
}

func isTimeout(e liberr.Error) bool {
	if e == nil {
		return false
	}
	var ne net.Error
	for _, p := range e.GetParent(true) {
		if errAs(p, &ne) && ne.Timeout() {
			return true
		}
	}
	return false
}

func errAs(err error, target *net.Error) bool {
	if ne, ok := err.(net.Error); ok {
		*target = ne
		return true
	}
	return false
}
