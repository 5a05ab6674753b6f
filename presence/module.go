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

package presence

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/DreamTraveler233/sylar-sub003/rock"
)

// Rock cmd codes for the presence module, recovered from original_source/'s
// command table.
const (
	CmdSetOnline uint32 = 201
	CmdHeartbeat uint32 = 202
	CmdSetOffline uint32 = 203
	CmdGetRoute   uint32 = 204
)

var metricOps = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "sylar",
	Subsystem: "presence",
	Name:      "operations_total",
	Help:      "Presence operations by command and result status.",
}, []string{"cmd", "status"})

func init() {
	prometheus.MustRegister(metricOps)
}

// Module wires a Store to the Rock cmd dispatch, applying the default key
// prefix and TTL from spec.md §6.
type Module struct {
	store     Store
	keyPrefix string
	ttl       time.Duration
}

func NewModule(store Store, keyPrefix string, ttl time.Duration) *Module {
	if keyPrefix == "" {
		keyPrefix = "presence:"
	}
	if ttl <= 0 {
		ttl = 120 * time.Second
	}
	return &Module{store: store, keyPrefix: keyPrefix, ttl: ttl}
}

// Register binds this module's handlers into r under the standard cmd
// codes.
func (m *Module) Register(r *rock.Router) {
	r.Register(CmdSetOnline, m.handleSetOnline)
	r.Register(CmdHeartbeat, m.handleSetOnline) // heartbeat is idempotent with set-online, per spec.md §4.8
	r.Register(CmdSetOffline, m.handleSetOffline)
	r.Register(CmdGetRoute, m.handleGetRoute)
}

type setOnlineBody struct {
	UID        uint64 `json:"uid"`
	GatewayRPC string `json:"gateway_rpc"`
	TTLSec     int64  `json:"ttl_sec"`
}

func (m *Module) handleSetOnline(env rock.Envelope) (uint32, string, []byte) {
	var in setOnlineBody
	if err := json.Unmarshal(env.Body, &in); err != nil || in.UID == 0 {
		metricOps.WithLabelValues(strconvCmd(env.Cmd), "400").Inc()
		return 400, "missing or zero uid", nil
	}
	if in.GatewayRPC == "" {
		metricOps.WithLabelValues(strconvCmd(env.Cmd), "400").Inc()
		return 400, "missing gateway_rpc", nil
	}
	ttl := m.ttl
	if in.TTLSec > 0 {
		ttl = time.Duration(in.TTLSec) * time.Second
	}
	rec := Record{GatewayRPC: in.GatewayRPC, LastSeenMs: time.Now().UnixMilli()}
	if e := m.store.Set(context.Background(), m.key(in.UID), rec, ttl); e != nil {
		metricOps.WithLabelValues(strconvCmd(env.Cmd), "500").Inc()
		return 500, "backend error", nil
	}
	metricOps.WithLabelValues(strconvCmd(env.Cmd), "200").Inc()
	return 200, "ok", nil
}

type setOfflineBody struct {
	UID uint64 `json:"uid"`
}

func (m *Module) handleSetOffline(env rock.Envelope) (uint32, string, []byte) {
	var in setOfflineBody
	if err := json.Unmarshal(env.Body, &in); err != nil || in.UID == 0 {
		metricOps.WithLabelValues("set_offline", "400").Inc()
		return 400, "missing or zero uid", nil
	}
	if e := m.store.Delete(context.Background(), m.key(in.UID)); e != nil {
		metricOps.WithLabelValues("set_offline", "500").Inc()
		return 500, "backend error", nil
	}
	metricOps.WithLabelValues("set_offline", "200").Inc()
	return 200, "ok", nil
}

type getRouteBody struct {
	UID uint64 `json:"uid"`
}

type getRouteResult struct {
	GatewayRPC string `json:"gateway_rpc"`
	LastSeenMs int64  `json:"last_seen_ms"`
	TTLSec     int64  `json:"ttl_sec"`
}

func (m *Module) handleGetRoute(env rock.Envelope) (uint32, string, []byte) {
	var in getRouteBody
	if err := json.Unmarshal(env.Body, &in); err != nil || in.UID == 0 {
		metricOps.WithLabelValues("get_route", "400").Inc()
		return 400, "missing or zero uid", nil
	}
	rec, ttl, e := m.store.Get(context.Background(), m.key(in.UID))
	if e != nil {
		if e.IsCode(ErrorNotFound) {
			metricOps.WithLabelValues("get_route", "404").Inc()
			return 404, "not found", nil
		}
		metricOps.WithLabelValues("get_route", "500").Inc()
		return 500, "backend error", nil
	}
	out, _ := json.Marshal(getRouteResult{
		GatewayRPC: rec.GatewayRPC,
		LastSeenMs: rec.LastSeenMs,
		TTLSec:     int64(ttl / time.Second),
	})
	metricOps.WithLabelValues("get_route", "200").Inc()
	return 200, "ok", out
}

func (m *Module) key(uid uint64) string {
	return m.keyPrefix + strconv.FormatUint(uid, 10)
}

func strconvCmd(cmd uint32) string {
	switch cmd {
	case CmdSetOnline:
		return "set_online"
	case CmdHeartbeat:
		return "heartbeat"
	}
	return strconv.FormatUint(uint64(cmd), 10)
}
