// Package metrics is a small Prometheus-exposition-format collector.
// It keeps the bridge free of the full client_golang dependency while
// staying scrapeable by any Prometheus-compatible agent.
package metrics

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Collector is the process-wide registry.
var Collector = NewRegistry()

// Counter is a monotonically increasing value.
type Counter struct {
	help  string
	value atomic.Int64
}

func (c *Counter) Inc()         { c.value.Add(1) }
func (c *Counter) Add(n int64)  { c.value.Add(n) }
func (c *Counter) Value() int64 { return c.value.Load() }

// Gauge is a value that moves in both directions.
type Gauge struct {
	help  string
	value atomic.Int64
}

func (g *Gauge) Set(v int64)  { g.value.Store(v) }
func (g *Gauge) Inc()         { g.value.Add(1) }
func (g *Gauge) Dec()         { g.value.Add(-1) }
func (g *Gauge) Value() int64 { return g.value.Load() }

// Registry holds named counters and gauges and renders them in
// Prometheus text format.
type Registry struct {
	mu        sync.RWMutex
	counters  map[string]*Counter
	gauges    map[string]*Gauge
	startTime time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		counters:  make(map[string]*Counter),
		gauges:    make(map[string]*Gauge),
		startTime: time.Now(),
	}
}

// Counter returns the counter with the given name, creating it on
// first use.
func (r *Registry) Counter(name, help string) *Counter {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.counters[name]; ok {
		return c
	}
	c := &Counter{help: help}
	r.counters[name] = c
	return c
}

// Gauge returns the gauge with the given name, creating it on first
// use.
func (r *Registry) Gauge(name, help string) *Gauge {
	r.mu.Lock()
	defer r.mu.Unlock()
	if g, ok := r.gauges[name]; ok {
		return g
	}
	g := &Gauge{help: help}
	r.gauges[name] = g
	return g
}

// Uptime reports time since the registry was created.
func (r *Registry) Uptime() time.Duration {
	return time.Since(r.startTime)
}

// Handler renders the registry in Prometheus exposition format.
func (r *Registry) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

		var sb strings.Builder
		fmt.Fprintf(&sb, "# HELP zapbridge_uptime_seconds Time since start in seconds\n")
		fmt.Fprintf(&sb, "# TYPE zapbridge_uptime_seconds gauge\n")
		fmt.Fprintf(&sb, "zapbridge_uptime_seconds %d\n", int64(r.Uptime().Seconds()))

		r.mu.RLock()
		counterNames := sortedKeys(r.counters)
		gaugeNames := sortedKeys(r.gauges)
		for _, name := range counterNames {
			c := r.counters[name]
			fmt.Fprintf(&sb, "# HELP %s %s\n", name, c.help)
			fmt.Fprintf(&sb, "# TYPE %s counter\n", name)
			fmt.Fprintf(&sb, "%s %d\n", name, c.Value())
		}
		for _, name := range gaugeNames {
			g := r.gauges[name]
			fmt.Fprintf(&sb, "# HELP %s %s\n", name, g.help)
			fmt.Fprintf(&sb, "# TYPE %s gauge\n", name)
			fmt.Fprintf(&sb, "%s %d\n", name, g.Value())
		}
		r.mu.RUnlock()

		fmt.Fprint(w, sb.String())
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// --- Pre-defined metrics used across the bridge ---

var (
	MessagesStored  = Collector.Counter("zapbridge_messages_stored_total", "Inbound messages persisted")
	MessagesSent    = Collector.Counter("zapbridge_messages_sent_total", "Outbound messages delivered")
	SendFailures    = Collector.Counter("zapbridge_send_failures_total", "Outbound sends rejected by the transport")
	SessionUp       = Collector.Gauge("zapbridge_session_connected", "1 while the session is connected")
	PairingAttempts = Collector.Counter("zapbridge_pairing_codes_total", "Pairing codes issued")
)
