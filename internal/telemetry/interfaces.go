package telemetry

import (
	"log"
	"sort"
	"sync"
	"sync/atomic"
)

// Logger exposes the logging capabilities required by server components.
type Logger interface {
	Printf(format string, args ...any)
}

// LoggerFunc adapts functions into the Logger interface.
type LoggerFunc func(format string, args ...any)

// Printf implements Logger for LoggerFunc.
func (f LoggerFunc) Printf(format string, args ...any) {
	if f == nil {
		return
	}
	f(format, args...)
}

// WrapLogger adapts a standard library logger to the Logger interface.
func WrapLogger(logger *log.Logger) Logger {
	return &loggerAdapter{logger: logger}
}

type loggerAdapter struct {
	logger *log.Logger
}

func (l *loggerAdapter) Printf(format string, args ...any) {
	if l == nil || l.logger == nil {
		return
	}
	l.logger.Printf(format, args...)
}

// StandardLogger exposes the wrapped logger for components that need one.
func (l *loggerAdapter) StandardLogger() *log.Logger {
	if l == nil {
		return nil
	}
	return l.logger
}

// Metrics exposes the telemetry methods required by server components.
type Metrics interface {
	Add(key string, delta uint64)
	Store(key string, value uint64)
}

const (
	KeyTicks             = "ticks"
	KeyTickDurationMs    = "tick_duration_ms"
	KeyMovesResolved     = "moves_resolved"
	KeyMovesClamped      = "moves_clamped"
	KeyMovesBlocked      = "moves_blocked"
	KeyPlayersJoined     = "players_joined"
	KeyStreamClients     = "stream_clients"
	KeyBroadcastBytes    = "broadcast_bytes"
	KeyTickBudgetOverrun = "tick_budget_overruns"
)

// Counters is a concurrency-safe Metrics implementation keyed by name.
type Counters struct {
	mu     sync.RWMutex
	values map[string]*atomic.Uint64
}

// NewCounters returns an empty counter set.
func NewCounters() *Counters {
	return &Counters{values: make(map[string]*atomic.Uint64)}
}

func (c *Counters) slot(key string) *atomic.Uint64 {
	c.mu.RLock()
	value, ok := c.values[key]
	c.mu.RUnlock()
	if ok {
		return value
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if value, ok = c.values[key]; !ok {
		value = new(atomic.Uint64)
		c.values[key] = value
	}
	return value
}

// Add increments the named counter.
func (c *Counters) Add(key string, delta uint64) {
	if c == nil {
		return
	}
	c.slot(key).Add(delta)
}

// Store overwrites the named gauge.
func (c *Counters) Store(key string, value uint64) {
	if c == nil {
		return
	}
	c.slot(key).Store(value)
}

// Load returns the current value of the named counter.
func (c *Counters) Load(key string) uint64 {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if value, ok := c.values[key]; ok {
		return value.Load()
	}
	return 0
}

// Snapshot copies every counter.
func (c *Counters) Snapshot() map[string]uint64 {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]uint64, len(c.values))
	for k, v := range c.values {
		out[k] = v.Load()
	}
	return out
}

// Keys returns the counter names in sorted order.
func (c *Counters) Keys() []string {
	snapshot := c.Snapshot()
	keys := make([]string, 0, len(snapshot))
	for k := range snapshot {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type nopMetrics struct{}

func (nopMetrics) Add(string, uint64)   {}
func (nopMetrics) Store(string, uint64) {}

// NopMetrics discards every update.
func NopMetrics() Metrics {
	return nopMetrics{}
}
