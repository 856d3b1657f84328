// Package telemetry provides structured, leveled logging plus a small
// metrics probe registry for the reactor and dict packages: named probes
// returning a point-in-time value on demand.
package telemetry

import (
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sys/cpu"
)

// Logger is the structured logger threaded through reactor.Loop and
// dict.Dict. A nil *Logger is valid and discards everything, so components
// can be constructed without requiring telemetry wiring.
type Logger struct {
	z *zap.SugaredLogger
}

// NewNop returns a Logger that discards all output.
func NewNop() *Logger {
	return &Logger{z: zap.NewNop().Sugar()}
}

// New wraps a zap logger.
func New(z *zap.Logger) *Logger {
	if z == nil {
		return NewNop()
	}
	return &Logger{z: z.Sugar()}
}

func (l *Logger) sugar() *zap.SugaredLogger {
	if l == nil || l.z == nil {
		return zap.NewNop().Sugar()
	}
	return l.z
}

// Debugw logs at debug level with structured key/value fields.
func (l *Logger) Debugw(msg string, kv ...any) { l.sugar().Debugw(msg, kv...) }

// Infow logs at info level with structured key/value fields.
func (l *Logger) Infow(msg string, kv ...any) { l.sugar().Infow(msg, kv...) }

// Warnw logs at warn level with structured key/value fields.
func (l *Logger) Warnw(msg string, kv ...any) { l.sugar().Warnw(msg, kv...) }

// Errorw logs at error level with structured key/value fields.
func (l *Logger) Errorw(msg string, kv ...any) { l.sugar().Errorw(msg, kv...) }

// Probes is a named registry of point-in-time introspection callbacks for
// the reactor's and dict's internal counters (rehash progress, timer
// count, fd count).
type Probes struct {
	mu     sync.RWMutex
	_      cpu.CacheLinePad // keeps probes off the mutex's cache line
	probes map[string]func() any
}

// NewProbes creates an empty probe registry.
func NewProbes() *Probes {
	return &Probes{probes: make(map[string]func() any)}
}

// Register installs a named probe, replacing any existing probe of the
// same name.
func (p *Probes) Register(name string, fn func() any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.probes[name] = fn
}

// Snapshot evaluates every registered probe and returns the results.
func (p *Probes) Snapshot() map[string]any {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[string]any, len(p.probes))
	for name, fn := range p.probes {
		out[name] = fn()
	}
	return out
}
