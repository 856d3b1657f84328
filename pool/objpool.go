// Package pool provides small generic object-pooling helpers used by the
// dict package to avoid churn on its hot allocation path (dict entries).
package pool

import (
	"sync"
	"sync/atomic"
)

// ObjectPool recycles values of type T.
type ObjectPool[T any] interface {
	Get() T
	Put(T)
}

// Stats reports lifetime counts for a SyncPool, useful for wiring into a
// telemetry probe registry to watch recycling efficiency: a News count
// that keeps climbing alongside Gets means the pool isn't actually
// recycling anything (every Get is forcing a fresh allocation).
type Stats struct {
	News int64
	Gets int64
	Puts int64
}

// SyncPool is an ObjectPool backed by sync.Pool, with lifetime
// allocation/reuse counters.
type SyncPool[T any] struct {
	pool *sync.Pool
	news atomic.Int64
	gets atomic.Int64
	puts atomic.Int64
}

// NewSyncPool creates a SyncPool whose values are produced by creator when
// the pool is empty.
func NewSyncPool[T any](creator func() T) *SyncPool[T] {
	sp := &SyncPool[T]{}
	sp.pool = &sync.Pool{New: func() any {
		sp.news.Add(1)
		return creator()
	}}
	return sp
}

func (sp *SyncPool[T]) Get() T {
	sp.gets.Add(1)
	return sp.pool.Get().(T)
}

func (sp *SyncPool[T]) Put(obj T) {
	sp.puts.Add(1)
	sp.pool.Put(obj)
}

// Stats returns a point-in-time snapshot of this pool's lifetime counters.
func (sp *SyncPool[T]) Stats() Stats {
	return Stats{
		News: sp.news.Load(),
		Gets: sp.gets.Load(),
		Puts: sp.puts.Load(),
	}
}
