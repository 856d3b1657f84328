package config

import (
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// viperStore backs Store with a viper instance so config-file changes are
// picked up via fsnotify without the caller polling.
type viperStore struct {
	mu        sync.RWMutex
	v         *viper.Viper
	listeners []func()
}

func newViperStore() *viperStore {
	return &viperStore{v: viper.New()}
}

// Watch begins watching path for changes, invoking every registered
// listener on each write. No-op if path is empty.
func (s *viperStore) Watch(path string) error {
	if path == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.v.SetConfigFile(path)
	if err := s.v.ReadInConfig(); err != nil {
		return err
	}
	s.v.OnConfigChange(func(_ fsnotify.Event) {
		s.dispatch()
	})
	s.v.WatchConfig()
	return nil
}

// Get returns the current value for key.
func (s *viperStore) Get(key string) any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.v.Get(key)
}

// Set overrides key for the lifetime of the process and notifies listeners.
func (s *viperStore) Set(key string, value any) {
	s.mu.Lock()
	s.v.Set(key, value)
	s.mu.Unlock()
	s.dispatch()
}

// OnReload registers fn to run (synchronously, in registration order) every
// time the store's values change.
func (s *viperStore) OnReload(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *viperStore) dispatch() {
	s.mu.RLock()
	fns := append([]func(){}, s.listeners...)
	s.mu.RUnlock()
	for _, fn := range fns {
		fn()
	}
}
