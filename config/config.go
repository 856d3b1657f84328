// Package config carries construction-time policy for the reactor and dict
// packages: resize policy and every other tunable is an explicit value
// passed in at construction, optionally hydrated from environment
// variables or a YAML file via viper, rather than living as global state.
package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/spf13/viper"
)

// Reactor holds tunables for reactor.New.
type Reactor struct {
	// SetSize bounds the highest fd the loop can register (a dense,
	// fd-indexed array is sized to this).
	SetSize int

	// PinCPU, when >= 0, pins the goroutine running Loop.Run to that
	// logical CPU via the affinity package.
	PinCPU int
}

// DefaultReactor returns the baseline reactor configuration.
func DefaultReactor() Reactor {
	return Reactor{
		SetSize: 1024,
		PinCPU:  -1,
	}
}

// Dict holds tunables for dict.New.
type Dict struct {
	// ResizeEnabled gates opportunistic growth triggered by the used>=size
	// watermark. Growth past HighWatermarkRatio*size always happens
	// regardless.
	ResizeEnabled bool

	// HighWatermarkRatio is the used/size ratio above which growth is
	// forced even when ResizeEnabled is false.
	HighWatermarkRatio int
}

// DefaultDict returns the baseline dict configuration.
func DefaultDict() Dict {
	return Dict{
		ResizeEnabled:      true,
		HighWatermarkRatio: 5,
	}
}

// Load hydrates Reactor and Dict from environment variables prefixed AEL_
// (e.g. AEL_REACTOR_SETSIZE, AEL_DICT_RESIZEENABLED) and an optional YAML
// file, falling back to the given defaults for anything unset. A missing
// config file is not an error; a malformed one is.
func Load(reactorDefaults Reactor, dictDefaults Dict, configFile string) (Reactor, Dict, error) {
	v := viper.New()
	v.SetEnvPrefix("AEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("reactor.setsize", reactorDefaults.SetSize)
	v.SetDefault("reactor.pincpu", reactorDefaults.PinCPU)
	v.SetDefault("dict.resizeenabled", dictDefaults.ResizeEnabled)
	v.SetDefault("dict.highwatermarkratio", dictDefaults.HighWatermarkRatio)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound && !errors.Is(err, fs.ErrNotExist) {
				return Reactor{}, Dict{}, err
			}
		}
	}

	rc := Reactor{
		SetSize: v.GetInt("reactor.setsize"),
		PinCPU:  v.GetInt("reactor.pincpu"),
	}
	dc := Dict{
		ResizeEnabled:      v.GetBool("dict.resizeenabled"),
		HighWatermarkRatio: v.GetInt("dict.highwatermarkratio"),
	}
	return rc, dc, nil
}

// Store is a thread-safe, hot-reloadable snapshot of arbitrary runtime
// settings, for values that change after construction (unlike Reactor/Dict above, which
// are fixed for the component's lifetime).
type Store struct {
	*viperStore
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{newViperStore()}
}
