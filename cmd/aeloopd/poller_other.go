//go:build !linux

package main

import (
	"github.com/vireldb/core/ael"
	"github.com/vireldb/core/reactor"
)

// NewPoller returns the portable fallback backend on platforms without a
// native Poller wired in.
func NewPoller() (ael.Poller, error) {
	return reactor.NewPortablePoller()
}
