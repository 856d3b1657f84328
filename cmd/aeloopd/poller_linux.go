//go:build linux

package main

import (
	"github.com/vireldb/core/ael"
	"github.com/vireldb/core/reactor"
)

// NewPoller returns the native epoll backend on Linux.
func NewPoller() (ael.Poller, error) {
	return reactor.NewEpollPoller()
}
