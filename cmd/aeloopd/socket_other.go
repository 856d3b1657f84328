//go:build !linux && !darwin

package main

import (
	"errors"
	"net"
)

var errUnsupported = errors.New("aeloopd: raw fd access not supported on this platform")

func fdOf(ln *net.TCPListener) (int, error) {
	return -1, errUnsupported
}

func acceptFD(listenFd int) (int, string, error) {
	return -1, "", errUnsupported
}

func wouldBlock(err error) bool {
	return false
}

func readFD(fd int, buf []byte) (int, error) {
	return 0, errUnsupported
}

func writeFD(fd int, buf []byte) (int, error) {
	return 0, errUnsupported
}

func closeFD(fd int) error {
	return errUnsupported
}
