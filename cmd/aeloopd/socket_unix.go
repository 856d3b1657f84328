//go:build linux || darwin

package main

import (
	"errors"
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

// fdOf extracts the raw file descriptor backing a listener so it can be
// registered with the reactor directly. The descriptor is duplicated so
// net.Listener's own finalizer closing its copy does not affect ours.
func fdOf(ln *net.TCPListener) (int, error) {
	raw, err := ln.SyscallConn()
	if err != nil {
		return -1, err
	}
	var fd int
	var ctrlErr error
	err = raw.Control(func(f uintptr) {
		dup, dErr := unix.Dup(int(f))
		if dErr != nil {
			ctrlErr = dErr
			return
		}
		fd = dup
	})
	if err != nil {
		return -1, err
	}
	if ctrlErr != nil {
		return -1, ctrlErr
	}
	return fd, nil
}

// acceptFD accepts one pending connection on listenFd, returning the new
// non-blocking descriptor and its peer address.
func acceptFD(listenFd int) (int, string, error) {
	nfd, sa, err := unix.Accept4(listenFd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
	if err != nil {
		return -1, "", fmt.Errorf("aeloopd: accept4: %w", err)
	}
	return nfd, sockaddrString(sa), nil
}

func sockaddrString(sa unix.Sockaddr) string {
	switch a := sa.(type) {
	case *unix.SockaddrInet4:
		return fmt.Sprintf("%d.%d.%d.%d:%d", a.Addr[0], a.Addr[1], a.Addr[2], a.Addr[3], a.Port)
	case *unix.SockaddrInet6:
		return fmt.Sprintf("[%x]:%d", a.Addr, a.Port)
	default:
		return "unknown"
	}
}

// wouldBlock reports whether err is EAGAIN/EWOULDBLOCK, the expected
// "no more pending connections/data" signal on a non-blocking descriptor.
func wouldBlock(err error) bool {
	return errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK)
}

func readFD(fd int, buf []byte) (int, error) {
	n, err := unix.Read(fd, buf)
	if err != nil {
		if wouldBlock(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("aeloopd: read fd=%d: %w", fd, err)
	}
	return n, nil
}

func writeFD(fd int, buf []byte) (int, error) {
	n, err := unix.Write(fd, buf)
	if err != nil {
		return 0, fmt.Errorf("aeloopd: write fd=%d: %w", fd, err)
	}
	return n, nil
}

func closeFD(fd int) error {
	return unix.Close(fd)
}
