// Command aeloopd is a small demonstration server that wires a TCP listener
// through the reactor event loop and counts requests per connection in a
// dict.Dict, to exercise both packages end to end outside of their test
// suites. Accept, read and write are all driven from the single goroutine
// that calls loop.Run, matching the loop's single-threaded contract: the
// listening socket is itself registered for readability, exactly like any
// other fd.
package main

import (
	"flag"
	"fmt"
	"net"
	"os"

	"go.uber.org/zap"

	"github.com/vireldb/core/ael"
	"github.com/vireldb/core/config"
	"github.com/vireldb/core/dict"
	"github.com/vireldb/core/internal/telemetry"
	"github.com/vireldb/core/reactor"
)

func main() {
	addr := flag.String("addr", ":9002", "listen address")
	configFile := flag.String("config", "", "optional YAML config file")
	flag.Parse()

	zl, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "aeloopd: logger init: %v\n", err)
		os.Exit(1)
	}
	defer zl.Sync()
	log := telemetry.New(zl)

	reactorCfg, dictCfg, err := config.Load(config.DefaultReactor(), config.DefaultDict(), *configFile)
	if err != nil {
		log.Errorw("aeloopd: config load failed", "err", err.Error())
		os.Exit(1)
	}

	poller, err := NewPoller()
	if err != nil {
		log.Errorw("aeloopd: poller init failed", "err", err.Error())
		os.Exit(1)
	}

	loop, err := reactor.New(reactorCfg.SetSize, poller, reactor.WithLogger(log))
	if err != nil {
		log.Errorw("aeloopd: reactor init failed", "err", err.Error())
		os.Exit(1)
	}
	defer loop.Close()

	ln, err := net.Listen("tcp", *addr)
	if err != nil {
		log.Errorw("aeloopd: listen failed", "addr", *addr, "err", err.Error())
		os.Exit(1)
	}
	defer ln.Close()

	listenFd, err := fdOf(ln.(*net.TCPListener))
	if err != nil {
		log.Errorw("aeloopd: could not extract listener fd", "err", err.Error())
		os.Exit(1)
	}

	srv := &echoServer{
		loop:   loop,
		counts: dict.New(fdKeyType(), nil, dict.WithResizeEnabled(dictCfg.ResizeEnabled)),
		log:    log,
	}
	if err := loop.Register(listenFd, ael.READABLE, srv.onAcceptable, nil); err != nil {
		log.Errorw("aeloopd: register listener failed", "err", err.Error())
		os.Exit(1)
	}

	log.Infow("aeloopd: listening", "addr", *addr, "backend", poller.Name())
	if err := loop.Run(reactor.RunOptions{PinCPU: reactorCfg.PinCPU}); err != nil {
		log.Errorw("aeloopd: run exited", "err", err.Error())
		os.Exit(1)
	}
}

func fdKeyType() *dict.Type {
	return &dict.Type{
		Hash: func(key any) uint64 {
			fd := uint64(key.(int))
			fd = (fd ^ (fd >> 30)) * 0xbf58476d1ce4e5b9
			fd = (fd ^ (fd >> 27)) * 0x94d049bb133111eb
			return fd ^ (fd >> 31)
		},
		KeyCompare: func(_ any, a, b any) bool { return a.(int) == b.(int) },
	}
}

// echoServer's callbacks are all invoked on the reactor's own goroutine, so
// they may touch loop and counts without any synchronization.
type echoServer struct {
	loop   *reactor.Loop
	counts *dict.Dict
	log    *telemetry.Logger
}

func (s *echoServer) onAcceptable(loop ael.Loop, listenFd int, _ any, _ int) {
	for {
		fd, addr, err := acceptFD(listenFd)
		if err != nil {
			if !wouldBlock(err) {
				s.log.Warnw("aeloopd: accept failed", "err", err.Error())
			}
			return
		}
		s.log.Infow("aeloopd: accepted", "fd", fd, "remote", addr)
		_ = s.counts.Add(fd, int64(0))
		if err := s.loop.Register(fd, ael.READABLE, s.onReadable, nil); err != nil {
			s.log.Warnw("aeloopd: register failed", "fd", fd, "err", err.Error())
			s.closeConn(fd)
		}
	}
}

func (s *echoServer) onReadable(loop ael.Loop, fd int, _ any, _ int) {
	buf := make([]byte, 4096)
	n, err := readFD(fd, buf)
	if err != nil || n == 0 {
		s.closeConn(fd)
		return
	}

	if e, ok := s.counts.Find(fd); ok {
		e.SetInt64(e.Int64() + 1)
	}

	if _, err := writeFD(fd, buf[:n]); err != nil {
		s.closeConn(fd)
	}
}

func (s *echoServer) closeConn(fd int) {
	s.loop.Unregister(fd, ael.READABLE|ael.WRITABLE)
	if e, ok := s.counts.Find(fd); ok {
		s.log.Infow("aeloopd: closing", "fd", fd, "requests", e.Int64())
	}
	_ = s.counts.Delete(fd)
	_ = closeFD(fd)
}
