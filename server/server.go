// Copyright 2026 The Inkboard Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nuid"
	"golang.org/x/sys/unix"
)

// httpPollTimeoutMillis is the poll timeout while any connection sits in an
// HTTP phase. With correct interest masks an idle HTTP peer produces no
// readiness, so the loop needs periodic wakeups for the idle-timeout check.
// With only websocket connections the loop blocks indefinitely.
const httpPollTimeoutMillis = 100

// Server owns the listening socket, the live connection list and the replay
// ring. All of it is driven by a single goroutine running the readiness
// loop; only the shutdown flag, the wake pipe and the running/port fields
// are touched from outside.
type Server struct {
	mu     sync.Mutex
	opts   *Options
	id     string
	logger Logger

	lfd  int
	port int

	cid   uint64
	conns []*client
	ring  *pointRing

	running  bool
	shutdown atomic.Bool
	wakePipe [2]int
}

// New creates a server from the given options. The options are cloned;
// defaults and validation are applied to the copy.
func New(opts *Options) (*Server, error) {
	opts = opts.clone()
	opts.setDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	s := &Server{
		opts: opts,
		id:   nuid.Next(),
		lfd:  -1,
		ring: newPointRing(opts.PointCount),
	}
	if opts.NoLog {
		s.logger = &noopLogger{}
	} else {
		s.logger = NewDefaultLogger(s.id, opts.Debug)
	}
	return s, nil
}

// ID returns the server's instance id.
func (s *Server) ID() string { return s.id }

// Port returns the bound listen port. Valid once ReadyForConnections
// reports true.
func (s *Server) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

// Start binds the listener and runs the readiness loop until Shutdown.
// It returns an error only when the listener cannot be set up or the wake
// pipe cannot be created.
func (s *Server) Start() error {
	s.mu.Lock()
	lfd, port, err := listenTCP(s.opts.Host, s.opts.Port)
	if err != nil {
		s.mu.Unlock()
		s.Errorf("Unable to listen for client connections: %v", err)
		return err
	}
	s.lfd = lfd
	s.port = port
	if err := unix.Pipe2(s.wakePipe[:], unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		unix.Close(s.lfd)
		s.lfd = -1
		s.mu.Unlock()
		s.Errorf("Unable to create wake pipe: %v", err)
		return err
	}
	s.running = true
	s.mu.Unlock()

	host := s.opts.Host
	if host == "" {
		host = "0.0.0.0"
	}
	s.Noticef("Listening for client connections on %s:%d", host, port)
	s.Noticef("Server is ready")

	s.run()
	return nil
}

// Shutdown flips the shutdown flag and wakes the loop. Safe to call from
// any goroutine, any number of times.
func (s *Server) Shutdown() {
	if s.shutdown.Swap(true) {
		return
	}
	s.mu.Lock()
	if s.running {
		unix.Write(s.wakePipe[1], []byte{0})
	}
	s.mu.Unlock()
}

// ReadyForConnections waits until the listener is bound and the loop is
// running, up to the given duration.
func (s *Server) ReadyForConnections(d time.Duration) bool {
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		s.mu.Lock()
		running := s.running
		s.mu.Unlock()
		if running {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

// WaitForShutdown blocks until the readiness loop has exited.
func (s *Server) WaitForShutdown() {
	for {
		s.mu.Lock()
		running := s.running
		s.mu.Unlock()
		if !running {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// run is the readiness loop. Each iteration rebuilds the poll table (the
// listener, the wake pipe, then one entry per connection), blocks, then
// dispatches: wake drain, accept drain, per-connection step.
func (s *Server) run() {
	defer s.teardown()

	var fds []unix.PollFd
	var snapshot []*client

	for !s.shutdown.Load() {
		fds = fds[:0]
		snapshot = snapshot[:0]
		fds = append(fds,
			unix.PollFd{Fd: int32(s.lfd), Events: unix.POLLIN},
			unix.PollFd{Fd: int32(s.wakePipe[0]), Events: unix.POLLIN},
		)
		timeout := -1
		for _, c := range s.conns {
			fds = append(fds, unix.PollFd{Fd: int32(c.nc.fd()), Events: c.interest()})
			snapshot = append(snapshot, c)
			if c.phase == clientHTTPRequesting || c.phase == clientHTTPResponding {
				timeout = httpPollTimeoutMillis
			}
		}

		s.Debugf("polling %d connections", len(snapshot))
		if _, err := unix.Poll(fds, timeout); err != nil {
			if err == unix.EINTR {
				continue
			}
			s.Errorf("poll: %v", err)
			continue
		}
		if s.shutdown.Load() {
			return
		}

		if fds[1].Revents != 0 {
			s.drainWakePipe()
		}
		if fds[0].Revents != 0 {
			s.acceptPass()
		}

		for i, c := range snapshot {
			if c.phase == clientEmpty {
				// Dropped earlier in this dispatch pass.
				continue
			}
			if fds[2+i].Revents&(unix.POLLHUP|unix.POLLERR|unix.POLLNVAL) != 0 {
				s.dropClient(c)
				continue
			}
			s.stepClient(c)
		}
	}
}

func (s *Server) drainWakePipe() {
	var buf [16]byte
	for {
		n, err := unix.Read(s.wakePipe[0], buf[:])
		if err != nil || n == 0 {
			return
		}
	}
}

// acceptPass accepts until the listener runs dry. Each accepted descriptor
// is already non-blocking and joins the list with a fresh id.
func (s *Server) acceptPass() {
	for {
		fd, addr, err := acceptClient(s.lfd)
		if err != nil {
			if !isTransientErrno(err) {
				s.Errorf("accept: %v", err)
			}
			return
		}
		c := newClient(s.cid, &sockEndpoint{sfd: fd}, s.opts)
		s.cid++
		s.conns = append(s.conns, c)
		s.Debugf("cid %d: accepting connection from %s", c.id, addr)
	}
}

// stepClient drives one connection until it needs readiness. Decoded
// websocket messages route to the broadcaster between step invocations, and
// a connection that just entered the websocket phase gets the ring replay
// before the pass ends.
func (s *Server) stepClient(c *client) {
	pre := c.phase
	replayed := false
	for {
		switch c.step(time.Now()) {
		case stepError:
			s.dropClient(c)
			return
		case stepRestart:
			continue
		case stepWsMessageReady:
			s.handleWsMessage(c)
			c.ws.reset()
			continue
		case stepNoAction:
			if !replayed && pre != clientWebsocket && c.phase == clientWebsocket {
				replayed = true
				if !s.replayPoints(c) {
					return
				}
				continue
			}
			return
		}
	}
}

// handleWsMessage turns a decoded frame into a broadcast. Only text frames
// carry points; anything else is ignored and decoding resumes.
func (s *Server) handleWsMessage(c *client) {
	if c.ws.opcode != wsTextMessage {
		return
	}
	p, err := parsePointPayload(c.ws.payload)
	if err != nil {
		s.Debugf("cid %d: ignoring unparseable point %q: %v", c.id, c.ws.payload, err)
		return
	}
	p.clientID = c.id
	s.addPoint(p)
}

// addPoint runs the ring policy: the eviction Remove (if any) goes out
// before the new Add.
func (s *Server) addPoint(p Point) {
	if evicted, ok := s.ring.add(p); ok {
		s.broadcastPoint(evicted)
	}
	s.broadcastPoint(p)
}

// broadcastPoint fans the encoded point out to every websocket peer,
// including the sender. Peers whose output bound would be exceeded are
// dropped as slow consumers.
func (s *Server) broadcastPoint(p Point) {
	msg := p.encodeWire()
	if len(msg) > wsMaxPayloadSize {
		s.Warnf("broadcast payload of %d bytes exceeds frame limit, dropping message", len(msg))
		return
	}
	snapshot := append([]*client(nil), s.conns...)
	for _, o := range snapshot {
		if o.phase != clientWebsocket {
			continue
		}
		if !o.wsEnqueueTextMessage(msg) {
			s.Warnf("cid %d: slow consumer, dropping connection", o.id)
			s.dropClient(o)
		}
	}
}

// replayPoints sends the ring contents to a freshly upgraded peer. Returns
// false if the peer was dropped mid-replay.
func (s *Server) replayPoints(c *client) bool {
	for idx := range s.ring.points {
		pt := s.ring.points[idx]
		if pt.action == pointNone {
			continue
		}
		msg := pt.encodeWire()
		if len(msg) > wsMaxPayloadSize {
			continue
		}
		if !c.wsEnqueueTextMessage(msg) {
			s.Warnf("cid %d: slow consumer during replay, dropping connection", c.id)
			s.dropClient(c)
			return false
		}
	}
	return true
}

// dropClient releases the connection and unlinks it from the live list.
func (s *Server) dropClient(c *client) {
	if c.phase == clientEmpty {
		return
	}
	s.Debugf("cid %d: connection closed (phase %s)", c.id, c.phase)
	c.drop()
	for i, o := range s.conns {
		if o == c {
			s.conns = append(s.conns[:i], s.conns[i+1:]...)
			break
		}
	}
}

// teardown drops every connection and closes the listener and the wake
// pipe. Runs on the loop goroutine as it exits.
func (s *Server) teardown() {
	for _, c := range append([]*client(nil), s.conns...) {
		s.dropClient(c)
	}
	s.conns = nil
	s.mu.Lock()
	s.running = false
	unix.Close(s.lfd)
	s.lfd = -1
	unix.Close(s.wakePipe[0])
	unix.Close(s.wakePipe[1])
	s.mu.Unlock()
	s.Noticef("Server exiting")
}
