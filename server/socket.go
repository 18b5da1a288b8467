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
	"fmt"
	"net"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// listenBacklog is the accept queue depth passed to listen(2).
const listenBacklog = 5

// netEndpoint is a non-blocking byte stream. The engine never performs
// blocking I/O through it; short reads and writes are the norm and surface
// as EAGAIN.
type netEndpoint interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
	fd() int
}

// sockEndpoint is a netEndpoint over a raw non-blocking descriptor.
type sockEndpoint struct {
	sfd int
}

func (e *sockEndpoint) Read(p []byte) (int, error)  { return unix.Read(e.sfd, p) }
func (e *sockEndpoint) Write(p []byte) (int, error) { return unix.Write(e.sfd, p) }
func (e *sockEndpoint) Close() error                { return unix.Close(e.sfd) }
func (e *sockEndpoint) fd() int                     { return e.sfd }

// isTransientErrno reports whether err is a readiness-loop signal rather
// than a real failure.
func isTransientErrno(err error) bool {
	return err == unix.EAGAIN || err == unix.EWOULDBLOCK || err == unix.EINTR
}

// listenTCP binds a dual-stack, non-blocking listening socket. IPV6_V6ONLY
// is cleared so a single AF_INET6 socket accepts v4 peers as well. Returns
// the descriptor and the bound port (which differs from the requested port
// when binding an ephemeral one).
func listenTCP(host string, port int) (int, int, error) {
	if port == RandomPort {
		port = 0
	}

	fd, err := unix.Socket(unix.AF_INET6, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return -1, 0, errors.Wrap(err, "socket")
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return -1, 0, errors.Wrap(err, "setsockopt SO_REUSEADDR")
	}
	if err := unix.SetsockoptInt(fd, unix.IPPROTO_IPV6, unix.IPV6_V6ONLY, 0); err != nil {
		unix.Close(fd)
		return -1, 0, errors.Wrap(err, "setsockopt IPV6_V6ONLY")
	}

	sa := &unix.SockaddrInet6{Port: port}
	if host != "" {
		ip := net.ParseIP(host)
		if ip == nil {
			unix.Close(fd)
			return -1, 0, fmt.Errorf("invalid listen address %q", host)
		}
		copy(sa.Addr[:], ip.To16())
	}
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return -1, 0, errors.Wrapf(err, "bind [%s]:%d", host, port)
	}
	if err := unix.Listen(fd, listenBacklog); err != nil {
		unix.Close(fd)
		return -1, 0, errors.Wrap(err, "listen")
	}

	bound, err := unix.Getsockname(fd)
	if err != nil {
		unix.Close(fd)
		return -1, 0, errors.Wrap(err, "getsockname")
	}
	if sa6, ok := bound.(*unix.SockaddrInet6); ok {
		port = sa6.Port
	}
	return fd, port, nil
}

// acceptClient accepts one connection off the listening descriptor. The
// returned descriptor is non-blocking. EAGAIN surfaces unchanged so the
// caller can end its accept drain.
func acceptClient(lfd int) (int, string, error) {
	fd, sa, err := unix.Accept4(lfd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
	if err != nil {
		return -1, "", err
	}
	return fd, sockaddrString(sa), nil
}

// sockaddrString formats a peer address for logging.
func sockaddrString(sa unix.Sockaddr) string {
	switch a := sa.(type) {
	case *unix.SockaddrInet4:
		return fmt.Sprintf("%s:%d", net.IP(a.Addr[:]).String(), a.Port)
	case *unix.SockaddrInet6:
		return fmt.Sprintf("[%s]:%d", net.IP(a.Addr[:]).String(), a.Port)
	}
	return "<unknown>"
}
