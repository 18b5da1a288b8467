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
	"time"

	"golang.org/x/sys/unix"
)

// maxMessageSize bounds any HTTP request or websocket frame. A connection
// exceeding it is dropped.
const maxMessageSize = 1 << 13

// clientPhase is the connection's place in its lifecycle. Every connection
// starts in HttpRequesting; Empty marks a dropped connection and never
// appears in the server's live list.
type clientPhase int

const (
	clientEmpty clientPhase = iota
	clientHTTPRequesting
	clientHTTPResponding
	clientWebsocket
)

func (p clientPhase) String() string {
	switch p {
	case clientEmpty:
		return "Empty"
	case clientHTTPRequesting:
		return "HttpRequesting"
	case clientHTTPResponding:
		return "HttpResponding"
	case clientWebsocket:
		return "Websocket"
	}
	return "Unknown"
}

// clientStepResult tells the loop what to do after a step: drop the
// connection, wait for readiness, re-invoke immediately, or consume a
// decoded websocket payload before re-invoking.
type clientStepResult int

const (
	stepError clientStepResult = iota
	stepNoAction
	stepRestart
	stepWsMessageReady
)

// httpRequestState accumulates request bytes until the header block ends.
// Lives only during HttpRequesting.
type httpRequestState struct {
	buf          []byte
	seenLinefeed bool
	bytesRead    int
}

// outboundState is the connection's outbound buffer. buf[progress:] is
// unsent. phaseAfter is entered once the buffer drains during
// HttpResponding; Empty there means drop on completion. In the websocket
// phase further frames queue FIFO behind the in-flight buffer, bounded by
// maxPending.
type outboundState struct {
	buf        []byte
	progress   int
	phaseAfter clientPhase
	queue      [][]byte
	queued     int
}

// pendingBytes is everything not yet written: the in-flight remainder plus
// queued frames.
func (o *outboundState) pendingBytes() int {
	return len(o.buf) - o.progress + o.queued
}

// client is one connection, owned exclusively by the server loop.
type client struct {
	id    uint64
	nc    netEndpoint
	phase clientPhase

	lastActivity time.Time
	lastPing     time.Time

	http httpRequestState
	ws   wsFrameInfo
	out  outboundState

	maxPending  int
	idleTimeout time.Duration
}

func newClient(id uint64, nc netEndpoint, opts *Options) *client {
	now := time.Now()
	return &client{
		id:           id,
		nc:           nc,
		phase:        clientHTTPRequesting,
		lastActivity: now,
		lastPing:     now,
		maxPending:   opts.MaxPending,
		idleTimeout:  opts.HTTPIdleTimeout,
	}
}

// interest is the poll mask for the connection's phase. Subscribing to an
// event the step cannot act on would wake the loop uselessly, so the mask
// is exactly what the phase handles: reads while requesting, writes while
// responding, reads plus conditional writes in the websocket phase.
func (c *client) interest() int16 {
	switch c.phase {
	case clientHTTPRequesting:
		return unix.POLLIN
	case clientHTTPResponding:
		return unix.POLLOUT
	case clientWebsocket:
		ev := int16(unix.POLLIN)
		if len(c.out.buf) > 0 {
			ev |= unix.POLLOUT
		}
		return ev
	}
	return 0
}

// step makes one non-blocking attempt at progress. It never blocks: a
// transient errno ends the pass with NoAction and the loop waits for
// readiness.
func (c *client) step(now time.Time) clientStepResult {
	// Connections stalled in either HTTP phase are dropped.
	if c.phase == clientHTTPRequesting || c.phase == clientHTTPResponding {
		if now.Sub(c.lastActivity) > c.idleTimeout {
			return stepError
		}
	}

	switch c.phase {
	case clientEmpty:
		return stepNoAction
	case clientHTTPRequesting:
		return c.httpReadRequest(now)
	case clientHTTPResponding:
		return c.httpWriteResponse(now)
	case clientWebsocket:
		return c.wsStep(now)
	}
	return stepNoAction
}

// httpReadRequest pulls bytes one at a time into the request buffer.
// Carriage returns are stored but do not affect parsing state; a linefeed
// directly following another linefeed ends the header block.
func (c *client) httpReadRequest(now time.Time) clientStepResult {
	var b [1]byte
	for {
		n, err := c.nc.Read(b[:])
		if err != nil {
			if isTransientErrno(err) {
				return stepNoAction
			}
			return stepError
		}
		if n == 0 {
			// Peer closed before finishing the request.
			return stepError
		}
		c.lastActivity = now

		c.http.buf = append(c.http.buf, b[0])
		c.http.bytesRead++
		if c.http.bytesRead > maxMessageSize {
			return stepError
		}

		switch b[0] {
		case '\r':
			// ignore carriage return
		case '\n':
			if c.http.seenLinefeed {
				if err := c.httpRespondToRequest(); err != nil {
					return stepError
				}
				return stepRestart
			}
			c.http.seenLinefeed = true
		default:
			c.http.seenLinefeed = false
		}
	}
}

// httpWriteResponse pushes the outbound buffer one byte at a time. Progress
// advances only on a successful write. On full drain the connection either
// drops (phaseAfter Empty) or transitions with a clean outbound state.
func (c *client) httpWriteResponse(now time.Time) clientStepResult {
	for c.out.progress < len(c.out.buf) {
		n, err := c.nc.Write(c.out.buf[c.out.progress : c.out.progress+1])
		if err != nil {
			if isTransientErrno(err) {
				return stepNoAction
			}
			return stepError
		}
		if n < 1 {
			return stepNoAction
		}
		c.out.progress++
		c.lastActivity = now
	}

	if c.out.phaseAfter == clientEmpty {
		// Completion-drop: the response said Connection: close.
		return stepError
	}
	c.phase = c.out.phaseAfter
	c.out = outboundState{}
	return stepRestart
}

// wsStep is a two-pass step: drain pending output, then feed inbound bytes
// to the frame decoder. A blocked write falls through to the read pass so
// one slow direction never starves the other.
func (c *client) wsStep(now time.Time) clientStepResult {
	switch c.wsDrainOutbound(now) {
	case stepError:
		return stepError
	}

	var b [1]byte
	for {
		n, err := c.nc.Read(b[:])
		if err != nil {
			if isTransientErrno(err) {
				return stepNoAction
			}
			return stepError
		}
		if n == 0 {
			// Peer closed its write side; nothing more to read.
			return stepNoAction
		}
		c.lastActivity = now

		done, err := c.ws.push(b[0])
		if err != nil {
			return stepError
		}
		if done {
			return stepWsMessageReady
		}
	}
}

// wsDrainOutbound writes the in-flight frame and promotes queued frames as
// buffers complete. Unlike the HTTP drain there is no phase transition: a
// finished buffer is simply released.
func (c *client) wsDrainOutbound(now time.Time) clientStepResult {
	for len(c.out.buf) > 0 {
		for c.out.progress < len(c.out.buf) {
			n, err := c.nc.Write(c.out.buf[c.out.progress : c.out.progress+1])
			if err != nil {
				if isTransientErrno(err) {
					return stepNoAction
				}
				return stepError
			}
			if n < 1 {
				return stepNoAction
			}
			c.out.progress++
			c.lastActivity = now
		}
		c.out.buf = nil
		c.out.progress = 0
		if len(c.out.queue) > 0 {
			c.out.buf = c.out.queue[0]
			c.out.queue = c.out.queue[1:]
			c.out.queued -= len(c.out.buf)
		}
	}
	return stepNoAction
}

// wsEnqueueTextMessage frames the payload and stages it for the drain pass.
// Returns false when the peer's pending output would exceed maxPending; the
// caller treats that as a slow consumer and drops the connection.
func (c *client) wsEnqueueTextMessage(payload []byte) bool {
	frame := wsFrameText(payload)
	if len(c.out.buf) == 0 && c.out.progress == 0 {
		c.out.buf = frame
		return true
	}
	if c.out.pendingBytes()+len(frame) > c.maxPending {
		return false
	}
	c.out.queue = append(c.out.queue, frame)
	c.out.queued += len(frame)
	return true
}

// drop releases every buffer the connection owns, closes the endpoint and
// marks the connection Empty. The server unlinks it from the live list.
func (c *client) drop() {
	c.http = httpRequestState{}
	c.ws.reset()
	c.out = outboundState{}
	c.nc.Close()
	c.phase = clientEmpty
}
