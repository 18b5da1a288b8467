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
	"errors"
	"fmt"
	"strings"
)

// httpMaxTokenLen caps the request path and the Sec-WebSocket-Key value.
// A longer path is treated as non-conforming; this is a trusted-local
// surface, so strictness beats tolerance. A longer key value is truncated
// to this length.
const httpMaxTokenLen = 30

var errMalformedRequest = errors.New("http: malformed request")

// parseHTTPRequest re-scans a complete header block. The request line must
// be exactly `GET <path> HTTP/1.1` with the path at most 30 characters.
// The Sec-WebSocket-Key header is captured if present; its absence is not
// an error here.
func parseHTTPRequest(buf []byte) (path string, key string, ok bool) {
	lines := strings.Split(string(buf), "\n")
	if len(lines) == 0 {
		return "", "", false
	}
	reqLine := strings.TrimSuffix(lines[0], "\r")
	const (
		reqPrefix = "GET "
		reqSuffix = " HTTP/1.1"
	)
	if !strings.HasPrefix(reqLine, reqPrefix) || !strings.HasSuffix(reqLine, reqSuffix) {
		return "", "", false
	}
	path = reqLine[len(reqPrefix) : len(reqLine)-len(reqSuffix)]
	if path == "" || len(path) > httpMaxTokenLen || strings.ContainsAny(path, " \t") {
		return "", "", false
	}
	for _, l := range lines[1:] {
		l = strings.TrimSuffix(l, "\r")
		v, found := strings.CutPrefix(l, "Sec-WebSocket-Key: ")
		if !found {
			continue
		}
		if i := strings.IndexAny(v, " \t"); i >= 0 {
			v = v[:i]
		}
		if len(v) > httpMaxTokenLen {
			v = v[:httpMaxTokenLen]
		}
		key = v
		break
	}
	return path, key, true
}

// httpRespondToRequest consumes the accumulated request, builds the outbound
// response and moves the connection to the responding phase. The input
// buffer is released; it only lives during HttpRequesting.
func (c *client) httpRespondToRequest() error {
	path, key, ok := parseHTTPRequest(c.http.buf)
	c.http = httpRequestState{}
	if !ok {
		return errMalformedRequest
	}

	c.phase = clientHTTPResponding
	c.out.phaseAfter = clientEmpty

	switch path {
	case "/":
		c.out.buf = buildPageResponse()
	case "/chat":
		c.out.buf = buildUpgradeResponse(key)
		c.out.phaseAfter = clientWebsocket
	default:
		c.out.buf = buildNotFoundResponse()
	}
	return nil
}

// buildPageResponse serves the embedded drawing page. The response is
// HTTP/1.0 with Connection: close; the connection drops once it drains.
// Content-Length excludes the body's two trailing CRLF bytes, matching the
// historical wire output.
func buildPageResponse() []byte {
	var p []byte
	p = append(p, "HTTP/1.0 200 OK\r\n"...)
	p = append(p, fmt.Sprintf("Content-Length: %d\r\n", len(htmlPage)-2)...)
	p = append(p, "Connection: close\r\n"...)
	p = append(p, "Content-Type: text/html; charset=iso-8859-1\r\n"...)
	p = append(p, "\r\n"...)
	p = append(p, htmlPage...)
	return p
}

// buildUpgradeResponse switches the connection to the websocket protocol.
// From https://tools.ietf.org/html/rfc6455#section-4.2.2
func buildUpgradeResponse(key string) []byte {
	var p []byte
	p = append(p, "HTTP/1.1 101 Switching Protocols\r\nUpgrade: websocket\r\nConnection: Upgrade\r\nSec-WebSocket-Accept: "...)
	p = append(p, wsAcceptKey(key)...)
	p = append(p, "\r\n\r\n"...)
	return p
}

func buildNotFoundResponse() []byte {
	return []byte("HTTP/1.1 404 Not Found\r\n\r\n")
}
