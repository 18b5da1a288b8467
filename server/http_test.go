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
	"strings"
	"testing"
)

func TestParseHTTPRequest(t *testing.T) {
	for _, test := range []struct {
		name string
		req  string
		path string
		key  string
		ok   bool
	}{
		{"root", "GET / HTTP/1.1\r\nHost: x\r\n\r\n", "/", "", true},
		{"chat with key", "GET /chat HTTP/1.1\r\nSec-WebSocket-Key: dGhlIHNhbXBsZSBub25jZQ==\r\n\r\n",
			"/chat", "dGhlIHNhbXBsZSBub25jZQ==", true},
		{"chat without key", "GET /chat HTTP/1.1\r\n\r\n", "/chat", "", true},
		{"key among other headers", "GET /chat HTTP/1.1\r\nHost: x\r\nUpgrade: websocket\r\nSec-WebSocket-Key: abc\r\n\r\n",
			"/chat", "abc", true},
		{"unknown path", "GET /nope HTTP/1.1\r\n\r\n", "/nope", "", true},
		{"wrong method", "POST / HTTP/1.1\r\n\r\n", "", "", false},
		{"wrong version", "GET / HTTP/1.0\r\n\r\n", "", "", false},
		{"missing path", "GET  HTTP/1.1\r\n\r\n", "", "", false},
		{"path too long", "GET /" + strings.Repeat("a", 31) + " HTTP/1.1\r\n\r\n", "", "", false},
		{"garbage", "BLAH\r\n\r\n", "", "", false},
	} {
		t.Run(test.name, func(t *testing.T) {
			path, key, ok := parseHTTPRequest([]byte(test.req))
			require_Equal(t, ok, test.ok)
			if !ok {
				return
			}
			require_Equal(t, path, test.path)
			require_Equal(t, key, test.key)
		})
	}
}

func TestParseHTTPRequestKeyTruncation(t *testing.T) {
	long := strings.Repeat("k", 40)
	req := "GET /chat HTTP/1.1\r\nSec-WebSocket-Key: " + long + "\r\n\r\n"
	_, key, ok := parseHTTPRequest([]byte(req))
	require_True(t, ok)
	require_Equal(t, key, long[:httpMaxTokenLen])
}

func TestBuildNotFoundResponse(t *testing.T) {
	require_Equal(t, string(buildNotFoundResponse()), "HTTP/1.1 404 Not Found\r\n\r\n")
}

func TestBuildUpgradeResponse(t *testing.T) {
	// Key and accept value from RFC 6455 section 1.3.
	expected := "HTTP/1.1 101 Switching Protocols\r\n" +
		"Upgrade: websocket\r\n" +
		"Connection: Upgrade\r\n" +
		"Sec-WebSocket-Accept: s3pPLMBiTxaQ9kYGzzhZRbK+xOo=\r\n" +
		"\r\n"
	require_Equal(t, string(buildUpgradeResponse("dGhlIHNhbXBsZSBub25jZQ==")), expected)
}

func TestBuildPageResponse(t *testing.T) {
	res := string(buildPageResponse())

	prefix := fmt.Sprintf("HTTP/1.0 200 OK\r\nContent-Length: %d\r\n", len(htmlPage)-2)
	require_True(t, strings.HasPrefix(res, prefix))
	require_True(t, strings.Contains(res, "Connection: close\r\n"))
	require_True(t, strings.Contains(res, "Content-Type: text/html; charset=iso-8859-1\r\n"))
	require_True(t, strings.HasSuffix(res, htmlPage))

	// The body keeps its CRLF line endings; the advertised length skips
	// only the final pair.
	body := res[strings.Index(res, "\r\n\r\n")+4:]
	require_Equal(t, len(body)-2, len(htmlPage)-2)
}
