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
	"testing"

	"golang.org/x/sys/unix"
)

func require_True(t *testing.T, b bool) {
	t.Helper()
	if !b {
		t.Fatalf("require true, but got false")
	}
}

func require_False(t *testing.T, b bool) {
	t.Helper()
	if b {
		t.Fatalf("require false, but got true")
	}
}

func require_NoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("require no error, but got: %v", err)
	}
}

func require_Error(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatalf("require error, but got none")
	}
}

func require_Equal[T comparable](t *testing.T, a, b T) {
	t.Helper()
	if a != b {
		t.Fatalf("require equal, but got: %v != %v", a, b)
	}
}

// fakeEndpoint is an in-memory netEndpoint. Reads drain the in buffer one
// call at a time and then report EAGAIN (or EOF when eof is set); writes
// append to out unless wblocked, which reports EAGAIN.
type fakeEndpoint struct {
	in       []byte
	out      []byte
	eof      bool
	wblocked bool
	closed   bool
}

func (e *fakeEndpoint) Read(p []byte) (int, error) {
	if len(e.in) == 0 {
		if e.eof {
			return 0, nil
		}
		return 0, unix.EAGAIN
	}
	n := copy(p, e.in)
	e.in = e.in[n:]
	return n, nil
}

func (e *fakeEndpoint) Write(p []byte) (int, error) {
	if e.wblocked {
		return 0, unix.EAGAIN
	}
	e.out = append(e.out, p...)
	return len(p), nil
}

func (e *fakeEndpoint) Close() error {
	e.closed = true
	return nil
}

func (e *fakeEndpoint) fd() int { return -1 }

// newTestClient builds a client in the initial phase over the given
// endpoint, with default options.
func newTestClient(id uint64, ep netEndpoint) *client {
	opts := &Options{}
	opts.setDefaults()
	return newClient(id, ep, opts)
}
