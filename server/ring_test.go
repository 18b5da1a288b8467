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

	"github.com/stretchr/testify/require"
)

func TestPointEncodeWire(t *testing.T) {
	p := Point{action: pointAdd, clientID: 0, pathID: 7, x: 100, y: 200}
	require.Equal(t, "1, 0, 7, 100.000000, 200.000000", string(p.encodeWire()))

	p.action = pointRemove
	p.clientID = 3
	p.x = -1.5
	require.Equal(t, "2, 3, 7, -1.500000, 200.000000", string(p.encodeWire()))
}

func TestParsePointPayload(t *testing.T) {
	p, err := parsePointPayload([]byte("7, 100, 200"))
	require.NoError(t, err)
	require.Equal(t, pointAdd, p.action)
	require.Equal(t, uint64(7), p.pathID)
	require.Equal(t, 100.0, p.x)
	require.Equal(t, 200.0, p.y)

	p, err = parsePointPayload([]byte("12, 1.5, -2.25"))
	require.NoError(t, err)
	require.Equal(t, uint64(12), p.pathID)
	require.Equal(t, 1.5, p.x)
	require.Equal(t, -2.25, p.y)

	_, err = parsePointPayload([]byte("not a point"))
	require.Error(t, err)

	_, err = parsePointPayload([]byte(""))
	require.Error(t, err)
}

func TestRingAddAndEvict(t *testing.T) {
	r := newPointRing(2)

	p1 := Point{action: pointAdd, clientID: 0, pathID: 1, x: 1, y: 1}
	p2 := Point{action: pointAdd, clientID: 0, pathID: 2, x: 2, y: 2}
	p3 := Point{action: pointAdd, clientID: 0, pathID: 3, x: 3, y: 3}

	_, evicted := r.add(p1)
	require.False(t, evicted)
	_, evicted = r.add(p2)
	require.False(t, evicted)

	// Third add wraps onto p1's slot; the eviction carries p1's payload
	// with the action flipped to Remove.
	rm, evicted := r.add(p3)
	require.True(t, evicted)
	require.Equal(t, pointRemove, rm.action)
	require.Equal(t, p1.clientID, rm.clientID)
	require.Equal(t, p1.pathID, rm.pathID)
	require.Equal(t, p1.x, rm.x)
	require.Equal(t, p1.y, rm.y)

	require.Equal(t, []Point{p3, p2}, r.points)
	require.Equal(t, 1, r.i)
}

func TestRingHoldsAtMostCountAdds(t *testing.T) {
	const count = 5
	r := newPointRing(count)

	evictions := 0
	for i := 0; i < 3*count; i++ {
		p := Point{action: pointAdd, clientID: 1, pathID: uint64(i), x: float64(i), y: float64(i)}
		if _, evicted := r.add(p); evicted {
			evictions++
		}
	}

	adds := 0
	for _, p := range r.points {
		if p.action == pointAdd {
			adds++
		}
	}
	require.Equal(t, count, adds)
	// Every overwrite of an Add produced exactly one eviction.
	require.Equal(t, 2*count, evictions)
}
