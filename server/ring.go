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

import "fmt"

// pointAction is the first field of the broadcast wire form. None marks an
// unused ring slot and never goes on the wire.
type pointAction int

const (
	pointNone pointAction = iota
	pointAdd
	pointRemove
)

// Point is one drawing event. clientID is assigned by the server from the
// originating connection's id; pathID groups points into strokes on the
// client side.
type Point struct {
	action   pointAction
	clientID uint64
	pathID   uint64
	x, y     float64
}

// encodeWire renders the server-to-client payload:
// "<action>, <client_id>, <path_id>, <x>, <y>" with six-decimal floats.
func (p Point) encodeWire() []byte {
	return []byte(fmt.Sprintf("%d, %d, %d, %f, %f", int(p.action), p.clientID, p.pathID, p.x, p.y))
}

// parsePointPayload reads the client-to-server form "<path_id>, <x>, <y>".
func parsePointPayload(payload []byte) (Point, error) {
	var p Point
	if _, err := fmt.Sscanf(string(payload), "%d, %g, %g", &p.pathID, &p.x, &p.y); err != nil {
		return Point{}, err
	}
	p.action = pointAdd
	return p, nil
}

// pointRing is the bounded history of recent Adds, replayed to newly
// upgraded peers. Slots hold values by copy; i is the wrapping write
// cursor.
type pointRing struct {
	points []Point
	i      int
}

func newPointRing(count int) *pointRing {
	return &pointRing{points: make([]Point, count)}
}

// add writes p over the cursor slot and advances the cursor. If the slot
// held an Add, that point is returned with action Remove so the caller can
// broadcast the eviction before the new Add.
func (r *pointRing) add(p Point) (Point, bool) {
	var evicted Point
	var hasEvicted bool
	if occ := r.points[r.i]; occ.action == pointAdd {
		evicted = occ
		evicted.action = pointRemove
		hasEvicted = true
	}
	r.points[r.i] = p
	r.i = (r.i + 1) % len(r.points)
	return evicted, hasEvicted
}
