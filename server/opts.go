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
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultPort is the TCP port the server listens on when none is
	// configured.
	DefaultPort = 8081

	// DefaultPointCount is the capacity of the replay ring.
	DefaultPointCount = 1000

	// DefaultMaxPending is the maximum number of outbound bytes that may
	// be queued for a single websocket peer before it is considered a
	// slow consumer and dropped.
	DefaultMaxPending = 64 * 1024

	// DefaultHTTPIdleTimeout is how long a connection may sit in an HTTP
	// phase with no I/O before it is dropped.
	DefaultHTTPIdleTimeout = 1 * time.Second
)

// RandomPort can be used as Options.Port to bind an ephemeral port.
const RandomPort = -1

// Options holds the server configuration. The zero value, after defaults are
// applied, reproduces the stock process surface: dual-stack listener on port
// 8081, a 1000 point replay ring, 1s HTTP idle timeout.
type Options struct {
	// Host is the listen address. Empty means all addresses.
	Host string `yaml:"host"`

	// Port is the listen port. RandomPort (-1) binds an ephemeral port.
	Port int `yaml:"port"`

	// PointCount is the capacity of the replay ring.
	PointCount int `yaml:"point_count"`

	// MaxPending bounds queued outbound bytes per websocket peer.
	MaxPending int `yaml:"max_pending"`

	// HTTPIdleTimeout drops connections idle in an HTTP phase.
	HTTPIdleTimeout time.Duration `yaml:"http_idle_timeout"`

	// Debug enables debug logging.
	Debug bool `yaml:"debug"`

	// NoLog disables all logging. Used by tests.
	NoLog bool `yaml:"-"`
}

// ProcessConfigFile parses a YAML configuration file into Options.
func ProcessConfigFile(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "config file")
	}
	opts := &Options{}
	if err := yaml.Unmarshal(data, opts); err != nil {
		return nil, errors.Wrapf(err, "parsing configuration file %q", path)
	}
	return opts, nil
}

// setDefaults fills in zero fields.
func (o *Options) setDefaults() {
	if o.Port == 0 {
		o.Port = DefaultPort
	}
	if o.PointCount == 0 {
		o.PointCount = DefaultPointCount
	}
	if o.MaxPending == 0 {
		o.MaxPending = DefaultMaxPending
	}
	if o.HTTPIdleTimeout == 0 {
		o.HTTPIdleTimeout = DefaultHTTPIdleTimeout
	}
}

// validate checks option ranges after defaults have been applied.
func (o *Options) validate() error {
	if o.Port != RandomPort && (o.Port < 1 || o.Port > 65535) {
		return fmt.Errorf("invalid port %d", o.Port)
	}
	if o.PointCount < 1 {
		return fmt.Errorf("point count must be positive, got %d", o.PointCount)
	}
	if o.MaxPending < wsMaxPayloadSize+2 {
		return fmt.Errorf("max pending %d cannot hold a single frame", o.MaxPending)
	}
	if o.HTTPIdleTimeout < 0 {
		return fmt.Errorf("http idle timeout cannot be negative")
	}
	return nil
}

// clone returns a copy so the caller's Options are not mutated by defaults.
func (o *Options) clone() *Options {
	if o == nil {
		return &Options{}
	}
	c := *o
	return &c
}
