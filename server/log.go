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
	"log/slog"
	"os"
)

// Logger is the server's logging surface. A custom implementation can be
// installed with Server.SetLogger before Start.
type Logger interface {
	// Noticef logs a notice statement.
	Noticef(format string, v ...interface{})

	// Warnf logs a warning statement.
	Warnf(format string, v ...interface{})

	// Errorf logs an error statement.
	Errorf(format string, v ...interface{})

	// Debugf logs a debug statement.
	Debugf(format string, v ...interface{})
}

// slogLogger is the default Logger, backed by log/slog writing to stderr.
type slogLogger struct {
	l     *slog.Logger
	debug bool
}

// NewDefaultLogger returns a structured logger tagged with the server id.
func NewDefaultLogger(serverID string, debug bool) Logger {
	lvl := slog.LevelInfo
	if debug {
		lvl = slog.LevelDebug
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	return &slogLogger{
		l:     slog.New(h).With(slog.String("server", serverID)),
		debug: debug,
	}
}

func (s *slogLogger) Noticef(format string, v ...interface{}) {
	s.l.Info(fmt.Sprintf(format, v...))
}

func (s *slogLogger) Warnf(format string, v ...interface{}) {
	s.l.Warn(fmt.Sprintf(format, v...))
}

func (s *slogLogger) Errorf(format string, v ...interface{}) {
	s.l.Error(fmt.Sprintf(format, v...))
}

func (s *slogLogger) Debugf(format string, v ...interface{}) {
	if !s.debug {
		return
	}
	s.l.Debug(fmt.Sprintf(format, v...))
}

// noopLogger discards everything. Installed when Options.NoLog is set.
type noopLogger struct{}

func (*noopLogger) Noticef(string, ...interface{}) {}
func (*noopLogger) Warnf(string, ...interface{})   {}
func (*noopLogger) Errorf(string, ...interface{})  {}
func (*noopLogger) Debugf(string, ...interface{})  {}

// SetLogger installs a custom logger. Must be called before Start.
func (s *Server) SetLogger(l Logger) {
	s.mu.Lock()
	s.logger = l
	s.mu.Unlock()
}

// Noticef logs a notice statement.
func (s *Server) Noticef(format string, v ...interface{}) {
	s.logger.Noticef(format, v...)
}

// Warnf logs a warning statement.
func (s *Server) Warnf(format string, v ...interface{}) {
	s.logger.Warnf(format, v...)
}

// Errorf logs an error statement.
func (s *Server) Errorf(format string, v ...interface{}) {
	s.logger.Errorf(format, v...)
}

// Debugf logs a debug statement.
func (s *Server) Debugf(format string, v ...interface{}) {
	s.logger.Debugf(format, v...)
}
