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

package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/inkboard/inkboard/server"
)

var usageStr = `
Usage: inkboard [options]

Server Options:
    -p, --port <port>            Port to listen on (default: 8081)
    -c, --config <file>          Configuration file
    -D, --debug                  Enable debugging output
    -h, --help                   Show this message
`

func usage() {
	fmt.Fprintln(os.Stderr, usageStr)
	os.Exit(0)
}

func main() {
	var (
		configFile string
		port       int
		debug      bool
	)

	fs := flag.NewFlagSet("inkboard", flag.ExitOnError)
	fs.Usage = usage
	fs.StringVar(&configFile, "c", "", "Configuration file.")
	fs.StringVar(&configFile, "config", "", "Configuration file.")
	fs.IntVar(&port, "p", 0, "Port to listen on.")
	fs.IntVar(&port, "port", 0, "Port to listen on.")
	fs.BoolVar(&debug, "D", false, "Enable debugging output.")
	fs.BoolVar(&debug, "debug", false, "Enable debugging output.")
	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(1)
	}

	opts := &server.Options{}
	if configFile != "" {
		var err error
		opts, err = server.ProcessConfigFile(configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "inkboard: %v\n", err)
			os.Exit(1)
		}
	}
	// Command line wins over the config file.
	if port != 0 {
		opts.Port = port
	}
	if debug {
		opts.Debug = true
	}

	s, err := server.New(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "inkboard: %v\n", err)
		os.Exit(1)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		s.Shutdown()
	}()

	// Start binds the listener and then runs the readiness loop until
	// Shutdown. It fails only when the listener or its wake pipe cannot be
	// set up.
	if err := s.Start(); err != nil {
		os.Exit(1)
	}
}
