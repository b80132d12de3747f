// Copyright 2026 The Procshim Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use file except in compliance with the License.
// You may obtain a copy of the license at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command procshimd serves the procshim HTTP control surface in front of a
// process supervisor.
//
// The flags are
//
//	-c <file>  - YAML configuration file, default none
//	-v         - log at debug level
//
// PROCSHIM_PORT, PROCSHIM_SECRET and PROCSHIM_BACKEND override the file.
package main

import (
	"context"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/net/netutil"

	"github.com/procshim/procshim"
	"github.com/procshim/procshim/config"
)

var cfgFile string = ""
var verbose bool = false

const shutdownGrace = 5 * time.Second

func newLogger(debug bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if debug {
		zc.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return zc.Build()
}

// listen opens the listening socket, capping concurrent connections when
// asked to.
func listen(c *config.Config) (net.Listener, error) {
	l, e := net.Listen("tcp", c.Addr())
	if e != nil {
		return nil, errors.Wrapf(e, "listening on %s", c.Addr())
	}
	if c.MaxConnections > 0 {
		l = netutil.LimitListener(l, c.MaxConnections)
	}
	return l, nil
}

func main() {
	flag.StringVar(&cfgFile, "c", cfgFile, "configuration file")
	flag.BoolVar(&verbose, "v", verbose, "debug logging")
	flag.Parse()

	logger, e := newLogger(verbose)
	if e != nil {
		os.Stderr.WriteString("Failed to create logger: " + e.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Sugar()

	cfg, e := config.Load(cfgFile)
	if e != nil {
		log.Fatalw("Failed to load configuration", "file", cfgFile, "error", e)
	}
	sup, e := newSupervisor(cfg, logger)
	if e != nil {
		log.Fatalw("Failed to create supervisor backend", "error", e)
	}
	rt := procshim.NewRouter(newExecutor(cfg, sup), cfg.Secret)

	l, e := listen(cfg)
	if e != nil {
		log.Fatalw("Failed to listen", "error", e)
	}
	srv := &http.Server{
		Handler:           newHandler(rt, log),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          zap.NewStdLog(logger),
	}

	sigs := make(chan os.Signal, 1)
	done := make(chan bool, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	go func() {
		log.Infow("Listening for api on "+l.Addr().String(),
			"backend", cfg.Backend.Kind,
			"auth", cfg.Secret != "")
		if e := srv.Serve(l); e != nil && e != http.ErrServerClosed {
			log.Errorw("Server failed", "error", e)
			done <- true
		}
	}()

	// Set up a handler, so that we shutdown cleanly if possible.
	go func() {
		s := <-sigs
		log.Infow("Shutting down", "signal", s.String())
		done <- true
	}()

	<-done
	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if e := srv.Shutdown(ctx); e != nil {
		log.Errorw("Shutdown incomplete", "error", e)
	}
}
