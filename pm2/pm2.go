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

// Package pm2 drives an existing pm2 installation through its command
// line, so that it can serve as a procshim.Supervisor.
package pm2

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/procshim/procshim"
)

// DefaultBinary is looked up in $PATH when no binary is configured.
const DefaultBinary = "pm2"

// How long to wait for output to drain after a command has been killed.
const waitDelay = time.Second

// ErrBadTarget is returned for targets that cannot be passed to pm2.
var ErrBadTarget = errors.New("Invalid process target")

// Supervisor runs pm2 subcommands.  It keeps no state of its own; pm2's
// daemon is the long-lived session, and the CLI attaches to it (starting
// it if need be) on every call.
type Supervisor struct {
	binary string
	env    []string
	logger *zap.Logger
}

var _ procshim.Supervisor = &Supervisor{}

// Error is returned when a pm2 command fails.  Its message is what pm2
// printed about the failure, which is what clients end up seeing.
type Error struct {
	Args   []string
	Output string
	Err    error
}

func (e *Error) Error() string {
	if e.Output != "" {
		return e.Output
	}
	return e.Err.Error()
}

func (e *Error) Cause() error {
	return e.Err
}

// jlistEntry is the subset of a `pm2 jlist` record that we care about.
type jlistEntry struct {
	ID   int    `json:"pm_id"`
	Name string `json:"name"`
	Env  struct {
		Status string `json:"status"`
	} `json:"pm2_env"`
}

// SetEnv adds environment variables, in "KEY=value" form, to those
// inherited by every pm2 command.
func (s *Supervisor) SetEnv(env []string) {
	s.env = append([]string{}, env...)
}

// SetHome points the pm2 CLI at a specific PM2_HOME.
func (s *Supervisor) SetHome(dir string) {
	if dir != "" {
		s.env = append(s.env, "PM2_HOME="+dir)
	}
}

// SetLogger is used to establish a logger.  Commands are logged at debug
// level.
func (s *Supervisor) SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	s.logger = l.Named("pm2")
}

func (s *Supervisor) run(ctx context.Context, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, s.binary, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay
	if len(s.env) != 0 {
		cmd.Env = append(os.Environ(), s.env...)
	}

	start := time.Now()
	e := cmd.Run()
	s.logger.Debug("pm2 command",
		zap.Strings("args", args),
		zap.Duration("elapsed", time.Since(start)),
		zap.Error(e))

	if e == nil {
		return stdout.Bytes(), nil
	}
	if ce := ctx.Err(); ce != nil {
		return nil, ce
	}
	out := strings.TrimSpace(stderr.String())
	if out == "" {
		out = strings.TrimSpace(stdout.String())
	}
	return nil, &Error{Args: args, Output: out, Err: e}
}

// Connect checks that the pm2 daemon answers.
func (s *Supervisor) Connect(ctx context.Context) error {
	_, e := s.run(ctx, "ping")
	return e
}

// List returns the processes pm2 knows about.
func (s *Supervisor) List(ctx context.Context) ([]procshim.ProcessDescriptor, error) {
	out, e := s.run(ctx, "jlist")
	if e != nil {
		return nil, e
	}
	return parseJlist(out)
}

// parseJlist decodes `pm2 jlist` output.  pm2 may print notices such as
// "[PM2] Spawning PM2 daemon" ahead of the JSON, so decoding is attempted
// at each '[' in turn until one parses.
func parseJlist(out []byte) ([]procshim.ProcessDescriptor, error) {
	var entries []jlistEntry
	var last error
	for off := 0; ; {
		i := bytes.IndexByte(out[off:], '[')
		if i < 0 {
			break
		}
		off += i
		dec := json.NewDecoder(bytes.NewReader(out[off:]))
		if last = dec.Decode(&entries); last == nil {
			break
		}
		entries = nil
		off++
	}
	if last != nil {
		return nil, errors.Wrap(last, "decoding pm2 jlist")
	}
	if entries == nil {
		return nil, errors.Errorf("unexpected pm2 jlist output: %q",
			truncate(string(out), 80))
	}
	rv := make([]procshim.ProcessDescriptor, 0, len(entries))
	for _, ent := range entries {
		rv = append(rv, procshim.ProcessDescriptor{
			ID:     ent.ID,
			Name:   ent.Name,
			Status: ent.Env.Status,
		})
	}
	return rv, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// act runs a lifecycle subcommand.  Targets that pm2 would parse as
// options are refused outright.
func (s *Supervisor) act(ctx context.Context, action string, target string) error {
	if target == "" || strings.HasPrefix(target, "-") {
		return ErrBadTarget
	}
	_, e := s.run(ctx, action, target)
	return e
}

func (s *Supervisor) Start(ctx context.Context, target string) error {
	return s.act(ctx, "start", target)
}

func (s *Supervisor) Stop(ctx context.Context, target string) error {
	return s.act(ctx, "stop", target)
}

func (s *Supervisor) Restart(ctx context.Context, target string) error {
	return s.act(ctx, "restart", target)
}

// New returns a Supervisor that runs the given pm2 binary.  An empty
// binary means DefaultBinary.
func New(binary string) *Supervisor {
	if binary == "" {
		binary = DefaultBinary
	}
	return &Supervisor{binary: binary, logger: zap.NewNop()}
}
