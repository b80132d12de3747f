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

package procshim

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Executor performs validated commands against a Supervisor.  It adds
// nothing to the supervisor's own semantics beyond an optional per-call
// timeout and an optional throttle on lifecycle actions.  Failures are
// never retried.
type Executor struct {
	sup     Supervisor
	timeout time.Duration
	limiter *rate.Limiter
}

// NewExecutor returns an Executor driving s, with no timeout and no
// throttle.
func NewExecutor(s Supervisor) *Executor {
	return &Executor{sup: s}
}

// SetTimeout bounds every supervisor call.  Zero, the default, waits for
// as long as the supervisor takes.  Call before the Executor is in use.
func (x *Executor) SetTimeout(d time.Duration) {
	x.timeout = d
}

// SetRateLimit allows at most limit start, stop or restart actions per
// second, with bursts of up to burst.  A limit of zero or less removes the
// throttle.  Call before the Executor is in use.
func (x *Executor) SetRateLimit(limit float64, burst int) {
	if limit <= 0 {
		x.limiter = nil
		return
	}
	if burst < 1 {
		burst = 1
	}
	x.limiter = rate.NewLimiter(rate.Limit(limit), burst)
}

func (x *Executor) context(ctx context.Context) (context.Context, context.CancelFunc) {
	if x.timeout > 0 {
		return context.WithTimeout(ctx, x.timeout)
	}
	return context.WithCancel(ctx)
}

// Connect makes sure the supervisor session is up.
func (x *Executor) Connect(ctx context.Context) error {
	ctx, cancel := x.context(ctx)
	defer cancel()
	return x.sup.Connect(ctx)
}

// List returns the processes registered with the supervisor.
func (x *Executor) List(ctx context.Context) ([]ProcessDescriptor, error) {
	ctx, cancel := x.context(ctx)
	defer cancel()
	return x.sup.List(ctx)
}

func (x *Executor) Start(ctx context.Context, target string) error {
	return x.act(ctx, x.sup.Start, target)
}

func (x *Executor) Stop(ctx context.Context, target string) error {
	return x.act(ctx, x.sup.Stop, target)
}

func (x *Executor) Restart(ctx context.Context, target string) error {
	return x.act(ctx, x.sup.Restart, target)
}

func (x *Executor) act(ctx context.Context, fn func(context.Context, string) error, target string) error {
	if x.limiter != nil && !x.limiter.Allow() {
		return ErrRateLimited
	}
	ctx, cancel := x.context(ctx)
	defer cancel()
	return fn(ctx, target)
}
