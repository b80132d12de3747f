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

package main

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/procshim/procshim"
	"github.com/procshim/procshim/config"
	"github.com/procshim/procshim/pm2"
	"github.com/procshim/procshim/remote"
)

// newSupervisor builds the backend named by the configuration.
func newSupervisor(c *config.Config, logger *zap.Logger) (procshim.Supervisor, error) {
	switch c.Backend.Kind {
	case config.BackendPm2:
		s := pm2.New(c.Backend.Pm2.Binary)
		s.SetHome(c.Backend.Pm2.Home)
		s.SetLogger(logger)
		return s, nil
	case config.BackendGovisor:
		g := c.Backend.Govisor
		s := remote.NewClient(nil, g.URL)
		if g.User != "" || g.Password != "" {
			s.SetAuth(g.User, g.Password)
		}
		s.SetLogger(logger)
		return s, nil
	}
	return nil, errors.Wrapf(config.ErrUnknownBackend, "%q", c.Backend.Kind)
}

// newExecutor wraps the supervisor with the configured limits.
func newExecutor(c *config.Config, s procshim.Supervisor) *procshim.Executor {
	x := procshim.NewExecutor(s)
	x.SetTimeout(c.Timeout)
	x.SetRateLimit(c.RateLimit.Limit, c.RateLimit.Burst)
	return x
}
