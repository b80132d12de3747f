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
)

// ProcessDescriptor is a single process as reported by a Supervisor.  The
// Router only ever counts these; the fields are informational.
type ProcessDescriptor struct {
	ID     int    `json:"pm_id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// Supervisor is what process supervisor adapters must implement.  Every
// method blocks until the supervisor has answered, and must give up when
// the context is done.  Implementations are called concurrently from many
// requests; they are responsible for their own locking, if any.
type Supervisor interface {
	// Connect establishes (or verifies) the session with the supervisor.
	// It is called before every request targeting "all", so it must be
	// cheap when the session already exists.
	Connect(context.Context) error

	// List returns the processes currently known to the supervisor.
	// An empty list with a nil error means nothing is registered.
	List(context.Context) ([]ProcessDescriptor, error)

	// Start starts the target, which is either TargetAll or a process
	// name.  Starting something that is already running is up to the
	// supervisor; it is not an error here.
	Start(ctx context.Context, target string) error

	// Stop stops the target, which is TargetAll, a process name, or a
	// numeric process id.
	Stop(ctx context.Context, target string) error

	// Restart restarts the target, accepting the same forms as Stop.
	Restart(ctx context.Context, target string) error
}
