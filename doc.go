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

// Package procshim provides a small HTTP control surface in front of an
// existing process supervisor.  Clients ask for one of three lifecycle
// actions (start, stop or restart) against a named process, a numeric
// process id, or the special target "all", using nothing more than two
// query parameters:
//
//	GET /anything?action=restart&target=worker1
//
// The Router authenticates the request against an optional shared secret
// carried in the x-pm2-secret header, validates it, and hands the work to
// an Executor.  The Executor in turn drives a Supervisor, which is whatever
// actually manages the processes (see the pm2 and remote packages).  Every
// outcome is reported as a single JSON document, either {"result":"OK"} or
// {"error":{"code":N,"message":"..."}}.
//
// procshim does not supervise anything itself.  It holds no state between
// requests, and leaves process lifecycle and concurrency safety entirely to
// the supervisor behind it.
package procshim
