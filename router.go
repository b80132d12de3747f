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
	"crypto/subtle"
	"net/http"
	"strings"
)

// SecretHeader carries the shared secret on every request when one is
// configured.
const SecretHeader = "x-pm2-secret"

// Router is the http.Handler that turns a request into an action against
// the Executor.  It holds no per-request state, so a single Router serves
// any number of concurrent requests.
type Router struct {
	x      *Executor
	secret string
}

// NewRouter returns a Router dispatching to x.  An empty secret disables
// authentication.
func NewRouter(x *Executor, secret string) *Router {
	return &Router{x: x, secret: secret}
}

func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if e := rt.route(r); e != nil {
		e.write(w)
		return
	}
	writeJson(w, 0, ok)
}

// route runs the request through every check in order, and performs the
// action.  It returns nil on success, or the Error to send back.
func (rt *Router) route(r *http.Request) *Error {
	uri := requestURI(r)
	if uri == "" {
		return NewError(http.StatusNotFound, "")
	}
	cmd, e := ParseCommand(uri)
	switch e {
	case nil:
	case ErrNoQuery:
		return NewError(http.StatusNotFound, "")
	default:
		// Not a 400.  Existing clients depend on this code.
		return NewError(http.StatusUnauthorized, "")
	}

	if !rt.authorized(r) {
		return NewError(http.StatusForbidden, "")
	}

	ctx := r.Context()
	if cmd.All() {
		if e := rt.x.Connect(ctx); e != nil {
			return NewError(http.StatusInternalServerError, e.Error())
		}
		procs, e := rt.x.List(ctx)
		if e != nil {
			return NewError(http.StatusInternalServerError, e.Error())
		}
		if len(procs) == 0 {
			return NewError(http.StatusInternalServerError,
				ErrNoProcesses.Error())
		}
	}

	switch cmd.Action {
	case ActionStop:
		e = rt.x.Stop(ctx, cmd.Target)
	case ActionStart:
		e = rt.x.Start(ctx, cmd.Target)
	case ActionRestart:
		e = rt.x.Restart(ctx, cmd.Target)
	default:
		return NewError(http.StatusNotFound, "")
	}
	if e != nil {
		return NewError(http.StatusInternalServerError, e.Error())
	}
	return nil
}

func (rt *Router) authorized(r *http.Request) bool {
	if rt.secret == "" {
		return true
	}
	vals := r.Header.Values(SecretHeader)
	if len(vals) == 0 {
		return false
	}
	got := strings.Join(vals, ", ")
	return subtle.ConstantTimeCompare([]byte(got), []byte(rt.secret)) == 1
}

// requestURI returns the raw path and query of the request, as it appeared
// on the request line when that is available.
func requestURI(r *http.Request) string {
	if r.RequestURI != "" {
		return r.RequestURI
	}
	if r.URL == nil {
		return ""
	}
	return r.URL.RequestURI()
}
