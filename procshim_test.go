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
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

// testSup is a Supervisor that records what it was asked to do.
type testSup struct {
	procs      []ProcessDescriptor
	connectErr error
	listErr    error
	actErr     error
	hang       bool
	calls      []string
	sync.Mutex
}

func (s *testSup) record(call string) {
	s.Lock()
	s.calls = append(s.calls, call)
	s.Unlock()
}

func (s *testSup) Calls() []string {
	s.Lock()
	defer s.Unlock()
	return append([]string{}, s.calls...)
}

func (s *testSup) Connect(ctx context.Context) error {
	s.record("connect")
	return s.connectErr
}

func (s *testSup) List(ctx context.Context) ([]ProcessDescriptor, error) {
	s.record("list")
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.procs, nil
}

func (s *testSup) act(ctx context.Context, name string, target string) error {
	s.record(name + " " + target)
	if s.hang {
		<-ctx.Done()
		return ctx.Err()
	}
	return s.actErr
}

func (s *testSup) Start(ctx context.Context, target string) error {
	return s.act(ctx, "start", target)
}

func (s *testSup) Stop(ctx context.Context, target string) error {
	return s.act(ctx, "stop", target)
}

func (s *testSup) Restart(ctx context.Context, target string) error {
	return s.act(ctx, "restart", target)
}

var threeProcs = []ProcessDescriptor{
	{ID: 0, Name: "web", Status: "online"},
	{ID: 1, Name: "worker1", Status: "online"},
	{ID: 2, Name: "cron", Status: "stopped"},
}

func serve(h http.Handler, uri string, secret ...string) *httptest.ResponseRecorder {
	r := httptest.NewRequest("GET", uri, nil)
	for _, s := range secret {
		r.Header.Add(SecretHeader, s)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

const (
	replyOK       = `{"result":"OK"}`
	reply404      = `{"error":{"code":404,"message":"Invalid request"}}`
	reply401      = `{"error":{"code":401,"message":"Invalid request"}}`
	reply403      = `{"error":{"code":403,"message":"Invalid request"}}`
	replyNoProcs  = `{"error":{"code":500,"message":"No process registered in pm2"}}`
	replyThrottle = `{"error":{"code":500,"message":"Too many actions, try again later"}}`
)

func TestRouterScenarios(t *testing.T) {
	Convey("Given a router without a secret", t, func() {
		sup := &testSup{procs: threeProcs}
		rt := NewRouter(NewExecutor(sup), "")

		Convey("Stopping a named process succeeds", func() {
			w := serve(rt, "/api?action=stop&target=worker1")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldEqual, "application/json")
			So(w.Body.String(), ShouldEqual, replyOK)
			So(sup.Calls(), ShouldResemble, []string{"stop worker1"})
		})

		Convey("Restarting all checks the registry first", func() {
			w := serve(rt, "/api?action=restart&target=all")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldEqual, replyOK)
			So(sup.Calls(), ShouldResemble,
				[]string{"connect", "list", "restart all"})
		})

		Convey("Restarting all with nothing registered fails", func() {
			sup.procs = nil
			w := serve(rt, "/api?action=restart&target=all")
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
			So(w.Body.String(), ShouldEqual, replyNoProcs)
			So(sup.Calls(), ShouldResemble, []string{"connect", "list"})
		})

		Convey("A missing query string is not found", func() {
			w := serve(rt, "/api")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(w.Body.String(), ShouldEqual, reply404)
			So(sup.Calls(), ShouldBeEmpty)
		})

		Convey("An unsupported action is not found", func() {
			w := serve(rt, "/api?action=pause&target=svc")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(w.Body.String(), ShouldEqual, reply404)
			So(sup.Calls(), ShouldBeEmpty)
		})

		Convey("Start is passed straight through", func() {
			w := serve(rt, "/api?action=start&target=svc")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldEqual, replyOK)
			So(sup.Calls(), ShouldResemble, []string{"start svc"})
		})

		Convey("Numeric ids are passed through untouched", func() {
			w := serve(rt, "/api?action=restart&target=2")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(sup.Calls(), ShouldResemble, []string{"restart 2"})
		})

		Convey("Any secret header is ignored", func() {
			w := serve(rt, "/api?action=stop&target=web", "whatever")
			So(w.Code, ShouldEqual, http.StatusOK)
		})
	})

	Convey("Given a router with a secret", t, func() {
		sup := &testSup{procs: threeProcs}
		rt := NewRouter(NewExecutor(sup), "xyz")

		Convey("A wrong secret is forbidden", func() {
			w := serve(rt, "/api?action=start&target=svc", "wrong")
			So(w.Code, ShouldEqual, http.StatusForbidden)
			So(w.Body.String(), ShouldEqual, reply403)
			So(sup.Calls(), ShouldBeEmpty)
		})

		Convey("A missing secret is forbidden", func() {
			w := serve(rt, "/api?action=start&target=svc")
			So(w.Code, ShouldEqual, http.StatusForbidden)
		})

		Convey("Secrets are case sensitive", func() {
			w := serve(rt, "/api?action=start&target=svc", "XYZ")
			So(w.Code, ShouldEqual, http.StatusForbidden)
		})

		Convey("Repeated headers are joined before comparing", func() {
			w := serve(rt, "/api?action=start&target=svc", "xyz", "xyz")
			So(w.Code, ShouldEqual, http.StatusForbidden)
		})

		Convey("Forbidden wins over an unknown action", func() {
			w := serve(rt, "/api?action=pause&target=svc", "wrong")
			So(w.Code, ShouldEqual, http.StatusForbidden)
		})

		Convey("Validation comes before authentication", func() {
			w := serve(rt, "/api?action=start", "wrong")
			So(w.Code, ShouldEqual, http.StatusUnauthorized)
		})

		Convey("The right secret gets through", func() {
			w := serve(rt, "/api?action=start&target=svc", "xyz")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldEqual, replyOK)
			So(sup.Calls(), ShouldResemble, []string{"start svc"})
		})
	})
}

func TestRouterValidation(t *testing.T) {
	Convey("Given a router", t, func() {
		sup := &testSup{procs: threeProcs}
		rt := NewRouter(NewExecutor(sup), "")

		for _, uri := range []string{
			"/api?",
			"/api?action=stop",
			"/api?target=web",
			"/api?action=&target=web",
			"/api?action=stop&target=",
			"/api?action&target",
			"/api?foo=bar",
		} {
			uri := uri
			Convey("Incomplete request "+uri+" is unauthorized", func() {
				w := serve(rt, uri)
				So(w.Code, ShouldEqual, http.StatusUnauthorized)
				So(w.Body.String(), ShouldEqual, reply401)
				So(sup.Calls(), ShouldBeEmpty)
			})
		}

		Convey("A request without any URL is not found", func() {
			r := &http.Request{Method: "GET", Header: http.Header{}}
			w := httptest.NewRecorder()
			rt.ServeHTTP(w, r)
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(w.Body.String(), ShouldEqual, reply404)
		})

		Convey("The path and method do not matter", func() {
			r := httptest.NewRequest("DELETE", "/some/other/path?target=web&action=stop", nil)
			w := httptest.NewRecorder()
			rt.ServeHTTP(w, r)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(sup.Calls(), ShouldResemble, []string{"stop web"})
		})
	})
}

func TestRouterSupervisorFailures(t *testing.T) {
	Convey("Given a router over a failing supervisor", t, func() {
		sup := &testSup{procs: threeProcs}
		rt := NewRouter(NewExecutor(sup), "")

		Convey("Action errors are reported verbatim", func() {
			sup.actErr = errors.New("process or namespace nope not found")
			w := serve(rt, "/api?action=stop&target=nope")
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
			So(w.Body.String(), ShouldEqual,
				`{"error":{"code":500,"message":"process or namespace nope not found"}}`)
		})

		Convey("Messages are not HTML escaped", func() {
			sup.actErr = errors.New("bad <name> & co")
			w := serve(rt, "/api?action=restart&target=web")
			So(w.Body.String(), ShouldEqual,
				`{"error":{"code":500,"message":"bad <name> & co"}}`)
		})

		Convey("An empty error message gets the default", func() {
			sup.actErr = errors.New("")
			w := serve(rt, "/api?action=restart&target=web")
			So(w.Body.String(), ShouldEqual,
				`{"error":{"code":500,"message":"Internal server error"}}`)
		})

		Convey("Connect errors stop an all request", func() {
			sup.connectErr = errors.New("connect ECONNREFUSED")
			w := serve(rt, "/api?action=stop&target=all")
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
			So(w.Body.String(), ShouldEqual,
				`{"error":{"code":500,"message":"connect ECONNREFUSED"}}`)
			So(sup.Calls(), ShouldResemble, []string{"connect"})
		})

		Convey("List errors stop an all request", func() {
			sup.listErr = errors.New("list failed")
			w := serve(rt, "/api?action=stop&target=all")
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
			So(w.Body.String(), ShouldEqual,
				`{"error":{"code":500,"message":"list failed"}}`)
			So(sup.Calls(), ShouldResemble, []string{"connect", "list"})
		})

		Convey("The registry check runs before the action is looked at", func() {
			sup.procs = nil
			w := serve(rt, "/api?action=pause&target=all")
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
			So(w.Body.String(), ShouldEqual, replyNoProcs)
		})

		Convey("An unknown action on all is still not found", func() {
			w := serve(rt, "/api?action=pause&target=all")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(sup.Calls(), ShouldResemble, []string{"connect", "list"})
		})
	})
}

func TestExecutor(t *testing.T) {
	Convey("Given an executor", t, func() {
		sup := &testSup{procs: threeProcs}
		x := NewExecutor(sup)

		Convey("It forwards every call", func() {
			So(x.Connect(context.Background()), ShouldBeNil)
			procs, e := x.List(context.Background())
			So(e, ShouldBeNil)
			So(len(procs), ShouldEqual, 3)
			So(x.Start(context.Background(), "a"), ShouldBeNil)
			So(x.Stop(context.Background(), "b"), ShouldBeNil)
			So(x.Restart(context.Background(), "c"), ShouldBeNil)
			So(sup.Calls(), ShouldResemble, []string{
				"connect", "list", "start a", "stop b", "restart c"})
		})

		Convey("A timeout cuts off a hung supervisor", func() {
			sup.hang = true
			x.SetTimeout(20 * time.Millisecond)
			e := x.Stop(context.Background(), "web")
			So(e, ShouldEqual, context.DeadlineExceeded)

			w := serve(NewRouter(x, ""), "/api?action=stop&target=web")
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
			So(w.Body.String(), ShouldEqual,
				`{"error":{"code":500,"message":"context deadline exceeded"}}`)
		})

		Convey("The throttle rejects bursts", func() {
			x.SetRateLimit(0.001, 1)
			rt := NewRouter(x, "")
			w := serve(rt, "/api?action=restart&target=web")
			So(w.Code, ShouldEqual, http.StatusOK)
			w = serve(rt, "/api?action=restart&target=web")
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
			So(w.Body.String(), ShouldEqual, replyThrottle)
			So(sup.Calls(), ShouldResemble, []string{"restart web"})

			Convey("But never the registry check", func() {
				_, e := x.List(context.Background())
				So(e, ShouldBeNil)
			})

			Convey("And can be switched off", func() {
				x.SetRateLimit(0, 0)
				So(x.Restart(context.Background(), "web"), ShouldBeNil)
			})
		})
	})
}
