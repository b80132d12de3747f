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
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// statusRecorder remembers the status code written through it.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// accessLog logs one line per request, after the reply has been written.
func accessLog(logger *zap.SugaredLogger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Infow("request",
				"id", uuid.NewString(),
				"remote", r.RemoteAddr,
				"method", r.Method,
				"uri", r.RequestURI,
				"status", rec.status,
				"elapsed", time.Since(start))
		})
	}
}

// newHandler mounts h for every path and method.  Only the query string
// means anything to procshim.
func newHandler(h http.Handler, logger *zap.SugaredLogger) http.Handler {
	r := mux.NewRouter()
	r.SkipClean(true)
	r.Use(accessLog(logger))
	r.PathPrefix("/").Handler(h)
	r.NotFoundHandler = accessLog(logger)(h)
	return r
}
