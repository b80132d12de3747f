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
	"bytes"
	"encoding/json"
	"net/http"
)

const (
	mimeJson = "application/json"

	MsgInvalidRequest = "Invalid request"
	MsgInternalError  = "Internal server error"
)

// Result is the body of every successful reply.
type Result struct {
	Result string `json:"result"`
}

var ok = Result{Result: "OK"}

// Error is a failed reply.  It is sent wrapped, as {"error": {...}}.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

type errorReply struct {
	Error *Error `json:"error"`
}

// DefaultMessage returns the message used for a status code when nothing
// more specific is known.
func DefaultMessage(code int) string {
	if code/100 == 4 {
		return MsgInvalidRequest
	}
	return MsgInternalError
}

// NewError returns an Error for the code.  An empty message is replaced
// by DefaultMessage(code).
func NewError(code int, message string) *Error {
	if message == "" {
		message = DefaultMessage(code)
	}
	return &Error{Code: code, Message: message}
}

func (e *Error) write(w http.ResponseWriter) {
	writeJson(w, e.Code, &errorReply{Error: e})
}

// writeJson sends v as the one and only JSON document of the reply.  A code
// of zero leaves the status at its implicit 200.  HTML characters are not
// escaped and no trailing newline is written.
func writeJson(w http.ResponseWriter, code int, v interface{}) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if e := enc.Encode(v); e != nil {
		http.Error(w, e.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", mimeJson)
	if code != 0 {
		w.WriteHeader(code)
	}
	w.Write(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
}
