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

// Package remote drives an existing govisord daemon over its REST API, so
// that it can serve as a procshim.Supervisor.
//
// govisord has no notion of numeric process ids.  Services are numbered by
// their position in the name-sorted service list, and a numeric target that
// is not itself a service name is resolved against that numbering.
package remote

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/procshim/procshim"
)

// govisord verbs for each action.
const (
	verbStart   = "enable"
	verbStop    = "disable"
	verbRestart = "restart"
)

type Client struct {
	user   string // HTTP Basic-Auth
	pass   string
	auth   bool
	base   string // URI to root of tree on server
	client *http.Client
	logger *zap.Logger
}

var _ procshim.Supervisor = &Client{}

func (c *Client) SetAuth(user string, pass string) {
	c.user = user
	c.pass = pass
	c.auth = true
}

// SetLogger is used to establish a logger.  Requests are logged at debug
// level.
func (c *Client) SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	c.logger = l.Named("govisor")
}

func (c *Client) url(name string) string {
	if name == "" {
		return c.base + "/services"
	}
	return c.base + "/services/" + url.PathEscape(name)
}

func (c *Client) do(ctx context.Context, method string, url string, v interface{}) error {
	req, e := http.NewRequestWithContext(ctx, method, url, nil)
	if e != nil {
		return errors.Wrap(e, "building govisord request")
	}
	if c.auth {
		req.SetBasicAuth(c.user, c.pass)
	}
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "text/plain") // we don't really care
	}
	res, e := c.client.Do(req)
	if e != nil {
		if ce := ctx.Err(); ce != nil {
			return ce
		}
		return e
	}
	defer res.Body.Close()
	c.logger.Debug("govisord request",
		zap.String("method", method),
		zap.String("url", url),
		zap.Int("status", res.StatusCode))

	body, e := io.ReadAll(res.Body)
	if e != nil {
		return errors.Wrap(e, "reading govisord reply")
	}
	if res.StatusCode != http.StatusOK {
		return replyError(res, body)
	}
	if v == nil {
		return nil
	}
	return errors.Wrap(json.Unmarshal(body, v), "decoding govisord reply")
}

// replyError turns a failed reply into an *Error, preferring the message
// govisord put in the body over the bare status line.
func replyError(res *http.Response, body []byte) *Error {
	e := &Error{}
	if json.Unmarshal(body, e) == nil && e.Message != "" {
		if e.Code == 0 {
			e.Code = res.StatusCode
		}
		return e
	}
	msg := strings.TrimSpace(string(body))
	if msg == "" || strings.HasPrefix(msg, "<") {
		msg = res.Status
	}
	return &Error{Code: res.StatusCode, Message: msg}
}

// Services returns the sorted names of all services known to govisord.
func (c *Client) Services(ctx context.Context) ([]string, error) {
	names := []string{}
	if e := c.do(ctx, http.MethodGet, c.url(""), &names); e != nil {
		return nil, e
	}
	sort.Strings(names)
	return names, nil
}

// Connect verifies that govisord answers.  There is no session to keep.
func (c *Client) Connect(ctx context.Context) error {
	_, e := c.Services(ctx)
	return e
}

// List reports every service, numbered by its position in name order.
// govisord's list carries no state, so Status is left empty.
func (c *Client) List(ctx context.Context) ([]procshim.ProcessDescriptor, error) {
	names, e := c.Services(ctx)
	if e != nil {
		return nil, e
	}
	rv := make([]procshim.ProcessDescriptor, 0, len(names))
	for i, n := range names {
		rv = append(rv, procshim.ProcessDescriptor{ID: i, Name: n})
	}
	return rv, nil
}

// resolve expands the target into service names.
func (c *Client) resolve(ctx context.Context, target string) ([]string, error) {
	if target == procshim.TargetAll {
		return c.Services(ctx)
	}
	id, e := strconv.Atoi(target)
	if e != nil {
		return []string{target}, nil
	}
	names, e := c.Services(ctx)
	if e != nil {
		return nil, e
	}
	for _, n := range names {
		if n == target {
			return []string{n}, nil
		}
	}
	if id < 0 || id >= len(names) {
		return nil, ErrNoService
	}
	return names[id : id+1], nil
}

// apply posts the verb to every service the target names, stopping at the
// first failure.
func (c *Client) apply(ctx context.Context, target string, verb string) error {
	names, e := c.resolve(ctx, target)
	if e != nil {
		return e
	}
	for _, n := range names {
		if e := c.do(ctx, http.MethodPost, c.url(n)+"/"+verb, nil); e != nil {
			return e
		}
	}
	return nil
}

// Start enables the target, which makes govisord start it.
func (c *Client) Start(ctx context.Context, target string) error {
	return c.apply(ctx, target, verbStart)
}

// Stop disables the target, which makes govisord stop it.
func (c *Client) Stop(ctx context.Context, target string) error {
	return c.apply(ctx, target, verbStop)
}

func (c *Client) Restart(ctx context.Context, target string) error {
	return c.apply(ctx, target, verbRestart)
}

// NewClient returns a Client handle.  The transport maybe nil to use
// a default transport, but it may also be adjusted to support additional
// options such as TLS.  baseURI is the base URL to use.
func NewClient(t *http.Transport, baseURI string) *Client {
	var rt http.RoundTripper = http.DefaultTransport
	if t != nil {
		rt = t
	}
	return &Client{
		base:   strings.TrimSuffix(baseURI, "/"),
		client: &http.Client{Transport: rt},
		logger: zap.NewNop(),
	}
}
