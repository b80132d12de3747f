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

// Package client talks to a procshim server.
package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"github.com/pkg/errors"

	"github.com/procshim/procshim"
)

// Error is a failure reported by the server, or synthesized from the
// status line when the server did not say anything useful.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

type reply struct {
	Result string `json:"result"`
	Error  *Error `json:"error"`
}

type Client struct {
	base   *url.URL
	secret string
	client *http.Client
}

// SetSecret sets the shared secret sent with every request.
func (c *Client) SetSecret(secret string) {
	c.secret = secret
}

func (c *Client) Start(ctx context.Context, target string) error {
	return c.Do(ctx, procshim.ActionStart, target)
}

func (c *Client) Stop(ctx context.Context, target string) error {
	return c.Do(ctx, procshim.ActionStop, target)
}

func (c *Client) Restart(ctx context.Context, target string) error {
	return c.Do(ctx, procshim.ActionRestart, target)
}

// Do asks the server to perform the action on the target.  A nil return
// means the server answered {"result":"OK"}.
func (c *Client) Do(ctx context.Context, action procshim.Action, target string) error {
	u := *c.base
	u.RawQuery = url.Values{
		"action": {string(action)},
		"target": {target},
	}.Encode()

	req, e := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if e != nil {
		return errors.Wrap(e, "building request")
	}
	if c.secret != "" {
		req.Header.Set(procshim.SecretHeader, c.secret)
	}
	res, e := c.client.Do(req)
	if e != nil {
		return e
	}
	defer res.Body.Close()

	body, e := io.ReadAll(res.Body)
	if e != nil {
		return errors.Wrap(e, "reading reply")
	}
	var r reply
	if e := json.Unmarshal(body, &r); e != nil {
		if res.StatusCode != http.StatusOK {
			return &Error{Code: res.StatusCode, Message: res.Status}
		}
		return errors.Wrap(e, "decoding reply")
	}
	if r.Error != nil {
		return r.Error
	}
	if res.StatusCode != http.StatusOK || r.Result != "OK" {
		return &Error{Code: res.StatusCode, Message: res.Status}
	}
	return nil
}

// NewClient returns a Client handle.  The transport maybe nil to use
// a default transport.  baseURI is where the server listens; its path is
// kept, and any query it has is replaced.
func NewClient(t *http.Transport, baseURI string) (*Client, error) {
	u, e := url.Parse(baseURI)
	if e != nil {
		return nil, errors.Wrapf(e, "bad server address %q", baseURI)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.Errorf("bad server address %q", baseURI)
	}
	var rt http.RoundTripper = http.DefaultTransport
	if t != nil {
		rt = t
	}
	return &Client{base: u, client: &http.Client{Transport: rt}}, nil
}
