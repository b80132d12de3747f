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
	"strings"
)

// Action is a lifecycle operation requested by a client.
type Action string

const (
	ActionStart   Action = "start"
	ActionStop    Action = "stop"
	ActionRestart Action = "restart"
)

// TargetAll addresses every process registered with the supervisor.
const TargetAll = "all"

// Known reports whether the action is one we can dispatch.  Anything else
// is rejected, whatever the supervisor might accept.
func (a Action) Known() bool {
	switch a {
	case ActionStart, ActionStop, ActionRestart:
		return true
	}
	return false
}

// Command is the action and target pulled out of a request.
type Command struct {
	Action Action
	Target string
}

// All reports whether the command addresses every process.
func (c Command) All() bool {
	return c.Target == TargetAll
}

// ParseCommand extracts the command from a raw request URI (path and
// query).  Everything after the first '?' is the query string.  If there
// is no '?' at all, ErrNoQuery is returned.  If either action or target is
// missing or empty, ErrIncomplete is returned along with whatever was found.
// The first occurrence of a key wins, and unknown keys are ignored.
func ParseCommand(uri string) (Command, error) {
	cmd := Command{}
	i := strings.IndexByte(uri, '?')
	if i < 0 {
		return cmd, ErrNoQuery
	}
	var haveAction, haveTarget bool
	for _, pair := range strings.Split(strings.TrimPrefix(uri[i+1:], "?"), "&") {
		if pair == "" {
			continue
		}
		key, val := pair, ""
		if j := strings.IndexByte(pair, '='); j >= 0 {
			key, val = pair[:j], pair[j+1:]
		}
		switch unescape(key) {
		case "action":
			if !haveAction {
				cmd.Action = Action(unescape(val))
				haveAction = true
			}
		case "target":
			if !haveTarget {
				cmd.Target = unescape(val)
				haveTarget = true
			}
		}
	}
	if cmd.Action == "" || cmd.Target == "" {
		return cmd, ErrIncomplete
	}
	return cmd, nil
}

// unescape decodes a form-encoded query component.  Unlike url.QueryUnescape
// it never fails: a '%' that does not introduce two hex digits is kept as is.
func unescape(s string) string {
	if strings.IndexByte(s, '+') < 0 && strings.IndexByte(s, '%') < 0 {
		return s
	}
	b := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '+':
			b = append(b, ' ')
		case c == '%' && i+2 < len(s) && ishex(s[i+1]) && ishex(s[i+2]):
			b = append(b, unhex(s[i+1])<<4|unhex(s[i+2]))
			i += 2
		default:
			b = append(b, c)
		}
	}
	return string(b)
}

func ishex(c byte) bool {
	switch {
	case '0' <= c && c <= '9', 'a' <= c && c <= 'f', 'A' <= c && c <= 'F':
		return true
	}
	return false
}

func unhex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}
