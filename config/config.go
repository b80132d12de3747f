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

// Package config loads the procshimd configuration from a YAML file, with
// overrides from the environment.
package config

import (
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPort    = 8322
	DefaultBackend = BackendPm2

	BackendPm2     = "pm2"
	BackendGovisor = "govisor"

	EnvPort    = "PROCSHIM_PORT"
	EnvSecret  = "PROCSHIM_SECRET"
	EnvBackend = "PROCSHIM_BACKEND"
)

type Pm2 struct {
	Binary string `yaml:"binary"`
	Home   string `yaml:"home"`
}

type Govisor struct {
	URL      string `yaml:"url"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

type Backend struct {
	Kind    string  `yaml:"kind"`
	Pm2     Pm2     `yaml:"pm2"`
	Govisor Govisor `yaml:"govisor"`
}

type RateLimit struct {
	Limit float64 `yaml:"limit"` // Actions per second, 0 = unlimited
	Burst int     `yaml:"burst"`
}

type Config struct {
	Port           int           `yaml:"port"`
	Host           string        `yaml:"host"`
	Secret         string        `yaml:"secret"` // empty disables authentication
	Timeout        time.Duration `yaml:"timeout"`
	MaxConnections int           `yaml:"maxConnections"`
	RateLimit      RateLimit     `yaml:"rateLimit"`
	Backend        Backend       `yaml:"backend"`
}

var (
	ErrConfigFileUnreadable     = errors.New("config file is unreadable")
	ErrConfigFileUnmarshallable = errors.New("config file is unmarshallable")
	ErrInvalidPort              = errors.New("port must be between 1 and 65535")
	ErrInvalidTimeout           = errors.New("timeout must not be negative")
	ErrInvalidMaxConnections    = errors.New("maxConnections must not be negative")
	ErrInvalidRateLimit         = errors.New("rateLimit must not be negative")
	ErrUnknownBackend           = errors.New("backend.kind must be pm2 or govisor")
	ErrGovisorURLMissing        = errors.New("backend.govisor.url is required for the govisor backend")
	ErrGovisorURLInvalid        = errors.New("backend.govisor.url is not an absolute http(s) URL")
)

// Default returns the configuration used when nothing else is given.
func Default() *Config {
	return &Config{
		Port: DefaultPort,
		Backend: Backend{
			Kind: DefaultBackend,
		},
	}
}

// Load reads the YAML file at path over the defaults, then applies the
// environment overrides, and validates the result.  An empty path skips
// the file.
func Load(path string) (*Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (*Config, error) {
	c := Default()
	if path != "" {
		b, e := os.ReadFile(path)
		if e != nil {
			return nil, errors.Wrapf(ErrConfigFileUnreadable, "%s: %v", path, e)
		}
		if e := yaml.Unmarshal(b, c); e != nil {
			return nil, errors.Wrapf(ErrConfigFileUnmarshallable, "%s: %v", path, e)
		}
	}
	if e := c.applyEnv(lookup); e != nil {
		return nil, e
	}
	if e := c.Validate(); e != nil {
		return nil, e
	}
	return c, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvPort); ok && v != "" {
		p, e := strconv.Atoi(v)
		if e != nil {
			return errors.Wrapf(ErrInvalidPort, "%s=%q", EnvPort, v)
		}
		c.Port = p
	}
	if v, ok := lookup(EnvSecret); ok {
		c.Secret = v
	}
	if v, ok := lookup(EnvBackend); ok && v != "" {
		c.Backend.Kind = v
	}
	return nil
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	switch {
	case c.Port < 1 || c.Port > 65535:
		return ErrInvalidPort
	case c.Timeout < 0:
		return ErrInvalidTimeout
	case c.MaxConnections < 0:
		return ErrInvalidMaxConnections
	case c.RateLimit.Limit < 0 || c.RateLimit.Burst < 0:
		return ErrInvalidRateLimit
	}
	switch c.Backend.Kind {
	case BackendPm2:
	case BackendGovisor:
		if c.Backend.Govisor.URL == "" {
			return ErrGovisorURLMissing
		}
		u, e := url.Parse(c.Backend.Govisor.URL)
		if e != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return ErrGovisorURLInvalid
		}
	default:
		return ErrUnknownBackend
	}
	return nil
}

// Addr is the address to listen on.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
