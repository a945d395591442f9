// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package config loads and validates h2sr's TOML configuration document
// (spec §6): the listen address, the SOCKS5 upstream, the block lists,
// and exactly one direct/proxy pair each for hostnames and IPs.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"grimm.is/h2sr/internal/errors"
)

// Config is the top-level structure of h2sr's configuration file.
type Config struct {
	Listen     string `toml:"listen"`
	Socks5Addr string `toml:"socks5addr"`

	BlockDomains []string `toml:"blockdomains"`
	BlockIPs     []string `toml:"blockips"`

	DirectDomains []string `toml:"directdomains"`
	ProxyDomains  []string `toml:"proxydomains"`

	DirectIPs []string `toml:"directips"`
	ProxyIPs  []string `toml:"proxyips"`

	// GeoIPPath points to a MaxMind-format geo-IP database. Only
	// consulted if a "geo:XX" token appears in one of the IP lists.
	GeoIPPath string `toml:"geoip_path"`

	// AdminListen optionally binds /healthz and /metrics on a second
	// address; empty disables the admin surface entirely.
	AdminListen string `toml:"admin_listen"`
}

// Load reads and parses the TOML document at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.KindConfig, "config: read %s", path)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrapf(err, errors.KindConfig, "config: parse %s", path)
	}
	return &cfg, nil
}

// ValidationError represents a single configuration validation failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every validation failure found in a Config.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	msg := e[0].Error()
	for _, rest := range e[1:] {
		msg += "; " + rest.Error()
	}
	return msg
}

func (e ValidationErrors) HasErrors() bool { return len(e) > 0 }

// Validate checks the structural constraints of spec §6: required
// fields present, and exactly one of each direct/proxy pair set. It does
// not parse individual host patterns or IP/CIDR/geo strings; that is
// the policy composer's job (spec §4.4), since only it knows how to
// expand "geo:XX" tokens.
func (c *Config) Validate() ValidationErrors {
	var errs ValidationErrors

	if c.Listen == "" {
		errs = append(errs, ValidationError{"listen", "is required"})
	}
	if c.Socks5Addr == "" {
		errs = append(errs, ValidationError{"socks5addr", "is required"})
	}

	hasDirectDomains := len(c.DirectDomains) > 0
	hasProxyDomains := len(c.ProxyDomains) > 0
	if hasDirectDomains == hasProxyDomains {
		errs = append(errs, ValidationError{
			"directdomains/proxydomains",
			"exactly one of directdomains or proxydomains must be set",
		})
	}

	hasDirectIPs := len(c.DirectIPs) > 0
	hasProxyIPs := len(c.ProxyIPs) > 0
	if hasDirectIPs == hasProxyIPs {
		errs = append(errs, ValidationError{
			"directips/proxyips",
			"exactly one of directips or proxyips must be set",
		})
	}

	return errs
}
