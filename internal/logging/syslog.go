// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package logging

import (
	"fmt"
	"io"
	"log/syslog"
)

// SyslogConfig describes an optional remote syslog sink for h2sr's
// connection and startup logs.
type SyslogConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Protocol string // "udp" or "tcp"
	Tag      string
	// Facility is the raw syslog facility code (RFC 5424 table 7); 1 is
	// "user-level messages".
	Facility int
}

// DefaultSyslogConfig returns remote syslog forwarding disabled, with the
// Port, Protocol, and Tag defaults that NewSyslogWriter would otherwise
// apply, and Facility 1 (NewSyslogWriter leaves an unset Facility at 0).
func DefaultSyslogConfig() SyslogConfig {
	return SyslogConfig{
		Enabled:  false,
		Port:     514,
		Protocol: "udp",
		Tag:      "h2sr",
		Facility: 1,
	}
}

// NewSyslogWriter dials cfg.Host and returns an io.Writer suitable for
// logging.Config.Output. Unset Port, Protocol, and Tag are defaulted.
func NewSyslogWriter(cfg SyslogConfig) (io.Writer, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("logging: syslog host is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 514
	}
	if cfg.Protocol == "" {
		cfg.Protocol = "udp"
	}
	if cfg.Tag == "" {
		cfg.Tag = "h2sr"
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	priority := syslog.Priority(cfg.Facility<<3) | syslog.LOG_INFO
	w, err := syslog.Dial(cfg.Protocol, addr, priority, cfg.Tag)
	if err != nil {
		return nil, fmt.Errorf("logging: dial syslog %s: %w", addr, err)
	}
	return w, nil
}
