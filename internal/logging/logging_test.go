// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Level != LevelInfo {
		t.Errorf("expected LevelInfo, got %v", cfg.Level)
	}
	if cfg.Output == nil {
		t.Error("expected non-nil default output")
	}
}

func TestLoggerWritesToOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Output: &buf, Level: LevelInfo})
	logger.Info("starting proxy", "listen", ":8080")

	if !strings.Contains(buf.String(), "starting proxy") {
		t.Errorf("expected message in output, got %q", buf.String())
	}
	if !strings.Contains(buf.String(), "listen") {
		t.Errorf("expected key in output, got %q", buf.String())
	}
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Output: &buf, Level: LevelError})
	logger.Info("should be suppressed")
	logger.Error("should appear")

	if strings.Contains(buf.String(), "should be suppressed") {
		t.Error("info record should have been suppressed at error level")
	}
	if !strings.Contains(buf.String(), "should appear") {
		t.Error("error record should have been written")
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Output: &buf, Level: LevelInfo}).WithComponent("policy")
	logger.Info("built policy")

	if !strings.Contains(buf.String(), "policy") {
		t.Errorf("expected component tag in output, got %q", buf.String())
	}
}

func TestSetDefault(t *testing.T) {
	var buf bytes.Buffer
	SetDefault(New(Config{Output: &buf, Level: LevelInfo}))
	Info("via package-level default")

	if !strings.Contains(buf.String(), "via package-level default") {
		t.Errorf("expected message routed through default logger, got %q", buf.String())
	}
}
