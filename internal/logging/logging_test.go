package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := New()
	logger.SetOutput(&buf)
	logger.SetLevel(LevelInfo)

	// Debug should be filtered
	logger.Debug("debug message")
	if buf.Len() > 0 {
		t.Error("debug message should be filtered at INFO level")
	}

	logger.Info("info message")
	line := buf.String()
	if !strings.HasPrefix(line, "INFO ") {
		t.Errorf("expected INFO prefix, got %q", line)
	}
	if !strings.Contains(line, "info message") {
		t.Errorf("message missing: %q", line)
	}
}

func TestLogger_WithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New()
	logger.SetOutput(&buf)

	logger.WithComponent("preflight").Info("test message")

	if !strings.Contains(buf.String(), "[preflight] test message") {
		t.Errorf("component missing: %q", buf.String())
	}
}

func TestLogger_WithTraceID(t *testing.T) {
	var buf bytes.Buffer
	logger := New()
	logger.SetOutput(&buf)

	logger.WithTraceID("run-123").Info("hello")

	if !strings.Contains(buf.String(), "run=run-123") {
		t.Errorf("trace id missing: %q", buf.String())
	}
}

func TestLogger_FieldsSortedAndQuoted(t *testing.T) {
	var buf bytes.Buffer
	logger := New()
	logger.SetOutput(&buf)

	logger.Info("msg", map[string]interface{}{"b": "two words", "a": 1})

	line := strings.TrimSpace(buf.String())
	if !strings.HasSuffix(line, `msg a=1 b="two words"`) {
		t.Errorf("unexpected field rendering: %q", line)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   LevelDebug,
		"WARN":    LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
		"":        LevelInfo,
		"bogus":   LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestFinding_SeverityMapping(t *testing.T) {
	var buf bytes.Buffer
	logger := New()
	logger.SetOutput(&buf)

	logger.Finding("warn", "InvalidKeySize", "SOLANA_PRIVATE_KEY", "bad size")
	if !strings.HasPrefix(buf.String(), "WARN ") {
		t.Errorf("expected WARN line, got %q", buf.String())
	}
	if !strings.Contains(buf.String(), "var=SOLANA_PRIVATE_KEY") {
		t.Errorf("variable missing: %q", buf.String())
	}
}

func TestStageComplete_Error(t *testing.T) {
	var buf bytes.Buffer
	logger := New()
	logger.SetOutput(&buf)

	logger.StageComplete("patch", time.Millisecond, errors.New("boom"))
	if !strings.Contains(buf.String(), "stage_failed") || !strings.Contains(buf.String(), "error=boom") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestChildExit(t *testing.T) {
	var buf bytes.Buffer
	logger := New()
	logger.SetOutput(&buf)

	logger.ChildExit(2, time.Second)
	if !strings.HasPrefix(buf.String(), "ERROR") || !strings.Contains(buf.String(), "exit_code=2") {
		t.Errorf("unexpected output %q", buf.String())
	}
}
