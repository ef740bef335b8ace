package logger

import (
	"bytes"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestLevelFromString(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"WARN":    zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"bogus":   zapcore.InfoLevel,
	}
	for in, want := range cases {
		if got := levelFromString(in); got != want {
			t.Fatalf("levelFromString(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewWriter_FiltersByLevelAndKeepsFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, "warn").With("service", "PointsLedger")

	log.Info("dropped")
	log.Warn("kept", "user_id", "u1")
	log.Sync()

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Fatalf("info entry should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, `"service":"PointsLedger"`) || !strings.Contains(out, `"user_id":"u1"`) {
		t.Fatalf("expected structured fields, got %s", out)
	}
}
