package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		logFunc func(*log.Logger)
		wantLog bool
	}{
		{"info at info", log.InfoLevel, func(l *log.Logger) { l.Info("edges folded") }, true},
		{"debug at info", log.InfoLevel, func(l *log.Logger) { l.Debug("cache hit") }, false},
		{"debug at debug", log.DebugLevel, func(l *log.Logger) { l.Debug("cache hit") }, true},
		{"warn at info", log.InfoLevel, func(l *log.Logger) { l.Warn("redis unavailable") }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.logFunc(newLogger(&buf, tt.level))
			if got := buf.Len() > 0; got != tt.wantLog {
				t.Errorf("wrote output = %v, want %v", got, tt.wantLog)
			}
		})
	}
}

func TestSetLogLevel(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf, log.InfoLevel)
	c.Logger.Debug("hidden")
	c.SetLogLevel(log.DebugLevel)
	c.Logger.Debug("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Errorf("unexpected output after SetLogLevel:\n%s", out)
	}
}

func TestProgressDone(t *testing.T) {
	var buf bytes.Buffer
	newProgress(newLogger(&buf, log.InfoLevel)).done("Projected flow")

	out := buf.String()
	if !strings.Contains(out, "Projected flow (") || !strings.Contains(out, "s)") {
		t.Errorf("done() output = %q, want message with elapsed time", out)
	}
}

func TestLoggerContext(t *testing.T) {
	var buf bytes.Buffer
	custom := newLogger(&buf, log.InfoLevel)

	if got := loggerFromContext(withLogger(context.Background(), custom)); got != custom {
		t.Error("loggerFromContext should return the attached logger")
	}
	if got := loggerFromContext(context.Background()); got != log.Default() {
		t.Error("loggerFromContext should fall back to log.Default()")
	}
}
