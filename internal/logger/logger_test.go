package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	logger, err := New(false, false)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if logger.Core().Enabled(zapcore.DebugLevel) {
		t.Fatal("debug must be disabled by default")
	}
	if !logger.Core().Enabled(zapcore.InfoLevel) {
		t.Fatal("info must be enabled by default")
	}

	logger, err = New(true, true)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !logger.Core().Enabled(zapcore.DebugLevel) {
		t.Fatal("debug flag must enable debug level")
	}
}
