package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewDefaultsEmptyLevelToInfo(t *testing.T) {
	log, err := New("")
	if err != nil {
		t.Fatalf("empty level must default, got %v", err)
	}
	if !log.Core().Enabled(zapcore.InfoLevel) {
		t.Fatalf("expected info enabled at the default level")
	}
	if log.Core().Enabled(zapcore.DebugLevel) {
		t.Fatalf("debug must be disabled at the default level")
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New("chatty"); err == nil {
		t.Fatalf("expected an error for an unknown level")
	}
}
