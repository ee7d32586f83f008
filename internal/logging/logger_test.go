package logging

import "testing"

func TestNewLoggerLevels(t *testing.T) {
	for _, level := range []string{"", "debug", "info", "warn", "warning", "error", " INFO "} {
		if _, err := NewLogger(level); err != nil {
			t.Fatalf("level %q should build: %v", level, err)
		}
	}
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	if _, err := NewLogger("verbose"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
