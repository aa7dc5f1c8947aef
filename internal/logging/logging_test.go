package logging

import (
	"testing"
)

func TestSetLevel(t *testing.T) {
	defer SetLevel(LevelInfo)

	SetLevel(LevelError)
	if shouldLog(LevelInfo) {
		t.Errorf("info should not log at error level")
	}
	if !shouldLog(LevelError) {
		t.Errorf("error should log at error level")
	}

	SetLevel(LevelDebug)
	if !shouldLog(LevelInfo) {
		t.Errorf("info should log at debug level")
	}
}

func TestSetLevelInvalidFallsBackToInfo(t *testing.T) {
	defer SetLevel(LevelInfo)

	SetLevel("invalid")
	if shouldLog(LevelDebug) {
		t.Errorf("debug should not log after invalid level falls back to info")
	}
	if !shouldLog(LevelWarn) {
		t.Errorf("warn should log after invalid level falls back to info")
	}
}
