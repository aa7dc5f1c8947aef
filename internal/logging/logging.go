package logging

import (
	"fmt"
	"log"
)

// Log level constants
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

var levelRank = map[string]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

var currentRank = levelRank[LevelInfo]

// SetLevel sets the global logging level. Unknown levels fall back to info.
func SetLevel(level string) {
	rank, ok := levelRank[level]
	if !ok {
		rank = levelRank[LevelInfo]
	}
	currentRank = rank
}

// Debug logs a debug message
func Debug(format string, args ...interface{}) {
	if shouldLog(LevelDebug) {
		log.Printf("[DEBUG] "+format, args...)
	}
}

// Info logs an info message
func Info(format string, args ...interface{}) {
	if shouldLog(LevelInfo) {
		fmt.Printf(format+"\n", args...)
	}
}

// Warn logs a warning message
func Warn(format string, args ...interface{}) {
	if shouldLog(LevelWarn) {
		log.Printf("[WARN] "+format, args...)
	}
}

// Error logs an error message
func Error(format string, args ...interface{}) {
	if shouldLog(LevelError) {
		log.Printf("[ERROR] "+format, args...)
	}
}

func shouldLog(level string) bool {
	return levelRank[level] >= currentRank
}
