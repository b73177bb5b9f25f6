// Package logger provides the shared zap-backed logger for the
// scheduling engine. Every component logs through the same singleton so
// the level chosen at startup applies process-wide.
package logger

import (
	"sync"
)

// Level names accepted by Get.
const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
)

var (
	globalLogger *Logger
	once         sync.Once
)

// Get returns the process-wide logger. The first caller fixes the level;
// later calls ignore their argument and get the same instance.
func Get(level string) *Logger {
	once.Do(func() {
		globalLogger = newZapLogger(level)
	})
	return globalLogger
}
