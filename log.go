package libwebrtc

import (
	"sync/atomic"

	"go.uber.org/zap"
)

var logger atomic.Pointer[zap.Logger]

// Logger returns the package logger. It is a no-op logger until SetLogger
// is called.
func Logger() *zap.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	return zap.NewNop()
}

// SetLogger replaces the package logger. Passing nil restores the no-op
// logger. Callbacks run on native threads and read the logger concurrently.
func SetLogger(l *zap.Logger) {
	logger.Store(l)
}
