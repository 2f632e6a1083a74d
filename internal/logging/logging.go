package logging

import (
	"go.uber.org/zap"
)

// Log is the process-wide sugared logger. It starts as a no-op so library
// code and tests can log without initialization.
var Log = zap.NewNop().Sugar()

// Init builds the real logger. Debug mode uses the development config and
// lowers the level to debug; otherwise warnings and above are shown.
func Init(debug bool) {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	cfg.Encoding = "console"
	logger, err := cfg.Build()
	if err != nil {
		panic("logger init failed: " + err.Error())
	}
	Log = logger.Sugar()
}

// Sync flushes buffered log entries. Safe to call on the no-op logger.
func Sync() {
	_ = Log.Sync()
}
