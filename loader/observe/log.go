package observe

import (
	"go.uber.org/zap"

	"github.com/lguimbarda/min-loader/loader/core"
)

// LogHooks writes pass events to logger. Batches are logged at debug level,
// pass boundaries and restarts at info level, errors at error level.
func LogHooks(logger *zap.Logger) core.Hooks {
	if logger == nil {
		logger = zap.NewNop()
	}
	passFields := func(p core.PassInfo) []zap.Field {
		return []zap.Field{zap.String("pass", p.ID), zap.String("mode", p.Mode)}
	}

	return core.Hooks{
		OnPassStart: func(p core.PassInfo) {
			logger.Info("pass started", append(passFields(p), zap.Stringer("length", p.Length))...)
		},
		OnBatch: func(p core.PassInfo, step int) {
			logger.Debug("batch", append(passFields(p), zap.Int("step", step))...)
		},
		OnRestart: func(p core.PassInfo, leaf string, n int) {
			logger.Info("source restarted", append(passFields(p), zap.String("leaf", leaf), zap.Int("restarts", n))...)
		},
		OnError: func(p core.PassInfo, err error) {
			logger.Error("pass failed", append(passFields(p), zap.Error(err))...)
		},
		OnPassEnd: func(p core.PassInfo, steps int) {
			logger.Info("pass ended", append(passFields(p), zap.Int("steps", steps))...)
		},
	}
}
