package logging

import "go.uber.org/zap"

// CronLogger adapts a zap logger to the robfig/cron Logger interface.
type CronLogger struct {
	sugar *zap.SugaredLogger
}

// NewCronLogger wraps logger. Cron's info chatter is logged at debug level.
func NewCronLogger(logger *zap.Logger) CronLogger {
	return CronLogger{sugar: logger.WithOptions(zap.AddCallerSkip(1)).Sugar()}
}

// Info logs routine scheduler activity.
func (l CronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

// Error logs scheduler failures such as recovered panics.
func (l CronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, append(keysAndValues, "error", err)...)
}
