package errors

import (
	"go.uber.org/zap"
)

// LogError logs err with its code: server faults at error level, client
// faults at warn.
func LogError(logger *zap.Logger, err error, msg string, fields ...zap.Field) {
	if err == nil {
		return
	}

	fields = append(fields, zap.Error(err), zap.String("error_code", CodeOf(err)))
	if IsServerFault(err) {
		logger.Error(msg, fields...)
		return
	}
	logger.Warn(msg, fields...)
}
