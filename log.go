package mysql

import "github.com/sirupsen/logrus"

// logEvent logs a protocol-level event at debug level when a logger is
// configured. fields may be nil. Never called with credentials or raw
// packet payloads.
func logEvent(log *logrus.Logger, msg string, fields logrus.Fields) {
	if log == nil {
		return
	}
	log.WithFields(fields).Debug(msg)
}

func logError(log *logrus.Logger, err error, msg string) {
	if log == nil {
		return
	}
	log.WithError(err).Warn(msg)
}
