package logger

import (
	"io"

	"github.com/sirupsen/logrus"
)

var Log *logrus.Logger

var discard = func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}()

// Init инициализирует структурированный логгер.
// В production пишет JSON, в остальных окружениях текст.
func Init(level, env string) {
	Log = logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)

	if env == "production" {
		Log.SetFormatter(&logrus.JSONFormatter{})
		return
	}
	Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

// L возвращает логгер; до Init - логгер, который всё отбрасывает.
func L() *logrus.Logger {
	if Log == nil {
		return discard
	}
	return Log
}

// Dispute возвращает запись с полями спора.
func Dispute(id int64, caseNumber string) *logrus.Entry {
	return L().WithFields(logrus.Fields{
		"dispute_id":  id,
		"case_number": caseNumber,
	})
}
