package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log is the process-wide structured logger
var Log = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetOutput(os.Stdout)
	l.SetLevel(logrus.InfoLevel)
	return l
}

// Init applies the configured level and format. Unknown levels keep info.
func Init(level string, pretty bool) {
	if lvl, err := logrus.ParseLevel(strings.TrimSpace(level)); err == nil {
		Log.SetLevel(lvl)
	}
	if pretty {
		Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

// Session returns an entry carrying the session id
func Session(id string) *logrus.Entry {
	return Log.WithField("session_id", id)
}
