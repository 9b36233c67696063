// Package logging wraps logrus for the simulator: a process-wide logger and
// a per-connection entry scoped by connection id (callers add further
// fields, such as the multiplexer channel, themselves).
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Log is the process-wide logger. Callers derive a scoped entry with
// WithConn rather than logging through this directly.
var Log = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// SetDebug toggles verbose logging, wired to the CLI's --debug flag.
func SetDebug(on bool) {
	if on {
		Log.SetLevel(logrus.DebugLevel)
	} else {
		Log.SetLevel(logrus.InfoLevel)
	}
}

// WithConn returns a logger entry scoped to a single connection.
func WithConn(id string) *logrus.Entry {
	return Log.WithField("conn", id)
}
