package log

import (
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
)

var debug bool

// Logger is a global interface for scope loggers
type Logger interface {
	Debug(...interface{})
	Info(...interface{})
}

func init() {
	var err error
	debug, err = strconv.ParseBool(os.Getenv("SCOPE_DEBUG"))
	if err != nil {
		debug = false
	}
}

// GetLogger returns a new logger instance with colored console output
func GetLogger() *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{
		ForceColors:   true,
		FullTimestamp: true,
	})
	if debug {
		l.SetLevel(logrus.DebugLevel)
	}
	return l
}
