package logging

import (
	"log"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Setup configures the global logrus logger for a service.
func Setup(level, environment, service string) *logrus.Entry {
	logrus.SetOutput(os.Stdout)

	if strings.EqualFold(environment, "production") {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)

	return logrus.WithField("service", service)
}

// StdLogger returns a standard library logger that writes through logrus at the given level.
// Libraries that only accept *log.Logger (gorm) use it.
func StdLogger(level logrus.Level) *log.Logger {
	return log.New(logrus.StandardLogger().WriterLevel(level), "", 0)
}
