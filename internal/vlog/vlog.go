// Package vlog provides the process-wide structured logger for vistle.
package vlog

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	mu  sync.RWMutex
	log = newDefault()
)

func newDefault() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.InfoLevel)
	return l
}

// Configure sets the global logger's level and format. jsonFormat selects
// the JSON formatter (suitable for log aggregation); otherwise the default
// text formatter is used.
func Configure(level logrus.Level, jsonFormat bool) {
	mu.Lock()
	defer mu.Unlock()
	log.SetLevel(level)
	if jsonFormat {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

// L returns the shared logger instance.
func L() *logrus.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// WithField is a shorthand for L().WithField.
func WithField(key string, value interface{}) *logrus.Entry {
	return L().WithField(key, value)
}

// WithFields is a shorthand for L().WithFields.
func WithFields(fields logrus.Fields) *logrus.Entry {
	return L().WithFields(fields)
}

// WithError is a shorthand for L().WithError.
func WithError(err error) *logrus.Entry {
	return L().WithError(err)
}

func Debugf(format string, args ...interface{}) { L().Debugf(format, args...) }
func Infof(format string, args ...interface{})  { L().Infof(format, args...) }
func Warnf(format string, args ...interface{})  { L().Warnf(format, args...) }
func Errorf(format string, args ...interface{}) { L().Errorf(format, args...) }
