// Package logging centralizes logrus setup for every subsystem.
package logging

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	root     = logrus.New()
	initOnce sync.Once
)

// Init configures the root logger's level and formatter. Safe to call once
// at process start; subsequent calls are no-ops.
func Init(level string) {
	initOnce.Do(func() {
		root.SetOutput(os.Stderr)
		root.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		lvl, err := logrus.ParseLevel(level)
		if err != nil {
			lvl = logrus.InfoLevel
		}
		root.SetLevel(lvl)
	})
}

// For returns a component-scoped logger, e.g. logging.For("cache").
func For(component string) *logrus.Entry {
	return root.WithField("component", component)
}
