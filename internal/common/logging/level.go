package logging

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// SetLevel parses level, e.g. "info" or "WARNING", and applies it to the standard logger.
// An empty level means info.
func SetLevel(level string) error {
	if level == "" {
		level = log.InfoLevel.String()
	}
	l, err := log.ParseLevel(level)
	if err != nil {
		return errors.WithStack(err)
	}
	log.SetLevel(l)
	return nil
}
