// Package logging configures the process-wide logrus logger.
package logging

import (
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
)

// Setup configures the standard logger. format is "json" or "text"; level is any logrus level name.
func Setup(level, format string) error {
	return setup(os.Stdout, level, format)
}

func setup(out io.Writer, level, format string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("error parsing log level: %w", err)
	}

	switch format {
	case "", "json":
		log.SetFormatter(&log.JSONFormatter{})
	case "text":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("unknown log format %q", format)
	}

	log.SetOutput(out)
	log.SetLevel(lvl)
	return nil
}
