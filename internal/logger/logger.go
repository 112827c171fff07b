// Package logger configures the process-wide phuslu/log logger.
package logger

import (
	"os"
	"strings"

	"github.com/phuslu/log"
)

// Init configures log.DefaultLogger. format is "console" or "json"; an empty
// format picks console when stderr is a terminal.
func Init(level, format string) {
	if level == "" {
		level = "info"
	}
	format = strings.ToLower(format)
	if format == "" {
		format = "json"
		if log.IsTerminal(os.Stderr.Fd()) {
			format = "console"
		}
	}

	logger := log.Logger{
		Level:      log.ParseLevel(strings.ToLower(level)),
		Caller:     1,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	}
	if format == "console" {
		logger.Writer = &log.ConsoleWriter{
			ColorOutput:    true,
			QuoteString:    true,
			EndWithMessage: true,
			Writer:         os.Stderr,
		}
	} else {
		logger.Writer = &log.IOWriter{Writer: os.Stderr}
	}
	log.DefaultLogger = logger
}
