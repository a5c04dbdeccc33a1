package main

import (
	"fmt"
	"os"

	"github.com/apex/log"
	"github.com/apex/log/handlers/discard"
	"github.com/apex/log/handlers/json"
	"github.com/apex/log/handlers/logfmt"
	"github.com/apex/log/handlers/text"
)

// prepareLogger returns a logger writing to stderr, stdout carries the
// command output.
func prepareLogger(level string, format string) *log.Logger {
	var handler log.Handler
	switch format {
	case "text":
		handler = text.New(os.Stderr)
	case "logfmt":
		handler = logfmt.New(os.Stderr)
	case "json":
		handler = json.New(os.Stderr)
	default:
		panic(fmt.Sprintf("unsupported log format: '%s'", format))
	}

	return &log.Logger{
		Level:   log.MustParseLevel(level),
		Handler: handler,
	}
}

// prepareAppLogger builds the logger from the global flags. --quiet
// discards all messages.
func prepareAppLogger() *log.Logger {
	if *appQuiet {
		return &log.Logger{
			Level:   log.FatalLevel,
			Handler: discard.New(),
		}
	}
	return prepareLogger(*appLogLevel, *appLogFormat)
}
