package zonemd

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// SetupLogging wires the package logger to either a rotating log file or
// stderr. quiet suppresses everything but errors by discarding non-error
// output at the call sites that check it; the logger itself always stays
// writable so error paths are never lost.
func SetupLogging(logfile string, quiet bool) *log.Logger {
	var out io.Writer = os.Stderr
	flags := log.Ltime

	if logfile != "" {
		out = &lumberjack.Logger{
			Filename:   logfile,
			MaxSize:    20, // megabytes
			MaxBackups: 3,
			MaxAge:     14, // days
		}
		flags = log.Lshortfile | log.Ltime
	}
	if quiet {
		flags = 0
	}

	return log.New(out, "", flags)
}
