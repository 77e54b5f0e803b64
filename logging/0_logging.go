package logging

import (
	"io"
	"log"
	"os"
)

var (
	WARNINGLogger *log.Logger
	INFOLogger    *log.Logger
	ERRORLogger   *log.Logger
	DEBUGLogger   *log.Logger
)

var (
	LOG_LEVEL     = 20 // default log level
	DEBUG_LEVEL   = 10
	INFO_LEVEL    = 20
	WARNING_LEVEL = 30
	ERROR_LEVEL   = 40
)

const LOG_FLAGS = log.Ldate | log.Ltime | log.Lmicroseconds | log.Lmsgprefix | log.Lshortfile

func init() {
	var unrecognized string

	if logLevelStr := os.Getenv("LOG_LEVEL"); logLevelStr != "" {
		level, ok := ParseLevel(logLevelStr)
		if ok {
			LOG_LEVEL = level
		} else {
			unrecognized = logLevelStr
		}
	}

	SetOutput(os.Stderr)

	if unrecognized != "" {
		WARNINGLogger.Printf("Unrecognized LOG_LEVEL env variable value: %s. Keeping LOG_LEVEL at level INFO (20)", unrecognized)
	}
}

// ParseLevel maps a LOG_LEVEL name onto its numeric level.
func ParseLevel(name string) (int, bool) {
	switch name {
	case "DEBUG":
		return DEBUG_LEVEL, true
	case "INFO":
		return INFO_LEVEL, true
	case "WARNING":
		return WARNING_LEVEL, true
	case "ERROR":
		return ERROR_LEVEL, true
	}
	return 0, false
}

// SetOutput rebuilds the leveled loggers on w. Loggers below LOG_LEVEL
// write to io.Discard.
func SetOutput(w io.Writer) {
	DEBUGLogger = log.New(levelWriter(DEBUG_LEVEL, w), "DEBUG ", LOG_FLAGS)
	INFOLogger = log.New(levelWriter(INFO_LEVEL, w), "INFO ", LOG_FLAGS)
	WARNINGLogger = log.New(levelWriter(WARNING_LEVEL, w), "WARNING ", LOG_FLAGS)
	ERRORLogger = log.New(levelWriter(ERROR_LEVEL, w), "ERROR ", LOG_FLAGS)
}

// SetLevel changes LOG_LEVEL and rebuilds the loggers on w.
func SetLevel(level int, w io.Writer) {
	LOG_LEVEL = level
	SetOutput(w)
}

func levelWriter(level int, w io.Writer) io.Writer {
	if level < LOG_LEVEL {
		return io.Discard
	}
	return w
}
