package util

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Logger wraps a zerolog logger with key/value helpers.
type Logger struct {
	z zerolog.Logger
}

// ---------------------
// ----- Constants -----
// ---------------------

// -------------------
// ----- Globals -----
// -------------------

// Log is the global logger.
var Log *Logger

// ---------------------
// ----- Functions -----
// ---------------------

func init() {
	Log = newLogger(os.Stderr, "console")
}

// Setup configures the global logger to write to stderr. level is one of debug, info, warn or error and format
// is either console or json.
func Setup(level, format string) {
	SetupWriter(os.Stderr, level, format)
}

// SetupWriter configures the global logger to write to w.
func SetupWriter(w io.Writer, level, format string) {
	var lvl zerolog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = zerolog.DebugLevel
	case "warn":
		lvl = zerolog.WarnLevel
	case "error":
		lvl = zerolog.ErrorLevel
	default:
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	Log = newLogger(w, format)
}

// newLogger returns a Logger writing JSON lines or human readable console output to w.
func newLogger(w io.Writer, format string) *Logger {
	if strings.ToLower(format) != "json" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: !isTerminal(w)}
	}
	return &Logger{z: zerolog.New(w).With().Timestamp().Logger()}
}

// isTerminal returns true if w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

// Info logs msg at info level with key/value pairs.
func (l *Logger) Info(msg string, args ...interface{}) {
	e := l.z.Info()
	addFields(e, args...)
	e.Msg(msg)
}

// Debug logs msg at debug level with key/value pairs.
func (l *Logger) Debug(msg string, args ...interface{}) {
	e := l.z.Debug()
	addFields(e, args...)
	e.Msg(msg)
}

// Warn logs msg at warn level with key/value pairs.
func (l *Logger) Warn(msg string, args ...interface{}) {
	e := l.z.Warn()
	addFields(e, args...)
	e.Msg(msg)
}

// Error logs msg at error level with key/value pairs.
func (l *Logger) Error(msg string, args ...interface{}) {
	e := l.z.Error()
	addFields(e, args...)
	e.Msg(msg)
}

// addFields adds key/value pairs to e. A trailing key without value is dropped.
func addFields(e *zerolog.Event, args ...interface{}) {
	for i1 := 0; i1+1 < len(args); i1 += 2 {
		key, ok := args[i1].(string)
		if !ok {
			key = fmt.Sprintf("%v", args[i1])
		}
		if err, ok := args[i1+1].(error); ok {
			e.AnErr(key, err)
			continue
		}
		e.Interface(key, args[i1+1])
	}
}
