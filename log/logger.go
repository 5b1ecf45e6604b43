// Package log hands the binaries leveled, named loggers and bridges
// them to the engine's Printf-style progress interface.
package log

import (
	"io"
	"os"
	"strings"

	"github.com/op/go-logging"
)

// Level is the process-wide logging verbosity.
type Level int

const (
	Debug Level = iota
	Info
	Warning
	Error
)

// Logger is the leveled logger used by the CLI and web binaries.
type Logger interface {
	Debug(v ...interface{})
	Debugf(format string, v ...interface{})

	Info(v ...interface{})
	Infof(format string, v ...interface{})

	Warning(v ...interface{})
	Warningf(format string, v ...interface{})

	Error(v ...interface{})
	Errorf(format string, v ...interface{})
}

// One line per record: timestamp, subsystem, level, message.
var recordFormat = logging.MustStringFormatter(
	`%{time:15:04:05.000} %{module:-10s} %{level:-7s} %{message}`,
)

var levels = map[Level]logging.Level{
	Debug:   logging.DEBUG,
	Info:    logging.INFO,
	Warning: logging.WARNING,
	Error:   logging.ERROR,
}

var current logging.LeveledBackend

// New returns the logger for a named subsystem.
func New(subsystem string) Logger {
	return logging.MustGetLogger(subsystem)
}

// SetSink routes all loggers to the given writer.
func SetSink(sink io.Writer) {
	formatted := logging.NewBackendFormatter(logging.NewLogBackend(sink, "", 0), recordFormat)
	current = logging.AddModuleLevel(formatted)
	current.SetLevel(levels[Info], "")
	logging.SetBackend(current)
}

// SetLevel sets the verbosity of every subsystem.
func SetLevel(level Level) {
	current.SetLevel(levels[level], "")
}

// EnginePrintf adapts a leveled logger to the engine's Printf interface.
type EnginePrintf struct {
	Logger Logger
}

// Printf forwards engine progress lines at info level. The engine
// terminates its own lines; the backend adds the newline.
func (e EnginePrintf) Printf(format string, args ...interface{}) {
	e.Logger.Infof(strings.TrimSuffix(format, "\n"), args...)
}

func init() {
	SetSink(os.Stderr)
}
