package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
)

// DispatcherLogger lets the command dispatcher log through zerolog.
type DispatcherLogger struct {
	logger zerolog.Logger
}

func NewDispatcherLogger(logger zerolog.Logger) *DispatcherLogger {
	return &DispatcherLogger{logger: logger}
}

func (l *DispatcherLogger) Debug(msg string, kv ...any) { l.emit(l.logger.Debug(), msg, kv) }
func (l *DispatcherLogger) Info(msg string, kv ...any)  { l.emit(l.logger.Info(), msg, kv) }
func (l *DispatcherLogger) Error(msg string, kv ...any) { l.emit(l.logger.Error(), msg, kv) }

func (l *DispatcherLogger) emit(ev *zerolog.Event, msg string, kv []any) {
	ev.Fields(toFields(kv)).Msg(msg)
}

// toFields pairs up alternating keys and values. Non-string keys are
// formatted; a trailing key without a value is dropped.
func toFields(kv []any) map[string]any {
	fields := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		fields[key] = kv[i+1]
	}
	return fields
}

// NewZerolog builds the JSON logger shared by the dispatcher and the journal
// backends, tagged with the running subcommand. An empty or unknown level
// means info.
func NewZerolog(w io.Writer, level string, component string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().
		Timestamp().
		Str("component", component).
		Logger()
}
