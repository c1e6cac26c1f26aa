package models

import (
	"fmt"
	"strings"
	"time"
)

// LogLevel is the severity of a buffered log entry.
type LogLevel string

const (
	LogLevelLog   LogLevel = "log"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogEntry is one line of the diagnostic log buffer.
type LogEntry struct {
	Timestamp time.Time
	Level     LogLevel
	Message   string
	Args      []any
}

// String serializes the entry into the single line kept in the buffer:
//
//	[2024-05-01T10:00:00.000Z] [WARN] message arg1 arg2
func (e LogEntry) String() string {
	var b strings.Builder
	b.WriteByte('[')
	b.WriteString(e.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z07:00"))
	b.WriteString("] [")
	b.WriteString(strings.ToUpper(string(e.Level)))
	b.WriteString("] ")
	b.WriteString(e.Message)
	for _, a := range e.Args {
		b.WriteByte(' ')
		b.WriteString(formatArg(a))
	}
	return b.String()
}

func formatArg(a any) string {
	switch v := a.(type) {
	case nil:
		return "null"
	case string:
		return v
	case error:
		return v.Error()
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%+v", v)
	}
}
