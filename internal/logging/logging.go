// Package logging provides leveled key=value logging for the boot pipeline.
package logging

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level represents log severity.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Logger writes one line per entry. Loggers derived with WithComponent or
// WithTraceID share the parent's output and lock.
type Logger struct {
	mu        *sync.Mutex
	output    io.Writer
	minLevel  Level
	component string
	traceID   string
}

// levelPriority maps levels to numeric priority for filtering.
var levelPriority = map[Level]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// New creates a Logger writing to stderr; stdout belongs to the child runtime.
func New() *Logger {
	return &Logger{
		mu:       &sync.Mutex{},
		output:   os.Stderr,
		minLevel: LevelInfo,
	}
}

// ParseLevel maps a config/flag value to a Level, defaulting to INFO.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	}
	return LevelInfo
}

// WithComponent returns a new logger with the given component name.
func (l *Logger) WithComponent(component string) *Logger {
	c := *l
	c.component = component
	return &c
}

// WithTraceID returns a new logger with the given trace ID.
func (l *Logger) WithTraceID(traceID string) *Logger {
	c := *l
	c.traceID = traceID
	return &c
}

// SetLevel sets the minimum log level.
func (l *Logger) SetLevel(level Level) {
	l.minLevel = level
}

// SetOutput sets the output writer.
func (l *Logger) SetOutput(w io.Writer) {
	l.output = w
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, fields ...map[string]interface{}) {
	l.log(LevelDebug, msg, fields...)
}

// Info logs an info message.
func (l *Logger) Info(msg string, fields ...map[string]interface{}) {
	l.log(LevelInfo, msg, fields...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, fields ...map[string]interface{}) {
	l.log(LevelWarn, msg, fields...)
}

// Error logs an error message.
func (l *Logger) Error(msg string, fields ...map[string]interface{}) {
	l.log(LevelError, msg, fields...)
}

// formatFields renders fields as key=value pairs in key order.
func formatFields(fields map[string]interface{}) string {
	if len(fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v := fmt.Sprintf("%v", fields[k])
		if strings.ContainsAny(v, " \t\"") {
			v = fmt.Sprintf("%q", v)
		}
		parts = append(parts, k+"="+v)
	}
	return " " + strings.Join(parts, " ")
}

// log writes: LEVEL TIMESTAMP [component] message key=value ...
func (l *Logger) log(level Level, msg string, fields ...map[string]interface{}) {
	if levelPriority[level] < levelPriority[l.minLevel] {
		return
	}

	timestamp := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")

	merged := map[string]interface{}{}
	if len(fields) > 0 && fields[0] != nil {
		for k, v := range fields[0] {
			merged[k] = v
		}
	}
	if l.traceID != "" {
		merged["run"] = l.traceID
	}
	fieldStr := formatFields(merged)

	var line string
	if l.component != "" {
		line = fmt.Sprintf("%-5s %s [%s] %s%s\n", level, timestamp, l.component, msg, fieldStr)
	} else {
		line = fmt.Sprintf("%-5s %s %s%s\n", level, timestamp, msg, fieldStr)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.output.Write([]byte(line))
}

// StageStart logs the start of a pipeline stage.
func (l *Logger) StageStart(stage string) {
	l.Debug("stage_start", map[string]interface{}{
		"stage": stage,
	})
}

// StageComplete logs the completion of a pipeline stage.
func (l *Logger) StageComplete(stage string, duration time.Duration, err error) {
	fields := map[string]interface{}{
		"stage":    stage,
		"duration": duration.String(),
	}
	if err != nil {
		fields["error"] = err.Error()
		l.Warn("stage_failed", fields)
		return
	}
	l.Debug("stage_complete", fields)
}

// Finding logs a preflight finding at the level matching its severity.
// Values are never logged, only variable names.
func (l *Logger) Finding(severity, code, variable, message string) {
	fields := map[string]interface{}{
		"severity": severity,
	}
	if code != "" {
		fields["code"] = code
	}
	if variable != "" {
		fields["var"] = variable
	}
	switch severity {
	case "error":
		l.Error(message, fields)
	case "warn":
		l.Warn(message, fields)
	case "ok":
		l.Debug(message, fields)
	default:
		l.Info(message, fields)
	}
}

// ChildStart logs the launch of the external runtime.
func (l *Logger) ChildStart(command string, args []string, pid int) {
	l.Info("runtime_start", map[string]interface{}{
		"command": command,
		"args":    strings.Join(args, " "),
		"pid":     pid,
	})
}

// ChildSignal logs a signal relayed to the runtime.
func (l *Logger) ChildSignal(sig string) {
	l.Info("runtime_signal", map[string]interface{}{
		"signal": sig,
	})
}

// ChildExit logs the runtime's exit.
func (l *Logger) ChildExit(code int, duration time.Duration) {
	fields := map[string]interface{}{
		"exit_code": code,
		"duration":  duration.String(),
	}
	if code != 0 {
		l.Error("runtime_exit", fields)
		return
	}
	l.Info("runtime_exit", fields)
}
