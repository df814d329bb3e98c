// Package logging provides the audit trail for policy decisions and approval
// workflow events. It defines a Logger interface and implementations for
// JSON Lines output, zap, CloudWatch Logs and no-op logging.
package logging

import (
	"encoding/json"
	"io"
	"sync"
)

// Logger defines the interface for audit logging.
type Logger interface {
	// LogDecision logs a policy decision entry.
	LogDecision(entry DecisionLogEntry)

	// LogApproval logs an approval workflow event.
	LogApproval(entry ApprovalLogEntry)
}

// JSONLogger implements Logger with JSON Lines output.
// Each entry is written as a single line of JSON suitable for log aggregation.
type JSONLogger struct {
	mu     sync.Mutex
	writer io.Writer
}

// NewJSONLogger creates a new JSONLogger that writes to the given writer.
func NewJSONLogger(w io.Writer) *JSONLogger {
	return &JSONLogger{writer: w}
}

// LogDecision writes the entry as a single line of JSON.
func (l *JSONLogger) LogDecision(entry DecisionLogEntry) {
	l.writeLine(entry)
}

// LogApproval writes the approval entry as a single line of JSON.
func (l *JSONLogger) LogApproval(entry ApprovalLogEntry) {
	l.writeLine(entry)
}

func (l *JSONLogger) writeLine(entry any) {
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}

	// One Write per line so concurrent entries never interleave.
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writer.Write(append(data, '\n'))
}

// NopLogger implements Logger but discards all entries.
type NopLogger struct{}

// NewNopLogger creates a new NopLogger that discards all entries.
func NewNopLogger() *NopLogger {
	return &NopLogger{}
}

// LogDecision discards the entry.
func (l *NopLogger) LogDecision(entry DecisionLogEntry) {}

// LogApproval discards the approval entry.
func (l *NopLogger) LogApproval(entry ApprovalLogEntry) {}

// MultiLogger fans each entry out to several loggers in order.
type MultiLogger []Logger

// NewMultiLogger returns a Logger writing to every non-nil logger given.
// With a single logger it returns that logger unchanged.
func NewMultiLogger(loggers ...Logger) Logger {
	var m MultiLogger
	for _, l := range loggers {
		if l != nil {
			m = append(m, l)
		}
	}
	switch len(m) {
	case 0:
		return NewNopLogger()
	case 1:
		return m[0]
	}
	return m
}

// LogDecision forwards the entry to every logger.
func (m MultiLogger) LogDecision(entry DecisionLogEntry) {
	for _, l := range m {
		l.LogDecision(entry)
	}
}

// LogApproval forwards the entry to every logger.
func (m MultiLogger) LogApproval(entry ApprovalLogEntry) {
	for _, l := range m {
		l.LogApproval(entry)
	}
}
