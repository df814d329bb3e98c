package logging

import (
	"encoding/json"
	"io"
	"sync"

	"go.uber.org/zap"
)

// SignedLogger implements Logger by writing each entry as a signed JSON line.
type SignedLogger struct {
	mu     sync.Mutex
	writer io.Writer
	config *SignatureConfig
	log    *zap.Logger
}

// NewSignedLogger creates a SignedLogger with the given writer and config.
// Signing failures are reported to the global zap logger and the entry is
// written unsigned so the audit record is never lost.
func NewSignedLogger(w io.Writer, config *SignatureConfig) *SignedLogger {
	return &SignedLogger{
		writer: w,
		config: config,
		log:    zap.L(),
	}
}

// LogDecision signs and writes a decision log entry.
func (l *SignedLogger) LogDecision(entry DecisionLogEntry) {
	l.writeSignedEntry(entry)
}

// LogApproval signs and writes an approval log entry.
func (l *SignedLogger) LogApproval(entry ApprovalLogEntry) {
	l.writeSignedEntry(entry)
}

func (l *SignedLogger) writeSignedEntry(entry any) {
	data, err := marshalSigned(entry, l.config, l.log)
	if err != nil {
		l.log.Error("audit entry marshal failed", zap.Error(err))
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.writer.Write(append(data, '\n'))
}

// marshalSigned signs entry when config is set. On signing failure the
// unsigned entry is returned instead.
func marshalSigned(entry any, config *SignatureConfig, log *zap.Logger) ([]byte, error) {
	if config == nil {
		return json.Marshal(entry)
	}

	signed, err := NewSignedEntry(entry, config)
	if err != nil {
		log.Error("audit entry signing failed", zap.String("key_id", config.KeyID), zap.Error(err))
		return json.Marshal(entry)
	}
	return json.Marshal(signed)
}
