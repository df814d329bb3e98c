package logging

import (
	"go.uber.org/zap"
)

// ZapLogger implements Logger on top of a zap.Logger, so audit entries land
// in the same structured stream as operational logs.
type ZapLogger struct {
	log *zap.Logger
}

// NewZapLogger creates a ZapLogger. A nil logger discards everything.
func NewZapLogger(log *zap.Logger) *ZapLogger {
	if log == nil {
		log = zap.NewNop()
	}
	return &ZapLogger{log: log.Named("audit")}
}

// LogDecision logs a policy decision at info level; denies are logged at warn.
func (l *ZapLogger) LogDecision(entry DecisionLogEntry) {
	fields := []zap.Field{
		zap.String("audit_type", "decision"),
		zap.String("timestamp", entry.Timestamp),
		zap.String("operation", entry.Operation),
		zap.String("emp_id", entry.EmployeeID),
		zap.String("subject", entry.Subject),
		zap.String("effect", entry.Effect),
	}
	if entry.Grade != "" {
		fields = append(fields, zap.String("grade", entry.Grade))
	}
	if entry.Reason != "" {
		fields = append(fields, zap.String("reason", entry.Reason))
	}
	if len(entry.Violations) > 0 {
		fields = append(fields, zap.Strings("violations", entry.Violations))
	}
	if entry.ApprovalLevel != "" {
		fields = append(fields, zap.String("approval_level", entry.ApprovalLevel))
	}
	if entry.Cost != 0 {
		fields = append(fields, zap.Float64("cost", entry.Cost))
	}
	if entry.Days != 0 {
		fields = append(fields, zap.Int("days", entry.Days))
	}
	if entry.PolicyVersion != "" {
		fields = append(fields, zap.String("policy_version", entry.PolicyVersion))
	}

	if entry.Effect == EffectDeny {
		l.log.Warn("policy decision", fields...)
		return
	}
	l.log.Info("policy decision", fields...)
}

// LogApproval logs an approval event. Unauthorized attempts are logged at warn.
func (l *ZapLogger) LogApproval(entry ApprovalLogEntry) {
	fields := []zap.Field{
		zap.String("audit_type", "approval"),
		zap.String("timestamp", entry.Timestamp),
		zap.String("event", entry.Event),
		zap.String("request_id", entry.RequestID),
		zap.String("emp_id", entry.EmployeeID),
		zap.String("approval_level", entry.ApprovalLevel),
		zap.String("status", entry.Status),
		zap.String("actor", entry.Actor),
	}
	if entry.ManagerID != "" {
		fields = append(fields, zap.String("manager_id", entry.ManagerID))
	}
	if entry.Approver != "" {
		fields = append(fields, zap.String("approver", entry.Approver))
	}
	if entry.Comment != "" {
		fields = append(fields, zap.String("comment", entry.Comment))
	}
	if entry.SelfApproved {
		fields = append(fields, zap.Bool("self_approved", true))
	}

	if entry.Event == EventUnauthorizedAttempt {
		l.log.Warn("approval event", fields...)
		return
	}
	l.log.Info("approval event", fields...)
}
