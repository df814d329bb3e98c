package logging

import (
	"context"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
	"go.uber.org/zap"
)

// CloudWatchConfig holds configuration for CloudWatch log forwarding.
type CloudWatchConfig struct {
	LogGroupName  string
	LogStreamName string           // typically the function or host name
	SignConfig    *SignatureConfig // nil disables signing

	// ErrorLog receives delivery failures. Defaults to the global zap logger.
	ErrorLog *zap.Logger
}

// CloudWatchAPI defines the CloudWatch Logs operations used.
// This interface enables testing with mock implementations.
type CloudWatchAPI interface {
	PutLogEvents(ctx context.Context, params *cloudwatchlogs.PutLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.PutLogEventsOutput, error)
}

// CloudWatchLogger implements Logger by forwarding entries to CloudWatch Logs.
// Delivery is fail-open: errors are logged and the caller is never blocked
// on a failed write.
type CloudWatchLogger struct {
	client        CloudWatchAPI
	config        *CloudWatchConfig
	log           *zap.Logger
	sequenceToken *string
	mu            sync.Mutex
}

// NewCloudWatchLogger creates a CloudWatch logger from AWS config.
func NewCloudWatchLogger(awsCfg aws.Config, config *CloudWatchConfig) *CloudWatchLogger {
	return NewCloudWatchLoggerWithClient(cloudwatchlogs.NewFromConfig(awsCfg), config)
}

// NewCloudWatchLoggerWithClient creates a CloudWatch logger with a custom client (for testing).
func NewCloudWatchLoggerWithClient(client CloudWatchAPI, config *CloudWatchConfig) *CloudWatchLogger {
	log := config.ErrorLog
	if log == nil {
		log = zap.L()
	}
	return &CloudWatchLogger{
		client: client,
		config: config,
		log:    log,
	}
}

// LogDecision signs (if configured) and forwards a decision log entry.
func (l *CloudWatchLogger) LogDecision(entry DecisionLogEntry) {
	l.writeEntry(entry)
}

// LogApproval signs (if configured) and forwards an approval log entry.
func (l *CloudWatchLogger) LogApproval(entry ApprovalLogEntry) {
	l.writeEntry(entry)
}

func (l *CloudWatchLogger) writeEntry(entry any) {
	message, err := marshalSigned(entry, l.config.SignConfig, l.log)
	if err != nil {
		l.log.Error("cloudwatch marshal failed", zap.Error(err))
		return
	}
	l.putLogEvent(string(message))
}

// putLogEvent sends a single log event, carrying the sequence token forward.
func (l *CloudWatchLogger) putLogEvent(message string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	input := &cloudwatchlogs.PutLogEventsInput{
		LogGroupName:  aws.String(l.config.LogGroupName),
		LogStreamName: aws.String(l.config.LogStreamName),
		LogEvents: []types.InputLogEvent{
			{
				Message:   aws.String(message),
				Timestamp: aws.Int64(time.Now().UnixMilli()),
			},
		},
		SequenceToken: l.sequenceToken,
	}

	// Background context: the invocation context may already be done when
	// the last audit entry of a request is written.
	output, err := l.client.PutLogEvents(context.Background(), input)
	if err != nil {
		l.log.Error("cloudwatch PutLogEvents failed",
			zap.String("log_group", l.config.LogGroupName),
			zap.String("log_stream", l.config.LogStreamName),
			zap.Error(err),
		)
		return
	}

	if output != nil && output.NextSequenceToken != nil {
		l.sequenceToken = output.NextSequenceToken
	}
}
