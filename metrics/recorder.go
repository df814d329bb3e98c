// Package metrics publishes travel policy and approval activity as CloudWatch
// metrics and manages the alarms that watch them.
//
// Recorder implements logging.Logger so it can be fanned out next to the
// audit loggers with logging.NewMultiLogger.
package metrics

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"

	"github.com/byteness/travelgate/logging"
)

// DefaultNamespace is the namespace for travel CloudWatch metrics.
const DefaultNamespace = "TravelGate"

// Metric names.
const (
	MetricPolicyDecisions      = "PolicyDecisions"
	MetricPolicyDenials        = "PolicyDenials"
	MetricApprovalEvents       = "ApprovalEvents"
	MetricUnauthorizedAttempts = "UnauthorizedApprovalAttempts"
)

// CloudWatchAPI defines the CloudWatch operations used by this package.
type CloudWatchAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
	PutMetricAlarm(ctx context.Context, params *cloudwatch.PutMetricAlarmInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricAlarmOutput, error)
	DescribeAlarms(ctx context.Context, params *cloudwatch.DescribeAlarmsInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.DescribeAlarmsOutput, error)
}

// RecorderConfig configures a Recorder.
type RecorderConfig struct {
	// Namespace defaults to DefaultNamespace.
	Namespace string

	// Timeout bounds each PutMetricData call. Default: 2s.
	Timeout time.Duration

	// ErrorLog receives publish failures. Defaults to zap.L().
	ErrorLog *zap.Logger
}

// Recorder turns audit entries into CloudWatch counters. Publishing is
// synchronous and fails open: errors are logged, never returned.
type Recorder struct {
	client    CloudWatchAPI
	namespace string
	timeout   time.Duration
	log       *zap.Logger
	now       func() time.Time
}

// NewRecorder creates a Recorder using the provided AWS configuration.
func NewRecorder(cfg aws.Config, config RecorderConfig) *Recorder {
	return NewRecorderWithClient(cloudwatch.NewFromConfig(cfg), config)
}

// NewRecorderWithClient creates a Recorder with a custom CloudWatch client.
func NewRecorderWithClient(client CloudWatchAPI, config RecorderConfig) *Recorder {
	r := &Recorder{
		client:    client,
		namespace: config.Namespace,
		timeout:   config.Timeout,
		log:       config.ErrorLog,
		now:       time.Now,
	}
	if r.namespace == "" {
		r.namespace = DefaultNamespace
	}
	if r.timeout <= 0 {
		r.timeout = 2 * time.Second
	}
	if r.log == nil {
		r.log = zap.L()
	}
	return r
}

// LogDecision counts the decision by operation and effect. Denials are also
// counted under MetricPolicyDenials by operation.
func (r *Recorder) LogDecision(entry logging.DecisionLogEntry) {
	data := []cwtypes.MetricDatum{
		r.count(MetricPolicyDecisions,
			dimension("Operation", entry.Operation),
			dimension("Effect", entry.Effect)),
	}
	if entry.Effect == logging.EffectDeny {
		data = append(data, r.count(MetricPolicyDenials, dimension("Operation", entry.Operation)))
	}
	r.put(data)
}

// LogApproval counts the workflow event. Unauthorized attempts are also
// counted under MetricUnauthorizedAttempts with no dimensions so a single
// alarm can watch them.
func (r *Recorder) LogApproval(entry logging.ApprovalLogEntry) {
	data := []cwtypes.MetricDatum{
		r.count(MetricApprovalEvents, dimension("Event", entry.Event)),
	}
	if entry.Event == logging.EventUnauthorizedAttempt {
		data = append(data, r.count(MetricUnauthorizedAttempts))
	}
	r.put(data)
}

func (r *Recorder) count(name string, dims ...cwtypes.Dimension) cwtypes.MetricDatum {
	return cwtypes.MetricDatum{
		MetricName: aws.String(name),
		Dimensions: dims,
		Timestamp:  aws.Time(r.now()),
		Unit:       cwtypes.StandardUnitCount,
		Value:      aws.Float64(1),
	}
}

func dimension(name, value string) cwtypes.Dimension {
	if value == "" {
		value = "unknown"
	}
	return cwtypes.Dimension{Name: aws.String(name), Value: aws.String(value)}
}

func (r *Recorder) put(data []cwtypes.MetricDatum) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	_, err := r.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(r.namespace),
		MetricData: data,
	})
	if err != nil {
		r.log.Error("cloudwatch PutMetricData failed",
			zap.String("namespace", r.namespace),
			zap.Int("datums", len(data)),
			zap.Error(err))
	}
}

var _ logging.Logger = (*Recorder)(nil)
