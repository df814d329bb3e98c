package metrics

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// AlarmConfig describes a CloudWatch alarm to create.
type AlarmConfig struct {
	Name              string  `json:"name"`
	Description       string  `json:"description"`
	MetricName        string  `json:"metric_name"`
	Namespace         string  `json:"namespace"`
	Statistic         string  `json:"statistic"`
	Period            int32   `json:"period"`
	EvaluationPeriods int32   `json:"evaluation_periods"`
	Threshold         float64 `json:"threshold"`
	ComparisonOp      string  `json:"comparison_operator"`
}

// AlarmResult reports what EnsureAlarms did.
type AlarmResult struct {
	Created []string `json:"created"`
	Skipped []string `json:"skipped,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

// DefaultAlarms returns the standard alarms for namespace.
// An empty namespace means DefaultNamespace.
func DefaultAlarms(namespace string) []AlarmConfig {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return []AlarmConfig{
		{
			Name:              "travelgate-unauthorized-approvals",
			Description:       "Alert on any approval or rejection attempted by someone without authority",
			MetricName:        MetricUnauthorizedAttempts,
			Namespace:         namespace,
			Statistic:         "Sum",
			Period:            300, // 5 minutes
			EvaluationPeriods: 1,
			Threshold:         1,
			ComparisonOp:      "GreaterThanOrEqualToThreshold",
		},
		{
			Name:              "travelgate-booking-denials",
			Description:       "Alert when booking attempts are repeatedly denied by policy",
			MetricName:        MetricPolicyDenials,
			Namespace:         namespace,
			Statistic:         "Sum",
			Period:            3600,
			EvaluationPeriods: 1,
			Threshold:         25,
			ComparisonOp:      "GreaterThanOrEqualToThreshold",
		},
	}
}

// Alarms manages CloudWatch alarms on travel metrics.
type Alarms struct {
	client CloudWatchAPI
}

// NewAlarms creates an Alarms with the provided AWS configuration.
func NewAlarms(cfg aws.Config) *Alarms {
	return &Alarms{client: cloudwatch.NewFromConfig(cfg)}
}

// NewAlarmsWithClient creates an Alarms with a custom client for testing.
func NewAlarmsWithClient(client CloudWatchAPI) *Alarms {
	return &Alarms{client: client}
}

// EnsureAlarms creates each configured alarm that does not already exist.
// Existing alarms are left untouched unless overwrite is set. Per-alarm
// failures are collected in the result; only the initial lookup fails the call.
func (a *Alarms) EnsureAlarms(ctx context.Context, configs []AlarmConfig, snsTopicARN string, overwrite bool) (*AlarmResult, error) {
	result := &AlarmResult{Created: []string{}}

	names := make([]string, 0, len(configs))
	for _, c := range configs {
		names = append(names, c.Name)
	}
	existing, err := a.existing(ctx, names)
	if err != nil {
		return nil, fmt.Errorf("failed to describe alarms: %w", err)
	}

	for _, c := range configs {
		if existing[c.Name] && !overwrite {
			result.Skipped = append(result.Skipped, c.Name)
			continue
		}
		if err := a.CreateAlarm(ctx, c, snsTopicARN); err != nil {
			if isAccessDenied(err) {
				result.Errors = append(result.Errors, fmt.Sprintf("access denied creating alarm %s", c.Name))
				continue
			}
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		result.Created = append(result.Created, c.Name)
	}
	return result, nil
}

func (a *Alarms) existing(ctx context.Context, names []string) (map[string]bool, error) {
	found := make(map[string]bool)
	if len(names) == 0 {
		return found, nil
	}
	paginator := cloudwatch.NewDescribeAlarmsPaginator(a.client, &cloudwatch.DescribeAlarmsInput{
		AlarmNames: names,
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, alarm := range page.MetricAlarms {
			found[aws.ToString(alarm.AlarmName)] = true
		}
	}
	return found, nil
}

// CreateAlarm creates or replaces a CloudWatch alarm for a metric.
func (a *Alarms) CreateAlarm(ctx context.Context, config AlarmConfig, snsTopicARN string) error {
	input := &cloudwatch.PutMetricAlarmInput{
		AlarmName:          aws.String(config.Name),
		AlarmDescription:   aws.String(config.Description),
		MetricName:         aws.String(config.MetricName),
		Namespace:          aws.String(config.Namespace),
		Statistic:          statistic(config.Statistic),
		Period:             aws.Int32(config.Period),
		EvaluationPeriods:  aws.Int32(config.EvaluationPeriods),
		Threshold:          aws.Float64(config.Threshold),
		ComparisonOperator: comparisonOperator(config.ComparisonOp),
		TreatMissingData:   aws.String("notBreaching"),
	}
	if snsTopicARN != "" {
		input.AlarmActions = []string{snsTopicARN}
	}

	if _, err := a.client.PutMetricAlarm(ctx, input); err != nil {
		return fmt.Errorf("failed to create alarm %s: %w", config.Name, err)
	}
	return nil
}

func statistic(s string) cwtypes.Statistic {
	switch s {
	case "Average":
		return cwtypes.StatisticAverage
	case "Maximum":
		return cwtypes.StatisticMaximum
	case "Minimum":
		return cwtypes.StatisticMinimum
	case "SampleCount":
		return cwtypes.StatisticSampleCount
	}
	return cwtypes.StatisticSum
}

func comparisonOperator(s string) cwtypes.ComparisonOperator {
	switch s {
	case "GreaterThanThreshold":
		return cwtypes.ComparisonOperatorGreaterThanThreshold
	case "LessThanThreshold":
		return cwtypes.ComparisonOperatorLessThanThreshold
	case "LessThanOrEqualToThreshold":
		return cwtypes.ComparisonOperatorLessThanOrEqualToThreshold
	}
	return cwtypes.ComparisonOperatorGreaterThanOrEqualToThreshold
}

func isAccessDenied(err error) bool {
	s := err.Error()
	return strings.Contains(s, "AccessDenied") || strings.Contains(s, "not authorized")
}
