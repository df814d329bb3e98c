package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/google/go-cmp/cmp"

	"github.com/byteness/travelgate/testutil"
)

func TestDefaultAlarms(t *testing.T) {
	alarms := DefaultAlarms("")
	if len(alarms) != 2 {
		t.Fatalf("got %d alarms, want 2", len(alarms))
	}
	for _, a := range alarms {
		if a.Namespace != DefaultNamespace {
			t.Errorf("%s namespace = %q", a.Name, a.Namespace)
		}
	}
	if alarms[0].MetricName != MetricUnauthorizedAttempts || alarms[0].Threshold != 1 {
		t.Errorf("unauthorized alarm = %+v", alarms[0])
	}

	if got := DefaultAlarms("Custom")[1].Namespace; got != "Custom" {
		t.Errorf("namespace = %q, want Custom", got)
	}
}

func TestEnsureAlarms_CreatesMissing(t *testing.T) {
	client := &testutil.MockCloudWatchClient{
		ExistingAlarms: map[string]bool{"travelgate-booking-denials": true},
	}
	a := NewAlarmsWithClient(client)

	result, err := a.EnsureAlarms(context.Background(), DefaultAlarms(""), "arn:aws:sns:us-east-1:123456789012:travel", false)
	if err != nil {
		t.Fatalf("EnsureAlarms: %v", err)
	}

	want := &AlarmResult{
		Created: []string{"travelgate-unauthorized-approvals"},
		Skipped: []string{"travelgate-booking-denials"},
	}
	if diff := cmp.Diff(want, result); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}

	if len(client.PutMetricAlarmCalls) != 1 {
		t.Fatalf("got %d PutMetricAlarm calls, want 1", len(client.PutMetricAlarmCalls))
	}
	input := client.PutMetricAlarmCalls[0]
	if input.Statistic != cwtypes.StatisticSum {
		t.Errorf("Statistic = %v", input.Statistic)
	}
	if input.ComparisonOperator != cwtypes.ComparisonOperatorGreaterThanOrEqualToThreshold {
		t.Errorf("ComparisonOperator = %v", input.ComparisonOperator)
	}
	if diff := cmp.Diff([]string{"arn:aws:sns:us-east-1:123456789012:travel"}, input.AlarmActions); diff != "" {
		t.Errorf("AlarmActions mismatch:\n%s", diff)
	}
	if aws.ToString(input.TreatMissingData) != "notBreaching" {
		t.Errorf("TreatMissingData = %q", aws.ToString(input.TreatMissingData))
	}
}

func TestEnsureAlarms_Overwrite(t *testing.T) {
	client := &testutil.MockCloudWatchClient{
		ExistingAlarms: map[string]bool{"travelgate-booking-denials": true},
	}

	result, err := NewAlarmsWithClient(client).EnsureAlarms(context.Background(), DefaultAlarms(""), "", true)
	if err != nil {
		t.Fatalf("EnsureAlarms: %v", err)
	}
	if len(result.Created) != 2 || len(result.Skipped) != 0 {
		t.Errorf("result = %+v", result)
	}
	if client.PutMetricAlarmCalls[0].AlarmActions != nil {
		t.Error("no topic should mean no alarm actions")
	}
}

func TestEnsureAlarms_Errors(t *testing.T) {
	client := &testutil.MockCloudWatchClient{PutMetricAlarmErr: errors.New("AccessDenied: not allowed")}

	result, err := NewAlarmsWithClient(client).EnsureAlarms(context.Background(), DefaultAlarms(""), "", false)
	if err != nil {
		t.Fatalf("EnsureAlarms: %v", err)
	}
	if len(result.Created) != 0 || len(result.Errors) != 2 {
		t.Errorf("result = %+v", result)
	}
	if result.Errors[0] != "access denied creating alarm travelgate-unauthorized-approvals" {
		t.Errorf("error = %q", result.Errors[0])
	}

	client = &testutil.MockCloudWatchClient{DescribeAlarmsErr: errors.New("throttled")}
	if _, err := NewAlarmsWithClient(client).EnsureAlarms(context.Background(), DefaultAlarms(""), "", false); err == nil {
		t.Error("describe failure should fail the call")
	}
}

func TestStatisticAndComparison(t *testing.T) {
	if statistic("Average") != cwtypes.StatisticAverage || statistic("bogus") != cwtypes.StatisticSum {
		t.Error("statistic mapping")
	}
	if comparisonOperator("LessThanThreshold") != cwtypes.ComparisonOperatorLessThanThreshold ||
		comparisonOperator("") != cwtypes.ComparisonOperatorGreaterThanOrEqualToThreshold {
		t.Error("comparison mapping")
	}
}
