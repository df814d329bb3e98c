package notification

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sns"

	travelerrors "github.com/byteness/travelgate/errors"
	"github.com/byteness/travelgate/request"
)

// mockSNSClient implements snsAPI for testing.
type mockSNSClient struct {
	publishFn func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

func (m *mockSNSClient) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	if m.publishFn != nil {
		return m.publishFn(ctx, params, optFns...)
	}
	return &sns.PublishOutput{}, nil
}

func TestSNSNotifier_Notify(t *testing.T) {
	topicARN := "arn:aws:sns:us-east-1:123456789012:travel-approvals"
	event := &Event{
		Type: EventRequestCreated,
		Request: &request.ApprovalRequest{
			ID:            "r-1",
			EmployeeID:    "E003",
			ManagerID:     "M001",
			RequestType:   "hotel",
			ApprovalLevel: request.LevelDirector,
			Status:        request.StatusPending,
			CreatedAt:     time.Now(),
			UpdatedAt:     time.Now(),
		},
		Timestamp: time.Now(),
		Actor:     "E003",
	}

	var captured *sns.PublishInput
	notifier := newSNSNotifierWithClient(&mockSNSClient{
		publishFn: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
			captured = params
			return &sns.PublishOutput{}, nil
		},
	}, topicARN)

	if err := notifier.Notify(context.Background(), event); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}

	if *captured.TopicArn != topicARN {
		t.Errorf("TopicArn = %q, want %q", *captured.TopicArn, topicARN)
	}

	attrs := map[string]string{}
	for k, v := range captured.MessageAttributes {
		attrs[k] = *v.StringValue
	}
	want := map[string]string{
		"event_type":     "request.created",
		"manager_id":     "M001",
		"approval_level": "Director",
	}
	for k, v := range want {
		if attrs[k] != v {
			t.Errorf("MessageAttributes[%s] = %q, want %q", k, attrs[k], v)
		}
	}

	if !strings.Contains(*captured.Subject, "hotel request from E003") {
		t.Errorf("Subject = %q", *captured.Subject)
	}

	var decoded Event
	if err := json.Unmarshal([]byte(*captured.Message), &decoded); err != nil {
		t.Fatalf("Message is not valid JSON: %v", err)
	}
	if decoded.Request.ID != "r-1" || decoded.Type != EventRequestCreated {
		t.Errorf("decoded event = %+v", decoded)
	}
}

func TestSNSNotifier_Notify_NoManagerAttribute(t *testing.T) {
	var captured *sns.PublishInput
	notifier := newSNSNotifierWithClient(&mockSNSClient{
		publishFn: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
			captured = params
			return &sns.PublishOutput{}, nil
		},
	}, "arn:aws:sns:us-east-1:123456789012:t")

	event := NewEvent(EventRequestApproved, &request.ApprovalRequest{ID: "r-2"}, "E001")
	if err := notifier.Notify(context.Background(), event); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if _, ok := captured.MessageAttributes["manager_id"]; ok {
		t.Error("manager_id attribute should be omitted when empty")
	}
	if *captured.Subject != "Travel request r-2 approved" {
		t.Errorf("Subject = %q", *captured.Subject)
	}
}

func TestSNSNotifier_Notify_Error(t *testing.T) {
	notifier := newSNSNotifierWithClient(&mockSNSClient{
		publishFn: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
			return nil, errors.New("NotFound: Topic does not exist")
		},
	}, "arn:aws:sns:us-east-1:123456789012:missing")

	err := notifier.Notify(context.Background(), NewEvent(EventRequestCreated, &request.ApprovalRequest{}, "E001"))
	if err == nil {
		t.Fatal("Notify() should return error")
	}
	if code := travelerrors.GetCode(err); code != travelerrors.ErrCodeSNSTopicNotFound {
		t.Errorf("GetCode() = %q, want %q", code, travelerrors.ErrCodeSNSTopicNotFound)
	}
}
