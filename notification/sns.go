package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"

	travelerrors "github.com/byteness/travelgate/errors"
)

// snsAPI defines the SNS operations used by SNSNotifier.
// This interface enables testing with mock implementations.
type snsAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSNotifier publishes notification events to an AWS SNS topic.
//
// Messages are published as JSON with "event_type", "manager_id" and
// "approval_level" message attributes, so approvers can subscribe with a
// filter policy on their own ID.
type SNSNotifier struct {
	client   snsAPI
	topicARN string
}

// NewSNSNotifier creates a new SNSNotifier using the provided AWS configuration.
func NewSNSNotifier(cfg aws.Config, topicARN string) *SNSNotifier {
	return newSNSNotifierWithClient(sns.NewFromConfig(cfg), topicARN)
}

// newSNSNotifierWithClient creates an SNSNotifier with a custom client.
// This is primarily used for testing with mock clients.
func newSNSNotifierWithClient(client snsAPI, topicARN string) *SNSNotifier {
	return &SNSNotifier{
		client:   client,
		topicARN: topicARN,
	}
}

// Notify publishes the event to the configured SNS topic.
func (n *SNSNotifier) Notify(ctx context.Context, event *Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	attrs := map[string]types.MessageAttributeValue{
		"event_type": stringAttribute(event.Type.String()),
	}
	if event.Request != nil {
		if event.Request.ManagerID != "" {
			attrs["manager_id"] = stringAttribute(event.Request.ManagerID)
		}
		if event.Request.ApprovalLevel != "" {
			attrs["approval_level"] = stringAttribute(event.Request.ApprovalLevel.String())
		}
	}

	_, err = n.client.Publish(ctx, &sns.PublishInput{
		TopicArn:          aws.String(n.topicARN),
		Subject:           aws.String(subject(event)),
		Message:           aws.String(string(payload)),
		MessageAttributes: attrs,
	})
	if err != nil {
		return travelerrors.WrapSNSError(err, n.topicARN)
	}

	return nil
}

func stringAttribute(v string) types.MessageAttributeValue {
	return types.MessageAttributeValue{
		DataType:    aws.String("String"),
		StringValue: aws.String(v),
	}
}

// subject renders a short email-friendly subject line.
func subject(event *Event) string {
	if event.Request == nil {
		return fmt.Sprintf("Travel approval %s", event.Type)
	}
	switch event.Type {
	case EventRequestCreated:
		return fmt.Sprintf("Travel approval needed: %s request from %s", event.Request.RequestType, event.Request.EmployeeID)
	case EventRequestApproved:
		return fmt.Sprintf("Travel request %s approved", event.Request.ID)
	case EventRequestRejected:
		return fmt.Sprintf("Travel request %s rejected", event.Request.ID)
	}
	return fmt.Sprintf("Travel approval %s", event.Type)
}
