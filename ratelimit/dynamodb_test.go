package ratelimit

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	travelerrors "github.com/byteness/travelgate/errors"
)

// mockDynamoDBClient keeps counters in a map keyed by pk.
type mockDynamoDBClient struct {
	mu       sync.Mutex
	counters map[string]int
	inputs   []*dynamodb.UpdateItemInput
	err      error
}

func (m *mockDynamoDBClient) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inputs = append(m.inputs, params)
	if m.err != nil {
		return nil, m.err
	}
	if m.counters == nil {
		m.counters = make(map[string]int)
	}
	pk := params.Key["pk"].(*types.AttributeValueMemberS).Value
	m.counters[pk]++
	return &dynamodb.UpdateItemOutput{
		Attributes: map[string]types.AttributeValue{
			"count": &types.AttributeValueMemberN{Value: strconv.Itoa(m.counters[pk])},
		},
	}, nil
}

func newTestDynamoDBLimiter(t *testing.T, client *mockDynamoDBClient, limit int, window time.Duration) (*DynamoDBLimiter, *clock) {
	t.Helper()
	d, err := newDynamoDBLimiterWithClient(client, "travel-rate-limits", Config{Limit: limit, Window: window})
	if err != nil {
		t.Fatalf("newDynamoDBLimiterWithClient() error = %v", err)
	}
	c := &clock{t: time.Date(2026, 3, 1, 9, 15, 0, 0, time.UTC)}
	d.now = c.now
	return d, c
}

func TestDynamoDBLimiter_Allow(t *testing.T) {
	ctx := context.Background()
	client := &mockDynamoDBClient{}
	d, _ := newTestDynamoDBLimiter(t, client, 2, time.Hour)

	for i := 0; i < 2; i++ {
		dec, err := d.Allow(ctx, "create#E001")
		if err != nil {
			t.Fatalf("Allow() error = %v", err)
		}
		if !dec.Allowed || dec.Remaining != 1-i {
			t.Errorf("attempt %d: decision = %+v", i+1, dec)
		}
	}

	dec, err := d.Allow(ctx, "create#E001")
	if err != nil {
		t.Fatal(err)
	}
	if dec.Allowed {
		t.Fatal("3rd attempt should be denied")
	}
	if dec.RetryAfter != 45*time.Minute {
		t.Errorf("RetryAfter = %v, want 45m until the window ends", dec.RetryAfter)
	}

	in := client.inputs[0]
	if aws.ToString(in.TableName) != "travel-rate-limits" {
		t.Errorf("table = %s", aws.ToString(in.TableName))
	}
	pk := in.Key["pk"].(*types.AttributeValueMemberS).Value
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC).Unix()
	if pk != "create#E001#"+strconv.FormatInt(start, 10) {
		t.Errorf("pk = %s", pk)
	}
	if !strings.HasPrefix(aws.ToString(in.UpdateExpression), "ADD #count :one") {
		t.Errorf("update expression = %s", aws.ToString(in.UpdateExpression))
	}
}

func TestDynamoDBLimiter_NewWindow(t *testing.T) {
	ctx := context.Background()
	d, c := newTestDynamoDBLimiter(t, &mockDynamoDBClient{}, 1, time.Hour)

	d.Allow(ctx, "k")
	if dec, _ := d.Allow(ctx, "k"); dec.Allowed {
		t.Fatal("second attempt in the window should be denied")
	}
	c.advance(time.Hour)
	if dec, _ := d.Allow(ctx, "k"); !dec.Allowed {
		t.Error("a new window starts a new counter")
	}
}

func TestDynamoDBLimiter_FailsOpen(t *testing.T) {
	client := &mockDynamoDBClient{err: errors.New("ProvisionedThroughputExceededException: slow down")}
	d, _ := newTestDynamoDBLimiter(t, client, 1, time.Hour)

	dec, err := d.Allow(context.Background(), "k")
	if err == nil {
		t.Fatal("expected the DynamoDB error to be returned")
	}
	if !dec.Allowed {
		t.Error("DynamoDB errors must allow the attempt")
	}
	if travelerrors.GetCode(err) != travelerrors.ErrCodeDynamoDBThrottled {
		t.Errorf("code = %s", travelerrors.GetCode(err))
	}
}
