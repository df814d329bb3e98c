package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	travelerrors "github.com/byteness/travelgate/errors"
)

// dynamoDBAPI defines the DynamoDB operations used by DynamoDBLimiter.
type dynamoDBAPI interface {
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// DynamoDBLimiter counts attempts in fixed windows shared by every Lambda
// instance.
//
// Table schema (created externally):
//   - Partition key: pk (String), "<key>#<window start unix>"
//   - count (Number), incremented atomically
//   - expires_at (Number), enable DynamoDB TTL on it
type DynamoDBLimiter struct {
	client    dynamoDBAPI
	tableName string
	config    Config

	now func() time.Time
}

type counterItem struct {
	Count int `dynamodbav:"count"`
}

// NewDynamoDBLimiter creates a DynamoDB-backed limiter.
func NewDynamoDBLimiter(awsCfg aws.Config, tableName string, cfg Config) (*DynamoDBLimiter, error) {
	return newDynamoDBLimiterWithClient(dynamodb.NewFromConfig(awsCfg), tableName, cfg)
}

func newDynamoDBLimiterWithClient(client dynamoDBAPI, tableName string, cfg Config) (*DynamoDBLimiter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if tableName == "" {
		return nil, errors.New("rate limit table name is empty")
	}
	return &DynamoDBLimiter{
		client:    client,
		tableName: tableName,
		config:    cfg,
		now:       time.Now,
	}, nil
}

// Allow increments the counter for key's current window. DynamoDB failures
// allow the attempt and return the error.
func (d *DynamoDBLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	now := d.now()
	start := now.Truncate(d.config.Window)
	end := start.Add(d.config.Window)

	out, err := d.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(d.tableName),
		Key: map[string]types.AttributeValue{
			"pk": &types.AttributeValueMemberS{Value: key + "#" + strconv.FormatInt(start.Unix(), 10)},
		},
		UpdateExpression: aws.String("ADD #count :one SET #exp = if_not_exists(#exp, :exp)"),
		ExpressionAttributeNames: map[string]string{
			"#count": "count",
			"#exp":   "expires_at",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
			":exp": &types.AttributeValueMemberN{Value: strconv.FormatInt(end.Add(time.Hour).Unix(), 10)},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return allowed(0), travelerrors.WrapDynamoDBError(err, d.tableName, "UpdateItem")
	}

	var item counterItem
	if err := attributevalue.UnmarshalMap(out.Attributes, &item); err != nil {
		return allowed(0), fmt.Errorf("unmarshal rate limit counter: %w", err)
	}
	if item.Count > d.config.Limit {
		return denied(end.Sub(now)), nil
	}
	return allowed(d.config.Limit - item.Count), nil
}

var _ Limiter = (*DynamoDBLimiter)(nil)
