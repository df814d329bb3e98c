package request

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	travelerrors "github.com/byteness/travelgate/errors"
)

// GSIManagerStatus indexes requests by manager_id with status as sort key.
// The index is created externally via Terraform/CloudFormation.
const GSIManagerStatus = "gsi-manager-status"

// dynamoDBAPI defines the DynamoDB operations used by DynamoDBStore.
// This interface enables testing with mock implementations.
type dynamoDBAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// DynamoDBStore implements Store using AWS DynamoDB.
//
// Table schema assumptions (created externally via Terraform/CloudFormation):
//   - Partition key: request_id (String)
//   - Sort key: emp_id (String)
//   - Optional GSI (see GSIManagerStatus): manager_id / status
type DynamoDBStore struct {
	client    dynamoDBAPI
	tableName string
	indexName string
}

// NewDynamoDBStore creates a new DynamoDBStore using the provided AWS configuration.
// indexName names the manager/status GSI; when empty, ListPending scans the table.
func NewDynamoDBStore(cfg aws.Config, tableName, indexName string) *DynamoDBStore {
	return newDynamoDBStoreWithClient(dynamodb.NewFromConfig(cfg), tableName, indexName)
}

// newDynamoDBStoreWithClient creates a DynamoDBStore with a custom client.
// This is primarily used for testing with mock clients.
func newDynamoDBStoreWithClient(client dynamoDBAPI, tableName, indexName string) *DynamoDBStore {
	return &DynamoDBStore{
		client:    client,
		tableName: tableName,
		indexName: indexName,
	}
}

// dynamoItem represents the DynamoDB item structure for an ApprovalRequest.
type dynamoItem struct {
	ID            string `dynamodbav:"request_id"`
	EmployeeID    string `dynamodbav:"emp_id"`
	ManagerID     string `dynamodbav:"manager_id"`
	RequestType   string `dynamodbav:"request_type"`
	Details       string `dynamodbav:"details"`
	ApprovalLevel string `dynamodbav:"approval_level"`
	Status        string `dynamodbav:"status"`
	CreatedAt     string `dynamodbav:"created_at"` // RFC3339
	UpdatedAt     string `dynamodbav:"updated_at"` // RFC3339
	ApproverID    string `dynamodbav:"approver_id,omitempty"`
	Comment       string `dynamodbav:"comment,omitempty"`
}

func requestToItem(req *ApprovalRequest) *dynamoItem {
	return &dynamoItem{
		ID:            req.ID,
		EmployeeID:    req.EmployeeID,
		ManagerID:     req.ManagerID,
		RequestType:   req.RequestType,
		Details:       req.Details,
		ApprovalLevel: string(req.ApprovalLevel),
		Status:        string(req.Status),
		CreatedAt:     req.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt:     req.UpdatedAt.Format(time.RFC3339Nano),
		ApproverID:    req.ApproverID,
		Comment:       req.Comment,
	}
}

func itemToRequest(item *dynamoItem) (*ApprovalRequest, error) {
	createdAt, err := parseDynamoDBTime(item.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	updatedAt, err := parseDynamoDBTime(item.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	return &ApprovalRequest{
		ID:            item.ID,
		EmployeeID:    item.EmployeeID,
		ManagerID:     item.ManagerID,
		RequestType:   item.RequestType,
		Details:       item.Details,
		ApprovalLevel: ApprovalLevel(item.ApprovalLevel),
		Status:        RequestStatus(item.Status),
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
		ApproverID:    item.ApproverID,
		Comment:       item.Comment,
	}, nil
}

func (s *DynamoDBStore) key(requestID, empID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"request_id": &types.AttributeValueMemberS{Value: requestID},
		"emp_id":     &types.AttributeValueMemberS{Value: empID},
	}
}

// Create stores a new request. Returns ErrRequestExists if the key already exists.
func (s *DynamoDBStore) Create(ctx context.Context, req *ApprovalRequest) error {
	av, err := attributevalue.MarshalMap(requestToItem(req))
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(request_id)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return fmt.Errorf("%s: %w", req.ID, ErrRequestExists)
		}
		return travelerrors.WrapDynamoDBError(err, s.tableName, "PutItem")
	}

	return nil
}

// Get retrieves a request by its composite key. Returns ErrRequestNotFound if not exists.
func (s *DynamoDBStore) Get(ctx context.Context, requestID, empID string) (*ApprovalRequest, error) {
	output, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key:       s.key(requestID, empID),
	})
	if err != nil {
		return nil, travelerrors.WrapDynamoDBError(err, s.tableName, "GetItem")
	}

	if output.Item == nil {
		return nil, fmt.Errorf("%s/%s: %w", requestID, empID, ErrRequestNotFound)
	}

	var item dynamoItem
	if err := attributevalue.UnmarshalMap(output.Item, &item); err != nil {
		return nil, fmt.Errorf("unmarshal request: %w", err)
	}

	return itemToRequest(&item)
}

// Update writes the decision fields of an existing request.
// Returns ErrRequestNotFound if the request doesn't exist.
// Returns ErrConcurrentModification if expected is set and the stored status differs.
func (s *DynamoDBStore) Update(ctx context.Context, req *ApprovalRequest, expected RequestStatus) error {
	condition := "attribute_exists(request_id)"
	// comment is a DynamoDB reserved word.
	names := map[string]string{"#status": "status", "#comment": "comment"}
	values := map[string]types.AttributeValue{
		":status":      &types.AttributeValueMemberS{Value: string(req.Status)},
		":approver_id": &types.AttributeValueMemberS{Value: req.ApproverID},
		":comment":     &types.AttributeValueMemberS{Value: req.Comment},
		":updated_at":  &types.AttributeValueMemberS{Value: req.UpdatedAt.Format(time.RFC3339Nano)},
	}
	if expected != "" {
		condition += " AND #status = :expected"
		values[":expected"] = &types.AttributeValueMemberS{Value: string(expected)}
	}

	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.tableName),
		Key:                       s.key(req.ID, req.EmployeeID),
		UpdateExpression:          aws.String("SET #status = :status, approver_id = :approver_id, #comment = :comment, updated_at = :updated_at"),
		ConditionExpression:       aws.String(condition),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			// Could be either not found or a status mismatch.
			exists, checkErr := s.exists(ctx, req.ID, req.EmployeeID)
			if checkErr != nil {
				return fmt.Errorf("dynamodb UpdateItem condition failed, check exists: %w", checkErr)
			}
			if !exists {
				return fmt.Errorf("%s/%s: %w", req.ID, req.EmployeeID, ErrRequestNotFound)
			}
			return fmt.Errorf("%s/%s: %w", req.ID, req.EmployeeID, ErrConcurrentModification)
		}
		return travelerrors.WrapDynamoDBError(err, s.tableName, "UpdateItem")
	}

	return nil
}

func (s *DynamoDBStore) exists(ctx context.Context, requestID, empID string) (bool, error) {
	output, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:            aws.String(s.tableName),
		Key:                  s.key(requestID, empID),
		ProjectionExpression: aws.String("request_id"),
	})
	if err != nil {
		return false, fmt.Errorf("dynamodb GetItem: %w", err)
	}

	return output.Item != nil, nil
}

// ListPending returns every pending request managed by approverID, oldest first.
// With an index configured it queries the GSI; otherwise it scans the whole table
// with a filter. Both walk every page.
func (s *DynamoDBStore) ListPending(ctx context.Context, approverID string) ([]*ApprovalRequest, error) {
	values := map[string]types.AttributeValue{
		":manager_id": &types.AttributeValueMemberS{Value: approverID},
		":status":     &types.AttributeValueMemberS{Value: string(StatusPending)},
	}
	names := map[string]string{"#status": "status"}

	var items []map[string]types.AttributeValue
	if s.indexName != "" {
		p := dynamodb.NewQueryPaginator(s.client, &dynamodb.QueryInput{
			TableName:                 aws.String(s.tableName),
			IndexName:                 aws.String(s.indexName),
			KeyConditionExpression:    aws.String("manager_id = :manager_id AND #status = :status"),
			ExpressionAttributeNames:  names,
			ExpressionAttributeValues: values,
		})
		for p.HasMorePages() {
			page, err := p.NextPage(ctx)
			if err != nil {
				return nil, travelerrors.WrapDynamoDBError(err, s.tableName, fmt.Sprintf("Query:%s", s.indexName))
			}
			items = append(items, page.Items...)
		}
	} else {
		p := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{
			TableName:                 aws.String(s.tableName),
			FilterExpression:          aws.String("manager_id = :manager_id AND #status = :status"),
			ExpressionAttributeNames:  names,
			ExpressionAttributeValues: values,
		})
		for p.HasMorePages() {
			page, err := p.NextPage(ctx)
			if err != nil {
				return nil, travelerrors.WrapDynamoDBError(err, s.tableName, "Scan")
			}
			items = append(items, page.Items...)
		}
	}

	requests := make([]*ApprovalRequest, 0, len(items))
	for _, av := range items {
		var item dynamoItem
		if err := attributevalue.UnmarshalMap(av, &item); err != nil {
			return nil, fmt.Errorf("unmarshal request: %w", err)
		}
		req, err := itemToRequest(&item)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}

	slices.SortStableFunc(requests, func(a, b *ApprovalRequest) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return requests, nil
}

// parseDynamoDBTime parses a time string in RFC3339, in zone-less ISO 8601
// (as written by earlier agents), or as a Unix timestamp.
func parseDynamoDBTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02T15:04:05.999999999", s); err == nil {
		return t, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0), nil
	}
	return time.Time{}, fmt.Errorf("cannot parse time: %q", s)
}
