package employee

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	travelerrors "github.com/byteness/travelgate/errors"
)

// DefaultKeyAttribute is the partition key of the employee table.
const DefaultKeyAttribute = "emp_id"

// dynamoDBAPI defines the DynamoDB operations used by DynamoDBDirectory.
// This interface enables testing with mock implementations.
type dynamoDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// DynamoDBDirectory implements Directory over the HR employee table.
//
// Table schema assumptions (owned by the HR system):
//   - Partition key: emp_id (String), or the configured key attribute
//   - travel_budget_remaining stored as Number
type DynamoDBDirectory struct {
	client    dynamoDBAPI
	tableName string
	keyAttr   string
}

// NewDynamoDBDirectory creates a directory reading from tableName.
func NewDynamoDBDirectory(cfg aws.Config, tableName string) *DynamoDBDirectory {
	return newDynamoDBDirectoryWithClient(dynamodb.NewFromConfig(cfg), tableName)
}

// newDynamoDBDirectoryWithClient creates a DynamoDBDirectory with a custom client.
// This is primarily used for testing with mock clients.
func newDynamoDBDirectoryWithClient(client dynamoDBAPI, tableName string) *DynamoDBDirectory {
	return &DynamoDBDirectory{
		client:    client,
		tableName: tableName,
		keyAttr:   DefaultKeyAttribute,
	}
}

// WithKeyAttribute overrides the partition key attribute name.
func (d *DynamoDBDirectory) WithKeyAttribute(attr string) *DynamoDBDirectory {
	if attr != "" {
		d.keyAttr = attr
	}
	return d
}

// dynamoItem is the stored shape of an employee record.
type dynamoItem struct {
	ID                    string  `dynamodbav:"emp_id"`
	Name                  string  `dynamodbav:"name"`
	Department            string  `dynamodbav:"department"`
	Grade                 string  `dynamodbav:"grade"`
	ManagerID             string  `dynamodbav:"manager_id"`
	ApprovalLevel         string  `dynamodbav:"approval_level"`
	TravelBudgetRemaining float64 `dynamodbav:"travel_budget_remaining"`
	Nationality           string  `dynamodbav:"nationality"`
	PassportStatus        string  `dynamodbav:"passport_status"`
	PassportExpiry        string  `dynamodbav:"passport_expiry"`
	PreferredAirlines     string  `dynamodbav:"preferred_airlines"`
	DietaryRestrictions   string  `dynamodbav:"dietary_restrictions"`
	AccessibilityNeeds    string  `dynamodbav:"accessibility_needs"`
	EmergencyContact      string  `dynamodbav:"emergency_contact"`
}

func itemToEmployee(item *dynamoItem) *Employee {
	return &Employee{
		ID:                    item.ID,
		Name:                  item.Name,
		Department:            item.Department,
		Grade:                 Grade(item.Grade),
		ManagerID:             item.ManagerID,
		ApprovalLevel:         item.ApprovalLevel,
		TravelBudgetRemaining: item.TravelBudgetRemaining,
		Nationality:           item.Nationality,
		PassportStatus:        item.PassportStatus,
		PassportExpiry:        item.PassportExpiry,
		PreferredAirlines:     item.PreferredAirlines,
		DietaryRestrictions:   item.DietaryRestrictions,
		AccessibilityNeeds:    item.AccessibilityNeeds,
		EmergencyContact:      item.EmergencyContact,
	}
}

// Get retrieves an employee by ID. Returns ErrEmployeeNotFound if not exists.
func (d *DynamoDBDirectory) Get(ctx context.Context, id string) (*Employee, error) {
	output, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.tableName),
		Key: map[string]types.AttributeValue{
			d.keyAttr: &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return nil, travelerrors.WrapDynamoDBError(err, d.tableName, "GetItem")
	}

	if output.Item == nil {
		return nil, fmt.Errorf("%s: %w", id, ErrEmployeeNotFound)
	}

	var item dynamoItem
	if err := attributevalue.UnmarshalMap(output.Item, &item); err != nil {
		return nil, fmt.Errorf("unmarshal employee: %w", err)
	}
	if item.ID == "" {
		item.ID = id
	}

	return itemToEmployee(&item), nil
}
