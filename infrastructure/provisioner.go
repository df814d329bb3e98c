package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	travelerrors "github.com/byteness/travelgate/errors"
)

// ProvisionStatus is the outcome for one table.
type ProvisionStatus string

const (
	StatusCreated ProvisionStatus = "CREATED"
	StatusExists  ProvisionStatus = "EXISTS"
	StatusFailed  ProvisionStatus = "FAILED"
)

const statusNotFound = "NOT_FOUND"

// Polling bounds while a table becomes ACTIVE.
const (
	initialBackoff = 1 * time.Second
	maxBackoff     = 30 * time.Second
	waitTimeout    = 5 * time.Minute
)

type dynamoDBAPI interface {
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	UpdateTimeToLive(ctx context.Context, params *dynamodb.UpdateTimeToLiveInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateTimeToLiveOutput, error)
}

// TableProvisioner creates tables idempotently.
type TableProvisioner struct {
	client dynamoDBAPI

	// wait sleeps between status polls; replaced in tests.
	wait func(ctx context.Context, d time.Duration) error
}

// ProvisionResult reports what happened to one table.
type ProvisionResult struct {
	TableName string          `json:"table_name"`
	Status    ProvisionStatus `json:"status"`
	ARN       string          `json:"arn,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// NewTableProvisioner creates a provisioner from an AWS config.
func NewTableProvisioner(cfg aws.Config) *TableProvisioner {
	return NewTableProvisionerWithClient(dynamodb.NewFromConfig(cfg))
}

// NewTableProvisionerWithClient creates a provisioner with a custom client.
func NewTableProvisionerWithClient(client dynamoDBAPI) *TableProvisioner {
	return &TableProvisioner{client: client, wait: sleep}
}

func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// CreateAll provisions each schema in order. Failures are recorded per
// table and do not stop the others.
func (p *TableProvisioner) CreateAll(ctx context.Context, schemas []TableSchema) []ProvisionResult {
	results := make([]ProvisionResult, 0, len(schemas))
	for _, s := range schemas {
		r, err := p.Create(ctx, s)
		if err != nil {
			r = &ProvisionResult{TableName: s.TableName, Status: StatusFailed, Error: err.Error()}
		}
		results = append(results, *r)
	}
	return results
}

// Create provisions a table from schema. An ACTIVE table is left alone;
// a table still being created is waited for. TTL is enabled once the new
// table is ACTIVE.
func (p *TableProvisioner) Create(ctx context.Context, schema TableSchema) (*ProvisionResult, error) {
	if err := schema.Validate(); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}

	status, arn, err := p.tableStatus(ctx, schema.TableName)
	if err != nil {
		return nil, err
	}

	switch status {
	case string(types.TableStatusActive):
		return &ProvisionResult{TableName: schema.TableName, Status: StatusExists, ARN: arn}, nil
	case string(types.TableStatusCreating), string(types.TableStatusUpdating):
		return p.existing(ctx, schema.TableName), nil
	case statusNotFound:
	default:
		return failed(schema.TableName, fmt.Errorf("table exists with unexpected status: %s", status)), nil
	}

	out, err := p.client.CreateTable(ctx, createTableInput(schema))
	if err != nil {
		var inUse *types.ResourceInUseException
		if errors.As(err, &inUse) {
			// Created concurrently by someone else.
			return p.existing(ctx, schema.TableName), nil
		}
		return failed(schema.TableName, travelerrors.WrapDynamoDBError(err, schema.TableName, "CreateTable")), nil
	}

	arn, err = p.waitForActive(ctx, schema.TableName)
	if err != nil {
		return failed(schema.TableName, err), nil
	}
	if arn == "" && out.TableDescription != nil {
		arn = aws.ToString(out.TableDescription.TableArn)
	}

	if schema.TTLAttribute != "" {
		_, err := p.client.UpdateTimeToLive(ctx, &dynamodb.UpdateTimeToLiveInput{
			TableName: aws.String(schema.TableName),
			TimeToLiveSpecification: &types.TimeToLiveSpecification{
				Enabled:       aws.Bool(true),
				AttributeName: aws.String(schema.TTLAttribute),
			},
		})
		if err != nil {
			r := failed(schema.TableName, fmt.Errorf("table created but TTL configuration failed: %w",
				travelerrors.WrapDynamoDBError(err, schema.TableName, "UpdateTimeToLive")))
			r.ARN = arn
			return r, nil
		}
	}

	return &ProvisionResult{TableName: schema.TableName, Status: StatusCreated, ARN: arn}, nil
}

func (p *TableProvisioner) existing(ctx context.Context, tableName string) *ProvisionResult {
	arn, err := p.waitForActive(ctx, tableName)
	if err != nil {
		return failed(tableName, err)
	}
	return &ProvisionResult{TableName: tableName, Status: StatusExists, ARN: arn}
}

func failed(tableName string, err error) *ProvisionResult {
	return &ProvisionResult{TableName: tableName, Status: StatusFailed, Error: err.Error()}
}

// tableStatus returns the table status and ARN, or NOT_FOUND.
func (p *TableProvisioner) tableStatus(ctx context.Context, tableName string) (string, string, error) {
	out, err := p.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(tableName)})
	if err != nil {
		var rnf *types.ResourceNotFoundException
		if errors.As(err, &rnf) {
			return statusNotFound, "", nil
		}
		return "", "", travelerrors.WrapDynamoDBError(err, tableName, "DescribeTable")
	}
	if out.Table == nil {
		return statusNotFound, "", nil
	}
	return string(out.Table.TableStatus), aws.ToString(out.Table.TableArn), nil
}

// waitForActive polls with exponential backoff until the table is ACTIVE.
func (p *TableProvisioner) waitForActive(ctx context.Context, tableName string) (string, error) {
	backoff := initialBackoff
	var waited time.Duration

	for {
		status, arn, err := p.tableStatus(ctx, tableName)
		if err != nil {
			return "", err
		}
		switch status {
		case string(types.TableStatusActive):
			return arn, nil
		case statusNotFound, string(types.TableStatusDeleting):
			return "", fmt.Errorf("table %s is %s", tableName, status)
		}

		if waited >= waitTimeout {
			return "", fmt.Errorf("timeout waiting for table %s to become ACTIVE", tableName)
		}
		if err := p.wait(ctx, backoff); err != nil {
			return "", err
		}
		waited += backoff
		backoff = min(backoff*2, maxBackoff)
	}
}

// createTableInput converts a schema into an on-demand CreateTableInput.
func createTableInput(schema TableSchema) *dynamodb.CreateTableInput {
	var attrs []types.AttributeDefinition
	seen := make(map[string]bool)
	define := func(k KeyAttribute) {
		if !seen[k.Name] {
			seen[k.Name] = true
			attrs = append(attrs, types.AttributeDefinition{
				AttributeName: aws.String(k.Name),
				AttributeType: types.ScalarAttributeType(k.Type),
			})
		}
	}
	keySchema := func(pk KeyAttribute, sk *KeyAttribute) []types.KeySchemaElement {
		define(pk)
		ks := []types.KeySchemaElement{{AttributeName: aws.String(pk.Name), KeyType: types.KeyTypeHash}}
		if sk != nil {
			define(*sk)
			ks = append(ks, types.KeySchemaElement{AttributeName: aws.String(sk.Name), KeyType: types.KeyTypeRange})
		}
		return ks
	}

	input := &dynamodb.CreateTableInput{
		TableName:   aws.String(schema.TableName),
		KeySchema:   keySchema(schema.PartitionKey, schema.SortKey),
		BillingMode: types.BillingModePayPerRequest,
	}
	for _, gsi := range schema.Indexes {
		input.GlobalSecondaryIndexes = append(input.GlobalSecondaryIndexes, types.GlobalSecondaryIndex{
			IndexName:  aws.String(gsi.IndexName),
			KeySchema:  keySchema(gsi.PartitionKey, gsi.SortKey),
			Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
		})
	}
	input.AttributeDefinitions = attrs
	return input
}
