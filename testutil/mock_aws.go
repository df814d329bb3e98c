package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

// ============================================================================
// MockSSMClient - SSM Parameter Store operations
// ============================================================================

// MockSSMClient implements policy.SSMAPI for testing.
// Parameters are served from an in-memory map unless GetParameterFunc is set.
type MockSSMClient struct {
	mu sync.Mutex

	// Configurable behavior function
	GetParameterFunc func(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)

	// Parameters maps parameter name to value.
	Parameters map[string]string

	// Call tracking
	GetParameterCalls []*ssm.GetParameterInput
}

// NewMockSSMClient creates a MockSSMClient serving the given parameters.
func NewMockSSMClient(params map[string]string) *MockSSMClient {
	if params == nil {
		params = make(map[string]string)
	}
	return &MockSSMClient{Parameters: params}
}

// GetParameter implements SSM GetParameter operation.
func (m *MockSSMClient) GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	m.mu.Lock()
	m.GetParameterCalls = append(m.GetParameterCalls, params)
	m.mu.Unlock()

	if m.GetParameterFunc != nil {
		return m.GetParameterFunc(ctx, params, optFns...)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	name := aws.ToString(params.Name)
	value, ok := m.Parameters[name]
	if !ok {
		return nil, &ssmtypes.ParameterNotFound{Message: aws.String("parameter " + name + " not found")}
	}
	return &ssm.GetParameterOutput{
		Parameter: &ssmtypes.Parameter{Name: aws.String(name), Value: aws.String(value), Version: 1},
	}, nil
}

// GetParameterCallCount returns the number of GetParameter calls made.
func (m *MockSSMClient) GetParameterCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.GetParameterCalls)
}

// ============================================================================
// MockCloudWatchClient - CloudWatch metrics
// ============================================================================

// MockCloudWatchClient implements metrics.CloudWatchAPI for testing.
type MockCloudWatchClient struct {
	mu sync.Mutex

	PutMetricDataFunc func(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
	PutMetricDataErr  error
	PutMetricAlarmErr error
	DescribeAlarmsErr error

	// ExistingAlarms are returned by DescribeAlarms when named in the input.
	ExistingAlarms map[string]bool

	PutMetricDataCalls  []*cloudwatch.PutMetricDataInput
	PutMetricAlarmCalls []*cloudwatch.PutMetricAlarmInput
}

// PutMetricAlarm records the alarm.
func (m *MockCloudWatchClient) PutMetricAlarm(ctx context.Context, params *cloudwatch.PutMetricAlarmInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricAlarmOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PutMetricAlarmCalls = append(m.PutMetricAlarmCalls, params)
	if m.PutMetricAlarmErr != nil {
		return nil, m.PutMetricAlarmErr
	}
	return &cloudwatch.PutMetricAlarmOutput{}, nil
}

// DescribeAlarms returns the requested alarms present in ExistingAlarms.
func (m *MockCloudWatchClient) DescribeAlarms(ctx context.Context, params *cloudwatch.DescribeAlarmsInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.DescribeAlarmsOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DescribeAlarmsErr != nil {
		return nil, m.DescribeAlarmsErr
	}
	out := &cloudwatch.DescribeAlarmsOutput{}
	for _, name := range params.AlarmNames {
		if m.ExistingAlarms[name] {
			out.MetricAlarms = append(out.MetricAlarms, cwtypes.MetricAlarm{AlarmName: aws.String(name)})
		}
	}
	return out, nil
}

// PutMetricData records the call.
func (m *MockCloudWatchClient) PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	m.mu.Lock()
	m.PutMetricDataCalls = append(m.PutMetricDataCalls, params)
	m.mu.Unlock()

	if m.PutMetricDataFunc != nil {
		return m.PutMetricDataFunc(ctx, params, optFns...)
	}
	if m.PutMetricDataErr != nil {
		return nil, m.PutMetricDataErr
	}
	return &cloudwatch.PutMetricDataOutput{}, nil
}

// Calls returns a snapshot of the recorded PutMetricData inputs.
func (m *MockCloudWatchClient) Calls() []*cloudwatch.PutMetricDataInput {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*cloudwatch.PutMetricDataInput(nil), m.PutMetricDataCalls...)
}

// ============================================================================
// MockSecretsManagerClient - Secrets Manager
// ============================================================================

// MockSecretsManagerClient serves secrets from an in-memory map.
type MockSecretsManagerClient struct {
	mu sync.Mutex

	GetSecretValueFunc func(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)

	// Secrets maps secret ID to SecretString.
	Secrets map[string]string

	GetSecretValueCalls []string
}

// NewMockSecretsManagerClient creates a client serving the given secrets.
func NewMockSecretsManagerClient(secrets map[string]string) *MockSecretsManagerClient {
	if secrets == nil {
		secrets = make(map[string]string)
	}
	return &MockSecretsManagerClient{Secrets: secrets}
}

// GetSecretValue returns the stored secret string.
func (m *MockSecretsManagerClient) GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	m.mu.Lock()
	m.GetSecretValueCalls = append(m.GetSecretValueCalls, aws.ToString(params.SecretId))
	m.mu.Unlock()

	if m.GetSecretValueFunc != nil {
		return m.GetSecretValueFunc(ctx, params, optFns...)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	id := aws.ToString(params.SecretId)
	value, ok := m.Secrets[id]
	if !ok {
		return nil, fmt.Errorf("ResourceNotFoundException: secret %s not found", id)
	}
	return &secretsmanager.GetSecretValueOutput{
		Name:         aws.String(id),
		SecretString: aws.String(value),
	}, nil
}

// CallCount returns the number of GetSecretValue calls made.
func (m *MockSecretsManagerClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.GetSecretValueCalls)
}

// ============================================================================
// MockDynamoDBTableClient - DynamoDB table management
// ============================================================================

// MockDynamoDBTableClient implements the table operations used by
// infrastructure.TableProvisioner. Tables in Existing describe as ACTIVE;
// created tables become ACTIVE immediately.
type MockDynamoDBTableClient struct {
	mu sync.Mutex

	Existing  map[string]bool
	CreateErr map[string]error

	CreateTableCalls      []*dynamodb.CreateTableInput
	UpdateTimeToLiveCalls []*dynamodb.UpdateTimeToLiveInput
}

// NewMockDynamoDBTableClient creates a client where the given tables exist.
func NewMockDynamoDBTableClient(existing ...string) *MockDynamoDBTableClient {
	m := &MockDynamoDBTableClient{Existing: make(map[string]bool), CreateErr: make(map[string]error)}
	for _, name := range existing {
		m.Existing[name] = true
	}
	return m
}

// DescribeTable reports existing tables as ACTIVE.
func (m *MockDynamoDBTableClient) DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	name := aws.ToString(params.TableName)
	if !m.Existing[name] {
		return nil, &dbtypes.ResourceNotFoundException{Message: aws.String("table " + name + " not found")}
	}
	return &dynamodb.DescribeTableOutput{Table: &dbtypes.TableDescription{
		TableName:   aws.String(name),
		TableStatus: dbtypes.TableStatusActive,
		TableArn:    aws.String("arn:aws:dynamodb:us-east-1:123456789012:table/" + name),
	}}, nil
}

// CreateTable records the call and marks the table as existing.
func (m *MockDynamoDBTableClient) CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateTableCalls = append(m.CreateTableCalls, params)
	name := aws.ToString(params.TableName)
	if err := m.CreateErr[name]; err != nil {
		return nil, err
	}
	m.Existing[name] = true
	return &dynamodb.CreateTableOutput{}, nil
}

// UpdateTimeToLive records the call.
func (m *MockDynamoDBTableClient) UpdateTimeToLive(ctx context.Context, params *dynamodb.UpdateTimeToLiveInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateTimeToLiveOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateTimeToLiveCalls = append(m.UpdateTimeToLiveCalls, params)
	return &dynamodb.UpdateTimeToLiveOutput{}, nil
}
