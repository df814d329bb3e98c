package policy

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	travelerrors "github.com/byteness/travelgate/errors"
)

// ErrPolicyNotFound is returned when the requested policy parameter
// does not exist in SSM Parameter Store.
var ErrPolicyNotFound = errors.New("policy not found")

// PolicyLoader loads travel policies from a source.
type PolicyLoader interface {
	Load(ctx context.Context, parameterName string) (*TravelPolicy, error)
}

// SSMAPI defines the SSM operations used by Loader.
// This interface enables testing with mock implementations.
type SSMAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Loader fetches travel policies from AWS SSM Parameter Store.
type Loader struct {
	client SSMAPI
}

// NewLoader creates a new Loader using the provided AWS configuration.
func NewLoader(cfg aws.Config) *Loader {
	return &Loader{
		client: ssm.NewFromConfig(cfg),
	}
}

// NewLoaderWithClient creates a Loader with a custom SSM client.
// This is primarily used for testing with mock clients.
func NewLoaderWithClient(client SSMAPI) *Loader {
	return &Loader{
		client: client,
	}
}

// Load fetches a policy from SSM Parameter Store by parameter name.
// It returns ErrPolicyNotFound (wrapped) if the parameter does not exist.
// The parameter is fetched with decryption enabled to support SecureString parameters.
func (l *Loader) Load(ctx context.Context, parameterName string) (*TravelPolicy, error) {
	output, err := l.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(parameterName),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		var notFound *types.ParameterNotFound
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("%s: %w", parameterName, ErrPolicyNotFound)
		}
		return nil, travelerrors.WrapSSMError(err, parameterName)
	}

	if output.Parameter == nil || output.Parameter.Value == nil {
		return nil, fmt.Errorf("%s: empty parameter value", parameterName)
	}

	policy, err := ParsePolicy([]byte(*output.Parameter.Value))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", parameterName, err)
	}
	return policy, nil
}

// StaticLoader serves one fixed policy regardless of parameter name.
// It backs deployments that run without an SSM policy parameter.
type StaticLoader struct {
	Policy *TravelPolicy
}

// Load returns the static policy, or DefaultPolicy when none is set.
func (s StaticLoader) Load(ctx context.Context, parameterName string) (*TravelPolicy, error) {
	if s.Policy == nil {
		return DefaultPolicy(), nil
	}
	return s.Policy, nil
}
