// Package cli implements travelctl, the operator command line for travel
// approval requests, policy documents, audit logs and alarms.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kingpin/v2"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/charmbracelet/huh"
	isatty "github.com/mattn/go-isatty"
	"go.uber.org/zap"

	"github.com/byteness/travelgate/employee"
	"github.com/byteness/travelgate/logging"
	"github.com/byteness/travelgate/notification"
	"github.com/byteness/travelgate/policy"
	"github.com/byteness/travelgate/request"
	"github.com/byteness/travelgate/travel"
	"github.com/byteness/travelgate/workflow"
)

// errAborted is returned when the operator declines a confirmation prompt.
var errAborted = errors.New("aborted")

// ResultError reports a travel operation that completed with Status "Error".
type ResultError struct {
	Result travel.Result
}

func (e *ResultError) Error() string {
	return fmt.Sprintf("%s: %s", e.Result.Code, e.Result.Message)
}

// Prompter asks the operator questions on an interactive terminal.
type Prompter interface {
	Confirm(title, description string) (bool, error)
	Input(title string) (string, error)
}

type huhPrompter struct{}

func (huhPrompter) Confirm(title, description string) (bool, error) {
	var ok bool
	err := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(title).
			Description(description).
			Affirmative("Yes").
			Negative("No").
			Value(&ok),
	)).Run()
	return ok, err
}

func (huhPrompter) Input(title string) (string, error) {
	var v string
	err := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title(title).
			Value(&v),
	)).Run()
	return strings.TrimSpace(v), err
}

func isTerminal() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// TravelCtl holds shared state for all travelctl commands.
type TravelCtl struct {
	Debug           bool
	Region          string
	EmployeeTable   string
	ApprovalTable   string
	ApprovalIndex   string
	PolicyParameter string
	NotifyTopicARN  string
	Strict          bool

	Stdout   io.Writer
	Stderr   io.Writer
	Prompter Prompter

	// Interactive reports whether prompts may be shown.
	Interactive func() bool

	// Service replaces the DynamoDB-backed service when set.
	Service *travel.Service

	awsCfg *aws.Config
	notify *notification.NotifyStore
	log    *zap.Logger
}

// ConfigureGlobals registers the global flags. Table flags fall back to the
// same environment variables the Lambda reads.
func ConfigureGlobals(app *kingpin.Application) *TravelCtl {
	t := &TravelCtl{
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
		Prompter:    huhPrompter{},
		Interactive: isTerminal,
	}

	app.Flag("debug", "Show debugging output").
		BoolVar(&t.Debug)

	app.Flag("region", "AWS region").
		Envar("AWS_REGION").
		StringVar(&t.Region)

	app.Flag("employee-table", "DynamoDB table holding employee records").
		Envar("TRAVEL_EMPLOYEE_TABLE").
		StringVar(&t.EmployeeTable)

	app.Flag("approval-table", "DynamoDB table holding approval requests").
		Envar("TRAVEL_APPROVAL_TABLE").
		StringVar(&t.ApprovalTable)

	app.Flag("approval-index", "GSI on manager_id and status (scans when empty)").
		Envar("TRAVEL_APPROVAL_INDEX").
		StringVar(&t.ApprovalIndex)

	app.Flag("policy-parameter", "SSM parameter holding the travel policy YAML").
		Envar("TRAVEL_POLICY_PARAMETER").
		StringVar(&t.PolicyParameter)

	app.Flag("notify-topic", "SNS topic ARN for approval notifications").
		Envar("TRAVEL_NOTIFY_TOPIC_ARN").
		StringVar(&t.NotifyTopicARN)

	app.Flag("strict", "Reject decisions on requests that are no longer pending").
		Envar("TRAVEL_STRICT_TRANSITIONS").
		BoolVar(&t.Strict)

	return t
}

// Logger returns the operational logger, a development logger with --debug.
func (t *TravelCtl) Logger() *zap.Logger {
	if t.log == nil {
		t.log = zap.NewNop()
		if t.Debug {
			if l, err := zap.NewDevelopment(); err == nil {
				t.log = l
			}
		}
	}
	return t.log
}

// AWSConfig loads the AWS configuration once.
func (t *TravelCtl) AWSConfig(ctx context.Context) (aws.Config, error) {
	if t.awsCfg == nil {
		var opts []func(*awsconfig.LoadOptions) error
		if t.Region != "" {
			opts = append(opts, awsconfig.WithRegion(t.Region))
		}
		cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
		}
		t.awsCfg = &cfg
	}
	return *t.awsCfg, nil
}

// PolicyLoader returns the SSM loader when a policy parameter is set,
// otherwise the built-in policy.
func (t *TravelCtl) PolicyLoader(ctx context.Context) (policy.PolicyLoader, error) {
	if t.PolicyParameter == "" {
		return policy.StaticLoader{}, nil
	}
	cfg, err := t.AWSConfig(ctx)
	if err != nil {
		return nil, err
	}
	return policy.NewLoader(cfg), nil
}

func (t *TravelCtl) service(ctx context.Context) (*travel.Service, error) {
	if t.Service != nil {
		return t.Service, nil
	}
	if t.EmployeeTable == "" {
		return nil, errors.New("--employee-table (or TRAVEL_EMPLOYEE_TABLE) is required")
	}
	if t.ApprovalTable == "" {
		return nil, errors.New("--approval-table (or TRAVEL_APPROVAL_TABLE) is required")
	}

	awsCfg, err := t.AWSConfig(ctx)
	if err != nil {
		return nil, err
	}
	log := t.Logger()
	audit := logging.NewZapLogger(log)

	var notifier notification.Notifier
	if t.NotifyTopicARN != "" {
		notifier = notification.NewSNSNotifier(awsCfg, t.NotifyTopicARN)
	}
	t.notify = notification.NewNotifyStore(
		request.NewDynamoDBStore(awsCfg, t.ApprovalTable, t.ApprovalIndex), notifier, log)

	directory := employee.NewDynamoDBDirectory(awsCfg, t.EmployeeTable)
	wf, err := workflow.New(workflow.Config{
		Store:             t.notify,
		Directory:         directory,
		Logger:            audit,
		StrictTransitions: t.Strict,
	})
	if err != nil {
		return nil, err
	}

	loader, err := t.PolicyLoader(ctx)
	if err != nil {
		return nil, err
	}
	svc, err := travel.New(travel.Config{
		Directory:       directory,
		Workflow:        wf,
		Policy:          loader,
		PolicyParameter: t.PolicyParameter,
		Logger:          audit,
		Log:             log,
	})
	if err != nil {
		return nil, err
	}
	t.Service = svc
	return svc, nil
}

// wait blocks until queued notifications are delivered.
func (t *TravelCtl) wait() {
	if t.notify != nil {
		t.notify.Wait()
	}
}

func (t *TravelCtl) interactive() bool {
	return t.Interactive != nil && t.Interactive() && t.Prompter != nil
}

// printResult writes the Data of a successful Result as JSON on Stdout with
// its message on Stderr. A failed Result is reported on Stderr and returned
// as a *ResultError.
func (t *TravelCtl) printResult(r travel.Result) error {
	if !r.OK() {
		fmt.Fprintf(t.Stderr, "%s\n", r.Message)
		if r.Suggestion != "" {
			fmt.Fprintf(t.Stderr, "  %s\n", r.Suggestion)
		}
		return &ResultError{Result: r}
	}
	if r.Message != "" {
		fmt.Fprintln(t.Stderr, r.Message)
	}
	return t.printJSON(r.Data)
}

func (t *TravelCtl) printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output to JSON: %w", err)
	}
	fmt.Fprintln(t.Stdout, string(b))
	return nil
}
