package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"gopkg.in/yaml.v3"

	"github.com/byteness/travelgate/policy"
)

// PolicyShowCommandInput contains the input for policy show.
type PolicyShowCommandInput struct {
	// Parameter overrides the global --policy-parameter.
	Parameter string

	// Loader replaces the SSM loader when set.
	Loader policy.PolicyLoader
}

// PolicyValidateCommandInput contains the input for policy validate.
type PolicyValidateCommandInput struct {
	File string // use - for stdin

	Stdin io.Reader
}

// ConfigurePolicyCommand sets up the policy command with its subcommands.
func ConfigurePolicyCommand(app *kingpin.Application, t *TravelCtl) {
	policyCmd := app.Command("policy", "Travel policy commands")

	showInput := PolicyShowCommandInput{}
	show := policyCmd.Command("show", "Print the effective travel policy as YAML")
	show.Flag("parameter", "SSM parameter to read instead of --policy-parameter").
		StringVar(&showInput.Parameter)
	show.Action(func(c *kingpin.ParseContext) error {
		err := PolicyShowCommand(context.Background(), t, showInput)
		app.FatalIfError(err, "policy show")
		return nil
	})

	validateInput := PolicyValidateCommandInput{}
	validate := policyCmd.Command("validate", "Check a policy YAML document before publishing it")
	validate.Arg("file", "Path to policy YAML file (use - for stdin)").
		Required().
		StringVar(&validateInput.File)
	validate.Action(func(c *kingpin.ParseContext) error {
		err := PolicyValidateCommand(t, validateInput)
		app.FatalIfError(err, "policy validate")
		return nil
	})
}

// PolicyShowCommand prints the policy the Lambda would evaluate with. With no
// parameter configured that is the built-in default.
func PolicyShowCommand(ctx context.Context, t *TravelCtl, input PolicyShowCommandInput) error {
	parameter := input.Parameter
	if parameter == "" {
		parameter = t.PolicyParameter
	}

	loader := input.Loader
	if loader == nil {
		if parameter == "" {
			loader = policy.StaticLoader{}
		} else {
			cfg, err := t.AWSConfig(ctx)
			if err != nil {
				return err
			}
			loader = policy.NewLoader(cfg)
		}
	}

	pol, err := loader.Load(ctx, parameter)
	if err != nil {
		if errors.Is(err, policy.ErrPolicyNotFound) {
			fmt.Fprintf(t.Stderr, "Policy not found at %s\n", parameter)
			fmt.Fprintln(t.Stderr, "  Verify the SSM parameter exists and you have ssm:GetParameter permission")
		}
		return err
	}

	if parameter == "" {
		fmt.Fprintln(t.Stderr, "# built-in default policy")
	}
	out, err := yaml.Marshal(pol)
	if err != nil {
		return fmt.Errorf("failed to marshal policy: %w", err)
	}
	_, err = t.Stdout.Write(out)
	return err
}

// PolicyValidateCommand parses a policy document and reports the first problem.
func PolicyValidateCommand(t *TravelCtl, input PolicyValidateCommandInput) error {
	var r io.Reader
	if input.File == "-" {
		r = input.Stdin
		if r == nil {
			r = os.Stdin
		}
	} else {
		f, err := os.Open(input.File)
		if err != nil {
			return fmt.Errorf("failed to open file: %w", err)
		}
		defer f.Close()
		r = f
	}

	pol, err := policy.ParsePolicyFromReader(r)
	if err != nil {
		return fmt.Errorf("invalid policy: %w", err)
	}
	fmt.Fprintf(t.Stdout, "Policy version %s is valid\n", pol.Version)
	return nil
}
