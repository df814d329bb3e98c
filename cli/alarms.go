package cli

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/byteness/travelgate/metrics"
)

// AlarmsSetupCommandInput contains the input for the alarms setup command.
type AlarmsSetupCommandInput struct {
	Namespace   string
	SNSTopicARN string
	Overwrite   bool
	DryRun      bool
	JSONOutput  bool

	// Alarms replaces the CloudWatch-backed client when set.
	Alarms *metrics.Alarms
}

// ConfigureAlarmsCommand sets up the alarms setup command.
func ConfigureAlarmsCommand(app *kingpin.Application, t *TravelCtl) {
	input := AlarmsSetupCommandInput{}

	alarmsCmd := app.Command("alarms", "CloudWatch alarms on travel metrics")
	cmd := alarmsCmd.Command("setup", "Create the standard alarms")

	cmd.Flag("namespace", "CloudWatch metrics namespace").
		Envar("TRAVEL_METRICS_NAMESPACE").
		Default(metrics.DefaultNamespace).
		StringVar(&input.Namespace)

	cmd.Flag("topic-arn", "SNS topic notified when an alarm fires").
		StringVar(&input.SNSTopicARN)

	cmd.Flag("overwrite", "Replace alarms that already exist").
		BoolVar(&input.Overwrite)

	cmd.Flag("dry-run", "Print the alarms without creating them").
		BoolVar(&input.DryRun)

	cmd.Flag("json", "Output in JSON format").
		BoolVar(&input.JSONOutput)

	cmd.Action(func(c *kingpin.ParseContext) error {
		err := AlarmsSetupCommand(context.Background(), t, input)
		app.FatalIfError(err, "alarms setup")
		return nil
	})
}

// AlarmsSetupCommand creates the default alarms that do not exist yet.
// Per-alarm failures are reported and make the command fail.
func AlarmsSetupCommand(ctx context.Context, t *TravelCtl, input AlarmsSetupCommandInput) error {
	configs := metrics.DefaultAlarms(input.Namespace)

	if input.DryRun {
		if input.JSONOutput {
			return t.printJSON(configs)
		}
		for _, c := range configs {
			fmt.Fprintf(t.Stdout, "%s: %s %s %v over %ds\n", c.Name, c.MetricName, c.ComparisonOp, c.Threshold, c.Period)
		}
		return nil
	}

	alarms := input.Alarms
	if alarms == nil {
		cfg, err := t.AWSConfig(ctx)
		if err != nil {
			return err
		}
		alarms = metrics.NewAlarms(cfg)
	}

	result, err := alarms.EnsureAlarms(ctx, configs, input.SNSTopicARN, input.Overwrite)
	if err != nil {
		return err
	}

	if input.JSONOutput {
		if err := t.printJSON(result); err != nil {
			return err
		}
	} else {
		for _, name := range result.Created {
			fmt.Fprintf(t.Stdout, "created  %s\n", name)
		}
		for _, name := range result.Skipped {
			fmt.Fprintf(t.Stdout, "exists   %s\n", name)
		}
		for _, msg := range result.Errors {
			fmt.Fprintf(t.Stderr, "error    %s\n", msg)
		}
	}

	if len(result.Errors) > 0 {
		return fmt.Errorf("%d alarms could not be created", len(result.Errors))
	}
	return nil
}
