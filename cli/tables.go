package cli

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/byteness/travelgate/infrastructure"
)

// TablesCreateCommandInput contains the input for the tables create command.
type TablesCreateCommandInput struct {
	Flights    string
	Hotels     string
	Bookings   string
	RateLimits string
	DryRun     bool
	JSONOutput bool

	// Provisioner replaces the DynamoDB-backed provisioner when set.
	Provisioner *infrastructure.TableProvisioner
}

// ConfigureTablesCommand sets up the tables create command. The employee
// and approval table names come from the global flags.
func ConfigureTablesCommand(app *kingpin.Application, t *TravelCtl) {
	input := TablesCreateCommandInput{}

	tablesCmd := app.Command("tables", "DynamoDB tables")
	cmd := tablesCmd.Command("create", "Create the travel tables that do not exist")

	cmd.Flag("flights-table", "Flight catalog table").
		Envar("TRAVEL_FLIGHTS_TABLE").
		StringVar(&input.Flights)

	cmd.Flag("hotels-table", "Hotel catalog table").
		Envar("TRAVEL_HOTELS_TABLE").
		StringVar(&input.Hotels)

	cmd.Flag("bookings-table", "Bookings table").
		Envar("TRAVEL_BOOKINGS_TABLE").
		StringVar(&input.Bookings)

	cmd.Flag("rate-limit-table", "Shared approval request throttle table").
		Envar("TRAVEL_RATE_LIMIT_TABLE").
		StringVar(&input.RateLimits)

	cmd.Flag("dry-run", "Print the table layouts without creating them").
		BoolVar(&input.DryRun)

	cmd.Flag("json", "Output in JSON format").
		BoolVar(&input.JSONOutput)

	cmd.Action(func(c *kingpin.ParseContext) error {
		err := TablesCreateCommand(context.Background(), t, input)
		app.FatalIfError(err, "tables create")
		return nil
	})
}

// TablesCreateCommand creates every named table that is missing.
func TablesCreateCommand(ctx context.Context, t *TravelCtl, input TablesCreateCommandInput) error {
	schemas := infrastructure.TableNames{
		Employees:  t.EmployeeTable,
		Approvals:  t.ApprovalTable,
		Flights:    input.Flights,
		Hotels:     input.Hotels,
		Bookings:   input.Bookings,
		RateLimits: input.RateLimits,
	}.Schemas()
	if len(schemas) == 0 {
		return fmt.Errorf("no table names given; set --employee-table, --approval-table or the per-table flags")
	}

	if input.DryRun {
		plans := make([]infrastructure.Plan, len(schemas))
		for i, s := range schemas {
			plans[i] = s.Plan()
		}
		if input.JSONOutput {
			return t.printJSON(plans)
		}
		for _, p := range plans {
			fmt.Fprintf(t.Stdout, "%s: key %s", p.TableName, p.PartitionKey)
			if p.SortKey != "" {
				fmt.Fprintf(t.Stdout, "/%s", p.SortKey)
			}
			for _, idx := range p.Indexes {
				fmt.Fprintf(t.Stdout, ", index %s", idx)
			}
			if p.TTLAttribute != "" {
				fmt.Fprintf(t.Stdout, ", ttl %s", p.TTLAttribute)
			}
			fmt.Fprintln(t.Stdout)
		}
		return nil
	}

	provisioner := input.Provisioner
	if provisioner == nil {
		cfg, err := t.AWSConfig(ctx)
		if err != nil {
			return err
		}
		provisioner = infrastructure.NewTableProvisioner(cfg)
	}

	results := provisioner.CreateAll(ctx, schemas)
	if input.JSONOutput {
		if err := t.printJSON(results); err != nil {
			return err
		}
	}

	var failed int
	for _, r := range results {
		switch r.Status {
		case infrastructure.StatusFailed:
			failed++
			fmt.Fprintf(t.Stderr, "error    %s: %s\n", r.TableName, r.Error)
		case infrastructure.StatusCreated:
			if !input.JSONOutput {
				fmt.Fprintf(t.Stdout, "created  %s\n", r.TableName)
			}
		default:
			if !input.JSONOutput {
				fmt.Fprintf(t.Stdout, "exists   %s\n", r.TableName)
			}
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d tables could not be created", failed)
	}
	return nil
}
