package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/alecthomas/kingpin/v2"
)

// RequestCommandInput contains the input for the request command.
type RequestCommandInput struct {
	EmployeeID  string
	RequestType string
	Details     string
	DetailsFile string
}

// StatusCommandInput contains the input for the status command.
type StatusCommandInput struct {
	RequestID  string
	EmployeeID string
}

// ConfigureRequestCommand sets up the request command with kingpin.
func ConfigureRequestCommand(app *kingpin.Application, t *TravelCtl) {
	input := RequestCommandInput{}

	cmd := app.Command("request", "Open an approval request for an employee")

	cmd.Arg("emp-id", "Requesting employee").
		Required().
		StringVar(&input.EmployeeID)

	cmd.Flag("type", "Request type, e.g. flight, hotel, car").
		Short('t').
		Required().
		StringVar(&input.RequestType)

	cmd.Flag("details", "JSON details of the requested item").
		StringVar(&input.Details)

	cmd.Flag("details-file", "Read details from a JSON file").
		StringVar(&input.DetailsFile)

	cmd.Action(func(c *kingpin.ParseContext) error {
		err := RequestCommand(context.Background(), t, input)
		app.FatalIfError(err, "request")
		return nil
	})
}

// RequestCommand creates a Pending approval request and prints its summary.
func RequestCommand(ctx context.Context, t *TravelCtl, input RequestCommandInput) error {
	details := input.Details
	if input.DetailsFile != "" {
		if details != "" {
			return errors.New("use either --details or --details-file, not both")
		}
		b, err := os.ReadFile(input.DetailsFile)
		if err != nil {
			return fmt.Errorf("failed to read details file: %w", err)
		}
		details = string(b)
	}
	if details != "" && !json.Valid([]byte(details)) {
		return errors.New("details must be valid JSON")
	}

	svc, err := t.service(ctx)
	if err != nil {
		return err
	}
	defer t.wait()

	return t.printResult(svc.CreateApprovalRequest(ctx, input.EmployeeID, input.RequestType, details))
}

// ConfigureStatusCommand sets up the status command with kingpin.
func ConfigureStatusCommand(app *kingpin.Application, t *TravelCtl) {
	input := StatusCommandInput{}

	cmd := app.Command("status", "Show an approval request")

	cmd.Arg("request-id", "The request ID").
		Required().
		StringVar(&input.RequestID)

	cmd.Flag("emp", "Employee who opened the request").
		Short('e').
		Required().
		StringVar(&input.EmployeeID)

	cmd.Action(func(c *kingpin.ParseContext) error {
		err := StatusCommand(context.Background(), t, input)
		app.FatalIfError(err, "status")
		return nil
	})
}

// StatusCommand prints the approval request keyed by request and employee ID.
func StatusCommand(ctx context.Context, t *TravelCtl, input StatusCommandInput) error {
	svc, err := t.service(ctx)
	if err != nil {
		return err
	}
	return t.printResult(svc.GetApprovalStatus(ctx, input.RequestID, input.EmployeeID))
}
