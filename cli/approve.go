package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/alecthomas/kingpin/v2"

	"github.com/byteness/travelgate/request"
	"github.com/byteness/travelgate/travel"
)

// DecisionCommandInput contains the input for the approve and reject commands.
type DecisionCommandInput struct {
	RequestID  string
	EmployeeID string
	ApproverID string
	Reason     string

	// Yes skips the confirmation prompt.
	Yes bool
}

func configureDecisionFlags(cmd *kingpin.CmdClause, input *DecisionCommandInput) {
	cmd.Arg("request-id", "The request ID").
		Required().
		StringVar(&input.RequestID)

	cmd.Flag("emp", "Employee who opened the request").
		Short('e').
		Required().
		StringVar(&input.EmployeeID)

	cmd.Flag("approver", "Employee ID of the approver").
		Short('a').
		Required().
		StringVar(&input.ApproverID)

	cmd.Flag("yes", "Skip the confirmation prompt").
		Short('y').
		BoolVar(&input.Yes)
}

// ConfigureApproveCommand sets up the approve command with kingpin.
func ConfigureApproveCommand(app *kingpin.Application, t *TravelCtl) {
	input := DecisionCommandInput{}

	cmd := app.Command("approve", "Approve a pending travel request")
	configureDecisionFlags(cmd, &input)

	cmd.Action(func(c *kingpin.ParseContext) error {
		err := ApproveCommand(context.Background(), t, input)
		app.FatalIfError(err, "approve")
		return nil
	})
}

// ConfigureRejectCommand sets up the reject command with kingpin.
func ConfigureRejectCommand(app *kingpin.Application, t *TravelCtl) {
	input := DecisionCommandInput{}

	cmd := app.Command("reject", "Reject a pending travel request")
	configureDecisionFlags(cmd, &input)

	cmd.Flag("reason", "Reason shown to the requester").
		Short('r').
		StringVar(&input.Reason)

	cmd.Action(func(c *kingpin.ParseContext) error {
		err := RejectCommand(context.Background(), t, input)
		app.FatalIfError(err, "reject")
		return nil
	})
}

// ApproveCommand approves a request. On a terminal the operator confirms
// first unless --yes is given.
func ApproveCommand(ctx context.Context, t *TravelCtl, input DecisionCommandInput) error {
	svc, err := t.service(ctx)
	if err != nil {
		return err
	}
	defer t.wait()

	if err := t.confirm(ctx, svc, "Approve", input); err != nil {
		return err
	}
	return t.printResult(svc.ApproveRequest(ctx, input.RequestID, input.EmployeeID, input.ApproverID))
}

// RejectCommand rejects a request. On a terminal a missing reason is asked
// for, then the operator confirms unless --yes is given.
func RejectCommand(ctx context.Context, t *TravelCtl, input DecisionCommandInput) error {
	svc, err := t.service(ctx)
	if err != nil {
		return err
	}
	defer t.wait()

	if input.Reason == "" && !input.Yes && t.interactive() {
		input.Reason, err = t.Prompter.Input("Reason for rejection (optional)")
		if err != nil {
			return err
		}
	}
	if err := t.confirm(ctx, svc, "Reject", input); err != nil {
		return err
	}
	return t.printResult(svc.RejectRequest(ctx, input.RequestID, input.EmployeeID, input.ApproverID, input.Reason))
}

// confirm shows the request and asks before a decision. It is a no-op with
// --yes or off a terminal.
func (t *TravelCtl) confirm(ctx context.Context, svc *travel.Service, verb string, input DecisionCommandInput) error {
	if input.Yes || !t.interactive() {
		return nil
	}

	current := svc.GetApprovalStatus(ctx, input.RequestID, input.EmployeeID)
	if !current.OK() {
		return t.printResult(current)
	}
	req, _ := current.Data.(*request.ApprovalRequest)

	ok, err := t.Prompter.Confirm(fmt.Sprintf("%s request %s?", verb, input.RequestID), describeRequest(req))
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(t.Stderr, "Aborted")
		return errAborted
	}
	return nil
}

func describeRequest(req *request.ApprovalRequest) string {
	if req == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Employee: %s\n", req.EmployeeID)
	fmt.Fprintf(&b, "Type:     %s\n", req.RequestType)
	fmt.Fprintf(&b, "Level:    %s\n", req.ApprovalLevel)
	fmt.Fprintf(&b, "Status:   %s", req.Status)
	if req.Details != "" {
		fmt.Fprintf(&b, "\nDetails:  %s", req.Details)
	}
	return b.String()
}
