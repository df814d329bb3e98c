package cli

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/byteness/travelgate/travel"
)

// PendingCommandInput contains the input for the pending command.
type PendingCommandInput struct {
	ApproverID string
	JSONOutput bool
}

// ConfigurePendingCommand sets up the pending command with kingpin.
func ConfigurePendingCommand(app *kingpin.Application, t *TravelCtl) {
	input := PendingCommandInput{}

	cmd := app.Command("pending", "List requests awaiting an approver")

	cmd.Arg("approver-id", "Employee ID of the approver").
		Required().
		StringVar(&input.ApproverID)

	cmd.Flag("json", "Output in JSON format").
		BoolVar(&input.JSONOutput)

	cmd.Action(func(c *kingpin.ParseContext) error {
		err := PendingCommand(context.Background(), t, input)
		app.FatalIfError(err, "pending")
		return nil
	})
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// PendingCommand lists Pending requests whose manager is the approver.
func PendingCommand(ctx context.Context, t *TravelCtl, input PendingCommandInput) error {
	svc, err := t.service(ctx)
	if err != nil {
		return err
	}

	res := svc.ListPendingApprovals(ctx, input.ApproverID)
	if !res.OK() || input.JSONOutput {
		return t.printResult(res)
	}

	pending, _ := res.Data.(travel.PendingApprovals)
	if pending.Count == 0 {
		fmt.Fprintln(t.Stdout, dimStyle.Render("No pending approvals for "+input.ApproverID))
		return nil
	}
	fmt.Fprintln(t.Stdout, pendingTable(pending))
	return nil
}

func pendingTable(p travel.PendingApprovals) string {
	rows := make([][]string, 0, len(p.Requests))
	for _, req := range p.Requests {
		rows = append(rows, []string{
			req.ID,
			req.EmployeeID,
			req.RequestType,
			string(req.ApprovalLevel),
			req.CreatedAt.UTC().Format("2006-01-02 15:04"),
		})
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("REQUEST", "EMPLOYEE", "TYPE", "LEVEL", "CREATED").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	return fmt.Sprintf("%s\n%d pending for %s", tbl.String(), p.Count, p.ApproverID)
}
