package cli

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/byteness/travelgate/travel"
)

func TestPendingCommand_Table(t *testing.T) {
	tc := newTestCtl(t, false)
	id := tc.createRequest(t)

	if err := PendingCommand(context.Background(), tc.TravelCtl, PendingCommandInput{ApproverID: "M001"}); err != nil {
		t.Fatalf("PendingCommand() error = %v", err)
	}
	out := tc.stdout.String()
	for _, want := range []string{"REQUEST", "EMPLOYEE", id, "E001", "flight", "Manager", "1 pending for M001"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}

func TestPendingCommand_Empty(t *testing.T) {
	tc := newTestCtl(t, false)

	if err := PendingCommand(context.Background(), tc.TravelCtl, PendingCommandInput{ApproverID: "D001"}); err != nil {
		t.Fatalf("PendingCommand() error = %v", err)
	}
	if !strings.Contains(tc.stdout.String(), "No pending approvals for D001") {
		t.Errorf("stdout = %q", tc.stdout.String())
	}
}

func TestPendingCommand_JSON(t *testing.T) {
	tc := newTestCtl(t, false)
	tc.createRequest(t)
	tc.createRequest(t)

	if err := PendingCommand(context.Background(), tc.TravelCtl, PendingCommandInput{ApproverID: "M001", JSONOutput: true}); err != nil {
		t.Fatalf("PendingCommand() error = %v", err)
	}
	var pending travel.PendingApprovals
	if err := json.Unmarshal(tc.stdout.Bytes(), &pending); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, tc.stdout.String())
	}
	if pending.Count != 2 || pending.ApproverID != "M001" {
		t.Errorf("pending = %+v", pending)
	}
}

func TestPendingCommand_MissingApprover(t *testing.T) {
	tc := newTestCtl(t, false)

	err := PendingCommand(context.Background(), tc.TravelCtl, PendingCommandInput{})
	if resultCode(err) == "" {
		t.Errorf("error = %v, want a ResultError", err)
	}
}
