package cli

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/byteness/travelgate/infrastructure"
	"github.com/byteness/travelgate/testutil"
)

func TestTablesCreateCommand(t *testing.T) {
	tc := newTestCtl(t, false)
	tc.EmployeeTable = "employees"
	tc.ApprovalTable = "approvals"
	client := testutil.NewMockDynamoDBTableClient("employees")

	err := TablesCreateCommand(context.Background(), tc.TravelCtl, TablesCreateCommandInput{
		RateLimits:  "limits",
		Provisioner: infrastructure.NewTableProvisionerWithClient(client),
	})
	if err != nil {
		t.Fatalf("TablesCreateCommand() error = %v", err)
	}

	if len(client.CreateTableCalls) != 2 {
		t.Fatalf("created %d tables, want 2", len(client.CreateTableCalls))
	}
	if len(client.UpdateTimeToLiveCalls) != 1 || aws.ToString(client.UpdateTimeToLiveCalls[0].TableName) != "limits" {
		t.Errorf("ttl calls = %+v", client.UpdateTimeToLiveCalls)
	}
	out := tc.stdout.String()
	for _, want := range []string{"exists   employees", "created  approvals", "created  limits"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestTablesCreateCommand_Failure(t *testing.T) {
	tc := newTestCtl(t, false)
	tc.ApprovalTable = "approvals"
	client := testutil.NewMockDynamoDBTableClient()
	client.CreateErr["approvals"] = errors.New("AccessDeniedException: not allowed")

	err := TablesCreateCommand(context.Background(), tc.TravelCtl, TablesCreateCommandInput{
		Provisioner: infrastructure.NewTableProvisionerWithClient(client),
		JSONOutput:  true,
	})
	if err == nil || !strings.Contains(err.Error(), "1 tables could not be created") {
		t.Errorf("error = %v", err)
	}
	var results []infrastructure.ProvisionResult
	if err := json.Unmarshal(tc.stdout.Bytes(), &results); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if len(results) != 1 || results[0].Status != infrastructure.StatusFailed {
		t.Errorf("results = %+v", results)
	}
}

func TestTablesCreateCommand_DryRun(t *testing.T) {
	tc := newTestCtl(t, false)
	tc.ApprovalTable = "approvals"

	err := TablesCreateCommand(context.Background(), tc.TravelCtl, TablesCreateCommandInput{
		Bookings: "bookings",
		DryRun:   true,
	})
	if err != nil {
		t.Fatal(err)
	}
	out := tc.stdout.String()
	if !strings.Contains(out, "approvals: key request_id/emp_id, index gsi-manager-status") {
		t.Errorf("output:\n%s", out)
	}
	if !strings.Contains(out, "bookings: key booking_id") {
		t.Errorf("output:\n%s", out)
	}
}

func TestTablesCreateCommand_NoTables(t *testing.T) {
	tc := newTestCtl(t, false)
	if err := TablesCreateCommand(context.Background(), tc.TravelCtl, TablesCreateCommandInput{}); err == nil {
		t.Error("expected an error without table names")
	}
}
