package infrastructure

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/byteness/travelgate/request"
)

func TestTableSchema_Validate(t *testing.T) {
	bad := KeyAttribute{Name: "x", Type: "B"}
	tests := []struct {
		name    string
		schema  TableSchema
		wantErr string
	}{
		{"approval table", ApprovalTableSchema("approvals"), ""},
		{"rate limit table", RateLimitTableSchema("limits"), ""},
		{"no name", EmployeeTableSchema(""), "table name is required"},
		{"no partition key", TableSchema{TableName: "t"}, "partition key"},
		{"bad sort key", TableSchema{TableName: "t", PartitionKey: stringKey("id"), SortKey: &bad}, "sort key"},
		{"unnamed index", TableSchema{TableName: "t", PartitionKey: stringKey("id"), Indexes: []GSISchema{{PartitionKey: stringKey("a")}}}, "index name"},
		{"bad index key", TableSchema{TableName: "t", PartitionKey: stringKey("id"), Indexes: []GSISchema{{IndexName: "g", PartitionKey: bad}}}, `GSI "g"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.schema.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestApprovalTableSchema_MatchesStore(t *testing.T) {
	got := ApprovalTableSchema("approvals").Plan()
	want := Plan{
		TableName:    "approvals",
		PartitionKey: "request_id",
		SortKey:      "emp_id",
		Indexes:      []string{request.GSIManagerStatus},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Plan() mismatch (-want +got):\n%s", diff)
	}
}

func TestTableNames_Schemas(t *testing.T) {
	names := TableNames{Employees: "employees", Approvals: "approvals", RateLimits: "limits"}

	var got []string
	for _, s := range names.Schemas() {
		got = append(got, s.TableName+":"+s.PartitionKey.Name)
	}
	want := []string{"employees:emp_id", "approvals:request_id", "limits:pk"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Schemas() mismatch (-want +got):\n%s", diff)
	}

	if len(TableNames{}.Schemas()) != 0 {
		t.Error("no names should give no schemas")
	}
}
