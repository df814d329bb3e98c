package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/byteness/travelgate/policy"
	"github.com/byteness/travelgate/testutil"
)

func TestPolicyShowCommand_Default(t *testing.T) {
	tc := newTestCtl(t, false)

	if err := PolicyShowCommand(context.Background(), tc.TravelCtl, PolicyShowCommandInput{}); err != nil {
		t.Fatalf("PolicyShowCommand() error = %v", err)
	}
	if !strings.Contains(tc.stderr.String(), "built-in default") {
		t.Errorf("stderr = %q", tc.stderr.String())
	}

	// The printed document must round-trip through the parser.
	parsed, err := policy.ParsePolicy(tc.stdout.Bytes())
	if err != nil {
		t.Fatalf("printed policy does not parse: %v\n%s", err, tc.stdout.String())
	}
	if parsed.VPCostThreshold != policy.DefaultPolicy().VPCostThreshold {
		t.Errorf("VPCostThreshold = %v", parsed.VPCostThreshold)
	}
}

func TestPolicyShowCommand_FromParameter(t *testing.T) {
	tc := newTestCtl(t, false)
	tc.PolicyParameter = "/travel/policy"

	custom := policy.DefaultPolicy()
	custom.Version = "7"
	custom.DirectorDurationDays = 9
	loader := testutil.NewMockPolicyLoader()
	loader.Policies["/travel/policy"] = custom

	if err := PolicyShowCommand(context.Background(), tc.TravelCtl, PolicyShowCommandInput{Loader: loader}); err != nil {
		t.Fatalf("PolicyShowCommand() error = %v", err)
	}
	var doc map[string]any
	if err := yaml.Unmarshal(tc.stdout.Bytes(), &doc); err != nil {
		t.Fatal(err)
	}
	if doc["version"] != "7" || doc["director_duration_days"] != 9 {
		t.Errorf("doc = %v", doc)
	}
}

func TestPolicyShowCommand_NotFound(t *testing.T) {
	tc := newTestCtl(t, false)

	err := PolicyShowCommand(context.Background(), tc.TravelCtl, PolicyShowCommandInput{
		Parameter: "/missing",
		Loader:    testutil.NewMockPolicyLoader(),
	})
	if !errors.Is(err, policy.ErrPolicyNotFound) {
		t.Errorf("error = %v, want ErrPolicyNotFound", err)
	}
	if !strings.Contains(tc.stderr.String(), "/missing") {
		t.Errorf("stderr = %q", tc.stderr.String())
	}
}

func TestPolicyValidateCommand(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}
		return path
	}

	tests := []struct {
		name    string
		file    string
		wantErr string
	}{
		{"valid", write("ok.yaml", "version: \"2\"\nvp_cost_threshold: 8000\n"), ""},
		{"no version", write("nover.yaml", "vp_cost_threshold: 8000\n"), "missing version"},
		{"bad yaml", write("bad.yaml", "version: [\n"), "yaml"},
		{"missing file", filepath.Join(dir, "absent.yaml"), "failed to open"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := newTestCtl(t, false)
			err := PolicyValidateCommand(tc.TravelCtl, PolicyValidateCommandInput{File: tt.file})
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("error = %v", err)
				}
				if !strings.Contains(tc.stdout.String(), "Policy version 2 is valid") {
					t.Errorf("stdout = %q", tc.stdout.String())
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestPolicyValidateCommand_Stdin(t *testing.T) {
	tc := newTestCtl(t, false)
	err := PolicyValidateCommand(tc.TravelCtl, PolicyValidateCommandInput{
		File:  "-",
		Stdin: strings.NewReader("version: \"3\"\n"),
	})
	if err != nil {
		t.Fatalf("error = %v", err)
	}
}
