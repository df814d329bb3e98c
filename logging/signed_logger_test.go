package logging

import (
	"bufio"
	"bytes"
	"encoding/json"
	"testing"
)

func TestSignedLogger_WritesVerifiableLines(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSignedLogger(&buf, &SignatureConfig{KeyID: "k1", SecretKey: testSecretKey})

	logger.LogDecision(DecisionLogEntry{Operation: OperationTrip, EmployeeID: "E001", Effect: EffectAllow})
	logger.LogApproval(ApprovalLogEntry{Event: "request.created", RequestID: "r-1", Actor: "E001"})

	scanner := bufio.NewScanner(&buf)
	lines := 0
	for scanner.Scan() {
		lines++
		signed, err := ParseSignedEntry(scanner.Bytes())
		if err != nil {
			t.Fatalf("line %d: %v", lines, err)
		}
		if ok, err := signed.Verify(testSecretKey); err != nil || !ok {
			t.Errorf("line %d Verify() = %v, %v", lines, ok, err)
		}
	}
	if lines != 2 {
		t.Errorf("got %d lines, want 2", lines)
	}
}

func TestSignedLogger_FallsBackToUnsigned(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSignedLogger(&buf, &SignatureConfig{KeyID: "k1", SecretKey: testShortKey})

	logger.LogApproval(ApprovalLogEntry{Event: "request.approved", RequestID: "r-9"})

	var decoded ApprovalLogEntry
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("fallback line is not an ApprovalLogEntry: %v", err)
	}
	if decoded.RequestID != "r-9" {
		t.Errorf("RequestID = %q, want r-9", decoded.RequestID)
	}
	if _, err := ParseSignedEntry(buf.Bytes()); err == nil {
		t.Error("fallback line should not parse as a signed entry")
	}
}
