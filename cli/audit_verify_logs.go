package cli

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kingpin/v2"
	"github.com/charmbracelet/lipgloss"

	"github.com/byteness/travelgate/logging"
)

// errVerificationFailed is returned when any line fails verification.
var errVerificationFailed = errors.New("verification failed")

// AuditVerifyLogsInput contains the input for the audit verify-logs command.
type AuditVerifyLogsInput struct {
	File       string // use - for stdin
	Key        string // hex
	KeyFile    string
	JSONOutput bool

	Stdin io.Reader
}

// VerifyLogsResult contains the results of log verification.
type VerifyLogsResult struct {
	FilePath    string             `json:"file_path"`
	TotalLines  int                `json:"total_lines"`
	VerifiedOK  int                `json:"verified_ok"`
	Decisions   int                `json:"decisions"`
	Approvals   int                `json:"approvals"`
	InvalidSig  int                `json:"invalid_sig"`
	ParseErrors int                `json:"parse_errors"`
	Failures    []VerifyLogFailure `json:"failures,omitempty"`
}

// VerifyLogFailure represents a single verification failure.
type VerifyLogFailure struct {
	Line    int    `json:"line"`
	Type    string `json:"type"` // "invalid_signature" or "parse_error"
	Message string `json:"message"`
}

// Failed reports whether any line failed to verify.
func (r *VerifyLogsResult) Failed() bool {
	return r.InvalidSig > 0 || r.ParseErrors > 0
}

func (r *VerifyLogsResult) fail(line int, kind, msg string) {
	if kind == "invalid_signature" {
		r.InvalidSig++
	} else {
		r.ParseErrors++
	}
	if len(r.Failures) < maxDetailedFailures {
		r.Failures = append(r.Failures, VerifyLogFailure{Line: line, Type: kind, Message: msg})
	}
}

const maxDetailedFailures = 10

var (
	passStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	failStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
)

// ConfigureAuditVerifyLogsCommand sets up the audit verify-logs command.
func ConfigureAuditVerifyLogsCommand(app *kingpin.Application, t *TravelCtl) {
	auditCmd := app.GetCommand("audit")
	if auditCmd == nil {
		auditCmd = app.Command("audit", "Audit log commands")
	}

	input := AuditVerifyLogsInput{}

	cmd := auditCmd.Command("verify-logs", "Verify HMAC signatures in signed audit logs")

	cmd.Arg("file", "Path to log file (use - for stdin)").
		Required().
		StringVar(&input.File)

	cmd.Flag("key", "Hex-encoded HMAC key (64 chars for 32 bytes)").
		Envar("TRAVEL_AUDIT_SIGNING_KEY").
		StringVar(&input.Key)

	cmd.Flag("key-file", "Path to file containing hex-encoded key").
		StringVar(&input.KeyFile)

	cmd.Flag("json", "Output in JSON format").
		BoolVar(&input.JSONOutput)

	cmd.Action(func(c *kingpin.ParseContext) error {
		err := AuditVerifyLogsCommand(t, input)
		if errors.Is(err, errVerificationFailed) {
			os.Exit(1)
		}
		app.FatalIfError(err, "audit verify-logs")
		return nil
	})
}

// AuditVerifyLogsCommand verifies every signed entry in a log file. It
// returns errVerificationFailed (wrapped) when any line fails.
func AuditVerifyLogsCommand(t *TravelCtl, input AuditVerifyLogsInput) error {
	key, err := loadVerifyKey(input.Key, input.KeyFile)
	if err != nil {
		return err
	}
	if len(key) < logging.MinKeyLength {
		return fmt.Errorf("key must be at least %d bytes (%d hex chars), got %d bytes",
			logging.MinKeyLength, logging.MinKeyLength*2, len(key))
	}

	var reader io.Reader
	filePath := input.File
	if input.File == "-" {
		reader = input.Stdin
		if reader == nil {
			reader = os.Stdin
		}
		filePath = "<stdin>"
	} else {
		f, err := os.Open(input.File)
		if err != nil {
			return fmt.Errorf("failed to open file: %w", err)
		}
		defer f.Close()
		reader = f
	}

	result, err := verifyLogFile(reader, key, filePath)
	if err != nil {
		return err
	}

	if input.JSONOutput {
		if err := t.printJSON(result); err != nil {
			return err
		}
	} else {
		writeVerifyResults(t.Stdout, result)
	}

	if result.Failed() {
		return fmt.Errorf("%w: %d invalid signatures, %d parse errors",
			errVerificationFailed, result.InvalidSig, result.ParseErrors)
	}
	return nil
}

// loadVerifyKey decodes the key from the flag, or from the file when the
// flag is empty.
func loadVerifyKey(keyHex, keyFile string) ([]byte, error) {
	if keyHex == "" && keyFile == "" {
		return nil, errors.New("either --key or --key-file is required")
	}
	if keyHex == "" {
		data, err := os.ReadFile(keyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read key file: %w", err)
		}
		keyHex = strings.Join(strings.Fields(string(data)), "")
	}

	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid hex key: %w", err)
	}
	return key, nil
}

// entryKind tells decision entries from approval entries.
type entryKind struct {
	Operation string `json:"operation"`
	Event     string `json:"event"`
}

func verifyLogFile(reader io.Reader, key []byte, filePath string) (*VerifyLogsResult, error) {
	result := &VerifyLogsResult{FilePath: filePath}

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		result.TotalLines++

		entry, err := logging.ParseSignedEntry(line)
		if err != nil {
			result.fail(lineNum, "parse_error", err.Error())
			continue
		}

		valid, err := entry.Verify(key)
		if err != nil {
			result.fail(lineNum, "parse_error", fmt.Sprintf("verification error: %v", err))
			continue
		}
		if !valid {
			result.fail(lineNum, "invalid_signature", "invalid signature (possible tampering)")
			continue
		}

		result.VerifiedOK++
		var kind entryKind
		if entry.GetEntry(&kind) == nil {
			switch {
			case kind.Operation != "":
				result.Decisions++
			case kind.Event != "":
				result.Approvals++
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}
	return result, nil
}

func writeVerifyResults(w io.Writer, result *VerifyLogsResult) {
	fmt.Fprintf(w, "Verifying: %s\n", result.FilePath)
	fmt.Fprintf(w, "  Lines scanned: %d\n", result.TotalLines)
	fmt.Fprintf(w, "  Verified OK:   %d (%d decisions, %d approvals)\n", result.VerifiedOK, result.Decisions, result.Approvals)
	fmt.Fprintf(w, "  Invalid sig:   %d\n", result.InvalidSig)
	fmt.Fprintf(w, "  Parse errors:  %d\n\n", result.ParseErrors)

	total := result.InvalidSig + result.ParseErrors
	if total == 0 {
		fmt.Fprintln(w, passStyle.Render(fmt.Sprintf("VERIFICATION PASSED: all %d entries have valid signatures", result.TotalLines)))
		return
	}

	fmt.Fprintln(w, failStyle.Render(fmt.Sprintf("VERIFICATION FAILED: %d entries have integrity issues", total)))
	for _, f := range result.Failures {
		fmt.Fprintf(w, "  Line %d: %s\n", f.Line, f.Message)
	}
	if total > maxDetailedFailures {
		fmt.Fprintf(w, "  ... and %d more failures\n", total-maxDetailedFailures)
	}
}
