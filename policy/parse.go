package policy

import (
	"bytes"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// ParsePolicy parses a YAML document into a TravelPolicy.
// Fields absent from the document keep their DefaultPolicy values; per-grade
// tables are merged entry by entry. It returns an error if the input is empty,
// is invalid YAML, has no version, or fails Validate.
func ParsePolicy(data []byte) (*TravelPolicy, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("empty policy")
	}

	policy := DefaultPolicy()
	policy.Version = ""
	if err := yaml.Unmarshal(data, policy); err != nil {
		return nil, fmt.Errorf("yaml: %w", err)
	}

	if policy.Version == "" {
		return nil, fmt.Errorf("missing version field")
	}

	if err := policy.Validate(); err != nil {
		return nil, err
	}

	return policy, nil
}

// ParsePolicyFromReader parses a TravelPolicy from an io.Reader.
func ParsePolicyFromReader(r io.Reader) (*TravelPolicy, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy: %w", err)
	}
	return ParsePolicy(data)
}
