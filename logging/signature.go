package logging

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"
)

// MinKeyLength is the minimum length for HMAC-SHA256 signing keys.
const MinKeyLength = 32

// ErrKeyTooShort is returned when the secret key is shorter than MinKeyLength.
var ErrKeyTooShort = errors.New("secret key must be at least 32 bytes")

// SignatureConfig holds configuration for audit log signing.
type SignatureConfig struct {
	KeyID     string // identifies the key for rotation
	SecretKey []byte
}

// Validate checks that the configuration is usable.
func (c *SignatureConfig) Validate() error {
	if len(c.SecretKey) < MinKeyLength {
		return ErrKeyTooShort
	}
	return nil
}

// SignedEntry wraps an audit entry with its HMAC signature.
//
// Entry holds the exact JSON bytes that were signed, so a line read back
// from a log file verifies without re-encoding the entry.
type SignedEntry struct {
	Entry     json.RawMessage `json:"entry"`
	Signature string          `json:"signature"` // hex HMAC-SHA256
	KeyID     string          `json:"key_id"`
	Timestamp string          `json:"timestamp"` // signing time, RFC3339Nano UTC
}

// ComputeSignature returns the hex HMAC-SHA256 of data.
func ComputeSignature(data, secretKey []byte) (string, error) {
	if len(secretKey) < MinKeyLength {
		return "", ErrKeyTooShort
	}
	mac := hmac.New(sha256.New, secretKey)
	mac.Write(data)
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// VerifySignature reports whether signature is the HMAC of data.
// Malformed hex is an invalid signature, not an error.
func VerifySignature(data []byte, signature string, secretKey []byte) (bool, error) {
	expected, err := ComputeSignature(data, secretKey)
	if err != nil {
		return false, err
	}

	provided, err := hex.DecodeString(signature)
	if err != nil {
		return false, nil
	}
	want, _ := hex.DecodeString(expected)

	return subtle.ConstantTimeCompare(provided, want) == 1, nil
}

// signingInput binds key ID and timestamp to the entry bytes.
func signingInput(keyID, timestamp string, entry []byte) []byte {
	buf := make([]byte, 0, len(keyID)+len(timestamp)+len(entry)+2)
	buf = append(buf, keyID...)
	buf = append(buf, '\n')
	buf = append(buf, timestamp...)
	buf = append(buf, '\n')
	return append(buf, entry...)
}

// NewSignedEntry marshals entry and signs it with the current time.
func NewSignedEntry(entry any, config *SignatureConfig) (*SignedEntry, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return nil, err
	}

	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	signature, err := ComputeSignature(signingInput(config.KeyID, timestamp, data), config.SecretKey)
	if err != nil {
		return nil, err
	}

	return &SignedEntry{
		Entry:     data,
		Signature: signature,
		KeyID:     config.KeyID,
		Timestamp: timestamp,
	}, nil
}

// Verify checks the signature of a SignedEntry.
// Returns (true, nil) if valid, (false, nil) if invalid, or (false, error) on error.
func (s *SignedEntry) Verify(secretKey []byte) (bool, error) {
	return VerifySignature(signingInput(s.KeyID, s.Timestamp, s.Entry), s.Signature, secretKey)
}

// GetEntry decodes the signed entry into v.
func (s *SignedEntry) GetEntry(v any) error {
	return json.Unmarshal(s.Entry, v)
}

// ParseSignedEntry decodes one JSON line written by a signing logger.
func ParseSignedEntry(line []byte) (*SignedEntry, error) {
	var signed SignedEntry
	if err := json.Unmarshal(line, &signed); err != nil {
		return nil, err
	}
	if len(signed.Entry) == 0 || signed.Signature == "" {
		return nil, errors.New("line is not a signed entry")
	}
	return &signed, nil
}
