package audit

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// TimestampLayout is the fixed-width form used when hashing timestamps.
const TimestampLayout = "2006-01-02T15:04:05.000000Z07:00"

// NormalizeTimestamp drops precision that the stores cannot keep so that a
// hash computed before insert still matches after a round trip.
func NormalizeTimestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// CanonicalJSON encodes the hashed fields of e with sorted keys and no HTML
// escaping. ContentHash itself is never part of the input.
func CanonicalJSON(e Entry) ([]byte, error) {
	fields := map[string]interface{}{
		"sequence":      e.Sequence,
		"timestamp":     NormalizeTimestamp(e.Timestamp).Format(TimestampLayout),
		"actor_id":      e.ActorID,
		"action":        string(e.Action),
		"entity_type":   e.EntityType,
		"entity_id":     e.EntityID,
		"decision":      e.Decision,
		"reason":        e.Reason,
		"previous_hash": e.PreviousHash,
	}

	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(fields); err != nil {
		return nil, fmt.Errorf("canonical json: %w", err)
	}
	return bytes.TrimSpace(buf.Bytes()), nil
}

// ComputeHash returns the hex SHA-256 of the canonical encoding of e.
func ComputeHash(e Entry) (string, error) {
	payload, err := CanonicalJSON(e)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}
