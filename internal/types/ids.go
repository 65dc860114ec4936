package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewEventID generates the random UUIDv4 written under the eid payload key.
// Collectors deduplicate on eid, so it must not be predictable from time.
func NewEventID() string {
	return uuid.NewString()
}

// NewRecordID generates a UUIDv7 identifier for stored sink records.
// Time-ordered IDs ensure sequential inserts cluster in B-tree pages.
// Panics on clock regression (uuid.Must); acceptable for ID generation.
func NewRecordID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// ParseEventID validates an event identifier.
// Rejects malformed UUIDs before they reach a sink query.
func ParseEventID(s string) (string, error) {
	if _, err := uuid.Parse(s); err != nil {
		return "", fmt.Errorf("%w %q: %v", ErrInvalidEventID, s, err)
	}
	return s, nil
}

// RecordIDTime extracts the timestamp embedded in a UUIDv7 record ID.
// Returns zero time for invalid UUIDs; caller should check IsZero().
func RecordIDTime(id string) time.Time {
	u, err := uuid.Parse(id)
	if err != nil {
		return time.Time{}
	}
	sec, nsec := u.Time().UnixTime()
	return time.Unix(sec, nsec)
}
