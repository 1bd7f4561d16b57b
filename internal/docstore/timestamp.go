package docstore

import (
	"encoding/json"
	"fmt"
	"time"
)

// timestampLayout is fixed width so that the encoded form sorts the same way
// as the instant it represents.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

// Timestamp is a store-assigned instant. It is always UTC and carries no
// monotonic clock reading, so it can be compared after a round trip.
type Timestamp struct {
	t time.Time
}

// NewTimestamp converts t into a Timestamp.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{t: t.UTC().Round(0)}
}

// Time returns the instant as a time.Time.
func (ts Timestamp) Time() time.Time { return ts.t }

// IsZero reports whether ts is the zero instant.
func (ts Timestamp) IsZero() bool { return ts.t.IsZero() }

// Add returns ts shifted by d.
func (ts Timestamp) Add(d time.Duration) Timestamp { return Timestamp{t: ts.t.Add(d)} }

// Before reports whether ts is before other.
func (ts Timestamp) Before(other Timestamp) bool { return ts.t.Before(other.t) }

// After reports whether ts is after other.
func (ts Timestamp) After(other Timestamp) bool { return ts.t.After(other.t) }

// Equal reports whether ts and other are the same instant.
func (ts Timestamp) Equal(other Timestamp) bool { return ts.t.Equal(other.t) }

// Compare returns -1, 0 or +1.
func (ts Timestamp) Compare(other Timestamp) int { return ts.t.Compare(other.t) }

func (ts Timestamp) String() string { return ts.t.Format(timestampLayout) }

// MarshalJSON implements json.Marshaler.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(ts.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*ts = Timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decoding timestamp: %w", err)
	}
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		// Accept RFC 3339 input from API clients.
		t, err = time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("parsing timestamp %q: %w", s, err)
		}
	}
	*ts = NewTimestamp(t)
	return nil
}
