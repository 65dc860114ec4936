// Package types provides domain models shared across beacon components.
//
// Zero-dependency design: types.go, keys.go and errors.go use only
// encoding/json so the payload and context packages stay light. ID utilities
// in ids.go import uuid but are isolated for selective inclusion.
package types

import "encoding/json"

// SelfDescribingJSON is a JSON document tagged with the schema it conforms to.
// Wire shape is {"sc": <schema string>, "dt": <data>}.
type SelfDescribingJSON struct {
	Schema string `json:"sc"`
	Data   any    `json:"dt"`
}

// AsMap returns the document as a plain JSON object.
// Used where deferred JSON is held as map[string]any until build time.
func (s SelfDescribingJSON) AsMap() map[string]any {
	return map[string]any{
		"sc": s.Schema,
		"dt": s.Data,
	}
}

// String renders the document as compact JSON, or "" if Data cannot be marshalled.
func (s SelfDescribingJSON) String() string {
	b, err := json.Marshal(s)
	if err != nil {
		return ""
	}
	return string(b)
}

// ParseSelfDescribingJSON decodes a JSON object into a SelfDescribingJSON.
// Returns ErrNotSelfDescribing if the schema is missing or data is not an object.
func ParseSelfDescribingJSON(raw []byte) (SelfDescribingJSON, error) {
	var sdj SelfDescribingJSON
	if err := json.Unmarshal(raw, &sdj); err != nil {
		return SelfDescribingJSON{}, err
	}
	if sdj.Schema == "" {
		return SelfDescribingJSON{}, ErrNotSelfDescribing
	}
	if _, ok := sdj.Data.(map[string]any); !ok {
		return SelfDescribingJSON{}, ErrNotSelfDescribing
	}
	return sdj, nil
}

// TimestampType distinguishes device-created from caller-supplied true timestamps.
type TimestampType string

const (
	// TimestampDevice is the payload key for the device created timestamp.
	TimestampDevice TimestampType = "dtm"

	// TimestampTrue is the payload key for a caller-supplied true timestamp.
	TimestampTrue TimestampType = "ttm"
)

// Timestamp is an event timestamp in milliseconds since the Unix epoch.
type Timestamp struct {
	Type  TimestampType
	Value int64
}
