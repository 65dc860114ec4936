package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang/snappy"
	"github.com/jmoiron/sqlx"

	"github.com/solatis/beacon/internal/core/db"
	"github.com/solatis/beacon/internal/payload"
	"github.com/solatis/beacon/internal/types"
)

// StoredEvent is one row of the events table.
type StoredEvent struct {
	RecordID    string `db:"record_id"`
	EventID     string `db:"event_id"`
	EventType   string `db:"event_type"`
	EventSchema string `db:"event_schema"`
	ReceivedAt  int64  `db:"received_at"`
	Payload     []byte `db:"payload"`
}

// Decode decompresses and parses the stored payload.
func (e StoredEvent) Decode() (payload.Payload, error) {
	raw, err := snappy.Decode(nil, e.Payload)
	if err != nil {
		return nil, fmt.Errorf("decompress payload %s: %w", e.RecordID, err)
	}
	var p payload.Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode payload %s: %w", e.RecordID, err)
	}
	return p, nil
}

// RecordedAt is the time encoded in the row's UUIDv7 record id.
func (e StoredEvent) RecordedAt() time.Time {
	return types.RecordIDTime(e.RecordID)
}

// DBSink stores payloads as snappy-compressed JSON rows.
type DBSink struct {
	queries *db.Queries
	now     func() time.Time
}

// NewDBSink loads named queries for conn. Migrations must already be applied.
func NewDBSink(conn *sqlx.DB) (*DBSink, error) {
	q, err := db.LoadQueries(conn)
	if err != nil {
		return nil, err
	}
	return &DBSink{queries: q, now: time.Now}, nil
}

// Write inserts p as a new row.
func (s *DBSink) Write(_ context.Context, p payload.Payload) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	eventID, _ := p[types.KeyEventID].(string)
	eventType, _ := p[types.KeyEventType].(string)

	_, err = s.queries.Exec("insert-event",
		types.NewRecordID(),
		eventID,
		eventType,
		EventSchema(p),
		s.now().UnixMilli(),
		snappy.Encode(nil, raw),
	)
	if err != nil {
		return fmt.Errorf("insert event %s: %w", eventID, err)
	}
	return nil
}

// Get returns the first row stored for an event id.
func (s *DBSink) Get(eventID string) (StoredEvent, error) {
	eventID, err := types.ParseEventID(eventID)
	if err != nil {
		return StoredEvent{}, err
	}
	var e StoredEvent
	if err := s.queries.Get("get-event", &e, eventID); err != nil {
		return StoredEvent{}, fmt.Errorf("get event %s: %w", eventID, err)
	}
	return e, nil
}

// ListBySchema returns up to limit rows for a self-describing event schema, oldest first.
func (s *DBSink) ListBySchema(schema string, limit int) ([]StoredEvent, error) {
	var events []StoredEvent
	if err := s.queries.Select("list-events-by-schema", &events, schema, limit); err != nil {
		return nil, fmt.Errorf("list events for %s: %w", schema, err)
	}
	return events, nil
}

// Count returns the number of stored rows.
func (s *DBSink) Count() (int, error) {
	var n int
	if err := s.queries.Get("count-events", &n); err != nil {
		return 0, err
	}
	return n, nil
}
