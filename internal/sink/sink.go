// Package sink delivers built payloads to storage.
//
// Sinks are tracker callbacks: a sink failure is logged and never reaches
// the code that tracked the event.
package sink

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/solatis/beacon/internal/payload"
	"github.com/solatis/beacon/internal/types"
)

// Sink writes one built payload.
type Sink interface {
	Write(ctx context.Context, p payload.Payload) error
}

// Multi fans each payload out to several sinks in order.
type Multi struct {
	sinks  []Sink
	logger *slog.Logger
}

// NewMulti creates a fan-out over sinks. A nil logger uses slog.Default().
func NewMulti(logger *slog.Logger, sinks ...Sink) *Multi {
	if logger == nil {
		logger = slog.Default()
	}
	return &Multi{sinks: sinks, logger: logger}
}

// Deliver writes p to every sink. Its signature matches tracker.Callback.
func (m *Multi) Deliver(p payload.Payload) {
	ctx := context.Background()
	for _, s := range m.sinks {
		if err := s.Write(ctx, p); err != nil {
			m.logger.Warn("sink write failed",
				"sink", fmt.Sprintf("%T", s),
				"event_id", p[types.KeyEventID],
				"error", err,
			)
		}
	}
}

// EventSchema extracts the inner schema of a built self-describing event,
// reading ue_pr or, when encoded, ue_px. Returns "" for other events.
func EventSchema(p payload.Payload) string {
	var raw []byte
	if s, ok := p[types.KeyEventUnencoded].(string); ok {
		raw = []byte(s)
	} else if s, ok := p[types.KeyEventEncoded].(string); ok {
		decoded, err := base64.RawURLEncoding.DecodeString(s)
		if err != nil {
			return ""
		}
		raw = decoded
	} else {
		return ""
	}

	var envelope struct {
		Data struct {
			Schema string `json:"sc"`
		} `json:"dt"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return ""
	}
	return envelope.Data.Schema
}
