// Package api provides the gRPC inspector service: a read-only view of rule
// matching and of the context registry.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/solatis/beacon/internal/contexts"
	"github.com/solatis/beacon/internal/payload"
	"github.com/solatis/beacon/internal/rules"
	"github.com/solatis/beacon/internal/types"
)

// InspectorService implements InspectorServer over a context registry.
type InspectorService struct {
	registry *contexts.GlobalContexts
	logger   *slog.Logger
}

// NewInspectorService creates a service reading from registry.
func NewInspectorService(registry *contexts.GlobalContexts, logger *slog.Logger) (*InspectorService, error) {
	if registry == nil {
		return nil, fmt.Errorf("registry cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &InspectorService{registry: registry, logger: logger}, nil
}

// MatchRule evaluates a schema against a rule or a rule set.
//
// Request: {"schema": S, "rule": R} or {"schema": S, "rule_set": {"accept": ..., "reject": ...}}.
// Response: {"valid_schema": bool, "valid_rule": bool, "matched": bool}.
func (s *InspectorService) MatchRule(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.AsMap()

	schema, ok := fields["schema"].(string)
	if !ok {
		return nil, status.Error(codes.InvalidArgument, "schema is required")
	}
	_, validSchema := rules.GetSchemaParts(schema)

	var validRule, matched bool
	switch {
	case fields["rule"] != nil:
		rule, ok := fields["rule"].(string)
		if !ok {
			return nil, status.Error(codes.InvalidArgument, "rule must be a string")
		}
		validRule = rules.IsValidRule(rule)
		matched = rules.MatchSchemaAgainstRule(rule, schema)
	case fields["rule_set"] != nil:
		raw, ok := fields["rule_set"].(map[string]any)
		if !ok {
			return nil, status.Error(codes.InvalidArgument, "rule_set must be an object")
		}
		rs, err := rules.ParseRuleSet(raw)
		validRule = err == nil
		if validRule {
			matched = rules.MatchSchemaAgainstRuleSet(rs, schema)
		}
	default:
		return nil, status.Error(codes.InvalidArgument, "rule or rule_set is required")
	}

	return structpb.NewStruct(map[string]any{
		"valid_schema": validSchema,
		"valid_rule":   validRule,
		"matched":      matched,
	})
}

// ApplicableContexts resolves the entities the registry would attach to an event.
//
// Request: {"event_type": T, "schema": S, "event": {...}}, every field optional.
// Response: {"contexts": [{"sc": ..., "dt": ...}, ...]}.
func (s *InspectorService) ApplicableContexts(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.AsMap()

	ev := contexts.ContextEvent{Event: payload.Payload{}}
	if raw, ok := fields["event"].(map[string]any); ok {
		ev.Event = payload.Payload(raw)
	}
	ev.EventType, _ = fields["event_type"].(string)
	if ev.EventType == "" {
		ev.EventType, _ = ev.Event[types.KeyEventType].(string)
	}
	ev.EventSchema, _ = fields["schema"].(string)

	if err := ctx.Err(); err != nil {
		return nil, status.FromContextError(err).Err()
	}

	entities := s.registry.ApplicableFor(ev)
	list, err := toJSONValue(entities)
	if err != nil {
		s.logger.Error("failed to encode contexts", "error", err)
		return nil, status.Error(codes.Internal, "failed to encode contexts")
	}

	return structpb.NewStruct(map[string]any{"contexts": list})
}

// toJSONValue round-trips v through encoding/json so structpb accepts it.
func toJSONValue(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []any{}
	}
	return out, nil
}
