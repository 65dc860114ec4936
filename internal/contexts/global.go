package contexts

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/solatis/beacon/internal/payload"
	"github.com/solatis/beacon/internal/types"
)

/*
 * Global context registry.
 *
 * Owns two ordered collections: unconditional primitives and conditional
 * providers. One registry belongs to one tracker core; there is no package
 * level state, so independent trackers stay independent.
 *
 * Ordering: GetApplicableContexts emits every resolved unconditional
 * primitive first, in registration order, then every matched conditional
 * provider's primitives in registration order. Identical entities produced
 * by different registrations are not deduplicated at resolution time.
 *
 * Removal: the first structurally equal entry is removed. Static entities
 * compare by deep equality; generators and filters compare by function
 * identity, so the function that was registered removes its entry.
 *
 * Concurrency: collections are guarded by an RWMutex. Resolution works on a
 * snapshot taken under the read lock so callables run without the lock held
 * and may themselves mutate the registry.
 */

// GlobalContexts is the registry of global and conditional context providers.
type GlobalContexts struct {
	mu           sync.RWMutex
	primitives   []Primitive
	conditionals []Provider
	logger       *slog.Logger
}

// NewGlobalContexts creates an empty registry. A nil logger uses slog.Default().
func NewGlobalContexts(logger *slog.Logger) *GlobalContexts {
	if logger == nil {
		logger = slog.Default()
	}
	return &GlobalContexts{logger: logger}
}

// AddGlobalContexts classifies and appends each input.
// Inputs matching no known shape are discarded with a warning.
func (g *GlobalContexts) AddGlobalContexts(inputs ...any) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for i, input := range inputs {
		e, ok := classify(input)
		if !ok {
			g.logger.Warn("discarding invalid global context",
				"index", i,
				"type", fmt.Sprintf("%T", input),
			)
			continue
		}
		if e.provider != nil {
			g.conditionals = append(g.conditionals, *e.provider)
		} else {
			g.primitives = append(g.primitives, e.primitive)
		}
	}
}

// RemoveGlobalContexts removes the first entry equal to each input.
func (g *GlobalContexts) RemoveGlobalContexts(inputs ...any) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, input := range inputs {
		e, ok := classify(input)
		if !ok {
			continue
		}
		if e.provider != nil {
			idx := slices.IndexFunc(g.conditionals, func(p Provider) bool {
				return p.Equal(*e.provider)
			})
			if idx >= 0 {
				g.conditionals = slices.Delete(g.conditionals, idx, idx+1)
			}
			continue
		}
		idx := slices.IndexFunc(g.primitives, func(p Primitive) bool {
			return p.equal(e.primitive)
		})
		if idx >= 0 {
			g.primitives = slices.Delete(g.primitives, idx, idx+1)
		}
	}
}

// ClearGlobalContexts empties both collections.
func (g *GlobalContexts) ClearGlobalContexts() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.primitives = nil
	g.conditionals = nil
}

// GetGlobalPrimitives returns a snapshot of the unconditional primitives.
func (g *GlobalContexts) GetGlobalPrimitives() []Primitive {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.Clone(g.primitives)
}

// GetConditionalProviders returns a snapshot of the conditional providers.
func (g *GlobalContexts) GetConditionalProviders() []Provider {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.Clone(g.conditionals)
}

// GetApplicableContexts resolves the entities that attach to the event in b.
func (g *GlobalContexts) GetApplicableContexts(b *payload.Builder) []types.SelfDescribingJSON {
	return g.ApplicableFor(NewContextEvent(b))
}

// ApplicableFor resolves the entities that attach to an already-built event view.
func (g *GlobalContexts) ApplicableFor(ev ContextEvent) []types.SelfDescribingJSON {
	g.mu.RLock()
	primitives := slices.Clone(g.primitives)
	conditionals := slices.Clone(g.conditionals)
	g.mu.RUnlock()

	out := resolvePrimitives(primitives, ev, g.logger)
	for _, p := range conditionals {
		if p.Criterion.applies(ev, g.logger) {
			out = append(out, resolvePrimitives(p.Primitives, ev, g.logger)...)
		}
	}
	return out
}

// NewContextEvent builds the read-only event view from a builder's current state.
func NewContextEvent(b *payload.Builder) ContextEvent {
	event := b.GetPayload()
	eventType, _ := event[types.KeyEventType].(string)
	return ContextEvent{
		Event:       event,
		EventType:   eventType,
		EventSchema: eventSchema(b),
	}
}

// eventSchema extracts the inner schema of a self-describing event envelope.
// Returns "" for events that are not self-describing.
func eventSchema(b *payload.Builder) string {
	for _, j := range b.GetJSON() {
		if j.KeyIfEncoded != types.KeyEventEncoded {
			continue
		}
		switch inner := j.JSON["dt"].(type) {
		case types.SelfDescribingJSON:
			return inner.Schema
		case map[string]any:
			if schema, ok := inner["sc"].(string); ok {
				return schema
			}
		}
	}
	return ""
}
