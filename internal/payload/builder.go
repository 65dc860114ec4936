// internal/payload/builder.go
package payload

import (
	"maps"
	"slices"
	"sort"

	"github.com/solatis/beacon/internal/types"
)

/*
 * Two-phase payload assembly.
 *
 * Lifecycle: Open -> Built (terminal). While open, Add/AddDict store
 * immediate pairs, AddJSON queues deferred JSON and AddContextEntity queues
 * context entities. Build hands the queued content to the installed
 * Processor once, then freezes the result; later Build calls return the
 * same content without reprocessing. Mutations after Build are ignored.
 *
 * Key order is tracked separately from the map so callers that render the
 * payload (sinks, inspector) see insertion order.
 */

// Payload is a finalized event payload.
type Payload map[string]any

// EventJSON is deferred JSON awaiting the build-time encoding decision.
type EventJSON struct {
	KeyIfEncoded    string
	KeyIfNotEncoded string
	JSON            map[string]any
}

// Processor serializes deferred JSON and context entities into the builder.
type Processor func(b *Builder, jsonForProcessing []EventJSON, contextEntities []types.SelfDescribingJSON)

type builderState int

const (
	stateOpen builderState = iota
	stateBuilding
	stateBuilt
)

// Builder is an event-scoped payload accumulator. Not safe for concurrent use.
type Builder struct {
	pairs     Payload
	keys      []string
	json      []EventJSON
	contexts  []types.SelfDescribingJSON
	processor Processor
	state     builderState
	built     Payload
}

// NewBuilder creates an open builder.
func NewBuilder() *Builder {
	return &Builder{pairs: make(Payload)}
}

// Add stores a pair, overwriting any prior value. A nil value, typed nils
// included, is ignored. Allowed while open and while the processor runs
// inside Build.
func (b *Builder) Add(key string, value any) {
	if b.state == stateBuilt || isNil(value) {
		return
	}
	if _, exists := b.pairs[key]; !exists {
		b.keys = append(b.keys, key)
	}
	b.pairs[key] = value
}

// AddDict merges pairs from another payload using Add semantics.
// Keys are merged in sorted order so insertion order is deterministic.
func (b *Builder) AddDict(dict Payload) {
	keys := make([]string, 0, len(dict))
	for k := range dict {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.Add(k, dict[k])
	}
}

// AddJSON queues a JSON object for build-time encoding.
// Calls accumulate without dedup; empty objects are dropped.
func (b *Builder) AddJSON(keyIfEncoded, keyIfNotEncoded string, json map[string]any) {
	if b.state != stateOpen || !IsNonEmptyJSON(json) {
		return
	}
	b.json = append(b.json, EventJSON{
		KeyIfEncoded:    keyIfEncoded,
		KeyIfNotEncoded: keyIfNotEncoded,
		JSON:            json,
	})
}

// AddContextEntity queues a context entity.
func (b *Builder) AddContextEntity(entity types.SelfDescribingJSON) {
	if b.state != stateOpen {
		return
	}
	b.contexts = append(b.contexts, entity)
}

// WithJSONProcessor installs the processor used by Build. Last call wins.
func (b *Builder) WithJSONProcessor(p Processor) {
	if b.state != stateOpen {
		return
	}
	b.processor = p
}

// GetPayload returns a copy of the immediate pairs added so far.
func (b *Builder) GetPayload() Payload {
	return maps.Clone(b.pairs)
}

// GetJSON returns a copy of the deferred JSON queue.
func (b *Builder) GetJSON() []EventJSON {
	return slices.Clone(b.json)
}

// GetContextEntities returns a copy of the queued context entities.
func (b *Builder) GetContextEntities() []types.SelfDescribingJSON {
	return slices.Clone(b.contexts)
}

// Keys returns payload keys in insertion order.
func (b *Builder) Keys() []string {
	return slices.Clone(b.keys)
}

// Built reports whether Build has completed.
func (b *Builder) Built() bool {
	return b.state == stateBuilt
}

// Build runs the processor once and returns the finalized payload.
// Repeat calls return the same content without reprocessing.
func (b *Builder) Build() Payload {
	if b.state == stateBuilt {
		return maps.Clone(b.built)
	}
	b.state = stateBuilding
	if b.processor != nil {
		b.processor(b, slices.Clone(b.json), slices.Clone(b.contexts))
	}
	b.built = maps.Clone(b.pairs)
	b.state = stateBuilt
	return maps.Clone(b.built)
}
