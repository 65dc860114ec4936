// Package contexts decides which context entities attach to a tracked event.
//
// It holds the global context registry (unconditional primitives and
// conditional providers), resolves generator primitives per event, and
// aggregates plugin-contributed contexts. Callables supplied by callers
// (generators, filters, plugin hooks) are isolated: a failing or panicking
// callable contributes nothing and is logged, never propagated.
package contexts

import (
	"fmt"
	"log/slog"
	"reflect"
	"unsafe"

	"github.com/solatis/beacon/internal/payload"
	"github.com/solatis/beacon/internal/types"
)

// ContextEvent is the read-only view of an event passed to generators and filters.
type ContextEvent struct {
	Event       payload.Payload // immediate pairs at resolution time
	EventType   string          // value of the "e" key, "" if absent
	EventSchema string          // self-describing event schema, "" otherwise
}

// GeneratorFunc produces zero or more context entities for an event.
// Returning nil contributes nothing.
type GeneratorFunc func(ev ContextEvent) ([]types.SelfDescribingJSON, error)

// Primitive is a static entity or a generator. The set of implementations is
// closed: build values with Static or Generator.
type Primitive interface {
	valid() bool
	equal(other Primitive) bool
}

type staticPrimitive struct {
	entity types.SelfDescribingJSON
}

type generatorPrimitive struct {
	fn GeneratorFunc
}

// Static wraps a fixed context entity.
func Static(entity types.SelfDescribingJSON) Primitive {
	return staticPrimitive{entity: entity}
}

// Generator wraps a generator function. Generators compare equal when they
// wrap the same function value.
func Generator(fn GeneratorFunc) Primitive {
	return &generatorPrimitive{fn: fn}
}

func (s staticPrimitive) valid() bool {
	return payload.IsSelfDescribingJSON(s.entity)
}

// equal compares static entities by deep value equality.
func (s staticPrimitive) equal(other Primitive) bool {
	o, ok := other.(staticPrimitive)
	return ok && reflect.DeepEqual(s.entity, o.entity)
}

func (g *generatorPrimitive) valid() bool {
	return g != nil && g.fn != nil
}

// equal compares generators by function identity.
func (g *generatorPrimitive) equal(other Primitive) bool {
	o, ok := other.(*generatorPrimitive)
	return ok && (g == o || sameFunc(g.fn, o.fn))
}

// ResolveDynamicContext flattens primitives into context entities for ev.
// Generator output expands in place; malformed entities are dropped.
func ResolveDynamicContext(primitives []Primitive, ev ContextEvent) []types.SelfDescribingJSON {
	return resolvePrimitives(primitives, ev, slog.Default())
}

func resolvePrimitives(primitives []Primitive, ev ContextEvent, logger *slog.Logger) []types.SelfDescribingJSON {
	var out []types.SelfDescribingJSON
	for _, p := range primitives {
		switch prim := p.(type) {
		case staticPrimitive:
			if prim.valid() {
				out = append(out, prim.entity)
			}
		case *generatorPrimitive:
			if !prim.valid() {
				continue
			}
			generated, err := callGenerator(prim.fn, ev)
			if err != nil {
				logger.Warn("context generator failed",
					"event_type", ev.EventType,
					"schema", ev.EventSchema,
					"error", err,
				)
				continue
			}
			for _, entity := range generated {
				if payload.IsSelfDescribingJSON(entity) {
					out = append(out, entity)
				}
			}
		}
	}
	return out
}

// callGenerator invokes fn, converting a panic into ErrCallablePanicked.
func callGenerator(fn GeneratorFunc, ev ContextEvent) (out []types.SelfDescribingJSON, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("%w: %v", types.ErrCallablePanicked, r)
		}
	}()
	return fn(ev)
}

// primitivesEqual compares two primitive lists element by element.
func primitivesEqual(a, b []Primitive) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].equal(b[i]) {
			return false
		}
	}
	return true
}

// sameFunc reports whether a and b are the same function value. It compares
// closure records, not code pointers: every wrapping of a named function
// matches, and closures built from one literal stay distinct.
func sameFunc[F any](a, b F) bool {
	pa := *(*unsafe.Pointer)(unsafe.Pointer(&a))
	pb := *(*unsafe.Pointer)(unsafe.Pointer(&b))
	return pa != nil && pa == pb
}
