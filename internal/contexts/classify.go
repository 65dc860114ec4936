package contexts

import (
	"fmt"

	"github.com/solatis/beacon/internal/rules"
	"github.com/solatis/beacon/internal/types"
)

/*
 * Shape classification of global context inputs.
 *
 * Inputs arrive either typed (Primitive, Provider, SelfDescribingJSON,
 * RuleSet) or decoded from JSON/YAML configuration ([]any, map[string]any).
 * Classification happens once, at registration, and yields the tagged
 * variants the registry stores:
 *
 *   - 2-element list, first element a FilterFunc/Criterion -> filter provider
 *   - 2-element list, first element has accept/reject keys -> rule set provider
 *   - anything else is tried as a bare primitive
 *
 * Inputs failing every classification are discarded by the caller.
 */

// entry is one classified input: exactly one of primitive or provider is set.
type entry struct {
	primitive Primitive
	provider  *Provider
}

// ValidateGlobalContext reports whether input classifies as a primitive or provider.
// Returns an error wrapping ErrInvalidContext otherwise.
func ValidateGlobalContext(input any) error {
	if _, ok := classify(input); !ok {
		return fmt.Errorf("%w: %T", types.ErrInvalidContext, input)
	}
	return nil
}

func classify(input any) (entry, bool) {
	switch v := input.(type) {
	case Provider:
		if !v.valid() {
			return entry{}, false
		}
		return entry{provider: &v}, true
	case *Provider:
		if v == nil || !v.valid() {
			return entry{}, false
		}
		p := *v
		return entry{provider: &p}, true
	case []any:
		if p, ok := classifyProvider(v); ok {
			return entry{provider: &p}, true
		}
		return entry{}, false
	}
	if prim, ok := toPrimitive(input); ok {
		return entry{primitive: prim}, true
	}
	return entry{}, false
}

// classifyProvider handles the [criterion, primitives] list shape.
func classifyProvider(pair []any) (Provider, bool) {
	if len(pair) != 2 {
		return Provider{}, false
	}
	criterion, ok := toCriterion(pair[0])
	if !ok {
		return Provider{}, false
	}
	primitives, ok := toPrimitives(pair[1])
	if !ok {
		return Provider{}, false
	}
	p := Provider{Criterion: criterion, Primitives: primitives}
	if !p.valid() {
		return Provider{}, false
	}
	return p, true
}

func toCriterion(v any) (Criterion, bool) {
	switch c := v.(type) {
	case Criterion:
		return c, c != nil
	case FilterFunc:
		return Filter(c), c != nil
	case func(ContextEvent) bool:
		return Filter(c), c != nil
	case rules.RuleSet:
		rs, err := rules.NewRuleSet(c.Accept, c.Reject)
		if err != nil {
			return nil, false
		}
		return Rules(rs), true
	case map[string]any:
		if !rules.IsRuleSet(c) {
			return nil, false
		}
		rs, err := rules.ParseRuleSet(c)
		if err != nil {
			return nil, false
		}
		return Rules(rs), true
	default:
		return nil, false
	}
}

// toPrimitives accepts a single primitive or a list of them.
func toPrimitives(v any) ([]Primitive, bool) {
	switch list := v.(type) {
	case []Primitive:
		return list, len(list) > 0
	case []types.SelfDescribingJSON:
		out := make([]Primitive, 0, len(list))
		for _, e := range list {
			out = append(out, Static(e))
		}
		return out, len(out) > 0
	case []any:
		out := make([]Primitive, 0, len(list))
		for _, item := range list {
			prim, ok := toPrimitive(item)
			if !ok {
				return nil, false
			}
			out = append(out, prim)
		}
		return out, len(out) > 0
	}
	prim, ok := toPrimitive(v)
	if !ok {
		return nil, false
	}
	return []Primitive{prim}, true
}

// toPrimitive classifies a bare primitive: handle, generator function, typed
// entity, or decoded {sc, dt} object.
func toPrimitive(v any) (Primitive, bool) {
	var prim Primitive
	switch p := v.(type) {
	case Primitive:
		prim = p
	case types.SelfDescribingJSON:
		prim = Static(p)
	case GeneratorFunc:
		prim = Generator(p)
	case func(ContextEvent) ([]types.SelfDescribingJSON, error):
		prim = Generator(p)
	case map[string]any:
		entity, ok := entityFromMap(p)
		if !ok {
			return nil, false
		}
		prim = Static(entity)
	default:
		return nil, false
	}
	if prim == nil || !prim.valid() {
		return nil, false
	}
	return prim, true
}

// entityFromMap reads a decoded {sc, dt} object. Extra keys are rejected.
func entityFromMap(m map[string]any) (types.SelfDescribingJSON, bool) {
	if len(m) != 2 {
		return types.SelfDescribingJSON{}, false
	}
	schema, ok := m["sc"].(string)
	if !ok {
		return types.SelfDescribingJSON{}, false
	}
	data, ok := m["dt"]
	if !ok {
		return types.SelfDescribingJSON{}, false
	}
	return types.SelfDescribingJSON{Schema: schema, Data: data}, true
}
