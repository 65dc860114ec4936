package contexts

import (
	"fmt"
	"log/slog"

	"github.com/solatis/beacon/internal/rules"
	"github.com/solatis/beacon/internal/types"
)

// FilterFunc decides per event whether a provider's primitives attach.
type FilterFunc func(ev ContextEvent) bool

// Criterion is a filter or a rule set. Closed set: build with Filter or Rules.
type Criterion interface {
	applies(ev ContextEvent, logger *slog.Logger) bool
	equal(other Criterion) bool
}

type filterCriterion struct {
	fn FilterFunc
}

type ruleSetCriterion struct {
	rs rules.RuleSet
}

// Filter wraps a predicate. Filters compare equal when they wrap the same
// function value.
func Filter(fn FilterFunc) Criterion {
	return &filterCriterion{fn: fn}
}

// Rules wraps a rule set matched against the event schema.
func Rules(rs rules.RuleSet) Criterion {
	return ruleSetCriterion{rs: rs}
}

func (f *filterCriterion) applies(ev ContextEvent, logger *slog.Logger) bool {
	ok, err := callFilter(f.fn, ev)
	if err != nil {
		logger.Warn("context filter failed",
			"event_type", ev.EventType,
			"schema", ev.EventSchema,
			"error", err,
		)
		return false
	}
	return ok
}

func (f *filterCriterion) equal(other Criterion) bool {
	o, ok := other.(*filterCriterion)
	return ok && (f == o || sameFunc(f.fn, o.fn))
}

func (r ruleSetCriterion) applies(ev ContextEvent, _ *slog.Logger) bool {
	return rules.MatchSchemaAgainstRuleSet(r.rs, ev.EventSchema)
}

func (r ruleSetCriterion) equal(other Criterion) bool {
	o, ok := other.(ruleSetCriterion)
	return ok && r.rs.Equal(o.rs)
}

// callFilter invokes fn, converting a panic into ErrCallablePanicked.
func callFilter(fn FilterFunc, ev ContextEvent) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			ok, err = false, fmt.Errorf("%w: %v", types.ErrCallablePanicked, r)
		}
	}()
	return fn(ev), nil
}

// Provider attaches its primitives only when its criterion applies.
// Criterion and primitives are co-owned: removal needs both to be equal.
type Provider struct {
	Criterion  Criterion
	Primitives []Primitive
}

// FilterProvider pairs a predicate with primitives.
func FilterProvider(fn FilterFunc, primitives ...Primitive) Provider {
	return Provider{Criterion: Filter(fn), Primitives: primitives}
}

// RuleSetProvider pairs a rule set with primitives.
func RuleSetProvider(rs rules.RuleSet, primitives ...Primitive) Provider {
	return Provider{Criterion: Rules(rs), Primitives: primitives}
}

// Equal reports structural equality of criterion and primitives.
func (p Provider) Equal(other Provider) bool {
	if p.Criterion == nil || other.Criterion == nil {
		return false
	}
	return p.Criterion.equal(other.Criterion) && primitivesEqual(p.Primitives, other.Primitives)
}

// valid requires a usable criterion and at least one primitive, all valid.
// Rule set criteria are re-validated so literals with bad rules are rejected here.
func (p Provider) valid() bool {
	switch c := p.Criterion.(type) {
	case *filterCriterion:
		if c == nil || c.fn == nil {
			return false
		}
	case ruleSetCriterion:
		if _, err := rules.NewRuleSet(c.rs.Accept, c.rs.Reject); err != nil {
			return false
		}
	default:
		return false
	}
	if len(p.Primitives) == 0 {
		return false
	}
	for _, prim := range p.Primitives {
		if prim == nil || !prim.valid() {
			return false
		}
	}
	return true
}
