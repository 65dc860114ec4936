package contexts

import (
	"reflect"
	"testing"

	"github.com/solatis/beacon/internal/payload"
	"github.com/solatis/beacon/internal/rules"
	"github.com/solatis/beacon/internal/types"
)

const acmeSchema = "iglu:com.acme/event_x/jsonschema/1-0-0"

// selfDescribingBuilder mirrors the envelope written for self-describing events.
func selfDescribingBuilder(schema string) *payload.Builder {
	b := payload.NewBuilder()
	b.Add(types.KeyEventType, types.EventTypeSelfDescribing)
	b.AddJSON(types.KeyEventEncoded, types.KeyEventUnencoded, types.SelfDescribingJSON{
		Schema: types.UnstructEventSchema,
		Data:   types.SelfDescribingJSON{Schema: schema, Data: map[string]any{"k": "v"}},
	}.AsMap())
	return b
}

func mustRuleSet(t *testing.T, accept, reject []string) rules.RuleSet {
	t.Helper()
	rs, err := rules.NewRuleSet(accept, reject)
	if err != nil {
		t.Fatalf("NewRuleSet() error = %v", err)
	}
	return rs
}

func TestGlobalContexts_AddTwiceRemoveOnce(t *testing.T) {
	g := NewGlobalContexts(nil)
	g.AddGlobalContexts(entityA)
	g.AddGlobalContexts(entityA)

	g.RemoveGlobalContexts(types.SelfDescribingJSON{Schema: entityA.Schema, Data: map[string]any{"id": "a"}})

	if got := len(g.GetGlobalPrimitives()); got != 1 {
		t.Errorf("len(GetGlobalPrimitives()) = %v, want 1", got)
	}
}

func TestGlobalContexts_AddOnceRemoveOnce(t *testing.T) {
	g := NewGlobalContexts(nil)
	g.AddGlobalContexts(entityA)
	g.RemoveGlobalContexts(Static(types.SelfDescribingJSON{Schema: entityA.Schema, Data: map[string]any{"id": "a"}}))

	if got := len(g.GetGlobalPrimitives()); got != 0 {
		t.Errorf("len(GetGlobalPrimitives()) = %v, want 0", got)
	}
}

func TestGlobalContexts_RemoveFirstMatchOnly(t *testing.T) {
	g := NewGlobalContexts(nil)
	g.AddGlobalContexts(entityA, entityB, entityA)
	g.RemoveGlobalContexts(entityA)

	got := ResolveDynamicContext(g.GetGlobalPrimitives(), ContextEvent{})
	want := []types.SelfDescribingJSON{entityB, entityA}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("remaining = %v, want %v", got, want)
	}
}

func TestGlobalContexts_RemoveGeneratorByHandle(t *testing.T) {
	g := NewGlobalContexts(nil)
	gen := constGenerator(entityA)
	g.AddGlobalContexts(gen)

	// a second closure from the same literal is a different function value
	g.RemoveGlobalContexts(constGenerator(entityA))
	if got := len(g.GetGlobalPrimitives()); got != 1 {
		t.Fatalf("after removing other closure len = %v, want 1", got)
	}

	g.RemoveGlobalContexts(gen)
	if got := len(g.GetGlobalPrimitives()); got != 0 {
		t.Errorf("after removing same handle len = %v, want 0", got)
	}
}

func TestGlobalContexts_RemoveProvider(t *testing.T) {
	g := NewGlobalContexts(nil)
	rsProvider := RuleSetProvider(mustRuleSet(t, []string{"iglu:com.acme/*/jsonschema/*-*-*"}, nil), Static(entityA))
	filterProvider := FilterProvider(func(ContextEvent) bool { return true }, Static(entityB))
	g.AddGlobalContexts(rsProvider, filterProvider)

	// structurally equal rule set provider built independently
	g.RemoveGlobalContexts(RuleSetProvider(mustRuleSet(t, []string{"iglu:com.acme/*/jsonschema/*-*-*"}, nil), Static(entityA)))
	// a different function with the same behavior is a different provider
	g.RemoveGlobalContexts(FilterProvider(func(ContextEvent) bool { return true }, Static(entityB)))

	remaining := g.GetConditionalProviders()
	if len(remaining) != 1 {
		t.Fatalf("len(GetConditionalProviders()) = %v, want 1", len(remaining))
	}
	if !remaining[0].Equal(filterProvider) {
		t.Error("remaining provider is not the filter provider")
	}

	g.RemoveGlobalContexts(filterProvider)
	if got := len(g.GetConditionalProviders()); got != 0 {
		t.Errorf("len(GetConditionalProviders()) = %v, want 0", got)
	}
}

func isAny(ContextEvent) bool { return true }

func generateA(ContextEvent) ([]types.SelfDescribingJSON, error) {
	return []types.SelfDescribingJSON{entityA}, nil
}

func TestGlobalContexts_RemoveFilterProviderByFunction(t *testing.T) {
	g := NewGlobalContexts(nil)
	g.AddGlobalContexts(FilterProvider(isAny, Static(entityA)))

	g.RemoveGlobalContexts(FilterProvider(isAny, Static(entityA)))

	if got := len(g.GetConditionalProviders()); got != 0 {
		t.Errorf("len(GetConditionalProviders()) = %v, want 0", got)
	}
}

func TestGlobalContexts_RemoveDecodedFilterProviderByFunction(t *testing.T) {
	g := NewGlobalContexts(nil)
	g.AddGlobalContexts([]any{FilterFunc(isAny), entityA})
	if got := len(g.GetConditionalProviders()); got != 1 {
		t.Fatalf("after add len = %v, want 1", got)
	}

	g.RemoveGlobalContexts([]any{FilterFunc(isAny), entityA})
	if got := len(g.GetConditionalProviders()); got != 0 {
		t.Errorf("after remove len = %v, want 0", got)
	}
}

func TestGlobalContexts_BareGeneratorFunc(t *testing.T) {
	g := NewGlobalContexts(nil)
	g.AddGlobalContexts(GeneratorFunc(generateA))
	g.AddGlobalContexts(generateA)

	prims := g.GetGlobalPrimitives()
	if len(prims) != 2 {
		t.Fatalf("len(GetGlobalPrimitives()) = %v, want 2", len(prims))
	}
	got := ResolveDynamicContext(prims, ContextEvent{})
	want := []types.SelfDescribingJSON{entityA, entityA}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ResolveDynamicContext() = %v, want %v", got, want)
	}

	g.RemoveGlobalContexts(generateA)
	g.RemoveGlobalContexts(Generator(generateA))
	if got := len(g.GetGlobalPrimitives()); got != 0 {
		t.Errorf("after remove len = %v, want 0", got)
	}
}

func TestGlobalContexts_RuleSetWithGeneratorFunc(t *testing.T) {
	g := NewGlobalContexts(nil)
	rs := mustRuleSet(t, []string{"iglu:com.acme/*/jsonschema/*-*-*"}, nil)
	g.AddGlobalContexts([]any{rs, GeneratorFunc(generateA)})

	got := g.GetApplicableContexts(selfDescribingBuilder(acmeSchema))
	want := []types.SelfDescribingJSON{entityA}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("GetApplicableContexts() = %v, want %v", got, want)
	}

	g.RemoveGlobalContexts([]any{rs, []any{generateA}})
	if got := len(g.GetConditionalProviders()); got != 0 {
		t.Errorf("len(GetConditionalProviders()) = %v, want 0", got)
	}
}

func TestGlobalContexts_RemoveProviderNeedsEqualPrimitives(t *testing.T) {
	g := NewGlobalContexts(nil)
	rs := mustRuleSet(t, []string{"iglu:com.acme/*/jsonschema/*-*-*"}, nil)
	g.AddGlobalContexts(RuleSetProvider(rs, Static(entityA)))

	g.RemoveGlobalContexts(RuleSetProvider(rs, Static(entityB)))

	if got := len(g.GetConditionalProviders()); got != 1 {
		t.Errorf("len(GetConditionalProviders()) = %v, want 1", got)
	}
}

func TestGlobalContexts_Clear(t *testing.T) {
	g := NewGlobalContexts(nil)
	g.AddGlobalContexts(entityA, FilterProvider(func(ContextEvent) bool { return true }, Static(entityB)))
	g.ClearGlobalContexts()

	if len(g.GetGlobalPrimitives()) != 0 || len(g.GetConditionalProviders()) != 0 {
		t.Error("ClearGlobalContexts() left entries behind")
	}
}

func TestGlobalContexts_DiscardsInvalid(t *testing.T) {
	g := NewGlobalContexts(nil)
	g.AddGlobalContexts(
		"not a context",
		42,
		nil,
		types.SelfDescribingJSON{Schema: "", Data: map[string]any{"a": 1}},
		[]any{map[string]any{"accept": "iglu:com.*.acme/x/jsonschema/1-0-0"}, entityA},
		[]any{map[string]any{"accept": "iglu:com.acme/*/jsonschema/*-*-*"}},
		Provider{Criterion: Rules(rules.RuleSet{Accept: []string{"bad rule"}}), Primitives: []Primitive{Static(entityA)}},
		Provider{Criterion: Filter(func(ContextEvent) bool { return true })},
	)

	if len(g.GetGlobalPrimitives()) != 0 || len(g.GetConditionalProviders()) != 0 {
		t.Errorf("invalid inputs registered: %d primitives, %d providers",
			len(g.GetGlobalPrimitives()), len(g.GetConditionalProviders()))
	}
}

func TestGlobalContexts_DecodedShapes(t *testing.T) {
	g := NewGlobalContexts(nil)
	g.AddGlobalContexts(
		map[string]any{"sc": entityA.Schema, "dt": map[string]any{"id": "a"}},
		[]any{
			map[string]any{"accept": []any{"iglu:com.acme/*/jsonschema/*-*-*"}},
			[]any{map[string]any{"sc": entityB.Schema, "dt": map[string]any{"id": "b"}}},
		},
		[]any{
			FilterFunc(func(ContextEvent) bool { return true }),
			map[string]any{"sc": entityC.Schema, "dt": map[string]any{"id": "c"}},
		},
	)

	got := g.GetApplicableContexts(selfDescribingBuilder(acmeSchema))
	want := []types.SelfDescribingJSON{entityA, entityB, entityC}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("GetApplicableContexts() = %v, want %v", got, want)
	}
}

func TestGlobalContexts_Ordering(t *testing.T) {
	g := NewGlobalContexts(nil)
	always := func(ContextEvent) bool { return true }

	g.AddGlobalContexts(FilterProvider(always, Static(entityC)))
	g.AddGlobalContexts(entityA)
	g.AddGlobalContexts(RuleSetProvider(mustRuleSet(t, []string{"iglu:*/*/*/*-*-*"}, nil), Static(entityA)))
	g.AddGlobalContexts(constGenerator(entityB))

	got := g.GetApplicableContexts(selfDescribingBuilder(acmeSchema))
	want := []types.SelfDescribingJSON{entityA, entityB, entityC, entityA}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("GetApplicableContexts() = %v, want %v", got, want)
	}
}

func TestGlobalContexts_FilterProvider(t *testing.T) {
	g := NewGlobalContexts(nil)
	g.AddGlobalContexts(
		FilterProvider(func(ContextEvent) bool { return true }, Static(entityA)),
		FilterProvider(func(ContextEvent) bool { return false }, Static(entityB)),
	)

	for _, b := range []*payload.Builder{selfDescribingBuilder(acmeSchema), payload.NewBuilder()} {
		got := g.GetApplicableContexts(b)
		want := []types.SelfDescribingJSON{entityA}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("GetApplicableContexts() = %v, want %v", got, want)
		}
	}
}

func TestGlobalContexts_FilterSeesEvent(t *testing.T) {
	g := NewGlobalContexts(nil)
	g.AddGlobalContexts(FilterProvider(func(ev ContextEvent) bool {
		return ev.EventType == types.EventTypePageView && ev.Event["url"] == "https://example.com"
	}, Static(entityA)))

	pv := payload.NewBuilder()
	pv.Add(types.KeyEventType, types.EventTypePageView)
	pv.Add("url", "https://example.com")

	if got := g.GetApplicableContexts(pv); len(got) != 1 {
		t.Errorf("len(GetApplicableContexts(pv)) = %v, want 1", len(got))
	}
	if got := g.GetApplicableContexts(selfDescribingBuilder(acmeSchema)); len(got) != 0 {
		t.Errorf("len(GetApplicableContexts(ue)) = %v, want 0", len(got))
	}
}

func TestGlobalContexts_PanickingFilter(t *testing.T) {
	g := NewGlobalContexts(nil)
	g.AddGlobalContexts(
		FilterProvider(func(ContextEvent) bool { panic("filter exploded") }, Static(entityA)),
		entityB,
	)

	got := g.GetApplicableContexts(payload.NewBuilder())
	want := []types.SelfDescribingJSON{entityB}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("GetApplicableContexts() = %v, want %v", got, want)
	}
}

func TestGlobalContexts_RuleSetProvider(t *testing.T) {
	g := NewGlobalContexts(nil)
	g.AddGlobalContexts(RuleSetProvider(mustRuleSet(t, []string{"com.acme/*/jsonschema/*-*-*"}, nil), Static(entityB)))

	tests := []struct {
		name   string
		b      *payload.Builder
		wantOK bool
	}{
		{"acme event", selfDescribingBuilder(acmeSchema), true},
		{"acme other event", selfDescribingBuilder("iglu:com.acme/other/jsonschema/2-1-0"), true},
		{"other vendor", selfDescribingBuilder("iglu:com.other/event_x/jsonschema/1-0-0"), false},
		{"acme subdomain", selfDescribingBuilder("iglu:com.acme.sub/event_x/jsonschema/1-0-0"), false},
		{"not self describing", payload.NewBuilder(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := g.GetApplicableContexts(tt.b)
			if (len(got) == 1) != tt.wantOK {
				t.Errorf("GetApplicableContexts() = %v, want entityB attached = %v", got, tt.wantOK)
			}
		})
	}
}

func TestNewContextEvent(t *testing.T) {
	ev := NewContextEvent(selfDescribingBuilder(acmeSchema))
	if ev.EventType != types.EventTypeSelfDescribing {
		t.Errorf("EventType = %v, want ue", ev.EventType)
	}
	if ev.EventSchema != acmeSchema {
		t.Errorf("EventSchema = %v, want %v", ev.EventSchema, acmeSchema)
	}

	empty := NewContextEvent(payload.NewBuilder())
	if empty.EventType != "" || empty.EventSchema != "" {
		t.Errorf("empty event = %+v, want blank type and schema", empty)
	}
}

func TestGlobalContexts_GeneratorMayMutateRegistry(t *testing.T) {
	g := NewGlobalContexts(nil)
	g.AddGlobalContexts(Generator(func(ContextEvent) ([]types.SelfDescribingJSON, error) {
		g.AddGlobalContexts(entityB)
		return []types.SelfDescribingJSON{entityA}, nil
	}))

	got := g.GetApplicableContexts(payload.NewBuilder())
	if !reflect.DeepEqual(got, []types.SelfDescribingJSON{entityA}) {
		t.Errorf("GetApplicableContexts() = %v, want [entityA]", got)
	}
	if n := len(g.GetGlobalPrimitives()); n != 2 {
		t.Errorf("len(GetGlobalPrimitives()) = %v, want 2", n)
	}
}

func TestValidateGlobalContext(t *testing.T) {
	if err := ValidateGlobalContext(entityA); err != nil {
		t.Errorf("ValidateGlobalContext(entity) error = %v, want nil", err)
	}
	if err := ValidateGlobalContext("nope"); err == nil {
		t.Error("ValidateGlobalContext(string) error = nil, want ErrInvalidContext")
	}
}
