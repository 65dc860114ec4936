package tracker

import (
	"github.com/solatis/beacon/internal/payload"
	"github.com/solatis/beacon/internal/types"
)

// BuildSelfDescribingEvent maps a self-describing event onto a builder.
// The event is deferred under ue_px/ue_pr inside the unstruct_event envelope.
func BuildSelfDescribingEvent(event types.SelfDescribingJSON) *payload.Builder {
	b := payload.NewBuilder()
	b.Add(types.KeyEventType, types.EventTypeSelfDescribing)
	b.AddJSON(types.KeyEventEncoded, types.KeyEventUnencoded, types.SelfDescribingJSON{
		Schema: types.UnstructEventSchema,
		Data:   event,
	}.AsMap())
	return b
}

// StructEvent is a category/action event with optional label, property and value.
type StructEvent struct {
	Category string
	Action   string
	Label    string
	Property string
	Value    *float64
}

// BuildStructEvent maps a structured event onto a builder.
func BuildStructEvent(ev StructEvent) *payload.Builder {
	b := payload.NewBuilder()
	b.Add(types.KeyEventType, types.EventTypeStructured)
	b.Add("se_ca", ev.Category)
	b.Add("se_ac", ev.Action)
	addNonEmpty(b, "se_la", ev.Label)
	addNonEmpty(b, "se_pr", ev.Property)
	if ev.Value != nil {
		b.Add("se_va", *ev.Value)
	}
	return b
}

// PageView describes a page view.
type PageView struct {
	URL      string
	Title    string
	Referrer string
}

// BuildPageView maps a page view onto a builder.
func BuildPageView(ev PageView) *payload.Builder {
	b := payload.NewBuilder()
	b.Add(types.KeyEventType, types.EventTypePageView)
	addNonEmpty(b, "url", ev.URL)
	addNonEmpty(b, "page", ev.Title)
	addNonEmpty(b, "refr", ev.Referrer)
	return b
}

func addNonEmpty(b *payload.Builder, key, value string) {
	if value != "" {
		b.Add(key, value)
	}
}
