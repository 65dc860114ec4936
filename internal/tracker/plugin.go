package tracker

import (
	"github.com/solatis/beacon/internal/contexts"
	"github.com/solatis/beacon/internal/payload"
)

// Plugin is any value registered with a Core. Each hook below is optional;
// a plugin implements only the interfaces it needs.
type Plugin = any

// ContextsPlugin contributes context entities to every event.
type ContextsPlugin = contexts.ContextsPlugin

// ActivatePlugin is notified once when registered with a core.
type ActivatePlugin interface {
	Activate(core *Core)
}

// BeforeTrackPlugin sees the builder before contexts are attached.
type BeforeTrackPlugin interface {
	BeforeTrack(b *payload.Builder)
}

// FilterPlugin can veto a built payload. Returning false drops the event.
type FilterPlugin interface {
	Filter(p payload.Payload) bool
}

// AfterTrackPlugin sees the payload after the callback ran.
type AfterTrackPlugin interface {
	AfterTrack(p payload.Payload)
}
