// Package tracker hosts the tracker core: it owns the global context
// registry and plugins, attaches common metadata, and finalizes payloads.
package tracker

import (
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/solatis/beacon/internal/contexts"
	"github.com/solatis/beacon/internal/payload"
	"github.com/solatis/beacon/internal/types"
)

// Version is written under the tv payload key unless overridden.
const Version = "beacon-go-0.1.0"

// Callback receives every finalized payload that survives plugin filters.
type Callback func(p payload.Payload)

// Options configures a Core.
type Options struct {
	EncodeBase64 bool
	Callback     Callback
	Plugins      []Plugin
	Logger       *slog.Logger
	// GlobalContexts lets callers inject a registry; a fresh one is created when nil.
	GlobalContexts *contexts.GlobalContexts
	// Now overrides the clock for device timestamps.
	Now func() time.Time
}

// Core tracks events: it merges contexts and metadata into each payload
// builder, builds it, and hands the result to the callback.
type Core struct {
	mu           sync.RWMutex
	encodeBase64 bool
	pairs        payload.Payload
	plugins      []Plugin
	callback     Callback
	logger       *slog.Logger
	now          func() time.Time

	globalContexts *contexts.GlobalContexts
	pluginContexts *contexts.PluginContexts
}

// NewCore creates a tracker core and activates the given plugins.
func NewCore(opts Options) *Core {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	gc := opts.GlobalContexts
	if gc == nil {
		gc = contexts.NewGlobalContexts(logger)
	}

	c := &Core{
		encodeBase64:   opts.EncodeBase64,
		pairs:          payload.Payload{types.KeyTrackerVersion: Version},
		callback:       opts.Callback,
		logger:         logger,
		now:            now,
		globalContexts: gc,
	}
	c.pluginContexts = contexts.NewPluginContexts(c.activePlugins, logger)

	for _, p := range opts.Plugins {
		c.AddPlugin(p)
	}
	return c
}

// Track finalizes the event in b. The returned payload is nil when a
// plugin filter dropped the event.
func (c *Core) Track(b *payload.Builder, ctxs []types.SelfDescribingJSON, ts *types.Timestamp) payload.Payload {
	c.mu.RLock()
	encode := c.encodeBase64
	pairs := c.pairs
	callback := c.callback
	c.mu.RUnlock()

	b.WithJSONProcessor(payload.JSONProcessor(encode))
	b.Add(types.KeyEventID, types.NewEventID())
	b.AddDict(pairs)
	stamp := c.timestamp(ts)
	b.Add(string(stamp.Type), strconv.FormatInt(stamp.Value, 10))

	for _, p := range c.activePlugins() {
		if hook, ok := p.(BeforeTrackPlugin); ok {
			hook.BeforeTrack(b)
		}
	}

	entities := c.globalContexts.GetApplicableContexts(b)
	entities = append(entities, c.pluginContexts.AddPluginContexts(ctxs)...)
	for _, e := range entities {
		b.AddContextEntity(e)
	}
	c.logger.Debug("building event",
		"contexts", len(b.GetContextEntities()),
		"deferred_json", len(b.GetJSON()),
	)

	built := b.Build()

	for _, p := range c.activePlugins() {
		if hook, ok := p.(FilterPlugin); ok && !hook.Filter(built) {
			c.logger.Debug("event filtered by plugin",
				"plugin", fmt.Sprintf("%T", p),
				"event_id", built[types.KeyEventID],
			)
			return nil
		}
	}

	if callback != nil {
		callback(built)
	}

	for _, p := range c.activePlugins() {
		if hook, ok := p.(AfterTrackPlugin); ok {
			hook.AfterTrack(built)
		}
	}
	return built
}

// timestamp defaults to a device timestamp taken now.
func (c *Core) timestamp(ts *types.Timestamp) types.Timestamp {
	if ts != nil && ts.Type != "" {
		return *ts
	}
	return types.Timestamp{Type: types.TimestampDevice, Value: c.now().UnixMilli()}
}

// AddPlugin registers and activates a plugin.
func (c *Core) AddPlugin(p Plugin) {
	c.mu.Lock()
	c.plugins = append(c.plugins, p)
	c.mu.Unlock()

	if hook, ok := p.(ActivatePlugin); ok {
		hook.Activate(c)
	}
}

func (c *Core) activePlugins() []any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]any, len(c.plugins))
	copy(out, c.plugins)
	return out
}

// AddPayloadPair sets a pair added to every subsequent event.
func (c *Core) AddPayloadPair(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := make(payload.Payload, len(c.pairs)+1)
	for k, v := range c.pairs {
		next[k] = v
	}
	next[key] = value
	c.pairs = next
}

// AddPayloadDict sets several persistent pairs at once.
func (c *Core) AddPayloadDict(dict payload.Payload) {
	for k, v := range dict {
		c.AddPayloadPair(k, v)
	}
}

// SetBase64Encoding toggles base64 for deferred JSON on later events.
func (c *Core) SetBase64Encoding(encode bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.encodeBase64 = encode
}

// SetAppID sets the application identifier (aid).
func (c *Core) SetAppID(appID string) { c.AddPayloadPair(types.KeyAppID, appID) }

// SetPlatform sets the platform code (p).
func (c *Core) SetPlatform(platform string) { c.AddPayloadPair(types.KeyPlatform, platform) }

// SetTrackerNamespace sets the tracker namespace (tna).
func (c *Core) SetTrackerNamespace(ns string) { c.AddPayloadPair(types.KeyTrackerNamespace, ns) }

// SetTrackerVersion overrides the tracker version (tv).
func (c *Core) SetTrackerVersion(v string) { c.AddPayloadPair(types.KeyTrackerVersion, v) }

// SetUserID sets the business user identifier (uid).
func (c *Core) SetUserID(uid string) { c.AddPayloadPair(types.KeyUserID, uid) }

// GlobalContexts returns the registry owned by this core.
func (c *Core) GlobalContexts() *contexts.GlobalContexts {
	return c.globalContexts
}

// AddGlobalContexts registers global or conditional contexts.
func (c *Core) AddGlobalContexts(inputs ...any) {
	c.globalContexts.AddGlobalContexts(inputs...)
}

// RemoveGlobalContexts removes previously registered contexts.
func (c *Core) RemoveGlobalContexts(inputs ...any) {
	c.globalContexts.RemoveGlobalContexts(inputs...)
}

// ClearGlobalContexts removes every registered context.
func (c *Core) ClearGlobalContexts() {
	c.globalContexts.ClearGlobalContexts()
}
