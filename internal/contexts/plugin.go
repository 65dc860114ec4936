package contexts

import (
	"fmt"
	"log/slog"

	"github.com/solatis/beacon/internal/types"
)

// ContextsPlugin is the optional plugin hook contributing context entities.
// Called with no arguments once per tracked event.
type ContextsPlugin interface {
	Contexts() ([]types.SelfDescribingJSON, error)
}

// PluginContexts aggregates context contributions from active plugins.
type PluginContexts struct {
	plugins func() []any
	logger  *slog.Logger
}

// NewPluginContexts creates an aggregator over a live plugin list.
// plugins is called per event so later registrations are picked up.
func NewPluginContexts(plugins func() []any, logger *slog.Logger) *PluginContexts {
	if logger == nil {
		logger = slog.Default()
	}
	return &PluginContexts{plugins: plugins, logger: logger}
}

// AddPluginContexts concatenates plugin contributions in registration order,
// then appends additional. A failing plugin contributes nothing for this event.
func (pc *PluginContexts) AddPluginContexts(additional []types.SelfDescribingJSON) []types.SelfDescribingJSON {
	var out []types.SelfDescribingJSON
	for _, plugin := range pc.plugins() {
		hook, ok := plugin.(ContextsPlugin)
		if !ok {
			continue
		}
		contributed, err := callContextsHook(hook)
		if err != nil {
			pc.logger.Warn("plugin contexts hook failed",
				"plugin", fmt.Sprintf("%T", plugin),
				"error", err,
			)
			continue
		}
		out = append(out, contributed...)
	}
	return append(out, additional...)
}

// callContextsHook invokes the hook, converting a panic into ErrCallablePanicked.
func callContextsHook(hook ContextsPlugin) (out []types.SelfDescribingJSON, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("%w: %v", types.ErrCallablePanicked, r)
		}
	}()
	return hook.Contexts()
}
