// internal/payload/processor.go
package payload

import (
	"encoding/base64"
	"encoding/json"
	"log/slog"

	"github.com/solatis/beacon/internal/types"
)

// JSONProcessor returns a Processor bound to one base64 decision.
//
// Each deferred entry is stringified independently and added under
// KeyIfEncoded (URL-safe base64, no padding) or KeyIfNotEncoded (plain).
// Context entities are wrapped into one self-describing array document
// under cx/co, and only when at least one entity exists.
func JSONProcessor(encodeBase64 bool) Processor {
	return func(b *Builder, jsonForProcessing []EventJSON, contextEntities []types.SelfDescribingJSON) {
		for _, entry := range jsonForProcessing {
			addSerialized(b, encodeBase64, entry.KeyIfEncoded, entry.KeyIfNotEncoded, entry.JSON)
		}
		if len(contextEntities) == 0 {
			return
		}
		wrapper := types.SelfDescribingJSON{
			Schema: types.ContextsSchema,
			Data:   contextEntities,
		}
		addSerialized(b, encodeBase64, types.KeyContextsEncoded, types.KeyContextsUnencoded, wrapper)
	}
}

// addSerialized marshals v and adds it under the key matching the encoding.
// Unmarshalable values are logged and skipped; Build never fails.
func addSerialized(b *Builder, encodeBase64 bool, keyIfEncoded, keyIfNotEncoded string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		slog.Warn("dropping unserializable payload json",
			"key", keyIfNotEncoded,
			"error", err,
		)
		return
	}
	if encodeBase64 {
		b.Add(keyIfEncoded, base64.RawURLEncoding.EncodeToString(raw))
		return
	}
	b.Add(keyIfNotEncoded, string(raw))
}
