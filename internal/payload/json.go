// Package payload builds event payloads.
//
// A Builder accumulates immediate key/value pairs plus deferred JSON and
// context entities. Deferred content is serialized exactly once, at Build
// time, by a Processor that decides between base64 and plain encoding.
package payload

import (
	"encoding/json"
	"reflect"

	"github.com/solatis/beacon/internal/types"
)

// IsJSON reports whether v is a JSON object: non-nil and not an array.
func IsJSON(v any) bool {
	switch m := v.(type) {
	case map[string]any:
		return m != nil
	case Payload:
		return m != nil
	default:
		_, ok := objectLen(v)
		return ok
	}
}

// IsNonEmptyJSON reports whether v is a JSON object with at least one key.
func IsNonEmptyJSON(v any) bool {
	switch m := v.(type) {
	case map[string]any:
		return len(m) > 0
	case Payload:
		return len(m) > 0
	default:
		n, ok := objectLen(v)
		return ok && n > 0
	}
}

// IsSelfDescribingJSON reports whether e carries a schema and a non-empty data object.
func IsSelfDescribingJSON(e types.SelfDescribingJSON) bool {
	return e.Schema != "" && IsNonEmptyJSON(e.Data)
}

// objectLen reports the key count of v when it encodes as a JSON object.
// String-keyed maps are counted directly; structs are counted after encoding.
func objectLen(v any) (int, bool) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return 0, false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String || rv.IsNil() {
			return 0, false
		}
		return rv.Len(), true
	case reflect.Struct:
		raw, err := json.Marshal(rv.Interface())
		if err != nil {
			return 0, false
		}
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return 0, false
		}
		return len(obj), true
	default:
		return 0, false
	}
}

// isNil reports whether v is nil or a typed nil of a nillable kind.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
