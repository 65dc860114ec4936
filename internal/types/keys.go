package types

// Well-known payload keys read or written by the tracker core.
const (
	KeyEventType         = "e"
	KeyEventID           = "eid"
	KeyAppID             = "aid"
	KeyPlatform          = "p"
	KeyTrackerNamespace  = "tna"
	KeyTrackerVersion    = "tv"
	KeyUserID            = "uid"
	KeyContextsEncoded   = "cx"
	KeyContextsUnencoded = "co"
	KeyEventEncoded      = "ue_px"
	KeyEventUnencoded    = "ue_pr"
)

// Event type tags written under KeyEventType.
const (
	EventTypeSelfDescribing = "ue"
	EventTypeStructured     = "se"
	EventTypePageView       = "pv"
)

// Wrapper schemas for the context array and self-describing event envelopes.
const (
	ContextsSchema      = "iglu:com.snowplowanalytics.snowplow/contexts/jsonschema/1-0-0"
	UnstructEventSchema = "iglu:com.snowplowanalytics.snowplow/unstruct_event/jsonschema/1-0-0"
)
