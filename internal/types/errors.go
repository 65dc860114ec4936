package types

import "errors"

// Sentinel errors for beacon operations.
var (
	// ErrInvalidSchema indicates a schema string does not parse as vendor/name/format/version.
	ErrInvalidSchema = errors.New("invalid schema identifier")

	// ErrInvalidRule indicates a rule string violates the wildcard grammar.
	ErrInvalidRule = errors.New("invalid schema rule")

	// ErrInvalidRuleSet indicates a rule set has unknown keys or invalid rules.
	ErrInvalidRuleSet = errors.New("invalid rule set")

	// ErrNotSelfDescribing indicates a document lacks a schema or non-empty data object.
	ErrNotSelfDescribing = errors.New("not a self-describing JSON document")

	// ErrInvalidContext indicates a global context declaration matched no known shape.
	ErrInvalidContext = errors.New("invalid global context")

	// ErrCallablePanicked indicates a generator, filter or plugin hook panicked.
	ErrCallablePanicked = errors.New("callable panicked")

	// ErrInvalidEventID indicates an event identifier is not a UUID.
	ErrInvalidEventID = errors.New("invalid event id")

	// ErrUnsupportedDatabase indicates a sink URL scheme other than sqlite or postgres.
	ErrUnsupportedDatabase = errors.New("unsupported database scheme")
)
