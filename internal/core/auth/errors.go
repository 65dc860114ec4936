package auth

import "errors"

// Authentication errors. All map to UNAUTHENTICATED so a caller cannot
// tell a malformed key from a forged one beyond the format check.
var (
	ErrMissingKey       = errors.New("API key required in x-api-key metadata")
	ErrInvalidKeyFormat = errors.New("invalid API key format")
	ErrInvalidKey       = errors.New("invalid API key")
)
