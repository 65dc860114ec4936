package api

// Error mapping is done inline in handlers.
// Auth errors are mapped by the auth interceptor.
// Malformed requests map to INVALID_ARGUMENT.
// Context timeouts map to DEADLINE_EXCEEDED.
