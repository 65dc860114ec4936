// Package auth provides HMAC-based API key authentication for gRPC services.
package auth

import (
	"context"
	"encoding/hex"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// contextKey is a typed key for context values to avoid collisions.
type contextKey string

const keyIDKey = contextKey("key_id")

// Authenticator validates API keys signed with a single shared secret.
// Keys are stateless: the signature is checked, nothing is looked up.
type Authenticator struct {
	secret []byte
}

// NewAuthenticator creates an authenticator for secret.
func NewAuthenticator(secret []byte) *Authenticator {
	return &Authenticator{secret: secret}
}

// Authenticate validates apiKey and returns its key_id on success.
func (a *Authenticator) Authenticate(apiKey string) (string, error) {
	keyID, signature, err := ParseAPIKey(apiKey)
	if err != nil {
		return "", err
	}

	expected, err := hex.DecodeString(signature)
	if err != nil {
		return "", ErrInvalidKeyFormat
	}
	if !VerifyHMAC(expected, ComputeHMAC(a.secret, keyID)) {
		return "", ErrInvalidKey
	}
	return keyID, nil
}

// UnaryInterceptor returns a gRPC interceptor that authenticates requests.
// Health checks pass through unauthenticated.
func (a *Authenticator) UnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if info.FullMethod == healthCheckMethod {
			return handler(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}

		apiKeys := md.Get("x-api-key")
		if len(apiKeys) == 0 {
			return nil, status.Error(codes.Unauthenticated, ErrMissingKey.Error())
		}

		keyID, err := a.Authenticate(apiKeys[0])
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, err.Error())
		}

		return handler(context.WithValue(ctx, keyIDKey, keyID), req)
	}
}

const healthCheckMethod = "/grpc.health.v1.Health/Check"

// KeyIDFromContext extracts the authenticated key_id from context.
// Returns empty string if not found.
func KeyIDFromContext(ctx context.Context) string {
	if keyID, ok := ctx.Value(keyIDKey).(string); ok {
		return keyID
	}
	return ""
}
