package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const keyPrefix = "bk"
const keyVersion = "v1"

// ParseAPIKey extracts key_id and signature from an API key.
// Format: bk-v1-<key_id>-<signature>, key_id 32 hex chars, signature 64 hex chars.
// Returns ErrInvalidKeyFormat if format doesn't match.
func ParseAPIKey(key string) (keyID, signature string, err error) {
	parts := strings.Split(key, "-")
	if len(parts) != 4 || parts[0] != keyPrefix || parts[1] != keyVersion {
		return "", "", ErrInvalidKeyFormat
	}

	keyID, signature = parts[2], parts[3]
	if len(keyID) != 32 || len(signature) != 64 {
		return "", "", ErrInvalidKeyFormat
	}
	if !isLowerHex(keyID) || !isLowerHex(signature) {
		return "", "", ErrInvalidKeyFormat
	}

	return keyID, signature, nil
}

func isLowerHex(s string) bool {
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return false
		}
	}
	return true
}

// ComputeHMAC computes the HMAC-SHA256 signature of keyID using secret.
func ComputeHMAC(secret []byte, keyID string) []byte {
	h := hmac.New(sha256.New, secret)
	h.Write([]byte(keyID))
	return h.Sum(nil)
}

// VerifyHMAC compares signatures in constant time.
func VerifyHMAC(expected, computed []byte) bool {
	return hmac.Equal(expected, computed)
}

// FormatAPIKey constructs an API key from its components.
func FormatAPIKey(keyID, signature string) string {
	return fmt.Sprintf("%s-%s-%s-%s", keyPrefix, keyVersion, keyID, signature)
}

// IssueAPIKey mints a key signed by secret, using a UUIDv7 without hyphens as key_id.
func IssueAPIKey(secret []byte) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	keyID := strings.ReplaceAll(id.String(), "-", "")
	return FormatAPIKey(keyID, hex.EncodeToString(ComputeHMAC(secret, keyID))), nil
}
