package tokens

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/google/uuid"
)

// NewRefreshToken returns an opaque random refresh token value.
func NewRefreshToken() string {
	return uuid.NewString()
}

// HashRefreshToken is the form refresh tokens are persisted and looked up in.
func HashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
