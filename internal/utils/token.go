package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
)

// TokenBytes: 256 бит энтропии на токен.
const TokenBytes = 32

// NewToken генерирует криптостойкий непрозрачный токен (base64url без паддинга).
func NewToken() (string, error) {
	raw := make([]byte, TokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// TokenDigest: то, что кладём в базу вместо самого токена.
func TokenDigest(token string) string {
	hash := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}
