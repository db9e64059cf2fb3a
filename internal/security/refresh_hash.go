package security

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// HashRefreshToken returns the hex SHA-256 of a refresh token. Sessions store
// only hashes (current and superseded), so a leaked session row cannot be
// replayed as a usable refresh token.
func HashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// RefreshTokenHashEqual reports whether token hashes to storedHash, in
// constant time.
func RefreshTokenHashEqual(token, storedHash string) bool {
	h := HashRefreshToken(token)
	return subtle.ConstantTimeCompare([]byte(h), []byte(storedHash)) == 1
}
