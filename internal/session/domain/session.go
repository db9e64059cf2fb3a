package domain

import "time"

// MaxUsedTokenHistory caps the superseded refresh-token history per session.
// A replayed token that has aged out of the window is refused as unknown
// rather than recognized as a replay, which still denies the request.
const MaxUsedTokenHistory = 50

// Session is the per-(identity, device) auth record. It owns the keypair that
// signs this device's tokens, the hash of the currently valid refresh token,
// and the hashes of every superseded refresh token still in the window.
//
// Invariants: at most one session per (IdentityID, DeviceID);
// RefreshTokenHash never appears in UsedTokenHashes; UsedTokenHashes only
// grows, except that the whole session is deleted on replay detection.
type Session struct {
	ID              string
	IdentityID      string
	DeviceID        string
	PublicKey       string // PEM, verifies this session's tokens
	PrivateKey      string // PEM, signs this session's tokens
	RefreshTokenHash string
	UsedTokenHashes []string // oldest first
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// HasUsedToken reports whether hash belongs to a superseded refresh token.
func (s *Session) HasUsedToken(hash string) bool {
	for _, h := range s.UsedTokenHashes {
		if h == hash {
			return true
		}
	}
	return false
}

// RotatedHistory returns the used-token history after superseding oldHash,
// pruned to MaxUsedTokenHistory entries.
func (s *Session) RotatedHistory(oldHash string) []string {
	history := append(append([]string{}, s.UsedTokenHashes...), oldHash)
	if len(history) > MaxUsedTokenHistory {
		history = history[len(history)-MaxUsedTokenHistory:]
	}
	return history
}
