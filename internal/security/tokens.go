package security

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when a token is malformed or its signature
	// does not verify against the supplied public key.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired is returned when a token's signature is valid but its
	// exp claim is in the past.
	ErrTokenExpired = errors.New("token expired")
)

// Claims are the verified claims of an access or refresh token. Instances are
// only produced by Verify; code holding a *Claims may trust its contents.
type Claims struct {
	jwt.RegisteredClaims
	IdentityID string `json:"identityId"`
	Email      string `json:"email"`
	DeviceID   string `json:"deviceId"`
}

// UnverifiedClaims are claims read without checking the signature. They exist
// only to locate the session (and thus the public key) to verify against, and
// are deliberately a distinct type so they cannot be passed where verified
// claims are expected.
type UnverifiedClaims struct {
	IdentityID string
	Email      string
	DeviceID   string
}

// TokenCodec signs and verifies session tokens with RS256 against a
// session-scoped keypair. The codec itself holds no key material; keys are
// supplied per call from the session row.
type TokenCodec struct {
	issuer string
}

// NewTokenCodec returns a codec that stamps and checks the given issuer.
func NewTokenCodec(issuer string) *TokenCodec {
	return &TokenCodec{issuer: issuer}
}

// Issue signs a token for the identity/device with the session's private key.
// ttl distinguishes access tokens from refresh tokens; both carry the same
// claim shape.
func (c *TokenCodec) Issue(identityID, email, deviceID, privateKeyPEM string, ttl time.Duration) (string, error) {
	key, err := ParsePrivateKey(privateKeyPEM)
	if err != nil {
		return "", err
	}
	// A random jti makes every issued token distinct even within the same
	// second, which rotation depends on.
	jti, err := generateJTI()
	if err != nil {
		return "", err
	}
	now := time.Now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   identityID,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		IdentityID: identityID,
		Email:      email,
		DeviceID:   deviceID,
	}
	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
}

// Verify parses the token and checks its signature and expiry against the
// session's public key. Returns ErrTokenExpired for a valid-but-stale token
// and ErrInvalidToken for everything else.
func (c *TokenCodec) Verify(tokenString, publicKeyPEM string) (*Claims, error) {
	pub, err := ParsePublicKey(publicKeyPEM)
	if err != nil {
		return nil, ErrInvalidToken
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, ErrInvalidToken
		}
		return pub, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if c.issuer != "" && claims.Issuer != c.issuer {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// DecodeUnverified reads a token's claims without checking the signature.
// The result is good for exactly one thing: looking up the session whose
// public key Verify must then be called with. Never authorize on it.
func (c *TokenCodec) DecodeUnverified(tokenString string) (*UnverifiedClaims, error) {
	var claims Claims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenString, &claims); err != nil {
		return nil, ErrInvalidToken
	}
	return &UnverifiedClaims{
		IdentityID: claims.IdentityID,
		Email:      claims.Email,
		DeviceID:   claims.DeviceID,
	}, nil
}

func generateJTI() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
