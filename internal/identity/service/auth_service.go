package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iconic-inc/iconic-erp-sub000/internal/audit"
	identitydomain "github.com/iconic-inc/iconic-erp-sub000/internal/identity/domain"
	"github.com/iconic-inc/iconic-erp-sub000/internal/security"
	sessiondomain "github.com/iconic-inc/iconic-erp-sub000/internal/session/domain"
	sessionrepo "github.com/iconic-inc/iconic-erp-sub000/internal/session/repository"
)

// Sentinel errors for the auth flow; the handler maps them to HTTP statuses.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("missing or invalid access token")
	ErrBadRefreshRequest  = errors.New("malformed or unknown refresh token")
	ErrReplayDetected     = errors.New("refresh token reuse detected; session terminated")
)

// IdentityRepo is the minimal identity repository needed by the auth service.
type IdentityRepo interface {
	GetByID(ctx context.Context, id string) (*identitydomain.Identity, error)
	GetByUsername(ctx context.Context, username string) (*identitydomain.Identity, error)
	GetByEmail(ctx context.Context, email string) (*identitydomain.Identity, error)
}

// SessionRepo is the minimal session repository needed by the auth service.
type SessionRepo interface {
	GetByIdentityAndDevice(ctx context.Context, identityID, deviceID string) (*sessiondomain.Session, error)
	Upsert(ctx context.Context, s *sessiondomain.Session) error
	Rotate(ctx context.Context, sessionID, oldHash, newHash string, usedHashes []string) error
	Delete(ctx context.Context, id string) error
}

// TokenPair is an access/refresh token pair bound to one session keypair.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time // access token expiry
}

// SignInResult is the outcome of a successful sign-in.
type SignInResult struct {
	Identity *identitydomain.Identity
	Tokens   TokenPair
}

// AuthService drives the session state machine: sign-in, authenticate,
// refresh with replay detection, sign-out. Every session gets its own
// keypair; tokens only ever verify against the keypair of the session they
// were issued under.
type AuthService struct {
	identityRepo IdentityRepo
	sessionRepo  SessionRepo
	hasher       *security.Hasher
	codec        *security.TokenCodec
	audit        audit.AuditLogger
	accessTTL    time.Duration
	refreshTTL   time.Duration
}

// NewAuthService returns an AuthService with the given dependencies.
// auditLogger may be nil to disable audit events.
func NewAuthService(
	identityRepo IdentityRepo,
	sessionRepo SessionRepo,
	hasher *security.Hasher,
	codec *security.TokenCodec,
	auditLogger audit.AuditLogger,
	accessTTL, refreshTTL time.Duration,
) *AuthService {
	return &AuthService{
		identityRepo: identityRepo,
		sessionRepo:  sessionRepo,
		hasher:       hasher,
		codec:        codec,
		audit:        auditLogger,
		accessTTL:    accessTTL,
		refreshTTL:   refreshTTL,
	}
}

// SignIn verifies the credentials, mints a session-scoped keypair, issues a
// token pair signed with it, and upserts the (identity, device) session.
// A fresh sign-in on a device replaces any previous session for that device
// and starts a new rotation chain.
func (s *AuthService) SignIn(ctx context.Context, username, password, deviceID string) (*SignInResult, error) {
	username = strings.TrimSpace(username)
	deviceID = strings.TrimSpace(deviceID)
	if username == "" || password == "" || deviceID == "" {
		return nil, ErrInvalidCredentials
	}
	ident, err := s.identityRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if ident == nil && strings.Contains(username, "@") {
		ident, err = s.identityRepo.GetByEmail(ctx, strings.ToLower(username))
		if err != nil {
			return nil, err
		}
	}
	if ident == nil || ident.Status != identitydomain.IdentityStatusActive {
		s.logEvent(ctx, "", audit.ActionSignInFailure, "auth", username)
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(ident.PasswordHash, []byte(password)); err != nil {
		s.logEvent(ctx, ident.ID, audit.ActionSignInFailure, "auth", "")
		return nil, ErrInvalidCredentials
	}

	keys, err := security.GenerateKeyPair()
	if err != nil {
		return nil, err
	}
	tokens, err := s.issuePair(ident, deviceID, keys.PrivateKey)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	sess := &sessiondomain.Session{
		ID:               uuid.New().String(),
		IdentityID:       ident.ID,
		DeviceID:         deviceID,
		PublicKey:        keys.PublicKey,
		PrivateKey:       keys.PrivateKey,
		RefreshTokenHash: security.HashRefreshToken(tokens.RefreshToken),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.sessionRepo.Upsert(ctx, sess); err != nil {
		return nil, err
	}
	s.logEvent(ctx, ident.ID, audit.ActionSignInSuccess, "auth", deviceID)
	return &SignInResult{Identity: ident, Tokens: *tokens}, nil
}

// Authenticate resolves an access token to its identity and session. The
// token's claims are first decoded unverified, solely to find the session
// whose public key the signature is then checked against. Any mismatch,
// missing session, bad signature, or expiry is ErrUnauthorized.
func (s *AuthService) Authenticate(ctx context.Context, accessToken, deviceID, claimedIdentityID string) (*identitydomain.Identity, *sessiondomain.Session, error) {
	unverified, err := s.codec.DecodeUnverified(accessToken)
	if err != nil {
		return nil, nil, ErrUnauthorized
	}
	if unverified.IdentityID == "" || unverified.IdentityID != claimedIdentityID {
		return nil, nil, ErrUnauthorized
	}
	if deviceID == "" || unverified.DeviceID != deviceID {
		return nil, nil, ErrUnauthorized
	}
	sess, err := s.sessionRepo.GetByIdentityAndDevice(ctx, unverified.IdentityID, deviceID)
	if err != nil {
		return nil, nil, err
	}
	if sess == nil {
		return nil, nil, ErrUnauthorized
	}
	claims, err := s.codec.Verify(accessToken, sess.PublicKey)
	if err != nil {
		return nil, nil, ErrUnauthorized
	}
	ident, err := s.identityRepo.GetByID(ctx, claims.IdentityID)
	if err != nil {
		return nil, nil, err
	}
	if ident == nil || ident.Status != identitydomain.IdentityStatusActive {
		return nil, nil, ErrUnauthorized
	}
	return ident, sess, nil
}

// Refresh rotates the refresh token. Presenting a superseded token is replay:
// the session is deleted before the error is returned, so the device is fully
// signed out even if the response is lost. Losing the rotation race is
// treated the same way.
func (s *AuthService) Refresh(ctx context.Context, claimedIdentityID, refreshToken, deviceID string) (*TokenPair, error) {
	unverified, err := s.codec.DecodeUnverified(refreshToken)
	if err != nil {
		return nil, ErrBadRefreshRequest
	}
	if unverified.IdentityID == "" || unverified.IdentityID != claimedIdentityID {
		return nil, ErrBadRefreshRequest
	}
	if deviceID == "" || unverified.DeviceID != deviceID {
		return nil, ErrBadRefreshRequest
	}
	sess, err := s.sessionRepo.GetByIdentityAndDevice(ctx, unverified.IdentityID, deviceID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrBadRefreshRequest
	}

	hash := security.HashRefreshToken(refreshToken)
	if sess.HasUsedToken(hash) {
		return nil, s.terminateOnReplay(ctx, sess, "superseded token presented")
	}
	if !security.RefreshTokenHashEqual(refreshToken, sess.RefreshTokenHash) {
		// Never issued by this session (or aged out of the history window).
		return nil, ErrBadRefreshRequest
	}
	if _, err := s.codec.Verify(refreshToken, sess.PublicKey); err != nil {
		return nil, ErrBadRefreshRequest
	}

	ident, err := s.identityRepo.GetByID(ctx, sess.IdentityID)
	if err != nil {
		return nil, err
	}
	if ident == nil || ident.Status != identitydomain.IdentityStatusActive {
		return nil, ErrBadRefreshRequest
	}

	// Same keypair for the session's whole lifetime; only the tokens rotate.
	tokens, err := s.issuePair(ident, deviceID, sess.PrivateKey)
	if err != nil {
		return nil, err
	}
	newHash := security.HashRefreshToken(tokens.RefreshToken)
	err = s.sessionRepo.Rotate(ctx, sess.ID, hash, newHash, sess.RotatedHistory(hash))
	if errors.Is(err, sessionrepo.ErrRotateConflict) {
		return nil, s.terminateOnReplay(ctx, sess, "lost rotation race")
	}
	if err != nil {
		return nil, err
	}
	s.logEvent(ctx, ident.ID, audit.ActionTokenRefresh, "auth", deviceID)
	return tokens, nil
}

// SignOut deletes the session. Terminal; the device must sign in again.
func (s *AuthService) SignOut(ctx context.Context, sessionID, identityID string) error {
	if err := s.sessionRepo.Delete(ctx, sessionID); err != nil {
		return err
	}
	s.logEvent(ctx, identityID, audit.ActionSignOut, "auth", "")
	return nil
}

// terminateOnReplay deletes the session and returns ErrReplayDetected. The
// delete must land before the error is surfaced; if it fails, the store error
// wins so the caller fails closed without implying the session is gone.
func (s *AuthService) terminateOnReplay(ctx context.Context, sess *sessiondomain.Session, reason string) error {
	if err := s.sessionRepo.Delete(ctx, sess.ID); err != nil {
		return err
	}
	s.logEvent(ctx, sess.IdentityID, audit.ActionReplayDetected, "auth", reason)
	return ErrReplayDetected
}

func (s *AuthService) issuePair(ident *identitydomain.Identity, deviceID, privateKey string) (*TokenPair, error) {
	access, err := s.codec.Issue(ident.ID, ident.Email, deviceID, privateKey, s.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.codec.Issue(ident.ID, ident.Email, deviceID, privateKey, s.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    time.Now().UTC().Add(s.accessTTL),
	}, nil
}

func (s *AuthService) logEvent(ctx context.Context, identityID, action, resource, metadata string) {
	if s.audit != nil {
		s.audit.LogEvent(ctx, identityID, action, resource, metadata)
	}
}
