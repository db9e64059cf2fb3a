package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/iconic-inc/iconic-erp-sub000/internal/audit"
	auditrepo "github.com/iconic-inc/iconic-erp-sub000/internal/audit/repository"
	identitydomain "github.com/iconic-inc/iconic-erp-sub000/internal/identity/domain"
	identityrepo "github.com/iconic-inc/iconic-erp-sub000/internal/identity/repository"
	"github.com/iconic-inc/iconic-erp-sub000/internal/security"
	sessionrepo "github.com/iconic-inc/iconic-erp-sub000/internal/session/repository"
)

const (
	testPassword = "S3cret!password"
	testUsername = "alice"
)

type fixture struct {
	svc        *AuthService
	identities *identityrepo.MemoryRepository
	sessions   *sessionrepo.MemoryRepository
	auditRepo  *auditrepo.MemoryRepository
	alice      *identitydomain.Identity
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	identities := identityrepo.NewMemoryRepository()
	sessions := sessionrepo.NewMemoryRepository()
	auditRepo := auditrepo.NewMemoryRepository()

	hasher := security.NewHasher(4) // min cost for test speed
	hash, err := hasher.Hash([]byte(testPassword))
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	now := time.Now().UTC()
	alice := &identitydomain.Identity{
		ID:           uuid.New().String(),
		Email:        "alice@example.com",
		Username:     testUsername,
		Name:         "Alice",
		PasswordHash: hash,
		RoleSlug:     "employee",
		Status:       identitydomain.IdentityStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := identities.Create(ctx, alice); err != nil {
		t.Fatalf("Create identity: %v", err)
	}

	svc := NewAuthService(
		identities, sessions, hasher,
		security.NewTokenCodec("erp-auth"),
		audit.NewLogger(auditRepo, nil, nil),
		time.Hour, 7*24*time.Hour,
	)
	return &fixture{svc: svc, identities: identities, sessions: sessions, auditRepo: auditRepo, alice: alice}
}

func (f *fixture) signIn(t *testing.T, deviceID string) *SignInResult {
	t.Helper()
	res, err := f.svc.SignIn(context.Background(), testUsername, testPassword, deviceID)
	if err != nil {
		t.Fatalf("SignIn(%s): %v", deviceID, err)
	}
	return res
}

func TestSignIn_Success(t *testing.T) {
	f := newFixture(t)
	res := f.signIn(t, "B1")
	if res.Identity.ID != f.alice.ID {
		t.Errorf("identity = %s, want alice", res.Identity.ID)
	}
	if res.Tokens.AccessToken == "" || res.Tokens.RefreshToken == "" {
		t.Error("empty token pair")
	}
	if res.Tokens.AccessToken == res.Tokens.RefreshToken {
		t.Error("access and refresh tokens are identical")
	}
	sess, err := f.sessions.GetByIdentityAndDevice(context.Background(), f.alice.ID, "B1")
	if err != nil || sess == nil {
		t.Fatalf("session after sign-in: %v, %v", sess, err)
	}
	if !security.RefreshTokenHashEqual(res.Tokens.RefreshToken, sess.RefreshTokenHash) {
		t.Error("stored refresh hash does not match issued token")
	}
}

func TestSignIn_Failures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cases := []struct{ username, password, device string }{
		{"nobody", testPassword, "B1"},
		{testUsername, "wrong", "B1"},
		{testUsername, testPassword, ""},
		{"", "", "B1"},
	}
	for _, tc := range cases {
		if _, err := f.svc.SignIn(ctx, tc.username, tc.password, tc.device); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("SignIn(%q, %q, %q) = %v, want ErrInvalidCredentials", tc.username, tc.password, tc.device, err)
		}
	}
}

func TestSignIn_DisabledIdentity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.alice.Status = identitydomain.IdentityStatusDisabled
	if err := f.identities.Create(ctx, f.alice); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.svc.SignIn(ctx, testUsername, testPassword, "B1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("SignIn disabled = %v, want ErrInvalidCredentials", err)
	}
}

func TestSignIn_EmailFallback(t *testing.T) {
	f := newFixture(t)
	res, err := f.svc.SignIn(context.Background(), "alice@example.com", testPassword, "B1")
	if err != nil {
		t.Fatalf("SignIn by email: %v", err)
	}
	if res.Identity.ID != f.alice.ID {
		t.Errorf("identity = %s, want alice", res.Identity.ID)
	}
}

func TestSignIn_TwoDevicesIndependentSessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.signIn(t, "B1")
	b := f.signIn(t, "B2")

	s1, _ := f.sessions.GetByIdentityAndDevice(ctx, f.alice.ID, "B1")
	s2, _ := f.sessions.GetByIdentityAndDevice(ctx, f.alice.ID, "B2")
	if s1 == nil || s2 == nil {
		t.Fatal("missing session")
	}
	if s1.PublicKey == s2.PublicKey {
		t.Error("two sessions share a keypair")
	}

	// Revoking one device leaves the other's tokens valid.
	if err := f.svc.SignOut(ctx, s1.ID, f.alice.ID); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if _, _, err := f.svc.Authenticate(ctx, a.Tokens.AccessToken, "B1", f.alice.ID); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Authenticate on revoked device = %v, want ErrUnauthorized", err)
	}
	if _, _, err := f.svc.Authenticate(ctx, b.Tokens.AccessToken, "B2", f.alice.ID); err != nil {
		t.Errorf("Authenticate on surviving device: %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.signIn(t, "B1")

	ident, sess, err := f.svc.Authenticate(ctx, res.Tokens.AccessToken, "B1", f.alice.ID)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if ident.ID != f.alice.ID || sess.DeviceID != "B1" {
		t.Errorf("got identity %s session device %s", ident.ID, sess.DeviceID)
	}

	// Claimed identity must match the token's.
	if _, _, err := f.svc.Authenticate(ctx, res.Tokens.AccessToken, "B1", "mallory"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("mismatched claim = %v, want ErrUnauthorized", err)
	}
	// Device must match the token's.
	if _, _, err := f.svc.Authenticate(ctx, res.Tokens.AccessToken, "B2", f.alice.ID); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("wrong device = %v, want ErrUnauthorized", err)
	}
	// Garbage token.
	if _, _, err := f.svc.Authenticate(ctx, "junk", "B1", f.alice.ID); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("garbage token = %v, want ErrUnauthorized", err)
	}
}

func TestAuthenticate_TokenFromOtherSessionRejected(t *testing.T) {
	// A token signed under the old session keypair must not verify against a
	// replacement session's keypair.
	f := newFixture(t)
	ctx := context.Background()
	old := f.signIn(t, "B1")
	f.signIn(t, "B1") // replaces the session with a new keypair

	if _, _, err := f.svc.Authenticate(ctx, old.Tokens.AccessToken, "B1", f.alice.ID); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("old token after re-signin = %v, want ErrUnauthorized", err)
	}
}

func TestRefresh_RotatesAndDetectsReplay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.signIn(t, "B1")
	r1 := res.Tokens.RefreshToken

	second, err := f.svc.Refresh(ctx, f.alice.ID, r1, "B1")
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if second.RefreshToken == r1 {
		t.Fatal("refresh did not rotate the token")
	}

	// Replaying R1 terminates the session.
	if _, err := f.svc.Refresh(ctx, f.alice.ID, r1, "B1"); !errors.Is(err, ErrReplayDetected) {
		t.Fatalf("replay = %v, want ErrReplayDetected", err)
	}
	if sess, _ := f.sessions.GetByIdentityAndDevice(ctx, f.alice.ID, "B1"); sess != nil {
		t.Error("session survived replay detection")
	}
	// The freshly issued pair is dead too: the session is gone.
	if _, _, err := f.svc.Authenticate(ctx, second.AccessToken, "B1", f.alice.ID); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Authenticate after replay = %v, want ErrUnauthorized", err)
	}
	if _, err := f.svc.Refresh(ctx, f.alice.ID, second.RefreshToken, "B1"); !errors.Is(err, ErrBadRefreshRequest) {
		t.Errorf("Refresh after replay = %v, want ErrBadRefreshRequest", err)
	}
}

func TestRefresh_BadRequests(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.signIn(t, "B1")

	// Identity claim mismatch.
	if _, err := f.svc.Refresh(ctx, "mallory", res.Tokens.RefreshToken, "B1"); !errors.Is(err, ErrBadRefreshRequest) {
		t.Errorf("claim mismatch = %v, want ErrBadRefreshRequest", err)
	}
	// No session for that device.
	if _, err := f.svc.Refresh(ctx, f.alice.ID, res.Tokens.RefreshToken, "B9"); !errors.Is(err, ErrBadRefreshRequest) {
		t.Errorf("unknown device = %v, want ErrBadRefreshRequest", err)
	}
	// Garbage token.
	if _, err := f.svc.Refresh(ctx, f.alice.ID, "junk", "B1"); !errors.Is(err, ErrBadRefreshRequest) {
		t.Errorf("garbage = %v, want ErrBadRefreshRequest", err)
	}
	// A structurally valid token this session never issued: use the access
	// token, whose hash matches neither current nor history.
	if _, err := f.svc.Refresh(ctx, f.alice.ID, res.Tokens.AccessToken, "B1"); !errors.Is(err, ErrBadRefreshRequest) {
		t.Errorf("foreign token = %v, want ErrBadRefreshRequest", err)
	}
	// None of the above may have killed the session.
	if sess, _ := f.sessions.GetByIdentityAndDevice(ctx, f.alice.ID, "B1"); sess == nil {
		t.Error("session deleted by a non-replay failure")
	}
}

func TestRefresh_CrossDeviceIsolation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.signIn(t, "B1")
	b := f.signIn(t, "B2")

	if _, err := f.svc.Refresh(ctx, f.alice.ID, a.Tokens.RefreshToken, "B1"); err != nil {
		t.Fatalf("Refresh B1: %v", err)
	}
	s2, _ := f.sessions.GetByIdentityAndDevice(ctx, f.alice.ID, "B2")
	if len(s2.UsedTokenHashes) != 0 {
		t.Errorf("B2 history touched by B1 refresh: %v", s2.UsedTokenHashes)
	}
	if _, err := f.svc.Refresh(ctx, f.alice.ID, b.Tokens.RefreshToken, "B2"); err != nil {
		t.Errorf("Refresh B2 after B1: %v", err)
	}
}

// conflictingSessionRepo forces the rotate CAS to report a lost race.
type conflictingSessionRepo struct {
	*sessionrepo.MemoryRepository
}

func (r *conflictingSessionRepo) Rotate(ctx context.Context, sessionID, oldHash, newHash string, usedHashes []string) error {
	return sessionrepo.ErrRotateConflict
}

func TestRefresh_RotateConflictTreatedAsReplay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	wrapped := &conflictingSessionRepo{MemoryRepository: f.sessions}
	svc := NewAuthService(
		f.identities, wrapped, security.NewHasher(4),
		security.NewTokenCodec("erp-auth"),
		audit.NewLogger(f.auditRepo, nil, nil),
		time.Hour, 7*24*time.Hour,
	)
	res, err := svc.SignIn(ctx, testUsername, testPassword, "B1")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if _, err := svc.Refresh(ctx, f.alice.ID, res.Tokens.RefreshToken, "B1"); !errors.Is(err, ErrReplayDetected) {
		t.Fatalf("conflict = %v, want ErrReplayDetected", err)
	}
	if sess, _ := f.sessions.GetByIdentityAndDevice(ctx, f.alice.ID, "B1"); sess != nil {
		t.Error("session survived rotate conflict")
	}
}

func TestAuditTrail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.signIn(t, "B1")
	if _, err := f.svc.Refresh(ctx, f.alice.ID, res.Tokens.RefreshToken, "B1"); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if _, err := f.svc.Refresh(ctx, f.alice.ID, res.Tokens.RefreshToken, "B1"); !errors.Is(err, ErrReplayDetected) {
		t.Fatalf("replay = %v", err)
	}

	var actions []string
	for _, e := range f.auditRepo.All() {
		actions = append(actions, e.Action)
	}
	want := []string{audit.ActionSignInSuccess, audit.ActionTokenRefresh, audit.ActionReplayDetected}
	if len(actions) != len(want) {
		t.Fatalf("audit actions = %v, want %v", actions, want)
	}
	for i := range want {
		if actions[i] != want[i] {
			t.Errorf("audit[%d] = %s, want %s", i, actions[i], want[i])
		}
	}
}
