package security

import (
	"errors"
	"testing"
	"time"
)

const testIssuer = "erp-auth"

func TestTokenCodec_IssueAndVerify(t *testing.T) {
	kp := testKeys(t)
	codec := NewTokenCodec(testIssuer)

	token, err := codec.Issue("id-1", "alice@example.com", "dev-1", kp.PrivateKey, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	claims, err := codec.Verify(token, kp.PublicKey)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.IdentityID != "id-1" || claims.Email != "alice@example.com" || claims.DeviceID != "dev-1" {
		t.Errorf("claims = %+v", claims)
	}
	if claims.Subject != "id-1" {
		t.Errorf("sub = %q, want id-1", claims.Subject)
	}
}

func TestTokenCodec_VerifyWrongKey(t *testing.T) {
	kp := testKeys(t)
	other, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	codec := NewTokenCodec(testIssuer)
	token, err := codec.Issue("id-1", "alice@example.com", "dev-1", kp.PrivateKey, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := codec.Verify(token, other.PublicKey); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Verify with wrong key = %v, want ErrInvalidToken", err)
	}
}

func TestTokenCodec_VerifyExpired(t *testing.T) {
	kp := testKeys(t)
	codec := NewTokenCodec(testIssuer)
	token, err := codec.Issue("id-1", "alice@example.com", "dev-1", kp.PrivateKey, -time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := codec.Verify(token, kp.PublicKey); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("Verify expired = %v, want ErrTokenExpired", err)
	}
}

func TestTokenCodec_VerifyWrongIssuer(t *testing.T) {
	kp := testKeys(t)
	token, err := NewTokenCodec("someone-else").Issue("id-1", "a@b.c", "dev-1", kp.PrivateKey, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := NewTokenCodec(testIssuer).Verify(token, kp.PublicKey); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Verify = %v, want ErrInvalidToken", err)
	}
}

func TestTokenCodec_DecodeUnverified(t *testing.T) {
	kp := testKeys(t)
	codec := NewTokenCodec(testIssuer)
	token, err := codec.Issue("id-1", "alice@example.com", "dev-1", kp.PrivateKey, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	// Decoding must work without any key: it only locates the session.
	uc, err := codec.DecodeUnverified(token)
	if err != nil {
		t.Fatalf("DecodeUnverified: %v", err)
	}
	if uc.IdentityID != "id-1" || uc.DeviceID != "dev-1" {
		t.Errorf("unverified claims = %+v", uc)
	}
}

func TestTokenCodec_DecodeUnverified_Garbage(t *testing.T) {
	codec := NewTokenCodec(testIssuer)
	if _, err := codec.DecodeUnverified("not.a.jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("DecodeUnverified = %v, want ErrInvalidToken", err)
	}
}
