package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func newTestService(t *testing.T, ttl time.Duration) *TokenService {
	t.Helper()
	svc, err := NewTokenService("test-secret", ttl)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return svc
}

func TestIssueValidateRoundTrip(t *testing.T) {
	svc := newTestService(t, 15*time.Minute)

	token, expiresAt, err := svc.Issue("user-42", 777000)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}
	if until := time.Until(expiresAt); until < 14*time.Minute || until > 16*time.Minute {
		t.Fatalf("unexpected expiry horizon: %v", until)
	}

	session, err := svc.Validate(token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if session.UserID != "user-42" {
		t.Fatalf("unexpected user id: %s", session.UserID)
	}
	if session.TelegramID != 777000 {
		t.Fatalf("unexpected telegram id: %d", session.TelegramID)
	}
}

func TestValidateExpiredToken(t *testing.T) {
	svc := newTestService(t, time.Millisecond)

	token, _, err := svc.Issue("user-42", 777000)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	time.Sleep(10 * time.Millisecond)
	if _, err := svc.Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestValidateRejectsTamperedToken(t *testing.T) {
	svc := newTestService(t, 15*time.Minute)

	token, _, err := svc.Issue("user-42", 777000)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	tampered := token[:len(token)-2] + "xx"
	if _, err := svc.Validate(tampered); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	svc := newTestService(t, 15*time.Minute)
	other, err := NewTokenService("other-secret", 15*time.Minute)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	token, _, err := other.Issue("user-42", 777000)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if _, err := svc.Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestValidateRejectsAlternateAlgorithm(t *testing.T) {
	svc := newTestService(t, 15*time.Minute)

	now := time.Now().UTC()
	claims := Claims{
		TelegramID: 777000,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   "user-42",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	// Same secret, different HMAC variant: must still be rejected.
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS384, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := svc.Validate(signed); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestValidateRejectsForeignIssuer(t *testing.T) {
	svc := newTestService(t, 15*time.Minute)

	now := time.Now().UTC()
	claims := Claims{
		TelegramID: 777000,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			Subject:   "user-42",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := svc.Validate(signed); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestValidateEmptyAndGarbageInput(t *testing.T) {
	svc := newTestService(t, 15*time.Minute)

	for _, token := range []string{"", "   ", "not-a-jwt", "a.b.c"} {
		if _, err := svc.Validate(token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("token %q: expected ErrInvalidToken, got %v", token, err)
		}
	}
}

func TestNewTokenServiceValidation(t *testing.T) {
	if _, err := NewTokenService("", time.Minute); err == nil {
		t.Fatal("expected error for empty secret")
	}
	if _, err := NewTokenService("secret", 0); err == nil {
		t.Fatal("expected error for zero ttl")
	}
}

func TestIssueValidation(t *testing.T) {
	svc := newTestService(t, time.Minute)
	if _, _, err := svc.Issue("", 777000); err == nil {
		t.Fatal("expected error for empty user id")
	}
	if _, _, err := svc.Issue("user-42", 0); err == nil {
		t.Fatal("expected error for missing telegram id")
	}
}
