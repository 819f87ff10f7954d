package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"coursegram.app/internal/auth"
	"coursegram.app/internal/telegram"
)

type stubStore struct {
	findByIDFn   func(context.Context, string) (User, error)
	upsertFn     func(context.Context, User) (User, error)
	updateRoleFn func(context.Context, string, auth.PlatformRole) (User, error)
	setBannedFn  func(context.Context, string, string, bool) (User, error)
}

func (s *stubStore) FindByID(ctx context.Context, id string) (User, error) {
	if s.findByIDFn != nil {
		return s.findByIDFn(ctx, id)
	}
	return User{}, ErrNotFound
}

func (s *stubStore) FindByTelegramID(ctx context.Context, telegramID int64) (User, error) {
	return User{}, ErrNotFound
}

func (s *stubStore) UpsertByTelegramID(ctx context.Context, u User) (User, error) {
	if s.upsertFn != nil {
		return s.upsertFn(ctx, u)
	}
	return u, nil
}

func (s *stubStore) UpdatePlatformRole(ctx context.Context, id string, role auth.PlatformRole) (User, error) {
	if s.updateRoleFn != nil {
		return s.updateRoleFn(ctx, id, role)
	}
	return User{ID: id, PlatformRole: role}, nil
}

func (s *stubStore) SetBanned(ctx context.Context, id, reason string, banned bool) (User, error) {
	if s.setBannedFn != nil {
		return s.setBannedFn(ctx, id, reason, banned)
	}
	return User{ID: id}, nil
}

func (s *stubStore) List(ctx context.Context) ([]User, error) { return nil, nil }

func TestResolveRequiresID(t *testing.T) {
	svc, err := NewService(&stubStore{})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	if _, err := svc.Resolve(context.Background(), "  "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestLoginFromTelegramDefaultsToLowestRole(t *testing.T) {
	var captured User
	svc, _ := NewService(&stubStore{
		upsertFn: func(_ context.Context, u User) (User, error) {
			captured = u
			return u, nil
		},
	})

	login := telegram.Login{TelegramID: 777000, Username: " danak ", FirstName: "Dana"}
	if _, err := svc.LoginFromTelegram(context.Background(), login); err != nil {
		t.Fatalf("LoginFromTelegram: %v", err)
	}
	if captured.PlatformRole != auth.PlatformRoleUser {
		t.Fatalf("expected default role user, got %s", captured.PlatformRole)
	}
	if captured.Username != "danak" {
		t.Fatalf("expected trimmed username, got %q", captured.Username)
	}
	if captured.ID == "" {
		t.Fatal("expected generated id")
	}
}

func TestLoginFromTelegramRejectsMissingID(t *testing.T) {
	svc, _ := NewService(&stubStore{})
	if _, err := svc.LoginFromTelegram(context.Background(), telegram.Login{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestChangeRoleRejectsUnknownRole(t *testing.T) {
	svc, _ := NewService(&stubStore{})
	if _, err := svc.ChangeRole(context.Background(), "user-1", auth.PlatformRole("root")); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestIsBanned(t *testing.T) {
	now := time.Now().UTC()
	if (User{}).IsBanned() {
		t.Fatal("fresh user must not be banned")
	}
	if !(User{BannedAt: &now}).IsBanned() {
		t.Fatal("user with banned_at must be banned")
	}
}

func TestContextRoundTrip(t *testing.T) {
	ctx := ContextWith(context.Background(), User{ID: "user-7"})
	u, ok := FromContext(ctx)
	if !ok || u.ID != "user-7" {
		t.Fatalf("unexpected context user: %+v, %v", u, ok)
	}
	if _, ok := FromContext(context.Background()); ok {
		t.Fatal("empty context must not yield a user")
	}
}
