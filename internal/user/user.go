// Package user owns platform accounts: the persisted identity a session
// token resolves to, the platform role attached to it, and the ban gate.
package user

import (
	"context"
	"errors"
	"time"

	"coursegram.app/internal/auth"
)

var (
	ErrNotFound     = errors.New("user: not found")
	ErrInvalidInput = errors.New("user: invalid input")
)

// User is a platform account. BannedAt non-nil permanently blocks every
// authenticated request regardless of role.
type User struct {
	ID           string            `json:"id"`
	TelegramID   int64             `json:"telegram_id"`
	Username     string            `json:"username,omitempty"`
	FirstName    string            `json:"first_name,omitempty"`
	LastName     string            `json:"last_name,omitempty"`
	PhotoURL     string            `json:"photo_url,omitempty"`
	PlatformRole auth.PlatformRole `json:"platform_role"`
	BannedAt     *time.Time        `json:"banned_at,omitempty"`
	BannedReason string            `json:"banned_reason,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// IsBanned reports whether the account is blocked from authenticated access.
func (u User) IsBanned() bool { return u.BannedAt != nil }

// Store describes persistence operations for platform accounts.
type Store interface {
	FindByID(ctx context.Context, id string) (User, error)
	FindByTelegramID(ctx context.Context, telegramID int64) (User, error)
	// UpsertByTelegramID creates the account on first login and refreshes
	// display fields on subsequent logins, keyed by telegram_id. Role and
	// ban fields are never touched by login.
	UpsertByTelegramID(ctx context.Context, u User) (User, error)
	UpdatePlatformRole(ctx context.Context, id string, role auth.PlatformRole) (User, error)
	SetBanned(ctx context.Context, id, reason string, banned bool) (User, error)
	List(ctx context.Context) ([]User, error)
}

type ctxKey struct{}

// ContextWith attaches the resolved account to the request context.
func ContextWith(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, ctxKey{}, &u)
}

// FromContext extracts the resolved account from the context.
func FromContext(ctx context.Context) (User, bool) {
	if ctx == nil {
		return User{}, false
	}
	v, ok := ctx.Value(ctxKey{}).(*User)
	if !ok || v == nil {
		return User{}, false
	}
	return *v, true
}
