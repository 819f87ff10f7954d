package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"coursegram.app/internal/auth"
	"coursegram.app/internal/ids"
	"coursegram.app/internal/telegram"
)

// Service wraps the store with input validation. It holds no per-request
// state: every call is a single datastore round-trip.
type Service struct {
	store Store
}

func NewService(store Store) (*Service, error) {
	if store == nil {
		return nil, errors.New("user store is required")
	}
	return &Service{store: store}, nil
}

// Resolve maps a validated session subject to its persisted account.
func (s *Service) Resolve(ctx context.Context, id string) (User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return User{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	return s.store.FindByID(ctx, id)
}

// LoginFromTelegram creates or refreshes the account behind a verified
// Telegram login. New accounts start at the lowest platform rank.
func (s *Service) LoginFromTelegram(ctx context.Context, login telegram.Login) (User, error) {
	if login.TelegramID <= 0 {
		return User{}, fmt.Errorf("%w: telegram id is required", ErrInvalidInput)
	}
	return s.store.UpsertByTelegramID(ctx, User{
		ID:           ids.New(),
		TelegramID:   login.TelegramID,
		Username:     strings.TrimSpace(login.Username),
		FirstName:    strings.TrimSpace(login.FirstName),
		LastName:     strings.TrimSpace(login.LastName),
		PhotoURL:     strings.TrimSpace(login.PhotoURL),
		PlatformRole: auth.PlatformRoleUser,
	})
}

// ChangeRole sets the platform role of an account.
func (s *Service) ChangeRole(ctx context.Context, id string, role auth.PlatformRole) (User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return User{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if !role.Valid() {
		return User{}, fmt.Errorf("%w: unknown platform role %q", ErrInvalidInput, role)
	}
	return s.store.UpdatePlatformRole(ctx, id, role)
}

// Ban blocks the account from all authenticated access.
func (s *Service) Ban(ctx context.Context, id, reason string) (User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return User{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	return s.store.SetBanned(ctx, id, strings.TrimSpace(reason), true)
}

// Unban lifts the ban.
func (s *Service) Unban(ctx context.Context, id string) (User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return User{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	return s.store.SetBanned(ctx, id, "", false)
}

// List returns all accounts in creation order.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.store.List(ctx)
}
