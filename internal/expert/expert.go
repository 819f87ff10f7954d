// Package expert owns tenant scopes ("experts") and per-scope memberships.
// A membership ranks one user inside one expert; the (expert, user) pair is
// unique at the storage level.
package expert

import (
	"context"
	"errors"
	"time"

	"coursegram.app/internal/auth"
)

var (
	ErrNotFound     = errors.New("expert: not found")
	ErrConflict     = errors.New("expert: already exists")
	ErrInvalidInput = errors.New("expert: invalid input")
)

// Expert is a tenant scope courses and memberships hang off.
type Expert struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Membership is a user's role inside one expert scope.
type Membership struct {
	ExpertID  string          `json:"expert_id"`
	UserID    string          `json:"user_id"`
	Role      auth.ExpertRole `json:"role"`
	CreatedAt time.Time       `json:"created_at"`
}

// Store describes persistence for experts and memberships. Duplicate member
// inserts are rejected by the storage uniqueness guarantee, not serialized by
// locks.
type Store interface {
	// CreateExpert inserts the expert and its initial owner membership in
	// one transaction.
	CreateExpert(ctx context.Context, e Expert, ownerUserID string) (Expert, error)
	GetExpert(ctx context.Context, id string) (Expert, error)
	ListExperts(ctx context.Context) ([]Expert, error)

	AddMember(ctx context.Context, m Membership) (Membership, error)
	UpdateMemberRole(ctx context.Context, expertID, userID string, role auth.ExpertRole) (Membership, error)
	RemoveMember(ctx context.Context, expertID, userID string) error
	FindMember(ctx context.Context, expertID, userID string) (Membership, error)
	ListMembers(ctx context.Context, expertID string) ([]Membership, error)
}
