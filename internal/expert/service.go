package expert

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"coursegram.app/internal/auth"
	"coursegram.app/internal/ids"
)

type Service struct {
	store Store
}

func NewService(store Store) (*Service, error) {
	if store == nil {
		return nil, errors.New("expert store is required")
	}
	return &Service{store: store}, nil
}

// Create registers a new expert scope and makes ownerUserID its owner.
func (s *Service) Create(ctx context.Context, name, description, ownerUserID string) (Expert, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Expert{}, fmt.Errorf("%w: expert name is required", ErrInvalidInput)
	}
	ownerUserID = strings.TrimSpace(ownerUserID)
	if ownerUserID == "" {
		return Expert{}, fmt.Errorf("%w: owner user id is required", ErrInvalidInput)
	}
	return s.store.CreateExpert(ctx, Expert{
		ID:          ids.New(),
		Name:        name,
		Description: strings.TrimSpace(description),
	}, ownerUserID)
}

func (s *Service) Get(ctx context.Context, id string) (Expert, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Expert{}, fmt.Errorf("%w: expert id is required", ErrInvalidInput)
	}
	return s.store.GetExpert(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Expert, error) {
	return s.store.ListExperts(ctx)
}

// Member returns the caller's membership in the given scope. Guards consult
// this on every request; nothing is cached across requests.
func (s *Service) Member(ctx context.Context, expertID, userID string) (Membership, error) {
	expertID = strings.TrimSpace(expertID)
	userID = strings.TrimSpace(userID)
	if expertID == "" || userID == "" {
		return Membership{}, fmt.Errorf("%w: expert id and user id are required", ErrInvalidInput)
	}
	return s.store.FindMember(ctx, expertID, userID)
}

func (s *Service) AddMember(ctx context.Context, expertID, userID string, role auth.ExpertRole) (Membership, error) {
	expertID = strings.TrimSpace(expertID)
	userID = strings.TrimSpace(userID)
	if expertID == "" || userID == "" {
		return Membership{}, fmt.Errorf("%w: expert id and user id are required", ErrInvalidInput)
	}
	if !role.Valid() {
		return Membership{}, fmt.Errorf("%w: unknown expert role %q", ErrInvalidInput, role)
	}
	return s.store.AddMember(ctx, Membership{ExpertID: expertID, UserID: userID, Role: role})
}

func (s *Service) UpdateMemberRole(ctx context.Context, expertID, userID string, role auth.ExpertRole) (Membership, error) {
	expertID = strings.TrimSpace(expertID)
	userID = strings.TrimSpace(userID)
	if expertID == "" || userID == "" {
		return Membership{}, fmt.Errorf("%w: expert id and user id are required", ErrInvalidInput)
	}
	if !role.Valid() {
		return Membership{}, fmt.Errorf("%w: unknown expert role %q", ErrInvalidInput, role)
	}
	return s.store.UpdateMemberRole(ctx, expertID, userID, role)
}

func (s *Service) RemoveMember(ctx context.Context, expertID, userID string) error {
	expertID = strings.TrimSpace(expertID)
	userID = strings.TrimSpace(userID)
	if expertID == "" || userID == "" {
		return fmt.Errorf("%w: expert id and user id are required", ErrInvalidInput)
	}
	return s.store.RemoveMember(ctx, expertID, userID)
}

func (s *Service) ListMembers(ctx context.Context, expertID string) ([]Membership, error) {
	expertID = strings.TrimSpace(expertID)
	if expertID == "" {
		return nil, fmt.Errorf("%w: expert id is required", ErrInvalidInput)
	}
	return s.store.ListMembers(ctx, expertID)
}
