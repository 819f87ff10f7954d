package expert

import (
	"context"
	"errors"
	"testing"

	"coursegram.app/internal/auth"
)

type stubStore struct {
	createFn     func(context.Context, Expert, string) (Expert, error)
	addMemberFn  func(context.Context, Membership) (Membership, error)
	findMemberFn func(context.Context, string, string) (Membership, error)
}

func (s *stubStore) CreateExpert(ctx context.Context, e Expert, owner string) (Expert, error) {
	if s.createFn != nil {
		return s.createFn(ctx, e, owner)
	}
	return e, nil
}

func (s *stubStore) GetExpert(ctx context.Context, id string) (Expert, error) {
	return Expert{}, ErrNotFound
}

func (s *stubStore) ListExperts(ctx context.Context) ([]Expert, error) { return nil, nil }

func (s *stubStore) AddMember(ctx context.Context, m Membership) (Membership, error) {
	if s.addMemberFn != nil {
		return s.addMemberFn(ctx, m)
	}
	return m, nil
}

func (s *stubStore) UpdateMemberRole(ctx context.Context, expertID, userID string, role auth.ExpertRole) (Membership, error) {
	return Membership{ExpertID: expertID, UserID: userID, Role: role}, nil
}

func (s *stubStore) RemoveMember(ctx context.Context, expertID, userID string) error { return nil }

func (s *stubStore) FindMember(ctx context.Context, expertID, userID string) (Membership, error) {
	if s.findMemberFn != nil {
		return s.findMemberFn(ctx, expertID, userID)
	}
	return Membership{}, ErrNotFound
}

func (s *stubStore) ListMembers(ctx context.Context, expertID string) ([]Membership, error) {
	return nil, nil
}

func TestCreateValidatesInput(t *testing.T) {
	svc, err := NewService(&stubStore{})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	if _, err := svc.Create(context.Background(), "  ", "", "usr_1"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty name, got %v", err)
	}
	if _, err := svc.Create(context.Background(), "School", "", " "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty owner, got %v", err)
	}
}

func TestCreateAssignsIDAndTrims(t *testing.T) {
	var captured Expert
	svc, _ := NewService(&stubStore{
		createFn: func(_ context.Context, e Expert, owner string) (Expert, error) {
			captured = e
			if owner != "usr_1" {
				t.Fatalf("unexpected owner: %s", owner)
			}
			return e, nil
		},
	})

	if _, err := svc.Create(context.Background(), "  School  ", "  about  ", "usr_1"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if captured.ID == "" {
		t.Fatal("expected generated id")
	}
	if captured.Name != "School" || captured.Description != "about" {
		t.Fatalf("fields not trimmed: %+v", captured)
	}
}

func TestMemberRequiresBothIDs(t *testing.T) {
	svc, _ := NewService(&stubStore{})

	if _, err := svc.Member(context.Background(), "", "usr_1"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := svc.Member(context.Background(), "exp_1", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAddMemberRejectsUnknownRole(t *testing.T) {
	svc, _ := NewService(&stubStore{})

	if _, err := svc.AddMember(context.Background(), "exp_1", "usr_1", auth.ExpertRole("ceo")); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAddMemberPassesThroughConflict(t *testing.T) {
	svc, _ := NewService(&stubStore{
		addMemberFn: func(context.Context, Membership) (Membership, error) {
			return Membership{}, ErrConflict
		},
	})

	if _, err := svc.AddMember(context.Background(), "exp_1", "usr_1", auth.ExpertRoleSupport); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}
