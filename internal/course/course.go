// Package course is the minimal catalog surface the expert-scoped guard
// protects. Lesson content and progress tracking live outside this service.
package course

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"coursegram.app/internal/ids"
)

var (
	ErrNotFound     = errors.New("course: not found")
	ErrInvalidInput = errors.New("course: invalid input")
)

type Course struct {
	ID          string    `json:"id"`
	ExpertID    string    `json:"expert_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Published   bool      `json:"published"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Update struct {
	Title       *string
	Description *string
	Published   *bool
}

type Store interface {
	Create(ctx context.Context, c Course) (Course, error)
	Get(ctx context.Context, expertID, id string) (Course, error)
	Update(ctx context.Context, expertID, id string, upd Update) (Course, error)
	Delete(ctx context.Context, expertID, id string) error
	ListByExpert(ctx context.Context, expertID string) ([]Course, error)
}

type Service struct {
	store Store
}

func NewService(store Store) (*Service, error) {
	if store == nil {
		return nil, errors.New("course store is required")
	}
	return &Service{store: store}, nil
}

func (s *Service) Create(ctx context.Context, expertID, title, description string) (Course, error) {
	expertID = strings.TrimSpace(expertID)
	if expertID == "" {
		return Course{}, fmt.Errorf("%w: expert id is required", ErrInvalidInput)
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return Course{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	return s.store.Create(ctx, Course{
		ID:          ids.New(),
		ExpertID:    expertID,
		Title:       title,
		Description: strings.TrimSpace(description),
	})
}

func (s *Service) Update(ctx context.Context, expertID, id string, upd Update) (Course, error) {
	expertID = strings.TrimSpace(expertID)
	id = strings.TrimSpace(id)
	if expertID == "" || id == "" {
		return Course{}, fmt.Errorf("%w: expert id and course id are required", ErrInvalidInput)
	}
	if upd.Title != nil {
		title := strings.TrimSpace(*upd.Title)
		if title == "" {
			return Course{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
		}
		upd.Title = &title
	}
	if upd.Description != nil {
		desc := strings.TrimSpace(*upd.Description)
		upd.Description = &desc
	}
	return s.store.Update(ctx, expertID, id, upd)
}

func (s *Service) Delete(ctx context.Context, expertID, id string) error {
	expertID = strings.TrimSpace(expertID)
	id = strings.TrimSpace(id)
	if expertID == "" || id == "" {
		return fmt.Errorf("%w: expert id and course id are required", ErrInvalidInput)
	}
	return s.store.Delete(ctx, expertID, id)
}

func (s *Service) ListByExpert(ctx context.Context, expertID string) ([]Course, error) {
	expertID = strings.TrimSpace(expertID)
	if expertID == "" {
		return nil, fmt.Errorf("%w: expert id is required", ErrInvalidInput)
	}
	return s.store.ListByExpert(ctx, expertID)
}
