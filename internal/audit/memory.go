package audit

import (
	"context"
	"sort"
	"sync"
)

// InMemory implements Store with in-process concurrency safety. Used by
// tests as a stand-in for the postgres-backed trail.
type InMemory struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewInMemory creates an empty trail.
func NewInMemory() *InMemory {
	return &InMemory{}
}

func (s *InMemory) Append(ctx context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *InMemory) List(ctx context.Context, f Filter, page Page) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		if matches(e, f) {
			matched = append(matched, e)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	result := make([]Entry, 0, page.Limit)
	for _, e := range matched {
		if page.Cursor != nil && !before(e, *page.Cursor) {
			continue
		}
		result = append(result, e)
		if page.Limit > 0 && len(result) >= page.Limit {
			break
		}
	}
	return result, nil
}

func (s *InMemory) Actions(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	var actions []string
	for _, e := range s.entries {
		if _, ok := seen[e.Action]; ok {
			continue
		}
		seen[e.Action] = struct{}{}
		actions = append(actions, e.Action)
	}
	sort.Strings(actions)
	return actions, nil
}

func matches(e Entry, f Filter) bool {
	if f.ActorUserID != "" && e.ActorUserID != f.ActorUserID {
		return false
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if f.EntityType != "" && e.EntityType != f.EntityType {
		return false
	}
	if f.EntityID != "" && e.EntityID != f.EntityID {
		return false
	}
	if f.TraceID != "" && e.TraceID != f.TraceID {
		return false
	}
	if !f.From.IsZero() && e.CreatedAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && e.CreatedAt.After(f.To) {
		return false
	}
	return true
}

// before is the keyset predicate: (created_at, id) < (cursor.created_at,
// cursor.id) in the DESC ordering.
func before(e Entry, c Cursor) bool {
	if e.CreatedAt.Before(c.CreatedAt) {
		return true
	}
	if e.CreatedAt.Equal(c.CreatedAt) {
		return e.ID < c.ID
	}
	return false
}
