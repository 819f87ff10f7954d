package audit

import (
	"context"
	"errors"
)

const (
	// MaxPageSize caps a single trail page.
	MaxPageSize = 200
	// DefaultPageSize applies when the caller sends no limit.
	DefaultPageSize = 50
)

// Query is the operator-facing read path over the trail: multi-filter,
// keyset-paginated, ordered `created_at DESC, id DESC`. The tuple predicate
// keeps pages stable under concurrent inserts — new entries sort before the
// cursor's fixed point and never reappear in a later page.
type Query struct {
	store Store
}

func NewQuery(store Store) (*Query, error) {
	if store == nil {
		return nil, errors.New("audit store is required")
	}
	return &Query{store: store}, nil
}

// List returns one page plus an opaque cursor for the next one, empty when
// the trail is exhausted. One extra row is fetched to detect a next page
// without a second query.
func (q *Query) List(ctx context.Context, f Filter, cursor string, limit int) ([]Entry, string, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	page := Page{Limit: limit + 1}
	if cursor != "" {
		c, err := DecodeCursor(cursor)
		if err != nil {
			return nil, "", err
		}
		page.Cursor = &c
	}

	items, err := q.store.List(ctx, f, page)
	if err != nil {
		return nil, "", err
	}

	next := ""
	if len(items) > limit {
		items = items[:limit]
		last := items[len(items)-1]
		next = EncodeCursor(Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return items, next, nil
}

// Actions returns the distinct action strings present in the trail.
func (q *Query) Actions(ctx context.Context) ([]string, error) {
	return q.store.Actions(ctx)
}
