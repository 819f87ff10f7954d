// Package audit records authorization decisions and privileged mutations in
// an append-only trail. Every guard denial must land here before the denial
// response is written.
package audit

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var ErrInvalidCursor = errors.New("audit: invalid cursor")

// Entry is one append-only trail record. ID and CreatedAt together form the
// pagination key.
type Entry struct {
	ID          string         `json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	ActorUserID string         `json:"actor_user_id,omitempty"`
	Action      string         `json:"action"`
	EntityType  string         `json:"entity_type,omitempty"`
	EntityID    string         `json:"entity_id,omitempty"`
	TraceID     string         `json:"trace_id,omitempty"`
	Meta        map[string]any `json:"meta,omitempty"`
}

// Filter narrows a trail query. Zero-valued fields are ignored; set fields
// are ANDed.
type Filter struct {
	ActorUserID string
	Action      string
	EntityType  string
	EntityID    string
	TraceID     string
	From        time.Time
	To          time.Time
}

// Cursor pins the keyset position: the next page strictly precedes
// (CreatedAt, ID) in the `created_at DESC, id DESC` order.
type Cursor struct {
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id"`
}

// Page is the storage-level pagination request. Limit already includes the
// extra probe row the query service asks for.
type Page struct {
	Limit  int
	Cursor *Cursor
}

// Store appends and reads trail entries.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	List(ctx context.Context, f Filter, page Page) ([]Entry, error)
	Actions(ctx context.Context) ([]string, error)
}

// EncodeCursor serializes a cursor for the wire.
func EncodeCursor(c Cursor) string {
	raw, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeCursor parses a wire cursor, failing with ErrInvalidCursor on any
// defect.
func DecodeCursor(s string) (Cursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return Cursor{}, ErrInvalidCursor
	}
	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return Cursor{}, ErrInvalidCursor
	}
	if c.ID == "" || c.CreatedAt.IsZero() {
		return Cursor{}, ErrInvalidCursor
	}
	return c, nil
}

type ctxKey struct{}

// WithTraceID attaches the request trace identifier so every entry recorded
// during the request correlates with it.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	traceID = strings.TrimSpace(traceID)
	if traceID == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, traceID)
}

func traceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxKey{}).(string); ok {
		return v
	}
	return ""
}
