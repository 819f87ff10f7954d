package audit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"coursegram.app/internal/ids"
	"coursegram.app/internal/obs"
	"coursegram.app/internal/user"
)

// Recorder writes trail entries synchronously. In strict mode a storage
// failure propagates to the caller and fails the request; otherwise it is
// logged and swallowed so the denial still reaches the client. Strict mode is
// what makes the deny-audit invariant testable.
type Recorder struct {
	store  Store
	strict bool
}

func NewRecorder(store Store, strict bool) (*Recorder, error) {
	if store == nil {
		return nil, errors.New("audit store is required")
	}
	return &Recorder{store: store, strict: strict}, nil
}

// Record fills in id, timestamp, trace id and actor from the context, then
// appends the entry. It returns only after the store call completes, so a
// caller that writes its response afterwards gets the happens-before
// ordering the trail guarantees.
func (r *Recorder) Record(ctx context.Context, entry Entry) error {
	entry.Action = strings.TrimSpace(entry.Action)
	if entry.Action == "" {
		return errors.New("audit: action is required")
	}
	if entry.ID == "" {
		entry.ID = ids.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if entry.TraceID == "" {
		entry.TraceID = traceIDFromContext(ctx)
	}
	if entry.ActorUserID == "" {
		if u, ok := user.FromContext(ctx); ok {
			entry.ActorUserID = u.ID
		}
	}

	if err := r.store.Append(ctx, entry); err != nil {
		if r.strict {
			return fmt.Errorf("audit append: %w", err)
		}
		obs.Logger().WithError(err).WithField("action", entry.Action).Warn("audit append failed")
		return nil
	}
	return nil
}
