package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"coursegram.app/internal/audit"
	"coursegram.app/internal/obs"
)

// handleAuditList serves the operator trail view: ANDed filters, keyset
// pagination, newest first.
func (a *API) handleAuditList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	f := audit.Filter{
		ActorUserID: q.Get("actorUserId"),
		Action:      q.Get("action"),
		EntityType:  q.Get("entityType"),
		EntityID:    q.Get("entityId"),
		TraceID:     q.Get("traceId"),
	}
	if raw := q.Get("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, codeMalformedInput, "from must be RFC 3339")
			return
		}
		f.From = t
	}
	if raw := q.Get("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, codeMalformedInput, "to must be RFC 3339")
			return
		}
		f.To = t
	}

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, codeMalformedInput, "limit must be an integer")
			return
		}
		limit = n
	}

	items, next, err := a.auditQuery.List(r.Context(), f, q.Get("cursor"), limit)
	switch {
	case errors.Is(err, audit.ErrInvalidCursor):
		writeError(w, r, http.StatusBadRequest, codeMalformedInput, "invalid cursor")
		return
	case err != nil:
		obs.Logger().WithError(err).Error("audit list failed")
		writeError(w, r, http.StatusInternalServerError, codeInternal, "audit query failed")
		return
	}

	if items == nil {
		items = []audit.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items":       items,
		"next_cursor": next,
	})
}

func (a *API) handleAuditActions(w http.ResponseWriter, r *http.Request) {
	actions, err := a.auditQuery.Actions(r.Context())
	if err != nil {
		obs.Logger().WithError(err).Error("audit actions failed")
		writeError(w, r, http.StatusInternalServerError, codeInternal, "audit query failed")
		return
	}
	if actions == nil {
		actions = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"actions": actions})
}
