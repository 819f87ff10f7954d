package httpapi

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"coursegram.app/internal/audit"
	"coursegram.app/internal/auth"
	"coursegram.app/internal/obs"
	"coursegram.app/internal/user"
)

func (a *API) handleAdminListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.users.List(r.Context())
	if err != nil {
		obs.Logger().WithError(err).Error("user list failed")
		writeError(w, r, http.StatusInternalServerError, codeInternal, "listing users failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

type changeRoleRequest struct {
	Role string `json:"role"`
}

func (a *API) handleAdminChangeRole(w http.ResponseWriter, r *http.Request) {
	targetID := mux.Vars(r)["userID"]

	var req changeRoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeMalformedInput, err.Error())
		return
	}
	role, ok := auth.ParsePlatformRole(req.Role)
	if !ok {
		writeError(w, r, http.StatusBadRequest, codeMalformedInput, "unknown platform role")
		return
	}

	u, err := a.users.ChangeRole(r.Context(), targetID, role)
	if err != nil {
		a.writeUserError(w, r, err, "role update failed")
		return
	}

	a.recordMutation(r, audit.Entry{
		Action:     "users.role.update",
		EntityType: "user",
		EntityID:   u.ID,
		Meta:       map[string]any{"role": string(role)},
	})
	writeJSON(w, http.StatusOK, u)
}

type banRequest struct {
	Reason string `json:"reason"`
}

func (a *API) handleAdminBan(w http.ResponseWriter, r *http.Request) {
	targetID := mux.Vars(r)["userID"]

	var req banRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeMalformedInput, err.Error())
		return
	}

	u, err := a.users.Ban(r.Context(), targetID, req.Reason)
	if err != nil {
		a.writeUserError(w, r, err, "ban failed")
		return
	}

	a.recordMutation(r, audit.Entry{
		Action:     "users.ban",
		EntityType: "user",
		EntityID:   u.ID,
		Meta:       map[string]any{"reason": u.BannedReason},
	})
	writeJSON(w, http.StatusOK, u)
}

func (a *API) handleAdminUnban(w http.ResponseWriter, r *http.Request) {
	targetID := mux.Vars(r)["userID"]

	u, err := a.users.Unban(r.Context(), targetID)
	if err != nil {
		a.writeUserError(w, r, err, "unban failed")
		return
	}

	a.recordMutation(r, audit.Entry{
		Action:     "users.unban",
		EntityType: "user",
		EntityID:   u.ID,
	})
	writeJSON(w, http.StatusOK, u)
}

// recordMutation audits a successful privileged write. The actor and trace
// id come from the request context.
func (a *API) recordMutation(r *http.Request, entry audit.Entry) {
	if err := a.recorder.Record(r.Context(), entry); err != nil {
		obs.Logger().WithError(err).WithField("action", entry.Action).Warn("mutation audit failed")
	}
}

func (a *API) writeUserError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, user.ErrNotFound):
		writeError(w, r, http.StatusNotFound, codeNotFound, "user not found")
	case errors.Is(err, user.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, codeMalformedInput, err.Error())
	default:
		obs.Logger().WithError(err).Error(fallback)
		writeError(w, r, http.StatusInternalServerError, codeInternal, fallback)
	}
}
