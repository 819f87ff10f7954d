package httpapi

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"coursegram.app/internal/audit"
	"coursegram.app/internal/auth"
	"coursegram.app/internal/expert"
	"coursegram.app/internal/obs"
	"coursegram.app/internal/user"
)

type createExpertRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	OwnerUserID string `json:"owner_user_id"`
}

// handleCreateExpert registers an expert scope. The owner defaults to the
// calling admin when the request names nobody.
func (a *API) handleCreateExpert(w http.ResponseWriter, r *http.Request) {
	var req createExpertRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeMalformedInput, err.Error())
		return
	}
	if req.OwnerUserID == "" {
		if u, ok := user.FromContext(r.Context()); ok {
			req.OwnerUserID = u.ID
		}
	}

	e, err := a.experts.Create(r.Context(), req.Name, req.Description, req.OwnerUserID)
	if err != nil {
		a.writeExpertError(w, r, err, "expert create failed")
		return
	}

	a.recordMutation(r, audit.Entry{
		Action:     "experts.create",
		EntityType: "expert",
		EntityID:   e.ID,
		Meta:       map[string]any{"name": e.Name, "owner_user_id": req.OwnerUserID},
	})
	writeJSON(w, http.StatusCreated, e)
}

func (a *API) handleListExperts(w http.ResponseWriter, r *http.Request) {
	experts, err := a.experts.List(r.Context())
	if err != nil {
		obs.Logger().WithError(err).Error("expert list failed")
		writeError(w, r, http.StatusInternalServerError, codeInternal, "listing experts failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"experts": experts})
}

func (a *API) handleListMembers(w http.ResponseWriter, r *http.Request) {
	expertID := mux.Vars(r)["expertID"]

	members, err := a.experts.ListMembers(r.Context(), expertID)
	if err != nil {
		a.writeExpertError(w, r, err, "member list failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"members": members})
}

type memberRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

func (a *API) handleAddMember(w http.ResponseWriter, r *http.Request) {
	expertID := mux.Vars(r)["expertID"]

	var req memberRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeMalformedInput, err.Error())
		return
	}
	role, ok := auth.ParseExpertRole(req.Role)
	if !ok {
		writeError(w, r, http.StatusBadRequest, codeMalformedInput, "unknown expert role")
		return
	}

	m, err := a.experts.AddMember(r.Context(), expertID, req.UserID, role)
	if err != nil {
		a.writeExpertError(w, r, err, "member add failed")
		return
	}

	a.recordMutation(r, audit.Entry{
		Action:     "experts.member.add",
		EntityType: "expert",
		EntityID:   expertID,
		Meta:       map[string]any{"user_id": m.UserID, "role": string(m.Role)},
	})
	writeJSON(w, http.StatusCreated, m)
}

type memberRoleRequest struct {
	Role string `json:"role"`
}

func (a *API) handleUpdateMember(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	expertID, userID := vars["expertID"], vars["userID"]

	var req memberRoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeMalformedInput, err.Error())
		return
	}
	role, ok := auth.ParseExpertRole(req.Role)
	if !ok {
		writeError(w, r, http.StatusBadRequest, codeMalformedInput, "unknown expert role")
		return
	}

	m, err := a.experts.UpdateMemberRole(r.Context(), expertID, userID, role)
	if err != nil {
		a.writeExpertError(w, r, err, "member update failed")
		return
	}

	a.recordMutation(r, audit.Entry{
		Action:     "experts.member.update",
		EntityType: "expert",
		EntityID:   expertID,
		Meta:       map[string]any{"user_id": m.UserID, "role": string(m.Role)},
	})
	writeJSON(w, http.StatusOK, m)
}

func (a *API) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	expertID, userID := vars["expertID"], vars["userID"]

	if err := a.experts.RemoveMember(r.Context(), expertID, userID); err != nil {
		a.writeExpertError(w, r, err, "member remove failed")
		return
	}

	a.recordMutation(r, audit.Entry{
		Action:     "experts.member.remove",
		EntityType: "expert",
		EntityID:   expertID,
		Meta:       map[string]any{"user_id": userID},
	})
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) writeExpertError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, expert.ErrNotFound):
		writeError(w, r, http.StatusNotFound, codeNotFound, "not found")
	case errors.Is(err, expert.ErrConflict):
		writeError(w, r, http.StatusConflict, codeConflict, "already exists")
	case errors.Is(err, expert.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, codeMalformedInput, err.Error())
	default:
		obs.Logger().WithError(err).Error(fallback)
		writeError(w, r, http.StatusInternalServerError, codeInternal, fallback)
	}
}
