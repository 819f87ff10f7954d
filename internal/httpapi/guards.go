package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"coursegram.app/internal/audit"
	"coursegram.app/internal/auth"
	"coursegram.app/internal/expert"
	"coursegram.app/internal/obs"
	"coursegram.app/internal/user"
)

// expertIDHeader may stand in for the path parameter outside production:
// local clients and API exploration. Production never honors it.
const expertIDHeader = "X-Expert-Id"

type denial struct {
	status  int
	code    string
	message string
	action  string
	actorID string
	meta    map[string]any
}

// deny records the audit entry for a refused request and only then writes
// the response, preserving the happens-before ordering of the trail. A
// strict-mode audit failure turns into a 500 so the invariant cannot be
// silently violated.
func (a *API) deny(w http.ResponseWriter, r *http.Request, d denial) {
	entry := audit.Entry{
		ActorUserID: d.actorID,
		Action:      d.action,
		EntityType:  "route",
		EntityID:    r.URL.Path,
		Meta:        d.meta,
	}
	if err := a.recorder.Record(r.Context(), entry); err != nil {
		obs.Logger().WithError(err).WithField("action", d.action).Error("audit write failed on denial")
		writeError(w, r, http.StatusInternalServerError, codeInternal, "authorization failed")
		return
	}
	obs.IncDenial(d.code)
	writeError(w, r, d.status, d.code, d.message)
}

func (a *API) denyBanned(w http.ResponseWriter, r *http.Request, u user.User) {
	a.deny(w, r, denial{
		status:  http.StatusForbidden,
		code:    codeUserBanned,
		message: "account is banned",
		action:  "request.blocked.banned",
		actorID: u.ID,
		meta: map[string]any{
			"path":   r.URL.Path,
			"method": r.Method,
			"reason": u.BannedReason,
		},
	})
}

// requirePlatformRole gates a route on the global hierarchy.
func (a *API) requirePlatformRole(required auth.PlatformRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := user.FromContext(r.Context())
			if !ok || !u.PlatformRole.Allows(required) {
				a.deny(w, r, denial{
					status:  http.StatusForbidden,
					code:    codeForbiddenPlatformRole,
					message: "insufficient platform role",
					action:  "rbac.denied.platform_role",
					actorID: u.ID,
					meta: map[string]any{
						"required_role": string(required),
						"user_role":     string(u.PlatformRole),
						"path":          r.URL.Path,
						"method":        r.Method,
					},
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requireExpertRole gates a route on the caller's membership in the expert
// scope resolved from the request. Membership is looked up fresh on every
// request; nothing is cached across requests.
func (a *API) requireExpertRole(required auth.ExpertRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			expertID := a.resolveExpertID(r)
			if expertID == "" {
				// No scope and therefore no membership to attribute;
				// rejected without an audit row.
				writeError(w, r, http.StatusBadRequest, codeExpertContextRequired, "expert context is required")
				return
			}

			u, ok := user.FromContext(r.Context())
			if !ok {
				writeError(w, r, http.StatusUnauthorized, codeInvalidToken, "authentication required")
				return
			}

			m, err := a.experts.Member(r.Context(), expertID, u.ID)
			switch {
			case errors.Is(err, expert.ErrNotFound):
				a.deny(w, r, denial{
					status:  http.StatusForbidden,
					code:    codeExpertMembershipRequired,
					message: "expert membership required",
					action:  "rbac.denied.expert_membership",
					actorID: u.ID,
					meta: map[string]any{
						"expert_id":     expertID,
						"required_role": string(required),
						"path":          r.URL.Path,
						"method":        r.Method,
					},
				})
				return
			case err != nil:
				// Storage trouble must never fail open.
				writeError(w, r, http.StatusInternalServerError, codeInternal, "authorization failed")
				return
			}

			if !m.Role.Allows(required) {
				a.deny(w, r, denial{
					status:  http.StatusForbidden,
					code:    codeForbiddenExpertRole,
					message: "insufficient expert role",
					action:  "rbac.denied.expert_role",
					actorID: u.ID,
					meta: map[string]any{
						"expert_id":     expertID,
						"required_role": string(required),
						"user_role":     string(m.Role),
						"path":          r.URL.Path,
						"method":        r.Method,
					},
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// resolveExpertID extracts the expert scope from the route path. The header
// fallback is the single environment-conditional in the authorization path.
func (a *API) resolveExpertID(r *http.Request) string {
	if id := strings.TrimSpace(mux.Vars(r)["expertID"]); id != "" {
		return id
	}
	if !a.mode.IsProduction() {
		return strings.TrimSpace(r.Header.Get(expertIDHeader))
	}
	return ""
}
