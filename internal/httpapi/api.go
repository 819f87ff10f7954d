// Package httpapi is the HTTP boundary: routing, authentication, the two
// role guards and the request-time error taxonomy.
package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"coursegram.app/internal/audit"
	"coursegram.app/internal/auth"
	"coursegram.app/internal/config"
	"coursegram.app/internal/course"
	"coursegram.app/internal/expert"
	"coursegram.app/internal/obs"
	"coursegram.app/internal/telegram"
	"coursegram.app/internal/user"
)

// ReadyProbe checks readiness, pinging the database when one is wired.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Deps carries everything the HTTP layer needs. All services are required
// except the probe DB.
type Deps struct {
	Verifier   *telegram.Verifier
	Tokens     *auth.TokenService
	Users      *user.Service
	Experts    *expert.Service
	Courses    *course.Service
	Recorder   *audit.Recorder
	AuditQuery *audit.Query
	Mode       config.RuntimeMode
	Probe      ReadyProbe
	Version    string
	RateLimit  config.RateLimitConfig
}

type API struct {
	router     *mux.Router
	verifier   *telegram.Verifier
	tokens     *auth.TokenService
	users      *user.Service
	experts    *expert.Service
	courses    *course.Service
	recorder   *audit.Recorder
	auditQuery *audit.Query
	mode       config.RuntimeMode
	probe      ReadyProbe
	version    string
	rateBurst  int
	ratePerSec int
}

func New(d Deps) *API {
	a := &API{
		verifier:   d.Verifier,
		tokens:     d.Tokens,
		users:      d.Users,
		experts:    d.Experts,
		courses:    d.Courses,
		recorder:   d.Recorder,
		auditQuery: d.AuditQuery,
		mode:       d.Mode,
		probe:      d.Probe,
		version:    d.Version,
		rateBurst:  d.RateLimit.Burst,
		ratePerSec: d.RateLimit.PerSecond,
	}
	if a.rateBurst <= 0 {
		a.rateBurst = 20
	}
	if a.ratePerSec <= 0 {
		a.ratePerSec = 10
	}
	a.routes()
	return a
}

func (a *API) routes() {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", a.handleHealthz).Methods(http.MethodGet)
	r.HandleFunc("/readyz", a.handleReady).Methods(http.MethodGet)
	r.Handle("/metrics", obs.Handler()).Methods(http.MethodGet)

	// Login is the only route validating raw Telegram init data; everything
	// else goes through the bearer token path.
	r.Handle("/v1/auth/telegram",
		RateLimit(http.HandlerFunc(a.handleTelegramLogin), a.rateBurst, a.ratePerSec)).
		Methods(http.MethodPost)

	r.Handle("/v1/me", a.authed(http.HandlerFunc(a.handleMe))).Methods(http.MethodGet)

	// Platform admin surface.
	r.Handle("/v1/admin/users",
		a.authed(http.HandlerFunc(a.handleAdminListUsers), a.requirePlatformRole(auth.PlatformRoleAdmin))).
		Methods(http.MethodGet)
	r.Handle("/v1/admin/users/{userID}/role",
		a.authed(http.HandlerFunc(a.handleAdminChangeRole), a.requirePlatformRole(auth.PlatformRoleOwner))).
		Methods(http.MethodPut)
	r.Handle("/v1/admin/users/{userID}/ban",
		a.authed(http.HandlerFunc(a.handleAdminBan), a.requirePlatformRole(auth.PlatformRoleAdmin))).
		Methods(http.MethodPost)
	r.Handle("/v1/admin/users/{userID}/ban",
		a.authed(http.HandlerFunc(a.handleAdminUnban), a.requirePlatformRole(auth.PlatformRoleAdmin))).
		Methods(http.MethodDelete)

	r.Handle("/v1/admin/audit",
		a.authed(http.HandlerFunc(a.handleAuditList), a.requirePlatformRole(auth.PlatformRoleAdmin))).
		Methods(http.MethodGet)
	r.Handle("/v1/admin/audit/actions",
		a.authed(http.HandlerFunc(a.handleAuditActions), a.requirePlatformRole(auth.PlatformRoleAdmin))).
		Methods(http.MethodGet)

	// Expert scopes and memberships.
	r.Handle("/v1/experts",
		a.authed(http.HandlerFunc(a.handleCreateExpert), a.requirePlatformRole(auth.PlatformRoleAdmin))).
		Methods(http.MethodPost)
	r.Handle("/v1/experts",
		a.authed(http.HandlerFunc(a.handleListExperts))).
		Methods(http.MethodGet)
	r.Handle("/v1/experts/{expertID}/members",
		a.authed(http.HandlerFunc(a.handleListMembers), a.requireExpertRole(auth.ExpertRoleManager))).
		Methods(http.MethodGet)
	r.Handle("/v1/experts/{expertID}/members",
		a.authed(http.HandlerFunc(a.handleAddMember), a.requireExpertRole(auth.ExpertRoleOwner))).
		Methods(http.MethodPost)
	r.Handle("/v1/experts/{expertID}/members/{userID}",
		a.authed(http.HandlerFunc(a.handleUpdateMember), a.requireExpertRole(auth.ExpertRoleOwner))).
		Methods(http.MethodPut)
	r.Handle("/v1/experts/{expertID}/members/{userID}",
		a.authed(http.HandlerFunc(a.handleRemoveMember), a.requireExpertRole(auth.ExpertRoleOwner))).
		Methods(http.MethodDelete)

	// Course catalog, gated per expert scope.
	r.Handle("/v1/experts/{expertID}/courses",
		a.authed(http.HandlerFunc(a.handleListCourses), a.requireExpertRole(auth.ExpertRoleSupport))).
		Methods(http.MethodGet)
	r.Handle("/v1/experts/{expertID}/courses",
		a.authed(http.HandlerFunc(a.handleCreateCourse), a.requireExpertRole(auth.ExpertRoleManager))).
		Methods(http.MethodPost)
	r.Handle("/v1/experts/{expertID}/courses/{courseID}",
		a.authed(http.HandlerFunc(a.handleUpdateCourse), a.requireExpertRole(auth.ExpertRoleManager))).
		Methods(http.MethodPut)
	r.Handle("/v1/experts/{expertID}/courses/{courseID}",
		a.authed(http.HandlerFunc(a.handleDeleteCourse), a.requireExpertRole(auth.ExpertRoleManager))).
		Methods(http.MethodDelete)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, codeNotFound, "resource not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, codeMalformedInput, "method not allowed")
	})

	a.router = r
}

// authed wraps a handler with authentication followed by an explicit,
// ordered guard chain. Guards run left to right once identity is resolved;
// declaring none means "authenticated only, no role check".
func (a *API) authed(h http.Handler, guards ...func(http.Handler) http.Handler) http.Handler {
	for i := len(guards) - 1; i >= 0; i-- {
		h = guards[i](h)
	}
	return a.withAuth(h)
}

// Handler returns the fully wrapped HTTP handler for the server.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.router
	h = MaxBodyBytes(h, 1<<20)
	h = SecurityHeaders(h)
	h = CORS(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

func (a *API) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "coursegram-api",
		"version": a.version,
	})
}

func (a *API) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := a.probe.Check(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}
