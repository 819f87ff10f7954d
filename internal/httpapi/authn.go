package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"coursegram.app/internal/user"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

// withAuth validates the bearer token, resolves the persisted account and
// applies the ban gate. Banned accounts are stopped here, before any role
// guard can run.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, codeInvalidToken, err.Error())
			return
		}

		session, err := a.tokens.Validate(token)
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, codeInvalidToken, "invalid token")
			return
		}

		u, err := a.users.Resolve(r.Context(), session.UserID)
		switch {
		case errors.Is(err, user.ErrNotFound), errors.Is(err, user.ErrInvalidInput):
			// A token that no longer maps to an account is just invalid.
			writeError(w, r, http.StatusUnauthorized, codeInvalidToken, "invalid token")
			return
		case err != nil:
			writeError(w, r, http.StatusInternalServerError, codeInternal, "authentication failed")
			return
		}

		if u.IsBanned() {
			a.denyBanned(w, r, u)
			return
		}

		next.ServeHTTP(w, r.WithContext(user.ContextWith(r.Context(), u)))
	})
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}
