package httpapi

import (
	"errors"
	"net/http"
	"time"

	"coursegram.app/internal/audit"
	"coursegram.app/internal/obs"
	"coursegram.app/internal/telegram"
	"coursegram.app/internal/user"
)

type loginRequest struct {
	InitData string `json:"init_data"`
}

type loginResponse struct {
	User        user.User `json:"user"`
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// handleTelegramLogin exchanges signed Mini App init data for a bearer
// token. Signature validation happens before any storage touch.
func (a *API) handleTelegramLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeMalformedInput, err.Error())
		return
	}

	login, err := a.verifier.Verify(req.InitData, time.Now())
	switch {
	case errors.Is(err, telegram.ErrMalformed):
		writeError(w, r, http.StatusBadRequest, codeMalformedInput, "malformed init data")
		return
	case errors.Is(err, telegram.ErrExpired):
		writeError(w, r, http.StatusUnauthorized, codeExpired, "init data expired")
		return
	case err != nil:
		writeError(w, r, http.StatusUnauthorized, codeInvalidSignature, "invalid init data signature")
		return
	}

	u, err := a.users.LoginFromTelegram(r.Context(), login)
	if err != nil {
		obs.Logger().WithError(err).Error("telegram login upsert failed")
		writeError(w, r, http.StatusInternalServerError, codeInternal, "login failed")
		return
	}
	if u.IsBanned() {
		a.denyBanned(w, r, u)
		return
	}

	token, expiresAt, err := a.tokens.Issue(u.ID, u.TelegramID)
	if err != nil {
		obs.Logger().WithError(err).Error("token issue failed")
		writeError(w, r, http.StatusInternalServerError, codeInternal, "login failed")
		return
	}

	// Login audit is informational; a trail hiccup must not block the user.
	if err := a.recorder.Record(r.Context(), audit.Entry{
		ActorUserID: u.ID,
		Action:      "auth.login",
		EntityType:  "user",
		EntityID:    u.ID,
		Meta:        map[string]any{"telegram_id": u.TelegramID},
	}); err != nil {
		obs.Logger().WithError(err).Warn("login audit failed")
	}

	writeJSON(w, http.StatusOK, loginResponse{
		User:        u,
		AccessToken: token,
		ExpiresAt:   expiresAt,
	})
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	u, ok := user.FromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, codeInvalidToken, "authentication required")
		return
	}
	writeJSON(w, http.StatusOK, u)
}
