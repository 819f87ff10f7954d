package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// Machine-readable error codes. The set is closed: boundary code maps every
// internal failure onto one of these before it reaches the client.
const (
	codeMalformedInput           = "MALFORMED_INPUT"
	codeInvalidSignature         = "INVALID_SIGNATURE"
	codeExpired                  = "EXPIRED"
	codeInvalidToken             = "INVALID_TOKEN"
	codeUserBanned               = "USER_BANNED"
	codeExpertContextRequired    = "EXPERT_CONTEXT_REQUIRED"
	codeExpertMembershipRequired = "EXPERT_MEMBERSHIP_REQUIRED"
	codeForbiddenExpertRole      = "FORBIDDEN_EXPERT_ROLE"
	codeForbiddenPlatformRole    = "FORBIDDEN_PLATFORM_ROLE"
	codeNotFound                 = "NOT_FOUND"
	codeConflict                 = "CONFLICT"
	codeRateLimited              = "RATE_LIMITED"
	codeInternal                 = "INTERNAL"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError emits the uniform error payload: a stable machine-readable
// code, a human message and the request id for support correlation. No
// internal details leak past this point.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	payload := map[string]any{
		"code":  code,
		"error": msg,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, status, payload)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}
