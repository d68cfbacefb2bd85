package httpapi

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/tvportal/internal/common"
	"github.com/dmitrijs2005/tvportal/internal/server/models"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a {error: code, message: msg} body.
func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, map[string]string{"error": code, "message": msg})
}

// decodeJSON reads the body into v and answers 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body is not valid JSON")
		return false
	}
	return true
}

// clientIP prefers the first X-Forwarded-For entry, then X-Real-IP, then
// the connection address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func requestMeta(r *http.Request) models.RequestMeta {
	return models.RequestMeta{IP: clientIP(r), UserAgent: r.UserAgent()}
}

func (s *Server) setSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     common.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   s.opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     common.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// writeServiceError maps service errors to status codes. Login rejections
// other than maintenance share one generic body.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var me *common.MaintenanceError
	switch {
	case errors.As(err, &me):
		writeError(w, http.StatusServiceUnavailable, "maintenance", me.Message)
	case errors.Is(err, common.ErrMaintenance):
		writeError(w, http.StatusServiceUnavailable, "maintenance", "")
	case errors.Is(err, common.ErrAuthenticationFailure):
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
	case errors.Is(err, common.ErrSessionInvalid):
		s.clearSessionCookie(w)
		writeError(w, http.StatusUnauthorized, "session_invalid", "session is no longer valid")
	case errors.Is(err, common.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", "admin role required")
	case errors.Is(err, common.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, common.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "already_exists", "account already exists")
	case errors.Is(err, common.ErrorNotFound):
		writeError(w, http.StatusNotFound, "not_found", "account not found")
	default:
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

type accountView struct {
	ID          string      `json:"id"`
	Email       string      `json:"email"`
	Role        models.Role `json:"role"`
	Blocked     bool        `json:"blocked"`
	LastLoginAt *time.Time  `json:"last_login_at,omitempty"`
	LastLoginIP string      `json:"last_login_ip,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

func viewAccount(a *models.Account) accountView {
	return accountView{
		ID:          a.ID,
		Email:       a.Email,
		Role:        a.Role,
		Blocked:     a.Blocked,
		LastLoginAt: a.LastLoginAt,
		LastLoginIP: a.LastLoginIP,
		CreatedAt:   a.CreatedAt,
	}
}
