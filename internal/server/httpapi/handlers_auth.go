package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/tvportal/internal/server/models"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	acc, err := s.accounts.Signup(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewAccount(acc))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := s.sessions.Login(r.Context(), req.Email, req.Password, requestMeta(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.setSessionCookie(w, res.Token, res.ExpiresAt)
	writeJSON(w, http.StatusOK, struct {
		Token     string      `json:"token"`
		ExpiresAt time.Time   `json:"expires_at"`
		Account   accountView `json:"account"`
	}{res.Token, res.ExpiresAt, viewAccount(res.Account)})
}

// handleLogout only drops the cookie; the token stays valid until the
// next epoch change.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"id":    p.AccountID,
		"email": p.Email,
		"role":  p.Role,
	})
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Current string `json:"current_password"`
		New     string `json:"new_password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	p, _ := principalFrom(r.Context())
	if err := s.sessions.ChangeOwnPassword(r.Context(), p, req.Current, req.New); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.accounts.ForgotPassword(r.Context(), req.Email); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]bool{"ok": true})
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.accounts.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleMaintenanceStatus(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.maintenance.Status(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, maintenanceView{Active: cfg.Active, Message: cfg.Message, UpdatedAt: cfg.UpdatedAt})
}

func (s *Server) handleNotice(w http.ResponseWriter, r *http.Request) {
	n, err := s.maintenance.Notice(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, noticeOf(n))
}

type noticeView struct {
	Active    bool      `json:"active"`
	Text      string    `json:"text"`
	UpdatedAt time.Time `json:"updated_at"`
}

func noticeOf(n *models.SystemNotice) noticeView {
	return noticeView{Active: n.Active, Text: n.Text, UpdatedAt: n.UpdatedAt}
}

type maintenanceView struct {
	Active    bool      `json:"active"`
	Message   string    `json:"message"`
	UpdatedAt time.Time `json:"updated_at"`
	Kicked    *int64    `json:"kicked,omitempty"`
}
