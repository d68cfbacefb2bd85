package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/tvportal/internal/server/models"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())
	list, err := s.sessions.ListAccounts(r.Context(), p)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	views := make([]accountView, 0, len(list))
	for i := range list {
		views = append(views, viewAccount(&list[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": views})
}

func (s *Server) handleBlock(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Blocked *bool `json:"blocked"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Blocked == nil {
		writeError(w, http.StatusBadRequest, "validation_error", "blocked is required")
		return
	}
	p, _ := principalFrom(r.Context())
	if err := s.sessions.AdminBlock(r.Context(), p, chi.URLParam(r, "id"), *req.Blocked, requestMeta(r)); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleKick(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())
	if err := s.sessions.AdminKick(r.Context(), p, chi.URLParam(r, "id"), requestMeta(r)); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleSetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	p, _ := principalFrom(r.Context())
	if err := s.sessions.AdminSetPassword(r.Context(), p, chi.URLParam(r, "id"), req.Password, requestMeta(r)); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleSetRole(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Role string `json:"role"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	p, _ := principalFrom(r.Context())
	if err := s.sessions.AdminSetRole(r.Context(), p, chi.URLParam(r, "id"), models.Role(req.Role), requestMeta(r)); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleSetMaintenance(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Active  bool   `json:"active"`
		Message string `json:"message"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	p, _ := principalFrom(r.Context())
	upd, err := s.maintenance.Set(r.Context(), p, req.Active, req.Message, requestMeta(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	kicked := upd.Kicked
	writeJSON(w, http.StatusOK, maintenanceView{Active: upd.Active, Message: upd.Message, UpdatedAt: upd.UpdatedAt, Kicked: &kicked})
}

func (s *Server) handleLogoutAll(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())
	n, err := s.maintenance.LogoutAll(r.Context(), p, requestMeta(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"kicked": n})
}

func (s *Server) handleSetNotice(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	s.setNotice(w, r, true, req.Text)
}

func (s *Server) handleNoticeOff(w http.ResponseWriter, r *http.Request) {
	s.setNotice(w, r, false, "")
}

func (s *Server) setNotice(w http.ResponseWriter, r *http.Request, active bool, text string) {
	p, _ := principalFrom(r.Context())
	n, err := s.maintenance.SetNotice(r.Context(), p, active, text, requestMeta(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, noticeOf(n))
}

// auditFilter reads q, action, since (RFC 3339) and take.
func auditFilter(r *http.Request) (models.AuditFilter, bool) {
	q := r.URL.Query()
	f := models.AuditFilter{Query: q.Get("q"), Action: q.Get("action")}
	if v := q.Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, false
		}
		f.Since = t
	}
	if v := q.Get("take"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return f, false
		}
		f.Take = n
	}
	return f, true
}

func (s *Server) handleListAudit(w http.ResponseWriter, r *http.Request) {
	filter, ok := auditFilter(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "validation_error", "invalid since or take")
		return
	}
	p, _ := principalFrom(r.Context())
	recs, err := s.audit.List(r.Context(), p, filter)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if recs == nil {
		recs = []models.AuditRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": recs})
}

func (s *Server) handleExportAudit(w http.ResponseWriter, r *http.Request) {
	filter, ok := auditFilter(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "validation_error", "invalid since or take")
		return
	}
	p, _ := principalFrom(r.Context())
	exp, err := s.audit.Export(r.Context(), p, filter)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"key": exp.Key, "url": exp.URL, "count": exp.Count})
}
