package http

import (
	"net/http"
	"time"

	"ecodefill-backend/internal/domain"
	"ecodefill-backend/internal/security"
	"ecodefill-backend/internal/service"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Profile   *domain.Profile `json:"profile,omitempty"`
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Role      domain.Role     `json:"role"`
}

func newSessionResponse(p *domain.Profile, s *security.Session) sessionResponse {
	return sessionResponse{Profile: p, Token: s.Token, ExpiresAt: s.ExpiresAt, Role: s.Role}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	profile, session, err := s.auth.RegisterStudent(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newSessionResponse(profile, session))
}

func (s *Server) handleStudentLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	profile, session, err := s.auth.StudentLogin(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(profile, session))
}

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	profile, session, err := s.auth.AdminLogin(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(profile, session))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	session, _ := security.SessionFromContext(r.Context())
	if err := s.auth.Logout(r.Context(), session); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAdminSetup(w http.ResponseWriter, r *http.Request) {
	session, _ := security.SessionFromContext(r.Context())
	promoted, err := s.auth.PromoteToAdmin(r.Context(), session)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(nil, promoted))
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	session, _ := security.SessionFromContext(r.Context())
	dashboard, err := s.students.Dashboard(r.Context(), session.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboard)
}
