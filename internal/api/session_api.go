package api

import (
	"net/http"

	"acadease/internal/metrics"
	"acadease/internal/profile"
	"acadease/internal/timetable"
)

// LoginRequest is the body of POST /api/login. Students send name, branch,
// year and semester; the admin sends username and password.
type LoginRequest struct {
	Role     profile.Role `json:"role"`
	Name     string       `json:"name,omitempty"`
	Branch   string       `json:"branch,omitempty"`
	Year     string       `json:"year,omitempty"`
	Semester string       `json:"semester,omitempty"`
	Username string       `json:"username,omitempty"`
	Password string       `json:"password,omitempty"`
}

type CatalogResponse struct {
	Branches  []string `json:"branches"`
	Years     []string `json:"years"`
	Semesters []string `json:"semesters"`
	Days      []string `json:"days"`
}

// handleCatalog returns the choices offered by the login and timetable forms.
// GET /api/catalog
func (s *HTTPServer) handleCatalog(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("catalog")
	writeJSON(w, http.StatusOK, CatalogResponse{
		Branches:  profile.Branches,
		Years:     profile.Years,
		Semesters: profile.Semesters,
		Days:      timetable.WeekDays,
	})
}

// POST /api/login
func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("login")

	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var (
		u   profile.User
		err error
	)
	switch req.Role {
	case profile.RoleStudent, "":
		u, err = s.sessions.LoginStudent(r.Context(), req.Name, req.Branch, req.Year, req.Semester)
	case profile.RoleAdmin:
		u, err = s.sessions.LoginAdmin(r.Context(), req.Username, req.Password)
	default:
		err = profile.ErrUnknownRole
	}
	if err != nil && u.Role == "" {
		s.writeDomainError(w, err)
		return
	}
	if err != nil {
		// session is running; only remembering the user failed
		s.logger.Warn().Err(err).Msg("Login not remembered")
	}

	writeJSON(w, http.StatusOK, u)
}

// POST /api/logout
func (s *HTTPServer) handleLogout(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("logout")

	if err := s.sessions.Logout(r.Context()); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/me
func (s *HTTPServer) handleMe(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("me")

	u, _, ok := s.current(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, u)
}
