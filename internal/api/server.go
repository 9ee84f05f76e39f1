// Package api exposes the dashboard operations as a local HTTP JSON API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"acadease/internal/assistant"
	"acadease/internal/desktop"
	"acadease/internal/profile"
	"acadease/internal/reminders"
	"acadease/internal/session"
	"acadease/internal/timetable"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const requestIDHeader = "X-Request-ID"

// Deps are the services behind the API.
type Deps struct {
	Sessions  *session.Manager
	Timetable *timetable.Service
	Assistant *assistant.Assistant
	Gate      *desktop.Gate
	Logger    zerolog.Logger
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// HTTPServer serves the dashboard API.
type HTTPServer struct {
	sessions  *session.Manager
	timetable *timetable.Service
	assistant *assistant.Assistant
	gate      *desktop.Gate
	logger    zerolog.Logger
	now       func() time.Time
	server    *http.Server
}

func NewHTTPServer(port int, deps Deps) *HTTPServer {
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	s := &HTTPServer{
		sessions:  deps.Sessions,
		timetable: deps.Timetable,
		assistant: deps.Assistant,
		gate:      deps.Gate,
		logger:    deps.Logger.With().Str("component", "api").Logger(),
		now:       deps.Clock,
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.withRequestID(s.routes()),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the root handler.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/catalog", s.handleCatalog)
	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.HandleFunc("POST /api/logout", s.handleLogout)
	mux.HandleFunc("GET /api/me", s.handleMe)

	mux.HandleFunc("GET /api/reminders", s.handleListReminders)
	mux.HandleFunc("POST /api/reminders", s.handleAddReminder)
	mux.HandleFunc("DELETE /api/reminders/{id}", s.handleDeleteReminder)
	mux.HandleFunc("POST /api/reminders/{id}/snooze", s.handleSnoozeReminder)
	mux.HandleFunc("GET /api/alerts", s.handleListAlerts)
	mux.HandleFunc("DELETE /api/alerts/{id}", s.handleDismissAlert)
	mux.HandleFunc("GET /api/settings", s.handleGetSettings)
	mux.HandleFunc("PUT /api/settings", s.handleUpdateSettings)
	mux.HandleFunc("GET /api/notifications/permission", s.handleGetPermission)
	mux.HandleFunc("PUT /api/notifications/permission", s.handleSetPermission)
	mux.HandleFunc("POST /api/notifications/permission/request", s.handleRequestPermission)

	mux.HandleFunc("GET /api/timetable", s.handleGetTimetable)
	mux.HandleFunc("GET /api/timetable/today", s.handleTimetableToday)
	mux.HandleFunc("GET /api/timetable/export", s.handleExportTimetable)
	mux.HandleFunc("POST /api/timetable", s.handleAddTimetableEntry)
	mux.HandleFunc("PUT /api/timetable/{id}", s.handleUpdateTimetableEntry)
	mux.HandleFunc("DELETE /api/timetable/{id}", s.handleDeleteTimetableEntry)

	mux.HandleFunc("GET /api/chat", s.handleChatHistory)
	mux.HandleFunc("POST /api/chat", s.handleChatSend)

	return mux
}

func (s *HTTPServer) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug().
			Str("request_id", id).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("took", time.Since(start)).
			Msg("HTTP request")
	})
}

func (s *HTTPServer) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("Dashboard API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// current resolves the session or writes 401.
func (s *HTTPServer) current(w http.ResponseWriter) (profile.User, *reminders.Service, bool) {
	u, svc, err := s.sessions.Current()
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return profile.User{}, nil, false
	}
	return u, svc, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps package sentinels to status codes.
func (s *HTTPServer) writeDomainError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrNoSession), errors.Is(err, profile.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, timetable.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, reminders.ErrNotFound), errors.Is(err, timetable.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, profile.ErrNameRequired),
		errors.Is(err, profile.ErrUnknownRole),
		errors.Is(err, reminders.ErrInvalidReminder),
		errors.Is(err, reminders.ErrInvalidSettings),
		errors.Is(err, timetable.ErrInvalidEntry),
		errors.Is(err, assistant.ErrEmptyPrompt),
		errors.Is(err, desktop.ErrInvalidPermission):
		status = http.StatusBadRequest
	case errors.Is(err, desktop.ErrPermissionDecided):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		s.logger.Error().Err(err).Msg("Request failed")
	}
	writeError(w, status, err.Error())
}
