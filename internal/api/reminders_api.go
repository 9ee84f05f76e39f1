package api

import (
	"net/http"
	"strconv"
	"time"

	"acadease/internal/desktop"
	"acadease/internal/metrics"
	"acadease/internal/reminders"
)

// ReminderView is a reminder with its display state at request time.
type ReminderView struct {
	reminders.Reminder
	Status  reminders.Status `json:"status"`
	Snoozed bool             `json:"snoozed"`
}

type AddReminderRequest struct {
	Text    string `json:"text"`
	DueDate string `json:"dueDate"`
}

// SnoozeRequest overrides the configured snooze length when Minutes > 0.
type SnoozeRequest struct {
	Minutes int `json:"minutes,omitempty"`
}

type PermissionResponse struct {
	Permission desktop.Permission `json:"permission"`
}

type PermissionRequest struct {
	Permission desktop.Permission `json:"permission"`
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

// GET /api/reminders
func (s *HTTPServer) handleListReminders(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("reminders_list")

	_, svc, ok := s.current(w)
	if !ok {
		return
	}

	now := svc.Now()
	list := svc.Engine().Reminders()
	views := make([]ReminderView, 0, len(list))
	for _, rem := range list {
		views = append(views, ReminderView{
			Reminder: rem,
			Status:   reminders.StatusAt(now, rem),
			Snoozed:  reminders.SnoozedAt(now, rem),
		})
	}
	writeJSON(w, http.StatusOK, views)
}

// POST /api/reminders
func (s *HTTPServer) handleAddReminder(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("reminders_add")

	_, svc, ok := s.current(w)
	if !ok {
		return
	}

	var req AddReminderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	rem, err := svc.Engine().Add(r.Context(), svc.Now(), req.Text, req.DueDate)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rem)
}

// DELETE /api/reminders/{id}
func (s *HTTPServer) handleDeleteReminder(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("reminders_delete")

	_, svc, ok := s.current(w)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := svc.Engine().Delete(r.Context(), id); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/reminders/{id}/snooze
func (s *HTTPServer) handleSnoozeReminder(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("reminders_snooze")

	_, svc, ok := s.current(w)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req SnoozeRequest
	if r.ContentLength > 0 && !decodeJSON(w, r, &req) {
		return
	}
	d := svc.SnoozeDuration()
	if req.Minutes > 0 {
		d = time.Duration(req.Minutes) * time.Minute
	}

	rem, err := svc.Engine().Snooze(r.Context(), svc.Now(), id, d)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rem)
}

// GET /api/alerts
func (s *HTTPServer) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("alerts_list")

	_, svc, ok := s.current(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, svc.Engine().Alerts())
}

// DELETE /api/alerts/{id}
func (s *HTTPServer) handleDismissAlert(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("alerts_dismiss")

	_, svc, ok := s.current(w)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if !svc.Engine().Dismiss(id) {
		writeError(w, http.StatusNotFound, "alert not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/settings
func (s *HTTPServer) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("settings_get")

	_, svc, ok := s.current(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, svc.Engine().Settings())
}

// PUT /api/settings
func (s *HTTPServer) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("settings_update")

	_, svc, ok := s.current(w)
	if !ok {
		return
	}

	var settings reminders.Settings
	if !decodeJSON(w, r, &settings) {
		return
	}
	if err := svc.Engine().UpdateSettings(r.Context(), settings); err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, svc.Engine().Settings())
}

// GET /api/notifications/permission
func (s *HTTPServer) handleGetPermission(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("permission_get")
	writeJSON(w, http.StatusOK, PermissionResponse{Permission: s.gate.State()})
}

// PUT /api/notifications/permission records the user's answer to a prompt.
func (s *HTTPServer) handleSetPermission(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("permission_set")

	var req PermissionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.gate.Set(r.Context(), req.Permission); err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PermissionResponse{Permission: s.gate.State()})
}

// POST /api/notifications/permission/request asks the notification backend.
func (s *HTTPServer) handleRequestPermission(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("permission_request")

	started := s.gate.Request(r.Context())
	status := http.StatusOK
	if started {
		status = http.StatusAccepted
	}
	writeJSON(w, status, PermissionResponse{Permission: s.gate.State()})
}
