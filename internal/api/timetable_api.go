package api

import (
	"bytes"
	"net/http"

	"acadease/internal/metrics"
	"acadease/internal/profile"
	"acadease/internal/timetable"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type TimetableResponse struct {
	Group   string            `json:"group"`
	Entries []timetable.Entry `json:"entries"`
}

type TodayResponse struct {
	Group   string            `json:"group"`
	Day     string            `json:"day"`
	Entries []timetable.Entry `json:"entries"`
}

// EntryRequest carries an entry and the group it belongs to.
type EntryRequest struct {
	Branch    string `json:"branch"`
	Year      string `json:"year"`
	Semester  string `json:"semester"`
	Day       string `json:"day"`
	Subject   string `json:"subject"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

func (req EntryRequest) entry() timetable.Entry {
	return timetable.Entry{Day: req.Day, Subject: req.Subject, StartTime: req.StartTime, EndTime: req.EndTime}
}

// groupFor picks the group a request targets. Students always get their own;
// admins name one in the query string.
func groupFor(w http.ResponseWriter, r *http.Request, u profile.User) (string, bool) {
	if !u.IsAdmin() {
		return u.GroupKey(), true
	}
	q := r.URL.Query()
	return groupFromParts(w, q.Get("branch"), q.Get("year"), q.Get("semester"))
}

func groupFromParts(w http.ResponseWriter, branch, year, semester string) (string, bool) {
	if branch == "" || year == "" || semester == "" {
		writeError(w, http.StatusBadRequest, "branch, year and semester are required")
		return "", false
	}
	return timetable.GroupKey(branch, year, semester), true
}

// GET /api/timetable
func (s *HTTPServer) handleGetTimetable(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("timetable_get")

	u, _, ok := s.current(w)
	if !ok {
		return
	}
	key, ok := groupFor(w, r, u)
	if !ok {
		return
	}

	entries := s.timetable.Group(key)
	if day := r.URL.Query().Get("day"); day != "" {
		entries = s.timetable.Day(key, day)
	}
	writeJSON(w, http.StatusOK, TimetableResponse{Group: key, Entries: entries})
}

// GET /api/timetable/today
func (s *HTTPServer) handleTimetableToday(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("timetable_today")

	u, _, ok := s.current(w)
	if !ok {
		return
	}
	key, ok := groupFor(w, r, u)
	if !ok {
		return
	}

	day, entries := s.timetable.Today(key, s.now())
	writeJSON(w, http.StatusOK, TodayResponse{Group: key, Day: day, Entries: entries})
}

// GET /api/timetable/export
func (s *HTTPServer) handleExportTimetable(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("timetable_export")

	u, _, ok := s.current(w)
	if !ok {
		return
	}

	data := s.timetable.Snapshot()
	if !u.IsAdmin() {
		data = timetable.Timetable{u.GroupKey(): s.timetable.ForUser(u)}
	}

	var buf bytes.Buffer
	if err := timetable.ExportXLSX(&buf, data); err != nil {
		s.writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="timetable.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// POST /api/timetable
func (s *HTTPServer) handleAddTimetableEntry(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("timetable_add")

	u, _, ok := s.current(w)
	if !ok {
		return
	}

	var req EntryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	key, ok := groupFromParts(w, req.Branch, req.Year, req.Semester)
	if !ok {
		return
	}

	e, err := s.timetable.Add(r.Context(), u, s.now(), key, req.entry())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

// PUT /api/timetable/{id}
func (s *HTTPServer) handleUpdateTimetableEntry(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("timetable_update")

	u, _, ok := s.current(w)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req EntryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	key, ok := groupFromParts(w, req.Branch, req.Year, req.Semester)
	if !ok {
		return
	}

	e := req.entry()
	e.ID = id
	e, err := s.timetable.Update(r.Context(), u, key, e)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// DELETE /api/timetable/{id}?branch=&year=&semester=
func (s *HTTPServer) handleDeleteTimetableEntry(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("timetable_delete")

	u, _, ok := s.current(w)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if !u.IsAdmin() {
		s.writeDomainError(w, timetable.ErrForbidden)
		return
	}
	key, ok := groupFor(w, r, u)
	if !ok {
		return
	}

	if err := s.timetable.Delete(r.Context(), u, key, id); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
