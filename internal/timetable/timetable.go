// Package timetable keeps the class schedule shared by every student of a
// branch, year and semester. Only the admin edits it.
package timetable

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"acadease/internal/profile"
	"github.com/rs/zerolog"
)

var (
	ErrForbidden    = errors.New("timetable: admin role required")
	ErrNotFound     = errors.New("timetable: entry not found")
	ErrInvalidEntry = errors.New("timetable: invalid entry")
)

// WeekDays in display order.
var WeekDays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

const clockLayout = "15:04"

// Entry is one class slot.
type Entry struct {
	ID        int64  `json:"id"`
	Day       string `json:"day"`
	Subject   string `json:"subject"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// Timetable maps a group key to its entries.
type Timetable map[string][]Entry

// Store persists the whole timetable as one record.
type Store interface {
	GetTimetable(ctx context.Context) (Timetable, error)
	SaveTimetable(ctx context.Context, t Timetable) error
}

// GroupKey returns the key shared by a branch, year and semester.
func GroupKey(branch, year, semester string) string {
	return branch + "-" + year + "-" + semester
}

func dayIndex(day string) int {
	for i, d := range WeekDays {
		if d == day {
			return i
		}
	}
	return len(WeekDays)
}

// DayOf maps a time to its week day name.
func DayOf(t time.Time) string {
	return WeekDays[(int(t.Weekday())+6)%7]
}

func sortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		di, dj := dayIndex(entries[i].Day), dayIndex(entries[j].Day)
		if di != dj {
			return di < dj
		}
		return entries[i].StartTime < entries[j].StartTime
	})
}

func (e Entry) normalize() (Entry, error) {
	e.Day = strings.TrimSpace(e.Day)
	e.Subject = strings.TrimSpace(e.Subject)
	e.StartTime = strings.TrimSpace(e.StartTime)
	e.EndTime = strings.TrimSpace(e.EndTime)

	if dayIndex(e.Day) == len(WeekDays) {
		return e, fmt.Errorf("%w: unknown day %q", ErrInvalidEntry, e.Day)
	}
	if e.Subject == "" {
		return e, fmt.Errorf("%w: subject is required", ErrInvalidEntry)
	}
	start, err := time.Parse(clockLayout, e.StartTime)
	if err != nil {
		return e, fmt.Errorf("%w: start time %q is not HH:MM", ErrInvalidEntry, e.StartTime)
	}
	end, err := time.Parse(clockLayout, e.EndTime)
	if err != nil {
		return e, fmt.Errorf("%w: end time %q is not HH:MM", ErrInvalidEntry, e.EndTime)
	}
	if !end.After(start) {
		return e, fmt.Errorf("%w: end time must be after start time", ErrInvalidEntry)
	}
	return e, nil
}

// Service holds the timetable in memory and writes every change through.
type Service struct {
	store  Store
	logger zerolog.Logger

	mu     sync.RWMutex
	data   Timetable
	lastID int64
}

func NewService(store Store, logger zerolog.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger.With().Str("component", "timetable").Logger(),
		data:   Timetable{},
	}
}

func (s *Service) Load(ctx context.Context) error {
	t, err := s.store.GetTimetable(ctx)
	if err != nil {
		return fmt.Errorf("load timetable: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = t.clone()
	s.lastID = 0
	for _, entries := range s.data {
		for _, e := range entries {
			if e.ID > s.lastID {
				s.lastID = e.ID
			}
		}
	}
	return nil
}

// Group returns a group's entries ordered by week day, then start time.
func (s *Service) Group(key string) []Entry {
	s.mu.RLock()
	out := append([]Entry(nil), s.data[key]...)
	s.mu.RUnlock()

	sortEntries(out)
	if out == nil {
		out = []Entry{}
	}
	return out
}

// Day returns one day of a group ordered by start time.
func (s *Service) Day(key, day string) []Entry {
	out := []Entry{}
	for _, e := range s.Group(key) {
		if e.Day == day {
			out = append(out, e)
		}
	}
	return out
}

// Today returns the week day of now and the group's classes on it.
func (s *Service) Today(key string, now time.Time) (string, []Entry) {
	day := DayOf(now)
	return day, s.Day(key, day)
}

// ForUser returns the student's own group. Admins have no group.
func (s *Service) ForUser(u profile.User) []Entry {
	if u.IsAdmin() {
		return []Entry{}
	}
	return s.Group(u.GroupKey())
}

// Groups lists the keys that have entries.
func (s *Service) Groups() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for k, entries := range s.data {
		if len(entries) > 0 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Snapshot returns a copy of the whole timetable.
func (s *Service) Snapshot() Timetable {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.clone()
}

func (s *Service) Add(ctx context.Context, u profile.User, now time.Time, key string, e Entry) (Entry, error) {
	if !u.IsAdmin() {
		return Entry{}, ErrForbidden
	}
	e, err := e.normalize()
	if err != nil {
		return Entry{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := now.UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	e.ID = id

	next := s.data.clone()
	next[key] = append(next[key], e)
	s.data = next

	return e, s.persistLocked(ctx)
}

func (s *Service) Update(ctx context.Context, u profile.User, key string, e Entry) (Entry, error) {
	if !u.IsAdmin() {
		return Entry{}, ErrForbidden
	}
	e, err := e.normalize()
	if err != nil {
		return Entry{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(key, e.ID)
	if idx < 0 {
		return Entry{}, ErrNotFound
	}

	next := s.data.clone()
	next[key][idx] = e
	s.data = next

	return e, s.persistLocked(ctx)
}

func (s *Service) Delete(ctx context.Context, u profile.User, key string, id int64) error {
	if !u.IsAdmin() {
		return ErrForbidden
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(key, id)
	if idx < 0 {
		return ErrNotFound
	}

	next := s.data.clone()
	next[key] = append(next[key][:idx], next[key][idx+1:]...)
	s.data = next

	return s.persistLocked(ctx)
}

func (s *Service) indexLocked(key string, id int64) int {
	for i, e := range s.data[key] {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func (s *Service) persistLocked(ctx context.Context) error {
	if err := s.store.SaveTimetable(ctx, s.data.clone()); err != nil {
		s.logger.Error().Err(err).Msg("Failed to save timetable")
		return fmt.Errorf("save timetable: %w", err)
	}
	return nil
}

func (t Timetable) clone() Timetable {
	out := make(Timetable, len(t))
	for k, entries := range t {
		out[k] = append([]Entry(nil), entries...)
	}
	return out
}
