// Package session owns the single active dashboard session and the reminder
// service running for it.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"acadease/internal/desktop"
	"acadease/internal/profile"
	"acadease/internal/reminders"
	"github.com/rs/zerolog"
)

var ErrNoSession = errors.New("no active session")

// Store is what a session persists.
type Store interface {
	reminders.Store
	GetUser(ctx context.Context) (*profile.User, error)
	SaveUser(ctx context.Context, u profile.User) error
	ClearUser(ctx context.Context) error
}

// Options wires the notification collaborators shared by every session.
type Options struct {
	Store    Store
	Gate     reminders.PermissionGate
	Notifier desktop.Notifier
	Player   reminders.SoundPlayer
	Config   reminders.Config
	// Clock defaults to time.Now.
	Clock  func() time.Time
	Logger zerolog.Logger
}

// Manager starts the reminder service on login and stops it on logout.
type Manager struct {
	opts   Options
	logger zerolog.Logger

	mu      sync.Mutex
	user    *profile.User
	service *reminders.Service
}

func NewManager(opts Options) *Manager {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Manager{
		opts:   opts,
		logger: opts.Logger.With().Str("component", "session").Logger(),
	}
}

// Resume restores the remembered user, if any. It reports whether a session
// was started.
func (m *Manager) Resume(ctx context.Context) (bool, error) {
	u, err := m.opts.Store.GetUser(ctx)
	if err != nil {
		return false, fmt.Errorf("load stored user: %w", err)
	}
	if u == nil {
		return false, nil
	}
	if err := m.start(ctx, *u); err != nil {
		return false, err
	}
	m.logger.Info().Str("scope", u.Scope()).Msg("Session resumed")
	return true, nil
}

func (m *Manager) LoginStudent(ctx context.Context, name, branch, year, semester string) (profile.User, error) {
	u, err := profile.StudentLogin(name, branch, year, semester)
	if err != nil {
		return profile.User{}, err
	}
	return m.login(ctx, u)
}

func (m *Manager) LoginAdmin(ctx context.Context, username, password string) (profile.User, error) {
	u, err := profile.AdminLogin(username, password)
	if err != nil {
		return profile.User{}, err
	}
	return m.login(ctx, u)
}

// login starts the session and remembers u. A failure to remember the user
// still returns u with the error; the session keeps running.
func (m *Manager) login(ctx context.Context, u profile.User) (profile.User, error) {
	if err := m.start(ctx, u); err != nil {
		return profile.User{}, err
	}
	m.logger.Info().Str("scope", u.Scope()).Str("role", string(u.Role)).Msg("Logged in")

	if err := m.opts.Store.SaveUser(ctx, u); err != nil {
		m.logger.Error().Err(err).Msg("Failed to remember user")
		return u, fmt.Errorf("save user: %w", err)
	}
	return u, nil
}

// start replaces any running session with one for u. When the stored
// reminders cannot be read no session is started, so an empty list is never
// written over them; any previous session is left running.
func (m *Manager) start(ctx context.Context, u profile.User) error {
	engine := reminders.NewEngine(m.opts.Store, u.Scope(), m.opts.Logger)
	if err := engine.Load(ctx); err != nil {
		m.logger.Error().Err(err).Str("scope", u.Scope()).Msg("Failed to load reminders, session not started")
		return fmt.Errorf("start session: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.service != nil {
		m.service.Stop()
	}

	dispatcher := reminders.NewDispatcher(m.opts.Logger,
		reminders.NewToastChannel(engine),
		reminders.NewAudioChannel(m.opts.Player),
		reminders.NewDesktopChannel(m.opts.Gate, m.opts.Notifier),
		reminders.NewEmailChannel(m.opts.Gate, m.opts.Notifier, m.opts.Logger),
	)

	cfg := m.opts.Config
	svc := reminders.NewService(&cfg, engine, dispatcher, m.opts.Logger)
	svc.SetClock(m.opts.Clock)
	svc.Start()

	m.user = &u
	m.service = svc
	return nil
}

// Logout stops the reminder service and forgets the user.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	if m.user == nil {
		m.mu.Unlock()
		return ErrNoSession
	}
	svc, u := m.service, *m.user
	m.service, m.user = nil, nil
	m.mu.Unlock()

	svc.Stop()
	m.logger.Info().Str("scope", u.Scope()).Msg("Logged out")

	if err := m.opts.Store.ClearUser(ctx); err != nil {
		return fmt.Errorf("clear user: %w", err)
	}
	return nil
}

// Current returns the logged-in user and their reminder service.
func (m *Manager) Current() (profile.User, *reminders.Service, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return profile.User{}, nil, ErrNoSession
	}
	return *m.user, m.service, nil
}

// Close stops the running service but keeps the user remembered.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.service != nil {
		m.service.Stop()
		m.service = nil
	}
	m.user = nil
}
