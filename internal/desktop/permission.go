package desktop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Permission is the three-valued OS notification permission.
type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

func (p Permission) Valid() bool {
	switch p {
	case PermissionDefault, PermissionGranted, PermissionDenied:
		return true
	default:
		return false
	}
}

var (
	ErrInvalidPermission = errors.New("permission must be default, granted or denied")
	ErrPermissionDecided = errors.New("notification permission already decided")
)

// Requester asks the user (or the platform) for notification permission.
type Requester interface {
	RequestPermission(ctx context.Context) (Permission, error)
}

// PersistFunc stores a permission transition.
type PersistFunc func(ctx context.Context, p Permission) error

const requestTimeout = 30 * time.Second

// Gate holds the current permission. Requests run in the background, at
// most one at a time, and are never issued once the permission is decided.
type Gate struct {
	requester Requester
	persist   PersistFunc
	logger    zerolog.Logger

	mu         sync.Mutex
	state      Permission
	requesting bool
	wg         sync.WaitGroup
}

func NewGate(initial Permission, requester Requester, persist PersistFunc, logger zerolog.Logger) *Gate {
	if !initial.Valid() {
		initial = PermissionDefault
	}
	return &Gate{
		requester: requester,
		persist:   persist,
		logger:    logger.With().Str("component", "notification_permission").Logger(),
		state:     initial,
	}
}

func (g *Gate) State() Permission {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Request starts a permission prompt if the permission is undecided and no
// prompt is already pending. It never blocks on the prompt and reports
// whether one was started.
func (g *Gate) Request(ctx context.Context) bool {
	g.mu.Lock()
	if g.state != PermissionDefault || g.requesting || g.requester == nil {
		g.mu.Unlock()
		return false
	}
	g.requesting = true
	g.wg.Add(1)
	g.mu.Unlock()

	go func() {
		defer g.wg.Done()

		reqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), requestTimeout)
		defer cancel()

		p, err := g.requester.RequestPermission(reqCtx)
		if err != nil {
			g.mu.Lock()
			g.requesting = false
			g.mu.Unlock()
			g.logger.Warn().Err(err).Msg("Permission request failed")
			return
		}
		if err := g.apply(reqCtx, p, true); err != nil {
			g.logger.Warn().Err(err).Str("permission", string(p)).Msg("Permission request result ignored")
		}
	}()
	return true
}

// Set records a permission reported by the platform and persists it.
// A decided permission never goes back to default; the user changes it
// between granted and denied instead.
func (g *Gate) Set(ctx context.Context, p Permission) error {
	return g.apply(ctx, p, false)
}

// apply updates the state. When finishing is set it also ends the pending
// request, under the same lock, so no second prompt can slip in between.
func (g *Gate) apply(ctx context.Context, p Permission, finishing bool) error {
	g.mu.Lock()
	if finishing {
		g.requesting = false
	}
	if !p.Valid() {
		g.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrInvalidPermission, p)
	}
	if p == PermissionDefault && g.state != PermissionDefault {
		g.mu.Unlock()
		return ErrPermissionDecided
	}
	changed := g.state != p
	g.state = p
	g.mu.Unlock()

	if !changed {
		return nil
	}
	g.logger.Info().Str("permission", string(p)).Msg("Notification permission changed")

	if g.persist != nil {
		if err := g.persist(ctx, p); err != nil {
			g.logger.Error().Err(err).Msg("Failed to persist notification permission")
		}
	}
	return nil
}

// Wait blocks until pending requests finish.
func (g *Gate) Wait() {
	g.wg.Wait()
}
