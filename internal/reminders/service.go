package reminders

import (
	"context"
	"sync"
	"time"

	"acadease/internal/metrics"
	"github.com/rs/zerolog"
)

// Config holds configuration for the reminder service.
type Config struct {
	// CheckInterval is how often reminders are evaluated.
	// Default: 1 minute.
	CheckInterval time.Duration

	// SnoozeDuration is how long a snoozed reminder stays quiet.
	// Default: 1 hour.
	SnoozeDuration time.Duration

	// TickTimeout bounds one evaluation and dispatch round.
	// Default: 30 seconds.
	TickTimeout time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		CheckInterval:  time.Minute,
		SnoozeDuration: DefaultSnooze,
		TickTimeout:    30 * time.Second,
	}
}

// Service runs the engine on a ticker for the lifetime of a session: once
// immediately on Start, then every CheckInterval.
type Service struct {
	config     *Config
	engine     *Engine
	dispatcher *Dispatcher
	logger     zerolog.Logger
	now        func() time.Time
	stopCh     chan struct{}
	wg         sync.WaitGroup
	mu         sync.Mutex
	running    bool
}

// NewService creates a new reminder service.
func NewService(config *Config, engine *Engine, dispatcher *Dispatcher, logger zerolog.Logger) *Service {
	if config == nil {
		config = DefaultConfig()
	}
	if config.CheckInterval <= 0 {
		config.CheckInterval = time.Minute
	}
	if config.SnoozeDuration <= 0 {
		config.SnoozeDuration = DefaultSnooze
	}
	if config.TickTimeout <= 0 {
		config.TickTimeout = 30 * time.Second
	}

	return &Service{
		config:     config,
		engine:     engine,
		dispatcher: dispatcher,
		logger:     logger.With().Str("component", "reminder_service").Str("scope", engine.Scope()).Logger(),
		now:        time.Now,
	}
}

// SetClock replaces the wall clock. Call before Start.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Service) Engine() *Engine {
	return s.engine
}

// Now returns the service clock's current time.
func (s *Service) Now() time.Time {
	return s.now()
}

func (s *Service) SnoozeDuration() time.Duration {
	return s.config.SnoozeDuration
}

// Start begins the reminder check loop.
func (s *Service) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	s.wg.Add(1)
	go s.loop(s.stopCh)

	s.logger.Info().Dur("check_interval", s.config.CheckInterval).Msg("Reminder service started")
}

// Stop halts the loop and waits for an in-progress check to finish.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()

	s.logger.Info().Msg("Reminder service stopped")
}

func (s *Service) loop(stopCh <-chan struct{}) {
	defer s.wg.Done()

	// Run immediately on start
	s.check()

	ticker := time.NewTicker(s.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			s.check()
		}
	}
}

func (s *Service) check() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.TickTimeout)
	defer cancel()

	s.CheckNow(ctx)
}

// CheckNow runs one tick at the service clock's current time and dispatches
// whatever fired.
func (s *Service) CheckNow(ctx context.Context) []Result {
	start := time.Now()
	defer func() {
		metrics.ObserveTickDuration(time.Since(start).Seconds())
	}()

	fired, err := s.engine.Tick(ctx, s.now())
	if err != nil {
		s.logger.Error().Err(err).Int("fired", len(fired)).Msg("Tick could not persist reminders")
	}
	if len(fired) == 0 {
		return nil
	}

	batch := make([]Reminder, len(fired))
	for i, f := range fired {
		batch[i] = f.Reminder
		s.logger.Info().
			Int64("reminder_id", f.Reminder.ID).
			Str("reason", string(f.Reason)).
			Str("due_date", f.Reminder.DueDate).
			Msg("Reminder fired")
	}

	return s.dispatcher.Dispatch(ctx, batch, s.engine.Settings())
}
