package sound

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const playTimeout = 10 * time.Second

// Player renders patterns and plays them in the background.
type Player struct {
	output     Output
	sampleRate int
	logger     zerolog.Logger

	mu    sync.Mutex
	cache map[string][]float64
	wg    sync.WaitGroup
}

func NewPlayer(output Output, sampleRate int, logger zerolog.Logger) *Player {
	if output == nil {
		output = NoOutput{}
	}
	return &Player{
		output:     output,
		sampleRate: sampleRate,
		logger:     logger.With().Str("component", "sound").Logger(),
		cache:      make(map[string][]float64),
	}
}

// Play starts the named sound and returns without waiting for playback.
// It returns ErrNoOutput when no audio output is configured. Playback
// failures are logged.
func (p *Player) Play(ctx context.Context, name string) error {
	if _, ok := p.output.(NoOutput); ok {
		return ErrNoOutput
	}

	pattern := Lookup(name)
	samples := p.render(pattern)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		playCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), playTimeout)
		defer cancel()

		if err := p.output.Write(playCtx, pattern.Name, samples, p.sampleRate); err != nil {
			ev := p.logger.Warn()
			if errors.Is(err, ErrNoOutput) {
				ev = p.logger.Debug()
			}
			ev.Err(err).Str("sound", pattern.Name).Msg("Sound playback failed")
		}
	}()
	return nil
}

func (p *Player) render(pattern Pattern) []float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.cache[pattern.Name]; ok {
		return s
	}
	s := Render(pattern, p.sampleRate)
	p.cache[pattern.Name] = s
	return s
}

// Wait blocks until background playback finishes.
func (p *Player) Wait() {
	p.wg.Wait()
}
