package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

const defaultRecoveryInterval = time.Minute

// keyFailoverPending holds, in the fallback, the keys the primary has missed.
const keyFailoverPending = "acadease_failover_pending"

// FailoverKV keeps fallback as the durable copy of every write and serves
// reads from primary while it is healthy. A down primary is probed again once
// per recovery interval. Keys written while the primary was down are copied
// over from fallback before the primary serves again, so a recovered primary
// never returns a value older than the last write. The pending key set is kept
// in fallback too and survives a restart during an outage.
type FailoverKV struct {
	primary  KV
	fallback KV
	logger   *zerolog.Logger

	isDown           atomic.Bool
	mu               sync.Mutex
	lastCheck        time.Time
	recoveryInterval time.Duration

	// writeMu serialises writes and resyncs; it guards pending.
	writeMu       sync.Mutex
	pending       map[string]struct{}
	pendingLoaded bool
}

func NewFailoverKV(primary, fallback KV, logger *zerolog.Logger) *FailoverKV {
	return &FailoverKV{
		primary:          primary,
		fallback:         fallback,
		logger:           logger,
		recoveryInterval: defaultRecoveryInterval,
		pending:          make(map[string]struct{}),
	}
}

func (f *FailoverKV) usePrimary() bool {
	if !f.isDown.Load() {
		return true
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if time.Since(f.lastCheck) < f.recoveryInterval {
		return false
	}
	f.lastCheck = time.Now()
	return true
}

func (f *FailoverKV) markDown(op string, err error) {
	f.mu.Lock()
	f.lastCheck = time.Now()
	f.mu.Unlock()
	if !f.isDown.Swap(true) {
		f.logger.Warn().Err(err).Str("op", op).Msg("Primary store failed, switching to fallback")
	}
}

func (f *FailoverKV) markUp() {
	if f.isDown.Swap(false) {
		f.logger.Info().Msg("Primary store recovered")
	}
}

// loadPendingLocked merges the pending set stored by an earlier process.
func (f *FailoverKV) loadPendingLocked(ctx context.Context) error {
	if f.pendingLoaded {
		return nil
	}
	data, err := f.fallback.Get(ctx, keyFailoverPending)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("load pending keys: %w", err)
	}
	if err == nil {
		var keys []string
		if err := json.Unmarshal(data, &keys); err != nil {
			f.logger.Error().Err(err).Msg("Discarding unreadable pending key set")
		}
		for _, k := range keys {
			f.pending[k] = struct{}{}
		}
	}
	f.pendingLoaded = true
	return nil
}

func (f *FailoverKV) savePendingLocked(ctx context.Context) error {
	if err := f.loadPendingLocked(ctx); err != nil {
		return err
	}
	if len(f.pending) == 0 {
		return f.fallback.Delete(ctx, keyFailoverPending)
	}
	keys := make([]string, 0, len(f.pending))
	for k := range f.pending {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	data, err := json.Marshal(keys)
	if err != nil {
		return err
	}
	return f.fallback.Set(ctx, keyFailoverPending, data)
}

// resyncLocked copies every pending key from fallback to primary. The caller
// holds writeMu.
func (f *FailoverKV) resyncLocked(ctx context.Context) error {
	if err := f.loadPendingLocked(ctx); err != nil {
		return err
	}
	if len(f.pending) == 0 {
		return nil
	}
	synced := 0
	var syncErr error
	for _, key := range slices.Sorted(maps.Keys(f.pending)) {
		val, err := f.fallback.Get(ctx, key)
		switch {
		case errors.Is(err, ErrNotFound):
			err = f.primary.Delete(ctx, key)
		case err == nil:
			err = f.primary.Set(ctx, key, val)
		}
		if err != nil {
			syncErr = fmt.Errorf("resync %q: %w", key, err)
			break
		}
		delete(f.pending, key)
		synced++
	}
	if synced > 0 {
		if err := f.savePendingLocked(ctx); err != nil {
			f.logger.Error().Err(err).Msg("Failed to save pending key set")
		}
		f.logger.Info().Int("keys", synced).Msg("Primary store resynced from fallback")
	}
	return syncErr
}

func (f *FailoverKV) Get(ctx context.Context, key string) ([]byte, error) {
	if f.usePrimary() {
		f.writeMu.Lock()
		err := f.resyncLocked(ctx)
		f.writeMu.Unlock()

		if err == nil {
			var val []byte
			val, err = f.primary.Get(ctx, key)
			if err == nil || errors.Is(err, ErrNotFound) {
				f.markUp()
				return val, err
			}
		}
		f.markDown("get", err)
	}
	return f.fallback.Get(ctx, key)
}

func (f *FailoverKV) Set(ctx context.Context, key string, value []byte) error {
	return f.write(ctx, "set", key, func(kv KV) error {
		return kv.Set(ctx, key, value)
	})
}

func (f *FailoverKV) Delete(ctx context.Context, key string) error {
	return f.write(ctx, "delete", key, func(kv KV) error {
		return kv.Delete(ctx, key)
	})
}

// write applies op to fallback first, then to primary when it is usable.
// A key the primary missed stays pending until the next resync.
func (f *FailoverKV) write(ctx context.Context, name, key string, op func(KV) error) error {
	f.writeMu.Lock()
	defer f.writeMu.Unlock()

	if err := op(f.fallback); err != nil {
		return fmt.Errorf("fallback %s: %w", name, err)
	}

	if f.usePrimary() {
		err := f.resyncLocked(ctx)
		if err == nil {
			err = op(f.primary)
		}
		if err == nil {
			f.markUp()
			return nil
		}
		f.markDown(name, err)
	}
	if _, ok := f.pending[key]; !ok {
		f.pending[key] = struct{}{}
		if err := f.savePendingLocked(ctx); err != nil {
			f.logger.Error().Err(err).Str("key", key).Msg("Failed to save pending key set")
		}
	}
	return nil
}

// Ping succeeds while either store answers.
func (f *FailoverKV) Ping(ctx context.Context) error {
	if err := f.primary.Ping(ctx); err == nil {
		return nil
	}
	return f.fallback.Ping(ctx)
}

func (f *FailoverKV) Close() error {
	return errors.Join(f.primary.Close(), f.fallback.Close())
}
