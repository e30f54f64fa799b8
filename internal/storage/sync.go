package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Alexander-D-Karpov/sleeves/pkg/types"
)

type SleeveFetcher interface {
	GetSleeves(ctx context.Context) ([]types.Sleeve, error)
}

type SleeveSaver interface {
	SaveSleeves(ctx context.Context, sleeves []types.Sleeve) error
}

// SyncManager refreshes the cached catalog from the backend on an interval.
type SyncManager struct {
	remote SleeveFetcher
	cache  SleeveSaver
	logger *zap.Logger

	mu       sync.Mutex
	running  bool
	stop     chan struct{}
	reset    chan time.Duration
	interval time.Duration
	lastSync time.Time

	onComplete func(count int)
	onError    func(error)
}

var _ types.CatalogSyncer = (*SyncManager)(nil)

func NewSyncManager(remote SleeveFetcher, cache SleeveSaver, interval time.Duration, logger *zap.Logger) *SyncManager {
	return &SyncManager{
		remote:   remote,
		cache:    cache,
		logger:   logger.Named("sync"),
		interval: interval,
	}
}

func (sm *SyncManager) OnComplete(fn func(count int)) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.onComplete = fn
}

func (sm *SyncManager) OnError(fn func(error)) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.onError = fn
}

// SetInterval takes effect on the running loop at its next select. A
// non-positive interval only applies to the next Start.
func (sm *SyncManager) SetInterval(interval time.Duration) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.interval = interval

	if !sm.running || interval <= 0 {
		return
	}
	select {
	case sm.reset <- interval:
	default:
		// replace a change the loop has not picked up yet
		select {
		case <-sm.reset:
		default:
		}
		sm.reset <- interval
	}
}

func (sm *SyncManager) LastSync() time.Time {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.lastSync
}

// Sync pulls the sleeve catalog once and replaces the cache with it.
func (sm *SyncManager) Sync(ctx context.Context) error {
	sleeves, err := sm.remote.GetSleeves(ctx)
	if err != nil {
		sm.fail(err)
		return fmt.Errorf("fetch sleeves: %w", err)
	}

	if err := sm.cache.SaveSleeves(ctx, sleeves); err != nil {
		sm.fail(err)
		return fmt.Errorf("cache sleeves: %w", err)
	}

	sm.mu.Lock()
	sm.lastSync = time.Now()
	onComplete := sm.onComplete
	sm.mu.Unlock()

	sm.logger.Debug("catalog synced", zap.Int("sleeves", len(sleeves)))
	if onComplete != nil {
		onComplete(len(sleeves))
	}
	return nil
}

func (sm *SyncManager) fail(err error) {
	sm.logger.Debug("catalog sync failed", zap.Error(err))

	sm.mu.Lock()
	onError := sm.onError
	sm.mu.Unlock()

	if onError != nil {
		onError(err)
	}
}

// Start syncs immediately, then on every interval until ctx ends or Stop is called.
func (sm *SyncManager) Start(ctx context.Context) {
	sm.mu.Lock()
	if sm.running || sm.interval <= 0 {
		sm.mu.Unlock()
		return
	}
	sm.running = true
	sm.stop = make(chan struct{})
	sm.reset = make(chan time.Duration, 1)
	stop, reset := sm.stop, sm.reset
	interval := sm.interval
	sm.mu.Unlock()

	ticker := time.NewTicker(interval)
	sm.logger.Debug("sync manager starting", zap.Duration("interval", interval))

	go func() {
		defer func() {
			ticker.Stop()
			sm.mu.Lock()
			sm.running = false
			sm.mu.Unlock()
			sm.logger.Debug("sync manager stopped")
		}()

		_ = sm.Sync(ctx)

		for {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			case d := <-reset:
				ticker.Reset(d)
				sm.logger.Debug("sync interval changed", zap.Duration("interval", d))
			case <-ticker.C:
				_ = sm.Sync(ctx)
			}
		}
	}()
}

func (sm *SyncManager) Stop() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if !sm.running || sm.stop == nil {
		return
	}
	close(sm.stop)
	sm.stop = nil
}
