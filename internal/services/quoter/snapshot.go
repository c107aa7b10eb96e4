package quoter

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/novasamatech/hydra-route-engine/internal/metrics"
)

// snapshot caches one pool kind's chain state. The first access loads it and
// starts a background refresher; close stops the refresher. A failed refresh
// keeps the previous value.
type snapshot[T any] struct {
	kind     string
	load     func(ctx context.Context) (T, error)
	interval time.Duration

	mu     sync.RWMutex
	value  T
	loaded bool

	startOnce sync.Once
	closeOnce sync.Once
	stop      chan struct{}
}

func newSnapshot[T any](kind string, interval time.Duration, load func(ctx context.Context) (T, error)) *snapshot[T] {
	return &snapshot[T]{
		kind:     kind,
		load:     load,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

func (s *snapshot[T]) get(ctx context.Context) (T, error) {
	s.mu.RLock()
	if s.loaded {
		value := s.value
		s.mu.RUnlock()
		return value, nil
	}
	s.mu.RUnlock()

	value, err := s.load(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	s.mu.Lock()
	if !s.loaded {
		s.value = value
		s.loaded = true
	}
	value = s.value
	s.mu.Unlock()

	s.startOnce.Do(func() { go s.refresher() })
	return value, nil
}

func (s *snapshot[T]) refresher() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.refresh()
		}
	}
}

func (s *snapshot[T]) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), s.interval)
	defer cancel()

	value, err := s.load(ctx)
	if err != nil {
		metrics.SnapshotRefreshes.WithLabelValues(s.kind, "error").Inc()
		log.Warn().Err(err).Str("pool_kind", s.kind).Msg("state refresh failed, keeping previous snapshot")
		return
	}

	s.mu.Lock()
	s.value = value
	s.loaded = true
	s.mu.Unlock()
	metrics.SnapshotRefreshes.WithLabelValues(s.kind, "ok").Inc()
}

func (s *snapshot[T]) close() {
	s.closeOnce.Do(func() { close(s.stop) })
}
