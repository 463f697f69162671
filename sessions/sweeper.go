package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

type sweeper struct {
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// StartSweeper runs SweepExpired every interval until ctx is cancelled or
// Stop is called. Calling it on a store that is already sweeping is a no-op.
func (s *Store) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}

	s.mu.Lock()
	if s.sweeper != nil {
		s.mu.Unlock()
		return
	}
	sw := &sweeper{stop: make(chan struct{}), done: make(chan struct{})}
	s.sweeper = sw
	s.mu.Unlock()

	go func() {
		defer close(sw.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-sw.stop:
				return
			case <-ticker.C:
				if removed := s.SweepExpired(); removed > 0 {
					log.Info().Int("removed", removed).Int("active", s.ActiveCount()).Msg("expired sessions swept")
				}
			}
		}
	}()
}

// Stop halts the sweeper and waits for it to exit. The store can be swept
// again with a later StartSweeper.
func (s *Store) Stop() {
	s.mu.Lock()
	sw := s.sweeper
	s.mu.Unlock()
	if sw == nil {
		return
	}
	sw.stopOnce.Do(func() { close(sw.stop) })
	<-sw.done

	s.mu.Lock()
	if s.sweeper == sw {
		s.sweeper = nil
	}
	s.mu.Unlock()
}
