package spam

import (
	"context"
	"sync"
	"time"

	"github.com/peer-chat-dev/peer-chat-go-signaling-server/internal/logger"
)

// Sweeper runs the guard's staleness sweep on a fixed interval. It starts at
// service init and stops through the shutdown cleaner (event.Callable).
type Sweeper struct {
	guard    *Guard
	interval time.Duration
	done     chan struct{}
	stopOnce sync.Once
}

func NewSweeper(guard *Guard, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	return &Sweeper{
		guard:    guard,
		interval: interval,
		done:     make(chan struct{}),
	}
}

func (s *Sweeper) Start() {
	ticker := s.guard.clock.Ticker(s.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if removed := s.guard.Sweep(); removed > 0 {
					logger.DebugF("Spam tracking sweep removed %d stale entries", removed)
				}
			case <-s.done:
				return
			}
		}
	}()
}

// Invoke stops the sweep loop. Satisfies event.Callable.
func (s *Sweeper) Invoke(ctx context.Context) error {
	s.stopOnce.Do(func() {
		close(s.done)
	})
	return nil
}
