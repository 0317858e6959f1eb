package sessions

import (
	"time"

	"pwshare/pkg/logger"
)

// Sweeper periodically hard-deletes expired session rows.
//
// A failed cycle is logged and retried on the next interval; the loop only
// stops via Stop or process shutdown.
type Sweeper struct {
	store    Store
	interval time.Duration
	stop     chan struct{}
}

// NewSweeper creates a sweeper over the given store
func NewSweeper(store Store, interval time.Duration) *Sweeper {
	return &Sweeper{
		store:    store,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

// Start runs the sweep loop in a background goroutine. One sweep runs
// immediately so a long interval cannot delay the first cleanup.
func (s *Sweeper) Start() {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.sweep()
		for {
			select {
			case <-ticker.C:
				s.sweep()
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop terminates the sweep loop
func (s *Sweeper) Stop() {
	close(s.stop)
}

func (s *Sweeper) sweep() {
	log := logger.Get()
	log.Info("cleaning sessions")

	removed, err := s.store.DeleteExpired(time.Now().Unix())
	if err != nil {
		log.ErrorWithErr("session sweep failed", err)
		return
	}
	if removed > 0 {
		log.Info("removed expired sessions", "count", removed)
	}
}
