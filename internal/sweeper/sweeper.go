// Package sweeper runs the periodic expiry of stale swap requests.
package sweeper

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/fkhayef/rewear/internal/swap"
)

// Sweeper rejects swap requests that sat pending for longer than the
// configured TTL.
type Sweeper struct {
	swaps  *swap.Service
	maxAge time.Duration
	cron   *cron.Cron
}

// New creates a sweeper. maxAge must be positive; callers gate on that.
func New(swaps *swap.Service, maxAge time.Duration) *Sweeper {
	return &Sweeper{
		swaps:  swaps,
		maxAge: maxAge,
		cron:   cron.New(),
	}
}

// Start schedules the sweep and begins running it
func (s *Sweeper) Start(schedule string) error {
	_, err := s.cron.AddFunc(schedule, s.sweep)
	if err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("sweeper: expiring swap requests older than %s on schedule %q", s.maxAge, schedule)
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := s.swaps.ExpireStale(ctx, s.maxAge)
	if err != nil {
		log.Printf("sweeper: sweep failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("sweeper: expired %d stale swap requests", n)
	}
}
