package bookings

import (
	"context"
	"time"

	"evently-booking/pkg/logger"
	"evently-booking/pkg/metrics"
)

// Sweeper periodically expires pending bookings whose hold deadline has
// passed. It backs up the inline expiry check on the confirm path.
type Sweeper struct {
	service  Service
	interval time.Duration
	log      *logger.Logger
	done     chan struct{}
}

// NewSweeper creates a sweeper running ExpirePending every interval.
func NewSweeper(service Service, interval time.Duration, log *logger.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	if log == nil {
		log = logger.GetDefault()
	}
	return &Sweeper{
		service:  service,
		interval: interval,
		log:      log.WithComponent("bookings.sweeper"),
		done:     make(chan struct{}),
	}
}

// Start launches the sweep loop. It returns immediately; the loop stops
// when ctx is cancelled or Stop is called.
func (s *Sweeper) Start(ctx context.Context) {
	go s.run(ctx)
	s.log.Info("booking expiry sweeper started", "interval", s.interval.String())
}

// Stop terminates the sweep loop.
func (s *Sweeper) Stop() {
	close(s.done)
	s.log.Info("booking expiry sweeper stopped")
}

func (s *Sweeper) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-s.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	start := time.Now()
	expired, err := s.service.ExpirePending(ctx)

	metrics.SweepRunsTotal.WithLabelValues("bookings").Inc()
	if err != nil {
		s.log.WithError(err).Error("booking expiry sweep failed")
		return
	}
	if expired > 0 {
		metrics.SweepProcessedTotal.WithLabelValues("bookings").Add(float64(expired))
	}
	s.log.LogSweepCycle(ctx, "bookings", expired, time.Since(start))
}
