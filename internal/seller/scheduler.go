package seller

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/guarzo/sellermargin/internal/logx"
)

// Scheduler refreshes the current month's season ranking on a cron
// schedule so /season rarely computes on the request path.
type Scheduler struct {
	cron    *cron.Cron
	ranker  *SeasonRanker
	timeout time.Duration
}

// NewScheduler parses spec (standard five-field cron syntax) and prepares
// the refresh job. The job does not run until Start.
func NewScheduler(ranker *SeasonRanker, spec string, timeout time.Duration) (*Scheduler, error) {
	if timeout <= 0 {
		timeout = time.Minute
	}
	s := &Scheduler{cron: cron.New(), ranker: ranker, timeout: timeout}
	if _, err := s.cron.AddFunc(spec, s.refresh); err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start runs the schedule in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the schedule and waits for a running refresh to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	month := s.ranker.CurrentMonth()
	if _, err := s.ranker.Refresh(ctx, month); err != nil {
		logx.Warn().Err(err).Int("month", month).Msg("scheduled season refresh failed")
	}
}
