// Package scheduler runs background sweeps over rfqs.
package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/labstack/gommon/log"
	"github.com/robfig/cron/v3"
)

// BiddingOpener is the part of the rfq service the deadline sweep needs.
type BiddingOpener interface {
	DueForBidding(ctx context.Context) ([]string, error)
	OpenBiddingOnDeadline(ctx context.Context, number string) (bool, error)
}

// DeadlineScheduler opens bidding on every DISPATCHED rfq whose closing
// deadline has passed. A run is skipped while the previous one is still going.
type DeadlineScheduler struct {
	rfqs    BiddingOpener
	cron    *cron.Cron
	logger  *log.Logger
	timeout time.Duration
	running int32
}

func NewDeadlineScheduler(rfqs BiddingOpener, spec string, timeout time.Duration, logger *log.Logger) (*DeadlineScheduler, error) {
	s := &DeadlineScheduler{
		rfqs:    rfqs,
		logger:  logger,
		timeout: timeout,
		cron:    cron.New(cron.WithLogger(cron.PrintfLogger(logger))),
	}

	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return nil, fmt.Errorf("schedule deadline sweep %q: %w", spec, err)
	}

	return s, nil
}

func (s *DeadlineScheduler) Start() {
	s.cron.Start()
}

// Stop waits for a running sweep to finish.
func (s *DeadlineScheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *DeadlineScheduler) run() {
	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		s.logger.Warn("previous deadline sweep still running, skipping")
		return
	}
	defer atomic.StoreInt32(&s.running, 0)

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.Sweep(ctx); err != nil {
		s.logger.Errorf("deadline sweep: %v", err)
	}
}

// Sweep opens bidding on every due rfq. A failure on one rfq does not stop
// the others; all failures are returned together.
func (s *DeadlineScheduler) Sweep(ctx context.Context) error {
	numbers, err := s.rfqs.DueForBidding(ctx)
	if err != nil {
		return err
	}

	var result *multierror.Error
	for _, number := range numbers {
		if ctx.Err() != nil {
			result = multierror.Append(result, ctx.Err())
			break
		}

		opened, err := s.rfqs.OpenBiddingOnDeadline(ctx, number)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("rfq %s: %w", number, err))
			continue
		}
		if opened {
			s.logger.Infoj(log.JSON{"event": "bidding_opened", "rfq": number})
		}
	}

	return result.ErrorOrNil()
}
