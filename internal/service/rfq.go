package service

import (
	"context"
	"errors"
	"procurement-engine/internal/entity"
	"procurement-engine/internal/repo"
	"procurement-engine/internal/repo/repo_errors"
	"time"

	"github.com/moby/locker"
)

// rfqAccess is the load-mutate-save path shared by every service that
// changes an rfq aggregate.
type rfqAccess struct {
	rfqRepo repo.Rfq
	locks   *locker.Locker
	now     func() time.Time
}

func (a *rfqAccess) load(ctx context.Context, number string) (*entity.Rfq, error) {
	rfq, err := a.rfqRepo.GetRfqByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, repo_errors.ErrNotFound) {
			return nil, ErrRfqNotFound
		}

		return nil, err
	}

	return rfq, nil
}

// mutate runs fn on a freshly loaded rfq while holding the rfq lock and
// saves the result. Nothing is written when fn fails.
func (a *rfqAccess) mutate(ctx context.Context, number string, fn func(rfq *entity.Rfq, now time.Time) error) (*entity.Rfq, error) {
	a.locks.Lock(number)
	defer a.locks.Unlock(number)

	rfq, err := a.load(ctx, number)
	if err != nil {
		return nil, err
	}

	if err = fn(rfq, a.now()); err != nil {
		return nil, err
	}

	if err = a.rfqRepo.SaveRfq(ctx, rfq); err != nil {
		return nil, rfqConflict(number, err)
	}

	return rfq, nil
}

func rfqConflict(number string, err error) error {
	if errors.Is(err, repo_errors.ErrVersionConflict) {
		return &entity.ConflictError{Aggregate: "rfq", Id: number, Reason: "rfq was modified concurrently"}
	}

	return err
}

type RfqService struct {
	rfqs *rfqAccess
}

func NewRfqService(rfqs *rfqAccess) *RfqService {
	return &RfqService{rfqs: rfqs}
}

func (s *RfqService) CreateRfq(ctx context.Context, input *entity.CreateRfqInput) (*entity.RfqOutputModel, error) {
	now := s.rfqs.now()

	rfq, err := entity.NewRfq("", input, now)
	if err != nil {
		return nil, err
	}

	rfq.Number, err = s.rfqs.rfqRepo.NextRfqNumber(ctx)
	if err != nil {
		return nil, err
	}

	if err = s.rfqs.rfqRepo.CreateRfq(ctx, rfq); err != nil {
		if errors.Is(err, repo_errors.ErrAlreadyExists) {
			return nil, &entity.ConflictError{Aggregate: "rfq", Id: rfq.Number, Reason: "number already taken"}
		}

		return nil, err
	}

	return mapRfq(rfq), nil
}

func (s *RfqService) GetRfq(ctx context.Context, number string) (*entity.RfqOutputModel, error) {
	rfq, err := s.rfqs.load(ctx, number)
	if err != nil {
		return nil, err
	}

	return mapRfq(rfq), nil
}

func (s *RfqService) EditRfqLineItems(ctx context.Context, number string, lines []entity.RfqLineInput) (*entity.RfqOutputModel, error) {
	rfq, err := s.rfqs.mutate(ctx, number, func(rfq *entity.Rfq, now time.Time) error {
		return rfq.EditLineItems(lines, now)
	})
	if err != nil {
		return nil, err
	}

	return mapRfq(rfq), nil
}

func (s *RfqService) DispatchRfq(ctx context.Context, number string, vendors []entity.VendorRef) (*entity.RfqOutputModel, error) {
	rfq, err := s.rfqs.mutate(ctx, number, func(rfq *entity.Rfq, now time.Time) error {
		return rfq.Dispatch(vendors, now)
	})
	if err != nil {
		return nil, err
	}

	return mapRfq(rfq), nil
}

func (s *RfqService) OpenBidding(ctx context.Context, number string) (*entity.RfqOutputModel, error) {
	rfq, err := s.rfqs.mutate(ctx, number, func(rfq *entity.Rfq, now time.Time) error {
		return rfq.OpenBidding(now)
	})
	if err != nil {
		return nil, err
	}

	return mapRfq(rfq), nil
}

func (s *RfqService) CancelRfq(ctx context.Context, number string) (*entity.RfqOutputModel, error) {
	rfq, err := s.rfqs.mutate(ctx, number, func(rfq *entity.Rfq, now time.Time) error {
		return rfq.Cancel(now)
	})
	if err != nil {
		return nil, err
	}

	return mapRfq(rfq), nil
}

func (s *RfqService) DueForBidding(ctx context.Context) ([]string, error) {
	return s.rfqs.rfqRepo.GetRfqNumbersDueForBidding(ctx, s.rfqs.now())
}

var errNothingToOpen = errors.New("rfq is not due for bidding")

func (s *RfqService) OpenBiddingOnDeadline(ctx context.Context, number string) (bool, error) {
	_, err := s.rfqs.mutate(ctx, number, func(rfq *entity.Rfq, now time.Time) error {
		if rfq.Status != entity.RfqStatusDispatched || !rfq.DeadlinePassed(now) {
			return errNothingToOpen
		}

		return rfq.OpenBidding(now)
	})
	if err != nil {
		if errors.Is(err, errNothingToOpen) {
			return false, nil
		}

		return false, err
	}

	return true, nil
}
