package service

import (
	"context"
	"procurement-engine/internal/entity"
	"procurement-engine/internal/repo"
	"time"

	"github.com/moby/locker"
)

type Diagnostics interface {
	Ping() error
}

type Rfq interface {
	CreateRfq(ctx context.Context, input *entity.CreateRfqInput) (*entity.RfqOutputModel, error)
	GetRfq(ctx context.Context, number string) (*entity.RfqOutputModel, error)
	EditRfqLineItems(ctx context.Context, number string, lines []entity.RfqLineInput) (*entity.RfqOutputModel, error)

	DispatchRfq(ctx context.Context, number string, vendors []entity.VendorRef) (*entity.RfqOutputModel, error)
	OpenBidding(ctx context.Context, number string) (*entity.RfqOutputModel, error)
	CancelRfq(ctx context.Context, number string) (*entity.RfqOutputModel, error)

	// DueForBidding lists DISPATCHED rfqs whose closing deadline has passed.
	DueForBidding(ctx context.Context) ([]string, error)
	// OpenBiddingOnDeadline opens bidding if the rfq is still DISPATCHED and
	// past its deadline. It reports whether a transition happened.
	OpenBiddingOnDeadline(ctx context.Context, number string) (bool, error)
}

type Invitation interface {
	GetInvitation(ctx context.Context, rfqNumber, vendorCode string) (*entity.InvitationOutputModel, error)

	AcceptInvitation(ctx context.Context, rfqNumber, vendorCode string) (*entity.InvitationOutputModel, error)
	DeclineInvitation(ctx context.Context, rfqNumber, vendorCode string) (*entity.InvitationOutputModel, error)

	SaveVendorQuoteDraft(ctx context.Context, rfqNumber, vendorCode string, lines []entity.QuoteLineInput) (*entity.InvitationOutputModel, error)
	SubmitVendorQuote(ctx context.Context, rfqNumber, vendorCode string, lines []entity.QuoteLineInput) (*entity.InvitationOutputModel, error)
}

type Selection interface {
	SelectWinner(ctx context.Context, rfqNumber, vendorCode string) (*entity.SelectionOutputModel, error)
	ReopenSelection(ctx context.Context, rfqNumber string) (*entity.RfqOutputModel, error)
	GetSelection(ctx context.Context, rfqNumber string) (*entity.SelectionOutputModel, error)
}

type Order interface {
	IssueOrder(ctx context.Context, rfqNumber string) (*entity.OrderOutputModel, error)
	GetOrder(ctx context.Context, number string) (*entity.OrderOutputModel, error)

	ReceiveGoods(ctx context.Context, lines []entity.ReceiptLineInput) (*entity.ReceiveGoodsOutputModel, error)
	GetOrderReceipts(ctx context.Context, orderNumber string, pg *entity.PaginationInput) ([]entity.ReceiptOutputModel, error)
}

type Services struct {
	Diagnostics Diagnostics
	Rfq         Rfq
	Invitation  Invitation
	Selection   Selection
	Order       Order
}

// NewServices wires every service over the same repositories. All rfq scoped
// services share one lock table so that operations on one rfq never interleave.
// A nil clock means time.Now.
func NewServices(repos *repo.Repositories, clock func() time.Time) *Services {
	if clock == nil {
		clock = time.Now
	}
	now := func() time.Time { return clock().UTC() }

	rfqs := &rfqAccess{rfqRepo: repos.Rfq, locks: locker.New(), now: now}

	return &Services{
		Diagnostics: NewDiagnosticsService(repos),
		Rfq:         NewRfqService(rfqs),
		Invitation:  NewInvitationService(rfqs),
		Selection:   NewSelectionService(repos, rfqs),
		Order:       NewOrderService(repos, rfqs),
	}
}
