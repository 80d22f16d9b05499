package repo

import (
	"context"
	"procurement-engine/internal/entity"
	"procurement-engine/internal/repo/memdb"
	"procurement-engine/internal/repo/pgdb"
	"procurement-engine/pkg/postgres"
	"time"
)

type Diagnostics interface {
	Ping() error
}

type Rfq interface {
	NextRfqNumber(ctx context.Context) (string, error)
	CreateRfq(ctx context.Context, rfq *entity.Rfq) error
	GetRfqByNumber(ctx context.Context, number string) (*entity.Rfq, error)
	// SaveRfq writes the aggregate if its stored version still equals rfq.Version
	// and advances rfq.Version on success.
	SaveRfq(ctx context.Context, rfq *entity.Rfq) error
	GetRfqNumbersDueForBidding(ctx context.Context, now time.Time) ([]string, error)
}

type Selection interface {
	// SaveSelection appends the snapshot and saves the rfq in one transaction.
	SaveSelection(ctx context.Context, rfq *entity.Rfq, snapshot *entity.SelectionSnapshot) error
	GetSnapshot(ctx context.Context, rfqNumber string, revision int) (*entity.SelectionSnapshot, error)
}

type Order interface {
	NextOrderNumber(ctx context.Context) (string, error)
	CreateOrder(ctx context.Context, order *entity.Order) error
	GetOrderByNumber(ctx context.Context, number string) (*entity.Order, error)
	GetOrderBySnapshot(ctx context.Context, rfqNumber string, revision int) (*entity.Order, error)
	// AppendReceipts advances received quantities and stores the records atomically.
	// No line may end up with received > ordered.
	AppendReceipts(ctx context.Context, orderNumber string, receipts []entity.ReceiptRecord) error
	GetReceiptsByOrderNumber(ctx context.Context, orderNumber string, pg *entity.PaginationInput) ([]entity.ReceiptRecord, error)
}

type Repositories struct {
	Diagnostics
	Rfq
	Selection
	Order
}

func NewRepositories(p *postgres.Postgres) *Repositories {
	return &Repositories{
		Diagnostics: pgdb.NewDiagnosticsRepo(p),
		Rfq:         pgdb.NewRfqRepo(p),
		Selection:   pgdb.NewSelectionRepo(p),
		Order:       pgdb.NewOrderRepo(p),
	}
}

// NewMemoryRepositories backs every repository with one in-process store.
func NewMemoryRepositories() *Repositories {
	store := memdb.NewStore()

	return &Repositories{
		Diagnostics: store,
		Rfq:         store,
		Selection:   store,
		Order:       store,
	}
}
