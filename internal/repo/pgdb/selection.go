package pgdb

import (
	"context"
	"database/sql"
	"errors"
	"procurement-engine/internal/entity"
	"procurement-engine/internal/repo/repo_errors"
	"procurement-engine/pkg/postgres"
)

type SelectionRepo struct {
	*postgres.Postgres
}

func NewSelectionRepo(pgdb *postgres.Postgres) *SelectionRepo {
	return &SelectionRepo{pgdb}
}

func (r *SelectionRepo) SaveSelection(ctx context.Context, rfq *entity.Rfq, snapshot *entity.SelectionSnapshot) error {
	tx, err := r.Database.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err = writeRfq(ctx, tx, r.SqlBuilder, rfq); err != nil {
		return rollback(tx, err)
	}

	createSnapshotSql, args, _ := r.SqlBuilder.
		Insert("selection_snapshot").
		Columns("rfq_number", "revision", "vendor_code", "vendor_name", "total_amount", "selected_at").
		Values(snapshot.RfqNumber, snapshot.Revision, snapshot.VendorCode, snapshot.VendorName, snapshot.TotalAmount, snapshot.SelectedAt).
		ToSql()

	if _, err = tx.ExecContext(ctx, createSnapshotSql, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return rollback(tx, repo_errors.ErrVersionConflict)
		}

		return rollback(tx, err)
	}

	if len(snapshot.Lines) > 0 {
		builder := r.SqlBuilder.
			Insert("selection_snapshot_line").
			Columns("rfq_number", "revision", "line_no", "unit_price", "quantity", "amount", "promised_delivery_date", "remark")
		for _, l := range snapshot.Lines {
			builder = builder.Values(snapshot.RfqNumber, snapshot.Revision, l.LineNo, l.UnitPrice, l.Quantity, l.Amount, l.PromisedDeliveryDate, l.Remark)
		}
		createLinesSql, args, _ := builder.ToSql()

		if _, err = tx.ExecContext(ctx, createLinesSql, args...); err != nil {
			return rollback(tx, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return err
	}
	rfq.Version++

	return nil
}

func (r *SelectionRepo) GetSnapshot(ctx context.Context, rfqNumber string, revision int) (*entity.SelectionSnapshot, error) {
	getSnapshotSql, args, _ := r.SqlBuilder.
		Select("rfq_number, revision, vendor_code, vendor_name, total_amount, selected_at").
		From("selection_snapshot").
		Where("rfq_number = ?", rfqNumber).
		Where("revision = ?", revision).
		ToSql()

	var snapshot entity.SelectionSnapshot
	err := r.Database.QueryRowContext(ctx, getSnapshotSql, args...).Scan(&snapshot.RfqNumber, &snapshot.Revision,
		&snapshot.VendorCode, &snapshot.VendorName, &snapshot.TotalAmount, &snapshot.SelectedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repo_errors.ErrNotFound
		}

		return nil, err
	}

	getLinesSql, args, _ := r.SqlBuilder.
		Select("line_no, unit_price, quantity, amount, promised_delivery_date, remark").
		From("selection_snapshot_line").
		Where("rfq_number = ?", rfqNumber).
		Where("revision = ?", revision).
		OrderBy("line_no ASC").
		ToSql()

	if snapshot.Lines, err = scanQuoteLines(ctx, r.Database, getLinesSql, args); err != nil {
		return nil, err
	}

	return &snapshot, nil
}
