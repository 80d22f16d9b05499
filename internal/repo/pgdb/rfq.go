package pgdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"procurement-engine/internal/entity"
	"procurement-engine/internal/repo/repo_errors"
	"procurement-engine/pkg/postgres"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/hashicorp/go-multierror"
)

const rfqColumns = "number, subject, rfq_type, closing_deadline, remark, status, version, selection_revision, created_at, updated_at"

type RfqRepo struct {
	*postgres.Postgres
}

func NewRfqRepo(pgdb *postgres.Postgres) *RfqRepo {
	return &RfqRepo{pgdb}
}

func (r *RfqRepo) NextRfqNumber(ctx context.Context) (string, error) {
	var seq int64
	if err := r.Database.QueryRowContext(ctx, "SELECT nextval('rfq_number_seq')").Scan(&seq); err != nil {
		return "", err
	}

	return fmt.Sprintf("RFQ-%d", seq), nil
}

func (r *RfqRepo) CreateRfq(ctx context.Context, rfq *entity.Rfq) error {
	tx, err := r.Database.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	createRfqSql, args, _ := r.SqlBuilder.
		Insert("rfq").
		Columns("number", "subject", "rfq_type", "closing_deadline", "remark", "status", "version", "selection_revision", "created_at", "updated_at").
		Values(rfq.Number, rfq.Subject, rfq.Type.String(), rfq.ClosingDeadline, rfq.Remark, rfq.Status.String(), 1, 0, rfq.CreatedAt, rfq.UpdatedAt).
		ToSql()

	if _, err = tx.ExecContext(ctx, createRfqSql, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return rollback(tx, repo_errors.ErrAlreadyExists)
		}

		return rollback(tx, err)
	}

	if err = insertRfqLines(ctx, tx, r.SqlBuilder, rfq); err != nil {
		return rollback(tx, err)
	}

	if err = tx.Commit(); err != nil {
		return err
	}
	rfq.Version = 1

	return nil
}

func (r *RfqRepo) GetRfqByNumber(ctx context.Context, number string) (*entity.Rfq, error) {
	return getRfq(ctx, r.Database, r.SqlBuilder, number)
}

func (r *RfqRepo) SaveRfq(ctx context.Context, rfq *entity.Rfq) error {
	tx, err := r.Database.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err = writeRfq(ctx, tx, r.SqlBuilder, rfq); err != nil {
		return rollback(tx, err)
	}

	if err = tx.Commit(); err != nil {
		return err
	}
	rfq.Version++

	return nil
}

func (r *RfqRepo) GetRfqNumbersDueForBidding(ctx context.Context, now time.Time) ([]string, error) {
	sqlReq, args, _ := dueForBiddingSql(r.SqlBuilder, now)

	rows, err := r.Database.QueryContext(ctx, sqlReq, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	numbers := make([]string, 0)
	for rows.Next() {
		var number string
		if err := rows.Scan(&number); err != nil {
			return numbers, err
		}
		numbers = append(numbers, number)
	}
	if err = rows.Err(); err != nil {
		return numbers, err
	}

	return numbers, nil
}

func dueForBiddingSql(sb squirrel.StatementBuilderType, now time.Time) (string, []interface{}, error) {
	return sb.
		Select("number").
		From("rfq").
		Where("status = ?", entity.RfqStatusDispatched.String()).
		Where("closing_deadline <= ?", now).
		OrderBy("closing_deadline ASC").
		ToSql()
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func getRfq(ctx context.Context, q queryer, sb squirrel.StatementBuilderType, number string) (*entity.Rfq, error) {
	getRfqSql, args, _ := sb.Select(rfqColumns).From("rfq").Where("number = ?", number).ToSql()

	var rfq entity.Rfq
	var rfqType, status string
	err := q.QueryRowContext(ctx, getRfqSql, args...).Scan(&rfq.Number, &rfq.Subject, &rfqType, &rfq.ClosingDeadline,
		&rfq.Remark, &status, &rfq.Version, &rfq.SelectionRevision, &rfq.CreatedAt, &rfq.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repo_errors.ErrNotFound
		}

		return nil, err
	}
	if rfq.Type, err = entity.ParseRfqType(rfqType); err != nil {
		return nil, err
	}
	if rfq.Status, err = entity.ParseRfqStatus(status); err != nil {
		return nil, err
	}

	if rfq.LineItems, err = getRfqLines(ctx, q, sb, number); err != nil {
		return nil, err
	}
	if rfq.Invitations, err = getInvitations(ctx, q, sb, number); err != nil {
		return nil, err
	}

	return &rfq, nil
}

func getRfqLines(ctx context.Context, q queryer, sb squirrel.StatementBuilderType, number string) ([]entity.RfqLineItem, error) {
	sqlReq, args, _ := sb.
		Select("line_no, item_code, description, spec, unit, quantity, estimated_unit_price, estimated_amount, desired_delivery_date, storage_location").
		From("rfq_line").
		Where("rfq_number = ?", number).
		OrderBy("line_no ASC").
		ToSql()

	rows, err := q.QueryContext(ctx, sqlReq, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := make([]entity.RfqLineItem, 0)
	for rows.Next() {
		var line entity.RfqLineItem
		var desired sql.NullTime
		if err := rows.Scan(&line.LineNo, &line.ItemCode, &line.Description, &line.Spec, &line.Unit, &line.Quantity,
			&line.EstimatedUnitPrice, &line.EstimatedAmount, &desired, &line.StorageLocation); err != nil {
			return lines, err
		}
		line.DesiredDeliveryDate = nullTime(desired)
		lines = append(lines, line)
	}
	if err = rows.Err(); err != nil {
		return lines, err
	}

	return lines, nil
}

func getInvitations(ctx context.Context, q queryer, sb squirrel.StatementBuilderType, number string) ([]entity.VendorInvitation, error) {
	sqlReq, args, _ := sb.
		Select("vendor_code, vendor_name, status, submitted_at, selected, total_amount, updated_at").
		From("vendor_invitation").
		Where("rfq_number = ?", number).
		OrderBy("vendor_code ASC").
		ToSql()

	rows, err := q.QueryContext(ctx, sqlReq, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invitations := make([]entity.VendorInvitation, 0)
	for rows.Next() {
		inv := entity.VendorInvitation{RfqNumber: number}
		var status string
		var submittedAt sql.NullTime
		if err := rows.Scan(&inv.VendorCode, &inv.VendorName, &status, &submittedAt, &inv.Selected,
			&inv.TotalAmount, &inv.UpdatedAt); err != nil {
			return invitations, err
		}
		if inv.Status, err = entity.ParseInvitationStatus(status); err != nil {
			return invitations, err
		}
		inv.SubmittedAt = nullTime(submittedAt)
		invitations = append(invitations, inv)
	}
	if err = rows.Err(); err != nil {
		return invitations, err
	}
	rows.Close()

	for i := range invitations {
		lines, err := getQuoteLines(ctx, q, sb, number, invitations[i].VendorCode)
		if err != nil {
			return invitations, err
		}
		invitations[i].QuoteLines = lines
	}

	return invitations, nil
}

func getQuoteLines(ctx context.Context, q queryer, sb squirrel.StatementBuilderType, number string, vendorCode string) ([]entity.QuoteLineItem, error) {
	sqlReq, args, _ := sb.
		Select("line_no, unit_price, quantity, amount, promised_delivery_date, remark").
		From("quote_line").
		Where("rfq_number = ?", number).
		Where("vendor_code = ?", vendorCode).
		OrderBy("line_no ASC").
		ToSql()

	return scanQuoteLines(ctx, q, sqlReq, args)
}

func scanQuoteLines(ctx context.Context, q queryer, sqlReq string, args []interface{}) ([]entity.QuoteLineItem, error) {
	rows, err := q.QueryContext(ctx, sqlReq, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := make([]entity.QuoteLineItem, 0)
	for rows.Next() {
		var line entity.QuoteLineItem
		var promised sql.NullTime
		if err := rows.Scan(&line.LineNo, &line.UnitPrice, &line.Quantity, &line.Amount, &promised, &line.Remark); err != nil {
			return lines, err
		}
		line.PromisedDeliveryDate = nullTime(promised)
		lines = append(lines, line)
	}
	if err = rows.Err(); err != nil {
		return lines, err
	}

	return lines, nil
}

// writeRfq saves header, lines and invitations guarded by the optimistic version.
func writeRfq(ctx context.Context, tx *sql.Tx, sb squirrel.StatementBuilderType, rfq *entity.Rfq) error {
	updateRfqSql, args, _ := updateRfqHeaderSql(sb, rfq)

	res, err := tx.ExecContext(ctx, updateRfqSql, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repo_errors.ErrVersionConflict
	}

	// line items are frozen once the rfq leaves draft
	if rfq.Status == entity.RfqStatusDraft {
		deleteLinesSql, args, _ := sb.Delete("rfq_line").Where("rfq_number = ?", rfq.Number).ToSql()
		if _, err = tx.ExecContext(ctx, deleteLinesSql, args...); err != nil {
			return err
		}
		if err = insertRfqLines(ctx, tx, sb, rfq); err != nil {
			return err
		}
	}

	for i := range rfq.Invitations {
		if err = writeInvitation(ctx, tx, sb, &rfq.Invitations[i]); err != nil {
			return err
		}
	}

	return nil
}

func updateRfqHeaderSql(sb squirrel.StatementBuilderType, rfq *entity.Rfq) (string, []interface{}, error) {
	return sb.
		Update("rfq").
		Set("subject", rfq.Subject).
		Set("remark", rfq.Remark).
		Set("status", rfq.Status.String()).
		Set("selection_revision", rfq.SelectionRevision).
		Set("updated_at", rfq.UpdatedAt).
		Set("version", squirrel.Expr("version + ?", 1)).
		Where("number = ?", rfq.Number).
		Where("version = ?", rfq.Version).
		ToSql()
}

func insertRfqLines(ctx context.Context, tx *sql.Tx, sb squirrel.StatementBuilderType, rfq *entity.Rfq) error {
	if len(rfq.LineItems) == 0 {
		return nil
	}

	builder := sb.
		Insert("rfq_line").
		Columns("rfq_number", "line_no", "item_code", "description", "spec", "unit", "quantity",
			"estimated_unit_price", "estimated_amount", "desired_delivery_date", "storage_location")
	for _, l := range rfq.LineItems {
		builder = builder.Values(rfq.Number, l.LineNo, l.ItemCode, l.Description, l.Spec, l.Unit, l.Quantity,
			l.EstimatedUnitPrice, l.EstimatedAmount, l.DesiredDeliveryDate, l.StorageLocation)
	}
	insertSql, args, _ := builder.ToSql()

	_, err := tx.ExecContext(ctx, insertSql, args...)

	return err
}

func writeInvitation(ctx context.Context, tx *sql.Tx, sb squirrel.StatementBuilderType, inv *entity.VendorInvitation) error {
	upsertSql, args, _ := sb.
		Insert("vendor_invitation").
		Columns("rfq_number", "vendor_code", "vendor_name", "status", "submitted_at", "selected", "total_amount", "updated_at").
		Values(inv.RfqNumber, inv.VendorCode, inv.VendorName, inv.Status.String(), inv.SubmittedAt, inv.Selected, inv.TotalAmount, inv.UpdatedAt).
		Suffix("ON CONFLICT (rfq_number, vendor_code) DO UPDATE SET " +
			"status = EXCLUDED.status, submitted_at = EXCLUDED.submitted_at, selected = EXCLUDED.selected, " +
			"total_amount = EXCLUDED.total_amount, updated_at = EXCLUDED.updated_at").
		ToSql()

	if _, err := tx.ExecContext(ctx, upsertSql, args...); err != nil {
		return err
	}

	deleteLinesSql, args, _ := sb.
		Delete("quote_line").
		Where("rfq_number = ?", inv.RfqNumber).
		Where("vendor_code = ?", inv.VendorCode).
		ToSql()

	if _, err := tx.ExecContext(ctx, deleteLinesSql, args...); err != nil {
		return err
	}

	if len(inv.QuoteLines) == 0 {
		return nil
	}

	builder := sb.
		Insert("quote_line").
		Columns("rfq_number", "vendor_code", "line_no", "unit_price", "quantity", "amount", "promised_delivery_date", "remark")
	for _, l := range inv.QuoteLines {
		builder = builder.Values(inv.RfqNumber, inv.VendorCode, l.LineNo, l.UnitPrice, l.Quantity, l.Amount, l.PromisedDeliveryDate, l.Remark)
	}
	insertSql, args, _ := builder.ToSql()

	_, err := tx.ExecContext(ctx, insertSql, args...)

	return err
}

func rollback(tx *sql.Tx, err error) error {
	if e := tx.Rollback(); e != nil {
		return multierror.Append(err, e)
	}

	return err
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time

	return &v
}
