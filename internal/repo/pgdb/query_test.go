package pgdb

import (
	"procurement-engine/internal/entity"
	"procurement-engine/pkg/postgres"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestIncrementReceivedSqlGuardsOrderedQuantity(t *testing.T) {
	qty := decimal.NewFromInt(6)
	sqlReq, args, err := incrementReceivedSql(postgres.NewSqlBuilder(), "PO-1", 2, qty)
	if err != nil {
		t.Fatalf("build sql: %v", err)
	}

	if !strings.HasPrefix(sqlReq, "UPDATE order_line SET received_quantity = received_quantity + $1") {
		t.Fatalf("unexpected update clause: %s", sqlReq)
	}
	if !strings.Contains(sqlReq, "received_quantity + $4 <= ordered_quantity") {
		t.Fatalf("expected over-receipt guard in where clause, got %s", sqlReq)
	}
	if len(args) != 4 {
		t.Fatalf("expected 4 args, got %d", len(args))
	}
	if args[1] != "PO-1" || args[2] != 2 {
		t.Fatalf("unexpected key args: %v", args)
	}
}

func TestUpdateRfqHeaderSqlChecksVersion(t *testing.T) {
	rfq := &entity.Rfq{Number: "RFQ-1", Subject: "Bolts", Status: entity.RfqStatusDispatched, Version: 3}
	sqlReq, args, err := updateRfqHeaderSql(postgres.NewSqlBuilder(), rfq)
	if err != nil {
		t.Fatalf("build sql: %v", err)
	}

	if !strings.Contains(sqlReq, "version = version + $6") {
		t.Fatalf("expected version bump, got %s", sqlReq)
	}
	if !strings.HasSuffix(sqlReq, "WHERE number = $7 AND version = $8") {
		t.Fatalf("expected optimistic version check, got %s", sqlReq)
	}
	if args[2] != "DISPATCHED" {
		t.Fatalf("expected status label arg, got %v", args[2])
	}
	if args[7] != 3 {
		t.Fatalf("expected expected-version arg 3, got %v", args[7])
	}
}

func TestDueForBiddingSql(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sqlReq, args, err := dueForBiddingSql(postgres.NewSqlBuilder(), now)
	if err != nil {
		t.Fatalf("build sql: %v", err)
	}

	want := "SELECT number FROM rfq WHERE status = $1 AND closing_deadline <= $2 ORDER BY closing_deadline ASC"
	if sqlReq != want {
		t.Fatalf("expected %q, got %q", want, sqlReq)
	}
	if args[0] != "DISPATCHED" {
		t.Fatalf("expected dispatched status arg, got %v", args[0])
	}
	if !args[1].(time.Time).Equal(now) {
		t.Fatalf("expected deadline arg %v, got %v", now, args[1])
	}
}
