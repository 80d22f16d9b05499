package pgdb

import (
	"database/sql"
	"errors"
	"fmt"
	"procurement-engine/pkg/postgres"
)

type DiagnosticsRepo struct {
	*postgres.Postgres
}

func NewDiagnosticsRepo(pgdb *postgres.Postgres) *DiagnosticsRepo {
	return &DiagnosticsRepo{pgdb}
}

// Ping checks the connection and that the rfq schema has been migrated.
func (r *DiagnosticsRepo) Ping() error {
	if err := r.Database.Ping(); err != nil {
		return err
	}

	probeSql, args, _ := r.SqlBuilder.Select("1").From("rfq").Limit(1).ToSql()

	var one int
	err := r.Database.QueryRow(probeSql, args...).Scan(&one)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("rfq schema: %w", err)
	}

	return nil
}
