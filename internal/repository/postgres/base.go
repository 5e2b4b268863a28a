package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jwalitptl/hospital-api/internal/repository"
)

const uniqueViolation = "23505"

// BaseRepository provides common functionality for all repositories
type BaseRepository struct {
	db *sqlx.DB
}

// NewBaseRepository creates a new base repository
func NewBaseRepository(db *sqlx.DB) BaseRepository {
	return BaseRepository{db: db}
}

// GetDB returns the database instance
func (r *BaseRepository) GetDB() *sqlx.DB {
	return r.db
}

// WithTx executes a function within a transaction
func (r *BaseRepository) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

// wrap translates driver errors into repository sentinels.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w", op, &repository.DuplicateError{Column: constraintColumn(pqErr.Constraint)})
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

// uniqueColumns are the columns behind the schema's unique constraints,
// longest first so "service_name" wins over "name".
var uniqueColumns = []string{"service_name", "room_number", "username", "tx_ref", "email", "ssn", "name"}

// constraintColumn recovers the column from Postgres' default
// <table>_<column>_key constraint name.
func constraintColumn(constraint string) string {
	trimmed := strings.TrimSuffix(constraint, "_key")
	for _, col := range uniqueColumns {
		if strings.HasSuffix(trimmed, "_"+col) {
			return col
		}
	}
	return ""
}

// requireRows turns a zero-row exec into ErrNotFound.
func requireRows(result sql.Result, op string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for %s: %w", op, err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *BaseRepository) count(ctx context.Context, op, query string, args ...interface{}) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, wrap(op, err)
	}
	return n, nil
}
