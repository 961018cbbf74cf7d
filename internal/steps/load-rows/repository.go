package loadrows

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"churn-loader/internal/models"
)

// RowTx is the per-row unit of work: an existence check and an insert that
// commit together.
type RowTx interface {
	Exists(ctx context.Context, rowNumber int64) (bool, error)
	Insert(ctx context.Context, rec *models.ChurnRecord) error
}

// RowStore runs fn in its own transaction, committing when fn returns nil
// and rolling back otherwise.
type RowStore interface {
	InTx(ctx context.Context, fn func(tx RowTx) error) error
}

var (
	existsQuery = fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s = $1`,
		models.TableName, models.ColRowNumber)
	insertQuery = buildInsertQuery()
)

func buildInsertQuery() string {
	placeholders := make([]string, len(models.Columns))
	for i := range models.Columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		models.TableName,
		strings.Join(models.Columns, ", "),
		strings.Join(placeholders, ", "))
}

// SQLStore is the database/sql RowStore.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) InTx(ctx context.Context, fn func(tx RowTx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(&sqlRowTx{tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

type sqlRowTx struct {
	tx *sql.Tx
}

func (t *sqlRowTx) Exists(ctx context.Context, rowNumber int64) (bool, error) {
	var count int64
	if err := t.tx.QueryRowContext(ctx, existsQuery, rowNumber).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (t *sqlRowTx) Insert(ctx context.Context, rec *models.ChurnRecord) error {
	_, err := t.tx.ExecContext(ctx, insertQuery, rec.Values()...)
	return err
}
