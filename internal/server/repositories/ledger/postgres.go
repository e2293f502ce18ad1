// Package ledger stores the audit trail of balance mutations.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/lootledger/internal/common"
	"github.com/dmitrijs2005/lootledger/internal/dbx"
	"github.com/dmitrijs2005/lootledger/internal/server/models"
)

const entryColumns = `id, user_id, amount, category, reason, operation_id, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*models.LedgerEntry, error) {
	e := &models.LedgerEntry{}
	if err := s.Scan(&e.ID, &e.UserID, &e.Amount, &e.Category, &e.Reason, &e.OperationID, &e.CreatedAt); err != nil {
		return nil, err
	}
	return e, nil
}

func (r *PostgresRepository) Append(ctx context.Context, e *models.LedgerEntry) (*models.LedgerEntry, error) {
	query :=
		`INSERT INTO ledger_entries (user_id, amount, category, reason, operation_id)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING ` + entryColumns

	created, err := scanEntry(r.db.QueryRowContext(ctx, query, e.UserID, e.Amount, e.Category, e.Reason, e.OperationID))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return created, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*models.LedgerEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM ledger_entries WHERE user_id = $1 ORDER BY id DESC LIMIT $2`
	return r.list(ctx, query, userID, limit)
}

func (r *PostgresRepository) ListByOperation(ctx context.Context, operationID string) ([]*models.LedgerEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM ledger_entries WHERE operation_id = $1 ORDER BY id`
	return r.list(ctx, query, operationID)
}

// Totals uses a single statement so the balance and the sum share one snapshot
// even at READ COMMITTED.
func (r *PostgresRepository) Totals(ctx context.Context, userID string) (*Totals, error) {
	query :=
		`SELECT u.balance, u.starting_balance,
		        COALESCE((SELECT SUM(l.amount) FROM ledger_entries l WHERE l.user_id = u.id), 0)
		 FROM users u
		 WHERE u.id = $1
		 `

	t := &Totals{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&t.Balance, &t.StartingBalance, &t.LedgerSum)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select ledger entries: %w", err)
	}
	defer rows.Close()

	var result []*models.LedgerEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
