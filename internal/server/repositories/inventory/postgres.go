// Package inventory persists per-user card holdings. Each held copy is its
// own row.
package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/lootledger/internal/common"
	"github.com/dmitrijs2005/lootledger/internal/dbx"
	"github.com/dmitrijs2005/lootledger/internal/server/models"
)

const entryColumns = `id, user_id, item_id, enchant_level, favorite, source, acquired_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*models.InventoryEntry, error) {
	e := &models.InventoryEntry{}
	if err := s.Scan(&e.ID, &e.UserID, &e.ItemID, &e.EnchantLevel, &e.Favorite, &e.Source, &e.AcquiredAt); err != nil {
		return nil, err
	}
	return e, nil
}

func (r *PostgresRepository) Add(ctx context.Context, e *models.InventoryEntry) (*models.InventoryEntry, error) {
	query :=
		`INSERT INTO inventory (user_id, item_id, enchant_level, source)
		 VALUES ($1, $2, $3, $4)
		 RETURNING ` + entryColumns

	created, err := scanEntry(r.db.QueryRowContext(ctx, query, e.UserID, e.ItemID, e.EnchantLevel, e.Source))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return created, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id int64) (*models.InventoryEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM inventory WHERE id = $1`
	e, err := scanEntry(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return e, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.InventoryEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM inventory WHERE user_id = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select inventory: %w", err)
	}
	defer rows.Close()

	var result []*models.InventoryEntry
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

func (r *PostgresRepository) Move(ctx context.Context, id int64, from, to string, source models.Source) error {
	query :=
		`UPDATE inventory SET user_id = $3, source = $4, favorite = FALSE, acquired_at = now()
		 WHERE id = $1 AND user_id = $2
		 `
	res, err := r.db.ExecContext(ctx, query, id, from, to, source)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64, userID string) (*models.InventoryEntry, error) {
	query := `DELETE FROM inventory WHERE id = $1 AND user_id = $2 RETURNING ` + entryColumns
	e, err := scanEntry(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return e, nil
}

func (r *PostgresRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM inventory WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) SetFavorite(ctx context.Context, id int64, userID string, favorite bool) error {
	query := `UPDATE inventory SET favorite = $3 WHERE id = $1 AND user_id = $2`
	res, err := r.db.ExecContext(ctx, query, id, userID, favorite)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}
