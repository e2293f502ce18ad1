package trades

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/lootledger/internal/common"
	"github.com/dmitrijs2005/lootledger/internal/dbx"
	"github.com/dmitrijs2005/lootledger/internal/server/models"
)

const tradeColumns = `id, initiator_id, recipient_id, offered_entry_id, requested_entry_id, status, created_at, resolved_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTrade(s scanner) (*models.Trade, error) {
	t := &models.Trade{}
	var resolved sql.NullTime
	if err := s.Scan(&t.ID, &t.InitiatorID, &t.RecipientID, &t.OfferedEntryID, &t.RequestedEntryID,
		&t.Status, &t.CreatedAt, &resolved); err != nil {
		return nil, err
	}
	if resolved.Valid {
		t.ResolvedAt = &resolved.Time
	}
	return t, nil
}

func (r *PostgresRepository) Create(ctx context.Context, t *models.Trade) (*models.Trade, error) {
	query :=
		`INSERT INTO trades (initiator_id, recipient_id, offered_entry_id, requested_entry_id)
		 VALUES ($1, $2, $3, $4)
		 RETURNING ` + tradeColumns

	created, err := scanTrade(r.db.QueryRowContext(ctx, query, t.InitiatorID, t.RecipientID, t.OfferedEntryID, t.RequestedEntryID))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return created, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id int64) (*models.Trade, error) {
	t, err := scanTrade(r.db.QueryRowContext(ctx, `SELECT `+tradeColumns+` FROM trades WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) Resolve(ctx context.Context, id int64, status models.TradeStatus, at time.Time) (*models.Trade, error) {
	query :=
		`UPDATE trades SET status = $2, resolved_at = $3
		 WHERE id = $1 AND status = 'pending'
		 RETURNING ` + tradeColumns

	t, err := scanTrade(r.db.QueryRowContext(ctx, query, id, status, at))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrTradeNotPending
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) ExpirePendingBefore(ctx context.Context, cutoff, at time.Time) (int64, error) {
	query :=
		`UPDATE trades SET status = 'expired', resolved_at = $2
		 WHERE status = 'pending' AND created_at < $1
		 `
	res, err := r.db.ExecContext(ctx, query, cutoff, at)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) ListPendingForUser(ctx context.Context, userID string) ([]*models.Trade, error) {
	query :=
		`SELECT ` + tradeColumns + ` FROM trades
		 WHERE status = 'pending' AND (initiator_id = $1 OR recipient_id = $1)
		 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select trades: %w", err)
	}
	defer rows.Close()

	var result []*models.Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
