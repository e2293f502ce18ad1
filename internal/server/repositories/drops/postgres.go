package drops

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

const (
	dropColumns = `id, item_id, status, created_at, claimed_by, claimed_at, expired_at`
	openIndex   = "drops_one_open"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDrop(s scanner) (*models.Drop, error) {
	d := &models.Drop{}
	var (
		claimedBy            sql.NullString
		claimedAt, expiredAt sql.NullTime
	)
	if err := s.Scan(&d.ID, &d.ItemID, &d.Status, &d.CreatedAt, &claimedBy, &claimedAt, &expiredAt); err != nil {
		return nil, err
	}
	if claimedBy.Valid {
		d.ClaimedBy = &claimedBy.String
	}
	if claimedAt.Valid {
		d.ClaimedAt = &claimedAt.Time
	}
	if expiredAt.Valid {
		d.ExpiredAt = &expiredAt.Time
	}
	return d, nil
}

func (r *PostgresRepository) GetOpen(ctx context.Context) (*models.Drop, error) {
	query := `SELECT ` + dropColumns + ` FROM drops WHERE status = 'unclaimed'`
	d, err := scanDrop(r.db.QueryRowContext(ctx, query))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return d, nil
}

func (r *PostgresRepository) Create(ctx context.Context, itemID int64) (*models.Drop, error) {
	query := `INSERT INTO drops (item_id) VALUES ($1) RETURNING ` + dropColumns
	d, err := scanDrop(r.db.QueryRowContext(ctx, query, itemID))
	if err != nil {
		if dbx.IsUniqueViolation(err, openIndex) {
			return nil, common.ErrDropAlreadyOpen
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return d, nil
}

func (r *PostgresRepository) Claim(ctx context.Context, id int64, userID string, at time.Time) (*models.Drop, error) {
	query :=
		`UPDATE drops SET status = 'claimed', claimed_by = $2, claimed_at = $3
		 WHERE id = $1 AND status = 'unclaimed'
		 RETURNING ` + dropColumns

	d, err := scanDrop(r.db.QueryRowContext(ctx, query, id, userID, at))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrAlreadyClaimed
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return d, nil
}

func (r *PostgresRepository) ExpireOpenBefore(ctx context.Context, cutoff, at time.Time) (int64, error) {
	query :=
		`UPDATE drops SET status = 'expired', expired_at = $2
		 WHERE status = 'unclaimed' AND created_at < $1
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

func (r *PostgresRepository) ListRecent(ctx context.Context, limit int) ([]*models.Drop, error) {
	query := `SELECT ` + dropColumns + ` FROM drops ORDER BY id DESC LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select drops: %w", err)
	}
	defer rows.Close()

	var result []*models.Drop
	for rows.Next() {
		d, err := scanDrop(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
