package users

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

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectUser = `SELECT id, display_name, balance, starting_balance, last_reward_at, wins, losses, work_count, banned, created_at, updated_at
		 FROM users
		 WHERE id = $1
		 `

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.User, error) {
	return r.get(ctx, selectUser, id)
}

// GetForUpdate is Get holding the row lock until the transaction ends.
func (r *PostgresRepository) GetForUpdate(ctx context.Context, id string) (*models.User, error) {
	return r.get(ctx, selectUser+"FOR UPDATE", id)
}

func (r *PostgresRepository) get(ctx context.Context, query, id string) (*models.User, error) {
	user := &models.User{}
	var lastReward sql.NullTime
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.DisplayName, &user.Balance, &user.StartingBalance, &lastReward,
		&user.Wins, &user.Losses, &user.WorkCount, &user.Banned, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if lastReward.Valid {
		user.LastRewardAt = &lastReward.Time
	}

	return user, nil
}

func (r *PostgresRepository) CreateIfAbsent(ctx context.Context, u *models.User) (bool, error) {
	query :=
		`INSERT INTO users (id, display_name, balance, starting_balance)
		 VALUES ($1, $2, $3, $3)
		 ON CONFLICT (id) DO NOTHING
		 `

	res, err := r.db.ExecContext(ctx, query, u.ID, u.DisplayName, u.Balance)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	return n == 1, nil
}

func (r *PostgresRepository) UpdateDisplayName(ctx context.Context, id, name string) error {
	query :=
		`UPDATE users SET display_name = $2, updated_at = now()
		 WHERE id = $1
		 `
	return r.execOne(ctx, query, id, name)
}

func (r *PostgresRepository) AddBalance(ctx context.Context, id string, delta int64) (int64, error) {
	query :=
		`UPDATE users SET balance = balance + $2, updated_at = now()
		 WHERE id = $1 AND balance + $2 >= 0
		 RETURNING balance
		 `

	var balance int64
	err := r.db.QueryRowContext(ctx, query, id, delta).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrInsufficientFunds
		}
		if dbx.IsOutOfRange(err) {
			return 0, common.ErrInvalidAmount
		}
		return 0, fmt.Errorf("db error: %w", err)
	}

	return balance, nil
}

func (r *PostgresRepository) MarkRewarded(ctx context.Context, id string, at, eligibleFrom time.Time) (bool, error) {
	query :=
		`UPDATE users SET last_reward_at = $2, updated_at = now()
		 WHERE id = $1 AND (last_reward_at IS NULL OR last_reward_at <= $3)
		 `

	res, err := r.db.ExecContext(ctx, query, id, at, eligibleFrom)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	return n == 1, nil
}

func (r *PostgresRepository) AddCounters(ctx context.Context, id string, wins, losses, work int64) error {
	query :=
		`UPDATE users SET wins = wins + $2, losses = losses + $3, work_count = work_count + $4, updated_at = now()
		 WHERE id = $1
		 `
	return r.execOne(ctx, query, id, wins, losses, work)
}

func (r *PostgresRepository) SetBanned(ctx context.Context, id string, banned bool) error {
	query :=
		`UPDATE users SET banned = $2, updated_at = now()
		 WHERE id = $1
		 `
	return r.execOne(ctx, query, id, banned)
}

func (r *PostgresRepository) Reset(ctx context.Context, id string) error {
	query :=
		`UPDATE users SET balance = starting_balance, last_reward_at = NULL,
		 wins = 0, losses = 0, work_count = 0, banned = FALSE, updated_at = now()
		 WHERE id = $1
		 `
	return r.execOne(ctx, query, id)
}

// execOne runs a single-row update, mapping zero affected rows to ErrorNotFound.
func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
