package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/lootledger/internal/server/models"
)

type Repository interface {
	Get(ctx context.Context, id string) (*models.User, error)
	// GetForUpdate reads the user and locks the row against concurrent
	// balance changes for the rest of the transaction.
	GetForUpdate(ctx context.Context, id string) (*models.User, error)
	// CreateIfAbsent inserts u with Balance as both balance and starting
	// balance. It reports false when the id already exists.
	CreateIfAbsent(ctx context.Context, u *models.User) (bool, error)
	UpdateDisplayName(ctx context.Context, id, name string) error
	// AddBalance applies delta unless the result would be negative, in which
	// case it returns common.ErrInsufficientFunds. The user must exist.
	AddBalance(ctx context.Context, id string, delta int64) (int64, error)
	// MarkRewarded sets last_reward_at to at when the previous reward is
	// missing or not after eligibleFrom. It reports whether the row changed.
	MarkRewarded(ctx context.Context, id string, at, eligibleFrom time.Time) (bool, error)
	AddCounters(ctx context.Context, id string, wins, losses, work int64) error
	SetBanned(ctx context.Context, id string, banned bool) error
	// Reset restores balance to the starting balance and zeroes counters.
	Reset(ctx context.Context, id string) error
}
