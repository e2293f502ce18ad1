package services

import (
	"context"
	"math"
	"time"

	"github.com/dmitrijs2005/lootledger/internal/common"
	"github.com/dmitrijs2005/lootledger/internal/cooldown"
	"github.com/dmitrijs2005/lootledger/internal/logging"
	"github.com/dmitrijs2005/lootledger/internal/server/config"
	"github.com/dmitrijs2005/lootledger/internal/server/models"
	"github.com/dmitrijs2005/lootledger/internal/server/repositories/repomanager"
)

const (
	ActionDaily = "daily"
	ActionWork  = "work"
)

// Reward is a credited amount and the balance after it.
type Reward struct {
	Amount  int64
	Balance int64
}

// Wager is the outcome of a coinflip.
type Wager struct {
	Won     bool
	Amount  int64
	Balance int64
}

// EconomyService runs the repeatable earning and wagering actions.
type EconomyService struct {
	repomanager repomanager.RepositoryManager
	caches      *Caches
	cooldowns   *cooldown.Tracker
	selector    *Selector
	log         logging.Logger
	now         func() time.Time

	dailyReward   int64
	dailyCooldown time.Duration
	workMin       int64
	workMax       int64
	workCooldown  time.Duration
}

func NewEconomyService(m repomanager.RepositoryManager, caches *Caches, cooldowns *cooldown.Tracker,
	selector *Selector, cfg *config.Config, log logging.Logger) *EconomyService {
	return &EconomyService{
		repomanager:   m,
		caches:        caches,
		cooldowns:     cooldowns,
		selector:      selector,
		log:           log,
		now:           time.Now,
		dailyReward:   cfg.DailyReward,
		dailyCooldown: cfg.DailyCooldown,
		workMin:       cfg.WorkMin,
		workMax:       cfg.WorkMax,
		workCooldown:  cfg.WorkCooldown,
	}
}

// Daily credits the daily reward. The process-local cooldown answers fast;
// the persisted last_reward_at guard keeps it to one reward per window even
// across restarts.
func (s *EconomyService) Daily(ctx context.Context, actorID string) (*Reward, error) {
	if err := s.cooldowns.Require(actorID, ActionDaily, s.dailyCooldown); err != nil {
		return nil, err
	}

	now := s.now()
	reward := &Reward{Amount: s.dailyReward}
	err := s.repomanager.WithTx(ctx, func(ctx context.Context, r repomanager.Repositories) error {
		ok, err := r.Users().MarkRewarded(ctx, actorID, now, now.Add(-s.dailyCooldown))
		if err != nil {
			return err
		}
		if !ok {
			u, err := r.Users().Get(ctx, actorID)
			if err != nil {
				return err
			}
			var remaining int64
			if u.LastRewardAt != nil {
				remaining = remainingSeconds(*u.LastRewardAt, s.dailyCooldown, now)
			}
			return &common.CooldownError{Action: ActionDaily, Remaining: remaining}
		}
		reward.Balance, err = applyDelta(ctx, r, actorID, s.dailyReward, models.CategoryReward, ActionDaily, newOperationID())
		return err
	})
	if err != nil {
		// the persisted guard decides from here on; a failed attempt consumes nothing
		s.cooldowns.Reset(actorID, ActionDaily)
		return nil, classify(ctx, s.log, "economy.daily", err)
	}

	s.caches.InvalidateUser(actorID)
	return reward, nil
}

// Work credits a random amount in [WorkMin, WorkMax].
func (s *EconomyService) Work(ctx context.Context, actorID string) (*Reward, error) {
	if err := s.cooldowns.Require(actorID, ActionWork, s.workCooldown); err != nil {
		return nil, err
	}

	reward := &Reward{Amount: s.selector.Between(s.workMin, s.workMax)}
	err := s.repomanager.WithTx(ctx, func(ctx context.Context, r repomanager.Repositories) error {
		var err error
		reward.Balance, err = applyDelta(ctx, r, actorID, reward.Amount, models.CategoryReward, ActionWork, newOperationID())
		if err != nil {
			return err
		}
		return r.Users().AddCounters(ctx, actorID, 0, 0, 1)
	})
	if err != nil {
		s.cooldowns.Reset(actorID, ActionWork)
		return nil, classify(ctx, s.log, "economy.work", err)
	}

	s.caches.InvalidateUser(actorID)
	return reward, nil
}

// Coinflip wagers amount on a fair coin. The stake must be covered by the
// current balance whatever the outcome.
func (s *EconomyService) Coinflip(ctx context.Context, actorID string, amount int64) (*Wager, error) {
	if amount <= 0 {
		return nil, common.ErrInvalidAmount
	}

	w := &Wager{Won: s.selector.Flip(), Amount: amount}
	err := s.repomanager.WithTx(ctx, func(ctx context.Context, r repomanager.Repositories) error {
		u, err := r.Users().Get(ctx, actorID)
		if err != nil {
			return err
		}
		if u.Balance < amount {
			return common.ErrInsufficientFunds
		}
		if w.Won {
			w.Balance, err = applyDelta(ctx, r, actorID, amount, models.CategoryWagerWin, "coinflip", newOperationID())
			if err != nil {
				return err
			}
			return r.Users().AddCounters(ctx, actorID, 1, 0, 0)
		}
		w.Balance, err = applyDelta(ctx, r, actorID, -amount, models.CategoryWagerLoss, "coinflip", newOperationID())
		if err != nil {
			return err
		}
		return r.Users().AddCounters(ctx, actorID, 0, 1, 0)
	})
	if err != nil {
		return nil, classify(ctx, s.log, "economy.coinflip", err)
	}

	s.caches.InvalidateUser(actorID)
	return w, nil
}

func remainingSeconds(last time.Time, window time.Duration, now time.Time) int64 {
	left := last.Add(window).Sub(now)
	if left <= 0 {
		return 0
	}
	return int64(math.Ceil(left.Seconds()))
}
