// Package sweeper periodically expires stale drops and pending trades and
// prunes old cooldown records.
package sweeper

import (
	"context"
	"time"

	"github.com/dmitrijs2005/lootledger/internal/cooldown"
	"github.com/dmitrijs2005/lootledger/internal/logging"
	"github.com/dmitrijs2005/lootledger/internal/server/config"
	"github.com/dmitrijs2005/lootledger/internal/server/services"
	"github.com/go-co-op/gocron/v2"
)

// Expirer expires records older than maxAge and reports how many.
type Expirer interface {
	ExpireStale(ctx context.Context, maxAge time.Duration) (int64, error)
}

type Sweeper struct {
	drops     Expirer
	trades    Expirer
	cooldowns *cooldown.Tracker

	dropTTL     time.Duration
	tradeTTL    time.Duration
	cooldownAge time.Duration
	interval    time.Duration
	log         logging.Logger
}

func New(svc *services.Services, cfg *config.Config, log logging.Logger) *Sweeper {
	return &Sweeper{
		drops:       svc.Drops,
		trades:      svc.Trades,
		cooldowns:   svc.Cooldowns,
		dropTTL:     cfg.DropTTL,
		tradeTTL:    cfg.TradeTTL,
		cooldownAge: max(cfg.DailyCooldown, cfg.WorkCooldown),
		interval:    cfg.SweepInterval,
		log:         log.With("module", "sweeper"),
	}
}

// SweepOnce runs every enabled task. A zero TTL disables its task. Failures
// are logged and do not stop the remaining tasks.
func (s *Sweeper) SweepOnce(ctx context.Context) {
	if s.dropTTL > 0 {
		if _, err := s.drops.ExpireStale(ctx, s.dropTTL); err != nil {
			s.log.Error(ctx, "drop expiry failed", "error", err)
		}
	}
	if s.tradeTTL > 0 {
		if _, err := s.trades.ExpireStale(ctx, s.tradeTTL); err != nil {
			s.log.Error(ctx, "trade expiry failed", "error", err)
		}
	}
	if s.cooldownAge > 0 {
		if n := s.cooldowns.Prune(s.cooldownAge); n > 0 {
			s.log.Debug(ctx, "cooldowns pruned", "count", n)
		}
	}
}

// Run sweeps every interval until ctx is done.
// A non-positive interval disables sweeping.
func (s *Sweeper) Run(ctx context.Context) error {
	if s.interval <= 0 {
		s.log.Info(ctx, "sweeper disabled")
		<-ctx.Done()
		return nil
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(s.SweepOnce, ctx),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return err
	}

	sched.Start()
	s.log.Info(ctx, "sweeper started", "interval", s.interval.String())

	<-ctx.Done()
	return sched.Shutdown()
}
