package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/lootledger/internal/server/models"
)

// ValidateWeights checks a rarity weight table: known rarities only,
// no negative weights, total exactly 100.
func ValidateWeights(w map[models.Rarity]int) error {
	total := 0
	for r, v := range w {
		if !r.Valid() {
			return fmt.Errorf("unknown rarity %d", int(r))
		}
		if v < 0 {
			return fmt.Errorf("negative weight %d for %s", v, r)
		}
		total += v
	}
	if total != 100 {
		return fmt.Errorf("weights sum to %d, want 100", total)
	}
	return nil
}

// Validate reports every invalid setting at once. Services must not start
// on a config that fails validation.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.EndpointAddrGRPC != "", "endpoint address is empty")
	check(c.DatabaseDSN != "", "database DSN is empty")
	check(c.SecretKey != "", "secret key is empty")

	check(c.StartingBalance >= 0, "starting balance %d is negative", c.StartingBalance)
	check(c.DailyReward > 0, "daily reward must be positive")
	check(c.WorkMin > 0 && c.WorkMax >= c.WorkMin, "work range [%d, %d] is invalid", c.WorkMin, c.WorkMax)
	check(c.SellPercent >= 0 && c.SellPercent <= 100, "sell percent %d out of [0, 100]", c.SellPercent)
	check(c.DailyCooldown >= 0 && c.WorkCooldown >= 0, "cooldowns must not be negative")

	check(c.UserCacheTTL >= 0 && c.ItemCacheTTL >= 0 && c.ShopCacheTTL >= 0 && c.InventoryCacheTTL >= 0,
		"cache TTLs must not be negative")
	check(c.DropTTL >= 0 && c.TradeTTL >= 0, "expiry TTLs must not be negative")
	check(c.SweepInterval > 0 || (c.DropTTL == 0 && c.TradeTTL == 0), "sweep interval must be positive when expiry is enabled")
	check(c.RateLimit >= 0 && c.RateBurst >= 0, "rate limit must not be negative")

	if len(c.DropWeights) > 0 {
		if err := ValidateWeights(c.DropWeights); err != nil {
			errs = append(errs, fmt.Errorf("drop weights: %w", err))
		}
	}
	for name, p := range c.Packs {
		check(strings.TrimSpace(name) != "", "pack with empty name")
		check(p.Price > 0, "pack %q: price must be positive", name)
		check(p.Cards > 0, "pack %q: cards must be positive", name)
		if err := ValidateWeights(p.Weights); err != nil {
			errs = append(errs, fmt.Errorf("pack %q weights: %w", name, err))
		}
	}

	return errors.Join(errs...)
}
