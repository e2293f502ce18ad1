package services

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/dmitrijs2005/lootledger/internal/common"
	"github.com/dmitrijs2005/lootledger/internal/server/models"
)

// Selector draws random items and amounts. Weights, when set, must already
// be validated (see config.ValidateWeights).
type Selector struct {
	mu      sync.Mutex
	rng     *rand.Rand
	weights map[models.Rarity]int
}

// NewSelector uses weights for Pick; nil or empty weights mean uniform. A nil
// src seeds from the clock.
func NewSelector(weights map[models.Rarity]int, src rand.Source) *Selector {
	if src == nil {
		now := uint64(time.Now().UnixNano())
		src = rand.NewPCG(now, now>>1|1)
	}
	return &Selector{rng: rand.New(src), weights: weights}
}

// Pick selects one item with the configured policy.
func (s *Selector) Pick(items []*models.Item) (*models.Item, error) {
	return s.PickWeighted(items, s.weights)
}

// PickWeighted selects a rarity by weight, then an item uniformly within it.
// Rarities without items are skipped and the remaining weights renormalised;
// if no weighted rarity has items, selection falls back to uniform.
func (s *Selector) PickWeighted(items []*models.Item, weights map[models.Rarity]int) (*models.Item, error) {
	if len(items) == 0 {
		return nil, common.ErrEmptyCatalog
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(weights) == 0 {
		return items[s.rng.IntN(len(items))], nil
	}

	byRarity := make(map[models.Rarity][]*models.Item)
	for _, it := range items {
		byRarity[it.Rarity] = append(byRarity[it.Rarity], it)
	}

	total := 0
	for _, r := range models.Rarities {
		if len(byRarity[r]) > 0 {
			total += weights[r]
		}
	}
	if total == 0 {
		return items[s.rng.IntN(len(items))], nil
	}

	n := s.rng.IntN(total)
	for _, r := range models.Rarities {
		pool := byRarity[r]
		if len(pool) == 0 {
			continue
		}
		if n < weights[r] {
			return pool[s.rng.IntN(len(pool))], nil
		}
		n -= weights[r]
	}
	panic("unreachable: weight walk exhausted")
}

// Between returns a uniform value in [lo, hi].
func (s *Selector) Between(lo, hi int64) int64 {
	if hi <= lo {
		return lo
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo + s.rng.Int64N(hi-lo+1)
}

// Flip is a fair coin.
func (s *Selector) Flip() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(2) == 1
}
