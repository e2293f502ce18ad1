package config

import (
	"testing"

	"github.com/dmitrijs2005/lootledger/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateWeights(t *testing.T) {
	assert.NoError(t, ValidateWeights(map[models.Rarity]int{models.RarityCommon: 100}))
	assert.ErrorContains(t, ValidateWeights(map[models.Rarity]int{models.RarityCommon: 99}), "sum to 99")
	assert.ErrorContains(t, ValidateWeights(map[models.Rarity]int{models.Rarity(7): 100}), "unknown rarity")
	assert.ErrorContains(t, ValidateWeights(map[models.Rarity]int{models.RarityCommon: 110, models.RarityRare: -10}), "negative")
	assert.Error(t, ValidateWeights(nil))
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	var c Config
	c.LoadDefaults()
	c.DropWeights = map[models.Rarity]int{models.RarityCommon: 50}
	c.WorkMax = 1
	c.SellPercent = 150
	c.Packs["broken"] = Pack{Price: 0, Cards: 0, Weights: map[models.Rarity]int{models.RarityEpic: 100}}

	err := c.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "drop weights")
	assert.Contains(t, msg, "work range")
	assert.Contains(t, msg, "sell percent")
	assert.Contains(t, msg, `pack "broken": price`)
}

func TestValidate_SweepIntervalOnlyWhenExpiring(t *testing.T) {
	var c Config
	c.LoadDefaults()
	c.SweepInterval = 0
	c.TradeTTL = 0
	assert.NoError(t, c.Validate())

	c.DropTTL = 1
	assert.Error(t, c.Validate())
}
