package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/lootledger/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	pathFlag := writeTempJSON(t, dir, "flag.json", map[string]any{
		"endpoint_addr_grpc":             "www.example:9000",
		"database_dsn":                   "memory",
		"secret_key":                     "my_secret_key",
		"access_token_validity_duration": "1m",
		"s3_bucket":                      "art",
		"user_cache_ttl":                 "600s",
		"drop_ttl":                       int64(time.Hour),
		"daily_reward":                   250,
		"drop_weights":                   map[string]int{"common": 70, "rare": 25, "epic": 5},
		"packs": map[string]any{
			"mega": map[string]any{"price": 500, "cards": 5, "weights": map[string]int{"epic": 50, "legendary": 50}},
		},
	})

	t.Run("loads from json", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", pathFlag}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg)

		assert.Equal(t, "www.example:9000", cfg.EndpointAddrGRPC)
		assert.Equal(t, MemoryDSN, cfg.DatabaseDSN)
		assert.Equal(t, "my_secret_key", cfg.SecretKey)
		assert.Equal(t, time.Minute, cfg.AccessTokenValidityDuration)
		assert.Equal(t, "art", cfg.S3Bucket)
		assert.Equal(t, 10*time.Minute, cfg.UserCacheTTL)
		assert.Equal(t, time.Hour, cfg.DropTTL)
		assert.EqualValues(t, 250, cfg.DailyReward)
		assert.Equal(t, map[models.Rarity]int{models.RarityCommon: 70, models.RarityRare: 25, models.RarityEpic: 5}, cfg.DropWeights)
		require.Contains(t, cfg.Packs, "mega")
		assert.NotContains(t, cfg.Packs, "starter")
		assert.Equal(t, 5, cfg.Packs["mega"].Cards)
		assert.NoError(t, cfg.Validate())
	})

	t.Run("absent keys keep earlier values", func(t *testing.T) {
		path := writeTempJSON(t, dir, "partial.json", map[string]any{"secret_key": "k2"})
		os.Args = []string{"testbin", "-c", path}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg)

		assert.Equal(t, "k2", cfg.SecretKey)
		assert.Equal(t, ":50051", cfg.EndpointAddrGRPC)
		assert.Equal(t, time.Hour, cfg.ItemCacheTTL)
		assert.Contains(t, cfg.Packs, "starter")
	})

	t.Run("no config flag means no changes", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{EndpointAddrGRPC: "defaults:1234", SecretKey: "key"}
		parseJson(cfg)

		assert.Equal(t, "defaults:1234", cfg.EndpointAddrGRPC)
		assert.Equal(t, "key", cfg.SecretKey)
	})

	t.Run("missing file panics", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", filepath.Join(dir, "nope.json")}
		assert.Panics(t, func() { parseJson(&Config{}) })
	})

	t.Run("invalid json panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte("{"), 0o600))
		os.Args = []string{"testbin", "-c", bad}
		assert.Panics(t, func() { parseJson(&Config{}) })
	})

	t.Run("unknown rarity panics", func(t *testing.T) {
		path := writeTempJSON(t, dir, "rarity.json", map[string]any{"drop_weights": map[string]int{"mythic": 100}})
		os.Args = []string{"testbin", "-c", path}
		assert.Panics(t, func() { parseJson(&Config{}) })
	})
}
