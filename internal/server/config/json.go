package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/lootledger/internal/flagx"
	"github.com/dmitrijs2005/lootledger/internal/server/models"
	"github.com/dmitrijs2005/lootledger/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// It uses timex.Duration for interval fields, which allows parsing both
// string values such as "1s" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON configuration
// files. Scalars are pre-filled from the current Config so keys absent from
// the file keep their earlier value.
type JsonConfig struct {
	EndpointAddrGRPC            string         `json:"endpoint_addr_grpc"`
	DatabaseDSN                 string         `json:"database_dsn"`
	SecretKey                   string         `json:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	LogLevel                    string         `json:"log_level"`

	S3RootUser     string         `json:"s3_root_user"`
	S3RootPassword string         `json:"s3_root_password"`
	S3Bucket       string         `json:"s3_bucket"`
	S3Region       string         `json:"s3_region"`
	S3BaseEndpoint string         `json:"s3_base_endpoint"`
	ArtworkURLTTL  timex.Duration `json:"artwork_url_ttl"`

	StartingBalance int64          `json:"starting_balance"`
	DailyReward     int64          `json:"daily_reward"`
	DailyCooldown   timex.Duration `json:"daily_cooldown"`
	WorkMin         int64          `json:"work_min"`
	WorkMax         int64          `json:"work_max"`
	WorkCooldown    timex.Duration `json:"work_cooldown"`
	SellPercent     int64          `json:"sell_percent"`

	DropWeights map[models.Rarity]int `json:"drop_weights"`
	Packs       map[string]Pack       `json:"packs"`

	UserCacheTTL      timex.Duration `json:"user_cache_ttl"`
	ItemCacheTTL      timex.Duration `json:"item_cache_ttl"`
	ShopCacheTTL      timex.Duration `json:"shop_cache_ttl"`
	InventoryCacheTTL timex.Duration `json:"inventory_cache_ttl"`

	DropTTL       timex.Duration `json:"drop_ttl"`
	TradeTTL      timex.Duration `json:"trade_ttl"`
	SweepInterval timex.Duration `json:"sweep_interval"`

	RateLimit float64 `json:"rate_limit"`
	RateBurst int     `json:"rate_burst"`
}

func d(v time.Duration) timex.Duration { return timex.Duration{Duration: v} }

func toJson(c *Config) *JsonConfig {
	return &JsonConfig{
		EndpointAddrGRPC:            c.EndpointAddrGRPC,
		DatabaseDSN:                 c.DatabaseDSN,
		SecretKey:                   c.SecretKey,
		AccessTokenValidityDuration: d(c.AccessTokenValidityDuration),
		LogLevel:                    c.LogLevel,
		S3RootUser:                  c.S3RootUser,
		S3RootPassword:              c.S3RootPassword,
		S3Bucket:                    c.S3Bucket,
		S3Region:                    c.S3Region,
		S3BaseEndpoint:              c.S3BaseEndpoint,
		ArtworkURLTTL:               d(c.ArtworkURLTTL),
		StartingBalance:             c.StartingBalance,
		DailyReward:                 c.DailyReward,
		DailyCooldown:               d(c.DailyCooldown),
		WorkMin:                     c.WorkMin,
		WorkMax:                     c.WorkMax,
		WorkCooldown:                d(c.WorkCooldown),
		SellPercent:                 c.SellPercent,
		UserCacheTTL:                d(c.UserCacheTTL),
		ItemCacheTTL:                d(c.ItemCacheTTL),
		ShopCacheTTL:                d(c.ShopCacheTTL),
		InventoryCacheTTL:           d(c.InventoryCacheTTL),
		DropTTL:                     d(c.DropTTL),
		TradeTTL:                    d(c.TradeTTL),
		SweepInterval:               d(c.SweepInterval),
		RateLimit:                   c.RateLimit,
		RateBurst:                   c.RateBurst,
	}
}

func (j *JsonConfig) apply(c *Config) {
	c.EndpointAddrGRPC = j.EndpointAddrGRPC
	c.DatabaseDSN = j.DatabaseDSN
	c.SecretKey = j.SecretKey
	c.AccessTokenValidityDuration = j.AccessTokenValidityDuration.Duration
	c.LogLevel = j.LogLevel
	c.S3RootUser = j.S3RootUser
	c.S3RootPassword = j.S3RootPassword
	c.S3Bucket = j.S3Bucket
	c.S3Region = j.S3Region
	c.S3BaseEndpoint = j.S3BaseEndpoint
	c.ArtworkURLTTL = j.ArtworkURLTTL.Duration
	c.StartingBalance = j.StartingBalance
	c.DailyReward = j.DailyReward
	c.DailyCooldown = j.DailyCooldown.Duration
	c.WorkMin = j.WorkMin
	c.WorkMax = j.WorkMax
	c.WorkCooldown = j.WorkCooldown.Duration
	c.SellPercent = j.SellPercent
	// tables present in the file replace the earlier table wholesale
	if j.DropWeights != nil {
		c.DropWeights = j.DropWeights
	}
	if j.Packs != nil {
		c.Packs = j.Packs
	}
	c.UserCacheTTL = j.UserCacheTTL.Duration
	c.ItemCacheTTL = j.ItemCacheTTL.Duration
	c.ShopCacheTTL = j.ShopCacheTTL.Duration
	c.InventoryCacheTTL = j.InventoryCacheTTL.Duration
	c.DropTTL = j.DropTTL.Duration
	c.TradeTTL = j.TradeTTL.Duration
	c.SweepInterval = j.SweepInterval.Duration
	c.RateLimit = j.RateLimit
	c.RateBurst = j.RateBurst
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The JSON file path comes from the -c or -config command-line flags. If
// neither is set, no JSON file is loaded. If the file cannot be read or
// contains invalid JSON, the function panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}
	loadJsonFile(config, jsonConfigFile)
}

func loadJsonFile(config *Config, path string) {
	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := toJson(config)
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}
	c.apply(config)
}
