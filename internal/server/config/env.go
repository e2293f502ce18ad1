package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "LOOTLEDGER_"

// dotenvLoad is a seam for tests; a missing .env file is not an error.
var dotenvLoad = func() error {
	err := godotenv.Load()
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// parseEnv overlays LOOTLEDGER_* variables, after loading .env (if present)
// into the process environment. Variables already set win over .env.
// Malformed values panic, like the JSON and flag layers.
func parseEnv(c *Config) {
	if err := dotenvLoad(); err != nil {
		panic(fmt.Errorf("load .env: %w", err))
	}

	str := func(name string, dst *string) {
		if v, ok := os.LookupEnv(envPrefix + name); ok {
			*dst = v
		}
	}
	i64 := func(name string, dst *int64) {
		if v, ok := os.LookupEnv(envPrefix + name); ok {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				panic(fmt.Errorf("%s%s: %w", envPrefix, name, err))
			}
			*dst = n
		}
	}
	dur := func(name string, dst *time.Duration) {
		if v, ok := os.LookupEnv(envPrefix + name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				panic(fmt.Errorf("%s%s: %w", envPrefix, name, err))
			}
			*dst = d
		}
	}

	str("ADDR", &c.EndpointAddrGRPC)
	str("DATABASE_DSN", &c.DatabaseDSN)
	str("SECRET_KEY", &c.SecretKey)
	str("LOG_LEVEL", &c.LogLevel)
	str("S3_ROOT_USER", &c.S3RootUser)
	str("S3_ROOT_PASSWORD", &c.S3RootPassword)
	str("S3_BUCKET", &c.S3Bucket)
	str("S3_REGION", &c.S3Region)
	str("S3_BASE_ENDPOINT", &c.S3BaseEndpoint)

	i64("STARTING_BALANCE", &c.StartingBalance)
	i64("DAILY_REWARD", &c.DailyReward)

	dur("DROP_TTL", &c.DropTTL)
	dur("TRADE_TTL", &c.TradeTTL)
}
