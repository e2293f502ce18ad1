package config

import "time"

// Config holds runtime settings for the lootledger terminal adapter.
//
// Fields:
//   - ServerEndpointAddr: host:port of the backend gRPC endpoint.
//   - AccessToken: token presented on every call; prompted for when empty.
//   - ActorID / DisplayName: the actor commands are issued for until "as" switches it.
//   - OnlineCheckInterval: how often the client probes server reachability.
//   - RequestTimeout: upper bound for a single call.
type Config struct {
	ServerEndpointAddr  string
	AccessToken         string
	ActorID             string
	DisplayName         string
	OnlineCheckInterval time.Duration
	RequestTimeout      time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.OnlineCheckInterval = 3 * time.Second
	c.RequestTimeout = 10 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
