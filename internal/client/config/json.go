package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/lootledger/internal/flagx"
	"github.com/dmitrijs2005/lootledger/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify intervals either as
// strings like "3s" or as integer nanoseconds.
type JsonConfig struct {
	ServerEndpointAddr  string         `json:"server_endpoint_addr"`
	AccessToken         string         `json:"access_token"`
	ActorID             string         `json:"actor_id"`
	DisplayName         string         `json:"display_name"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	RequestTimeout      timex.Duration `json:"request_timeout"`
}

// parseJson overlays Config with the non-empty values of the JSON file named
// by -c or -config. It panics on read or unmarshal errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.ServerEndpointAddr, jc.ServerEndpointAddr)
	setString(&cfg.AccessToken, jc.AccessToken)
	setString(&cfg.ActorID, jc.ActorID)
	setString(&cfg.DisplayName, jc.DisplayName)
	if jc.OnlineCheckInterval.Duration > 0 {
		cfg.OnlineCheckInterval = time.Duration(jc.OnlineCheckInterval.Duration)
	}
	if jc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = time.Duration(jc.RequestTimeout.Duration)
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
