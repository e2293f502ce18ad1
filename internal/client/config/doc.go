// Package config loads runtime configuration for the lootledger terminal
// adapter.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   address:port of the backend gRPC endpoint
//	-k string   access token
//	-u string   actor id commands are issued for
//	-n string   display name of that actor
//	-i int      online status check interval (seconds)
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be either
// strings like "3s" or integer nanoseconds:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "actor_id": "console",
//	  "online_check_interval": "3s",
//	  "request_timeout": "10s"
//	}
package config
