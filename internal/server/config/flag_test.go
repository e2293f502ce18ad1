package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "all flags", args: []string{
			"-a", "127.0.0.1:9090", "-d", "memory", "-s", "secret", "-t", "5", "-l", "debug",
			"-u", "user", "-p", "password", "-b", "bucket", "-g", "us-west-1", "-e", "http://endpoint", "-m", "250",
		}, expected: &Config{
			EndpointAddrGRPC:            "127.0.0.1:9090",
			DatabaseDSN:                 "memory",
			SecretKey:                   "secret",
			AccessTokenValidityDuration: 5 * time.Minute,
			LogLevel:                    "debug",
			S3RootUser:                  "user",
			S3RootPassword:              "password",
			S3Bucket:                    "bucket",
			S3Region:                    "us-west-1",
			S3BaseEndpoint:              "http://endpoint",
			StartingBalance:             250,
		}},
		{name: "bad int", args: []string{"-m", "lots"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &Config{}
			if tt.expectPanic {
				require.Panics(t, func() { parseArgs(config, tt.args) })
				return
			}
			require.NotPanics(t, func() { parseArgs(config, tt.args) })
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}
