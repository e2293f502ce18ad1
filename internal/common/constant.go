// Package common contains shared constants and sentinel errors used across
// lootledger components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// adapter's access token on inbound requests.
const AccessTokenHeaderName = "access_token"

// RequestIDHeaderName optionally carries a caller-chosen correlation id.
const RequestIDHeaderName = "x-request-id"
