// Package client talks to the lootledger gRPC service on behalf of a command
// adapter.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic API contract (see the Client interface) covering
//     drops, balances, transfers, the catalog and Ping.
//  2. A concrete gRPC implementation (see GRPCClient) that forces the JSON
//     codec, injects the access token via an interceptor, re-mints an expired
//     token when a TokenSource is configured, and maps gRPC status codes to
//     sentinel errors.
//
// # Error Handling
//
// Transport conditions are exposed as sentinel errors that callers can match
// with errors.Is: ErrUnavailable, ErrUnauthorized. Every other failure keeps
// the server's status message, which is meant to be shown to the actor.
package client
