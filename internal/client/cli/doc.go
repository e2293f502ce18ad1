// Package cli is a terminal adapter for lootledger: it turns typed commands
// into RPCs for one actor at a time, the way a chat adapter would for chat
// messages.
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
// A background watcher pings the server and switches between online and
// offline mode. See App and runREPL for the command set.
package cli
