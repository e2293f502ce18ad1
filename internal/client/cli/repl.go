package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	hasActor() bool
	As(ctx context.Context, args []string) error
	OpenDrop(ctx context.Context) error
	Claim(ctx context.Context) error
	Balance(ctx context.Context) error
	Give(ctx context.Context, args []string) error
	Adjust(ctx context.Context, sign int, args []string) error
	Daily(ctx context.Context) error
	Inventory(ctx context.Context) error
	Shop(ctx context.Context) error
	Buy(ctx context.Context, args []string) error
	Item(ctx context.Context, args []string) error
	Mint(ctx context.Context, args []string) error
	Upload(ctx context.Context, args []string) error
}

// runREPL reads one command per line and dispatches it to a. Unknown
// commands are reported back to the user. The loop exits on scanner EOF or
// when the user types "exit" or "quit".
//
//	as <actor> [name]          issue later commands for actor
//	drop                       open a drop (admin token)
//	claim                      claim the open drop
//	bal | balance              show the actor's balance
//	give <to> <amount> [why]   transfer coins
//	credit|debit <amount>      adjust the actor's balance (admin token)
//	daily                      collect the daily reward
//	inv                        list the actor's inventory
//	shop                       list items for sale
//	buy <item_id>              buy one item
//	item <item_id>             show an item
//	mint <rarity> <price> <atk> <def> <name>   add an item (admin token)
//	upload <path>              upload artwork for the next mint (admin token)
//
// Errors returned by command handlers are ignored here; handlers report
// their own errors.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("loot %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			printlnFn("Available commands: as, drop, claim, bal, give, credit, debit, daily, inv, shop, buy, item, mint, upload, exit")
			continue
		case "exit", "quit":
			printlnFn("Bye!")
			return
		case "as":
			_ = a.As(ctx, args)
			continue
		case "item":
			_ = a.Item(ctx, args)
			continue
		}

		if !a.hasActor() {
			printlnFn("Set an actor first: as <actor_id>")
			continue
		}

		switch cmd {
		case "drop":
			_ = a.OpenDrop(ctx)
		case "claim":
			_ = a.Claim(ctx)
		case "bal", "balance":
			_ = a.Balance(ctx)
		case "give":
			_ = a.Give(ctx, args)
		case "credit":
			_ = a.Adjust(ctx, 1, args)
		case "debit":
			_ = a.Adjust(ctx, -1, args)
		case "daily":
			_ = a.Daily(ctx)
		case "inv":
			_ = a.Inventory(ctx)
		case "shop":
			_ = a.Shop(ctx)
		case "buy":
			_ = a.Buy(ctx, args)
		case "mint":
			_ = a.Mint(ctx, args)
		case "upload":
			_ = a.Upload(ctx, args)
		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
