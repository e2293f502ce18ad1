package commands

import (
	"fmt"
	"strings"
)

// Kind is the closed set of intents the core accepts.
type Kind int

const (
	KindOpenDrop Kind = iota + 1
	KindClaimDrop
	KindCurrentDrop
	KindBalance
	KindHistory
	KindDaily
	KindWork
	KindCoinflip
	KindTransfer
	KindInventory
	KindFavorite
	KindShop
	KindBuy
	KindSell
	KindOpenPack
	KindGift
	KindProposeTrade
	KindAcceptTrade
	KindCancelTrade
	KindPendingTrades
	KindCredit
	KindDebit
	KindMint
	KindEnchant
	KindAdjust
	KindBan
	KindUnban
	KindReset
	KindVerify
)

var kindNames = map[Kind]string{
	KindOpenDrop:      "drop",
	KindClaimDrop:     "claim",
	KindCurrentDrop:   "current",
	KindBalance:       "balance",
	KindHistory:       "history",
	KindDaily:         "daily",
	KindWork:          "work",
	KindCoinflip:      "coinflip",
	KindTransfer:      "give",
	KindInventory:     "inventory",
	KindFavorite:      "favorite",
	KindShop:          "shop",
	KindBuy:           "buy",
	KindSell:          "sell",
	KindOpenPack:      "pack",
	KindGift:          "giftcard",
	KindProposeTrade:  "trade",
	KindAcceptTrade:   "accept",
	KindCancelTrade:   "cancel",
	KindPendingTrades: "trades",
	KindCredit:        "credit",
	KindDebit:         "debit",
	KindMint:          "mint",
	KindEnchant:       "enchant",
	KindAdjust:        "adjust",
	KindBan:           "ban",
	KindUnban:         "unban",
	KindReset:         "reset",
	KindVerify:        "verify",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind resolves a command name, ignoring case and surrounding space.
func ParseKind(name string) (Kind, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for k, n := range kindNames {
		if n == name {
			return k, true
		}
	}
	return 0, false
}

// Category groups kinds for help output and channel restrictions in adapters.
type Category string

const (
	CategoryDrops   Category = "drops"
	CategoryEconomy Category = "economy"
	CategoryShop    Category = "shop"
	CategoryTrades  Category = "trades"
	CategoryAdmin   Category = "admin"
)
