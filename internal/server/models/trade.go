package models

import "time"

type TradeStatus string

const (
	TradePending   TradeStatus = "pending"
	TradeCompleted TradeStatus = "completed"
	TradeCancelled TradeStatus = "cancelled"
	TradeExpired   TradeStatus = "expired"
)

// Trade proposes swapping one of the initiator's entries for one of the
// recipient's. Completion swaps both entries atomically.
type Trade struct {
	ID               int64
	InitiatorID      string
	RecipientID      string
	OfferedEntryID   int64
	RequestedEntryID int64
	Status           TradeStatus
	CreatedAt        time.Time
	ResolvedAt       *time.Time
}
