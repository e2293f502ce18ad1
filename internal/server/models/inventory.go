package models

import "time"

// Source records how an inventory entry was obtained.
type Source string

const (
	SourceDrop     Source = "drop"
	SourcePurchase Source = "purchase"
	SourcePack     Source = "pack"
	SourceTrade    Source = "trade"
	SourceGift     Source = "gift"
)

// InventoryEntry is one held copy of an item. Holding the same item twice
// means two entries.
type InventoryEntry struct {
	ID           int64
	UserID       string
	ItemID       int64
	EnchantLevel int
	Favorite     bool
	Source       Source
	AcquiredAt   time.Time
}
