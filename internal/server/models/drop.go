package models

import "time"

type DropStatus string

const (
	DropUnclaimed DropStatus = "unclaimed"
	DropClaimed   DropStatus = "claimed"
	DropExpired   DropStatus = "expired"
)

// Drop is one claimable instance of an item. It leaves the unclaimed state
// exactly once and is never edited afterwards.
type Drop struct {
	ID        int64
	ItemID    int64
	Status    DropStatus
	CreatedAt time.Time
	ClaimedBy *string
	ClaimedAt *time.Time
	ExpiredAt *time.Time
}
