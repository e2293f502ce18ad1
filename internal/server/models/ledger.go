package models

import "time"

type LedgerCategory string

const (
	CategoryReward      LedgerCategory = "reward"
	CategoryPurchase    LedgerCategory = "purchase"
	CategorySale        LedgerCategory = "sale"
	CategoryGiftIn      LedgerCategory = "gift_in"
	CategoryGiftOut     LedgerCategory = "gift_out"
	CategoryWagerWin    LedgerCategory = "wager_win"
	CategoryWagerLoss   LedgerCategory = "wager_loss"
	CategoryAdminAdjust LedgerCategory = "admin_adjust"

	// Transfer kinds; each expands to a debit and a credit category.
	CategoryGift  LedgerCategory = "gift"
	CategoryWager LedgerCategory = "wager"
)

// LedgerEntry is the immutable record of one balance mutation. Amount is
// signed: credits are positive, debits negative.
type LedgerEntry struct {
	ID          int64
	UserID      string
	Amount      int64
	Category    LedgerCategory
	Reason      string
	OperationID string
	CreatedAt   time.Time
}
