package grpc

import (
	"time"

	"github.com/dmitrijs2005/lootledger/internal/server/models"
)

// Actor identifies who an intent is for. The adapter resolves it; the token
// only proves the adapter may speak for it.
type Actor struct {
	ActorID     string `json:"actor_id"`
	DisplayName string `json:"display_name,omitempty"`
}

func (a Actor) actor() string { return a.ActorID }

type actorRequest interface{ actor() string }

type ActorRequest struct {
	Actor
}

type AmountRequest struct {
	Actor
	Amount   int64  `json:"amount"`
	Category string `json:"category,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

type TransferRequest struct {
	Actor
	ToID     string `json:"to_id"`
	Amount   int64  `json:"amount"`
	Category string `json:"category,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

type ItemRequest struct {
	Actor
	ItemID int64 `json:"item_id"`
}

type MintRequest struct {
	Actor
	Name        string        `json:"name"`
	Rarity      models.Rarity `json:"rarity"`
	Description string        `json:"description,omitempty"`
	ArtworkRef  string        `json:"artwork_ref,omitempty"`
	Price       int64         `json:"price"`
	Attack      int64         `json:"attack"`
	Defense     int64         `json:"defense"`
}

type PingRequest struct{}

type PingResponse struct {
	Status string `json:"status"`
}

type ItemView struct {
	ID           int64         `json:"id"`
	Name         string        `json:"name"`
	Rarity       models.Rarity `json:"rarity"`
	Description  string        `json:"description,omitempty"`
	ArtworkURL   string        `json:"artwork_url,omitempty"`
	Price        int64         `json:"price"`
	Attack       int64         `json:"attack"`
	Defense      int64         `json:"defense"`
	EnchantLevel int           `json:"enchant_level"`
}

type EntryView struct {
	ID         int64         `json:"id"`
	ItemID     int64         `json:"item_id"`
	Favorite   bool          `json:"favorite"`
	Source     models.Source `json:"source"`
	AcquiredAt time.Time     `json:"acquired_at"`
}

type DropResponse struct {
	DropID  int64     `json:"drop_id,omitempty"`
	EntryID int64     `json:"entry_id,omitempty"`
	Item    *ItemView `json:"item"`
}

type BalanceResponse struct {
	Balance int64 `json:"balance"`
}

type TransferResponse struct {
	OperationID string `json:"operation_id"`
	FromBalance int64  `json:"from_balance"`
	ToBalance   int64  `json:"to_balance"`
}

type UserResponse struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name,omitempty"`
	Balance     int64  `json:"balance"`
	Wins        int64  `json:"wins"`
	Losses      int64  `json:"losses"`
	WorkCount   int64  `json:"work_count"`
	Banned      bool   `json:"banned,omitempty"`
}

type ItemResponse struct {
	Item *ItemView `json:"item"`
}

type InventoryResponse struct {
	Entries []EntryView `json:"entries"`
}

type ShopResponse struct {
	Items []ItemView `json:"items"`
}

type PurchaseResponse struct {
	Balance  int64      `json:"balance"`
	Items    []ItemView `json:"items"`
	EntryIDs []int64    `json:"entry_ids"`
}

type UploadURLResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

type RewardResponse struct {
	Amount  int64 `json:"amount"`
	Balance int64 `json:"balance"`
}

func entryView(e *models.InventoryEntry) EntryView {
	return EntryView{ID: e.ID, ItemID: e.ItemID, Favorite: e.Favorite, Source: e.Source, AcquiredAt: e.AcquiredAt}
}

func userResponse(u *models.User) *UserResponse {
	return &UserResponse{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		Balance:     u.Balance,
		Wins:        u.Wins,
		Losses:      u.Losses,
		WorkCount:   u.WorkCount,
		Banned:      u.Banned,
	}
}
