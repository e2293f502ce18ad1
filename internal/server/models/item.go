package models

import (
	"fmt"
	"strings"
	"time"
)

// Rarity is ordered: Common < Rare < Epic < Legendary.
type Rarity int

const (
	RarityCommon Rarity = iota + 1
	RarityRare
	RarityEpic
	RarityLegendary
)

// Rarities lists every rarity in ascending order.
var Rarities = []Rarity{RarityCommon, RarityRare, RarityEpic, RarityLegendary}

var rarityNames = map[Rarity]string{
	RarityCommon:    "common",
	RarityRare:      "rare",
	RarityEpic:      "epic",
	RarityLegendary: "legendary",
}

func (r Rarity) String() string {
	if n, ok := rarityNames[r]; ok {
		return n
	}
	return fmt.Sprintf("rarity(%d)", int(r))
}

func (r Rarity) Valid() bool {
	_, ok := rarityNames[r]
	return ok
}

// ParseRarity accepts the lower- or mixed-case rarity name.
func ParseRarity(s string) (Rarity, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for r, n := range rarityNames {
		if n == want {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown rarity %q", s)
}

func (r Rarity) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid rarity %d", int(r))
	}
	return []byte(r.String()), nil
}

func (r *Rarity) UnmarshalText(b []byte) error {
	v, err := ParseRarity(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// Item is a collectible card definition. Price 0 means not for sale.
type Item struct {
	ID           int64
	Name         string
	Rarity       Rarity
	Description  string
	ArtworkRef   string
	Price        int64
	Attack       int64
	Defense      int64
	EnchantLevel int
	CreatedAt    time.Time
}

func (i *Item) ForSale() bool { return i.Price > 0 }
