package trade

import (
	"fmt"
	"strings"

	"github.com/ellavondegurechaff/waifubot/waifubot/database/models"
)

// DefaultMaxOfferCards is how many cards one side may put into a trade.
const DefaultMaxOfferCards = 20

// Offer is what one side proposes to give up. Cards are references to
// cards still sitting in the owner's inventory; nothing moves until settlement.
type Offer struct {
	Cards  []models.Card
	Gold   int64
	Shards int64
}

func (o Offer) Empty() bool {
	return len(o.Cards) == 0 && o.Gold == 0 && o.Shards == 0
}

func (o Offer) HasCard(globalID string) bool {
	return o.indexOf(globalID) >= 0
}

func (o Offer) indexOf(globalID string) int {
	for i := range o.Cards {
		if o.Cards[i].GlobalID == globalID {
			return i
		}
	}
	return -1
}

func (o Offer) Resource(kind models.UserField) int64 {
	switch kind {
	case models.FieldGold:
		return o.Gold
	case models.FieldShards:
		return o.Shards
	}
	return 0
}

func (o *Offer) setResource(kind models.UserField, amount int64) {
	switch kind {
	case models.FieldGold:
		o.Gold = amount
	case models.FieldShards:
		o.Shards = amount
	}
}

// WishlistCount counts offered cards flagged as wishlisted.
func (o Offer) WishlistCount() int {
	n := 0
	for _, c := range o.Cards {
		if c.Wishlist {
			n++
		}
	}
	return n
}

func (o Offer) clone() Offer {
	c := o
	c.Cards = make([]models.Card, len(o.Cards))
	for i, card := range o.Cards {
		c.Cards[i] = card.Clone()
	}
	return c
}

// ParseResource maps user input to a tradeable resource field.
func ParseResource(s string) (models.UserField, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "gold":
		return models.FieldGold, nil
	case "shards", "shard":
		return models.FieldShards, nil
	}
	return "", ErrInvalidResource
}

// ValidateOffer checks an offer against the owner's live inventory. The same
// check runs when items are added and again right before settlement.
func ValidateOffer(o Offer, owner *models.User) error {
	seen := make(map[string]struct{}, len(o.Cards))
	for _, card := range o.Cards {
		if _, dup := seen[card.GlobalID]; dup {
			return fmt.Errorf("%w: G-%s", ErrDuplicateInOffer, card.GlobalID)
		}
		seen[card.GlobalID] = struct{}{}

		if owner.FindCard(card.GlobalID) < 0 {
			return fmt.Errorf("%w: %s (G-%s)", ErrCardNotFound, card.Name, card.GlobalID)
		}
	}

	if o.Gold < 0 || o.Shards < 0 {
		return ErrInvalidAmount
	}
	for _, field := range []models.UserField{models.FieldGold, models.FieldShards} {
		offered, have := o.Resource(field), owner.Balance(field)
		if offered > have {
			return fmt.Errorf("%w: offered %d %s, have %d", ErrInsufficientFunds, offered, field, have)
		}
	}
	return nil
}

// takeCards removes the offered cards from u and returns the live values removed.
func takeCards(u *models.User, o Offer) []models.Card {
	offered := make(map[string]struct{}, len(o.Cards))
	for _, c := range o.Cards {
		offered[c.GlobalID] = struct{}{}
	}

	kept := make([]models.Card, 0, len(u.Cards))
	taken := make([]models.Card, 0, len(o.Cards))
	for _, c := range u.Cards {
		if _, ok := offered[c.GlobalID]; ok {
			taken = append(taken, c)
			continue
		}
		kept = append(kept, c)
	}
	u.Cards = kept
	return taken
}
