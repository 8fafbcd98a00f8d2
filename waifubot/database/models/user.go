package models

import (
	"errors"
	"time"

	"github.com/uptrace/bun"
)

// ErrVersionConflict is returned when a user record changed between read and write.
var ErrVersionConflict = errors.New("user record was modified concurrently")

// UserField names a whole-field replacement target of a user record.
type UserField string

const (
	FieldCards  UserField = "cards"
	FieldGold   UserField = "gold"
	FieldShards UserField = "shards"
)

func (f UserField) Valid() bool {
	switch f {
	case FieldCards, FieldGold, FieldShards:
		return true
	}
	return false
}

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID        int64  `bun:"id,pk,autoincrement"`
	DiscordID string `bun:"discord_id,notnull,unique"`
	Username  string `bun:"username,notnull"`

	// Ordered collection, stored as JSONB
	Cards []Card `bun:"cards,type:jsonb,notnull"`

	Gold   int64 `bun:"gold,notnull,default:0"`
	Shards int64 `bun:"shards,notnull,default:0"`

	Version int64 `bun:"version,notnull,default:0"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// FindCard returns the index of the card with the given global ID, or -1.
func (u *User) FindCard(globalID string) int {
	for i := range u.Cards {
		if u.Cards[i].GlobalID == globalID {
			return i
		}
	}
	return -1
}

// Balance returns the balance held for a resource field.
func (u *User) Balance(field UserField) int64 {
	switch field {
	case FieldGold:
		return u.Gold
	case FieldShards:
		return u.Shards
	}
	return 0
}

// Clone returns a deep copy that can be mutated without touching u.
func (u *User) Clone() *User {
	c := *u
	c.Cards = make([]Card, len(u.Cards))
	for i, card := range u.Cards {
		c.Cards[i] = card.Clone()
	}
	return &c
}
