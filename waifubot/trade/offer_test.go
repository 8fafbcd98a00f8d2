package trade

import (
	"errors"
	"reflect"
	"testing"

	"github.com/ellavondegurechaff/waifubot/waifubot/database/models"
)

func testCard(id string) models.Card {
	return models.Card{GlobalID: id, Name: "Card " + id, Rarity: "R"}
}

func TestValidateOffer(t *testing.T) {
	owner := &models.User{
		Cards:  []models.Card{testCard("a"), testCard("b")},
		Gold:   100,
		Shards: 5,
	}

	tests := []struct {
		name    string
		offer   Offer
		wantErr error
	}{
		{name: "Empty", offer: Offer{}},
		{name: "Everything", offer: Offer{Cards: []models.Card{testCard("a"), testCard("b")}, Gold: 100, Shards: 5}},
		{name: "Duplicate", offer: Offer{Cards: []models.Card{testCard("a"), testCard("a")}}, wantErr: ErrDuplicateInOffer},
		{name: "Missing card", offer: Offer{Cards: []models.Card{testCard("c")}}, wantErr: ErrCardNotFound},
		{name: "Negative gold", offer: Offer{Gold: -1}, wantErr: ErrInvalidAmount},
		{name: "Gold over balance", offer: Offer{Gold: 101}, wantErr: ErrInsufficientFunds},
		{name: "Shards over balance", offer: Offer{Shards: 6}, wantErr: ErrInsufficientFunds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOffer(tt.offer, owner)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateOffer() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseResource(t *testing.T) {
	tests := []struct {
		in      string
		want    models.UserField
		wantErr bool
	}{
		{in: "gold", want: models.FieldGold},
		{in: " Gold ", want: models.FieldGold},
		{in: "shards", want: models.FieldShards},
		{in: "shard", want: models.FieldShards},
		{in: "cards", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseResource(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseResource(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseResource(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestApplySwap(t *testing.T) {
	a := &models.User{Cards: []models.Card{testCard("a1"), testCard("a2")}, Gold: 10, Shards: 1}
	b := &models.User{Cards: []models.Card{testCard("b1")}, Gold: 0, Shards: 4}

	liveA2 := a.Cards[1]
	liveA2.Affection = 9
	a.Cards[1] = liveA2

	applySwap(a, b,
		Offer{Cards: []models.Card{testCard("a2")}, Gold: 10},
		Offer{Cards: []models.Card{testCard("b1")}, Shards: 4},
	)

	if got := []string{a.Cards[0].GlobalID, a.Cards[1].GlobalID}; !reflect.DeepEqual(got, []string{"a1", "b1"}) {
		t.Errorf("a cards = %v", got)
	}
	if len(b.Cards) != 1 || b.Cards[0].GlobalID != "a2" {
		t.Fatalf("b cards = %v", b.Cards)
	}
	if b.Cards[0].Affection != 9 {
		t.Errorf("moved card lost its live state: %+v", b.Cards[0])
	}
	if a.Gold != 0 || a.Shards != 5 || b.Gold != 10 || b.Shards != 0 {
		t.Errorf("balances a=%d/%d b=%d/%d", a.Gold, a.Shards, b.Gold, b.Shards)
	}
}

func TestFieldWrites(t *testing.T) {
	before := &models.User{Cards: []models.Card{testCard("a")}, Gold: 10, Shards: 1}

	after := before.Clone()
	after.Gold = 3
	got := fieldWrites(before, after)
	if len(got) != 1 || got[0].field != models.FieldGold || got[0].value != int64(3) {
		t.Errorf("fieldWrites() = %+v", got)
	}

	after = before.Clone()
	after.Cards = nil
	after.Shards = 0
	got = fieldWrites(before, after)
	if len(got) != 2 || got[0].field != models.FieldShards || got[1].field != models.FieldCards {
		t.Errorf("fieldWrites() = %+v", got)
	}

	if got := fieldWrites(before, before.Clone()); len(got) != 0 {
		t.Errorf("fieldWrites() of unchanged user = %+v", got)
	}
}
