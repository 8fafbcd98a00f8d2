package economy

import (
	"fmt"
	"testing"

	"github.com/disgoorg/disgo/discord"
	"github.com/ellavondegurechaff/waifubot/waifubot/config"
	"github.com/ellavondegurechaff/waifubot/waifubot/database/models"
)

func TestCardChoices(t *testing.T) {
	cards := []models.Card{
		{GlobalID: "1", Name: "Rem", Series: "Re:Zero", Rarity: "SSR"},
		{GlobalID: "2", Name: "Megumin", Series: "Konosuba", Rarity: "SR"},
		{GlobalID: "3", Name: "Ram", Series: "Re:Zero", Rarity: "R"},
	}

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{name: "empty query keeps order", query: "", want: []string{"1", "2", "3"}},
		{name: "name match", query: "megu", want: []string{"2"}},
		{name: "series match", query: "zero", want: []string{"1", "3"}},
		{name: "global id", query: "3", want: []string{"3"}},
		{name: "no match", query: "zzzz", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := choiceValues(cardChoices(cards, tt.query))
			if !sameSet(got, tt.want) {
				t.Errorf("cardChoices(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestCardChoices_Limit(t *testing.T) {
	var cards []models.Card
	for i := 0; i < config.AutocompleteLimit+10; i++ {
		cards = append(cards, models.Card{GlobalID: fmt.Sprint(i), Name: "Asuna"})
	}

	if got := len(cardChoices(cards, "")); got != config.AutocompleteLimit {
		t.Errorf("empty query returned %d choices", got)
	}
	if got := len(cardChoices(cards, "asuna")); got != config.AutocompleteLimit {
		t.Errorf("fuzzy query returned %d choices", got)
	}
}

func TestCardChoiceName_Truncated(t *testing.T) {
	long := models.Card{GlobalID: "1", Name: string(make([]byte, 150))}
	if got := len(cardChoiceName(long)); got != 100 {
		t.Errorf("choice name length = %d, want 100", got)
	}
}

func choiceValues(choices []discord.AutocompleteChoice) []string {
	var out []string
	for _, c := range choices {
		out = append(out, c.(discord.AutocompleteChoiceString).Value)
	}
	return out
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	for _, s := range a {
		seen[s]++
	}
	for _, s := range b {
		if seen[s] == 0 {
			return false
		}
		seen[s]--
	}
	return true
}
