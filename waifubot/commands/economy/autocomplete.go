package economy

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/ellavondegurechaff/waifubot/waifubot"
	"github.com/ellavondegurechaff/waifubot/waifubot/config"
	"github.com/ellavondegurechaff/waifubot/waifubot/database/models"
	"github.com/sahilm/fuzzy"
)

// cardSource implements fuzzy.Source over a card slice.
type cardSource []models.Card

func (s cardSource) Len() int { return len(s) }

func (s cardSource) String(i int) string {
	c := s[i]
	return strings.ToLower(fmt.Sprintf("%s %s %s %s", c.Name, c.Series, c.Rarity, c.GlobalID))
}

func cardChoiceName(c models.Card) string {
	name := fmt.Sprintf("%s %s [%s] G-%s", c.Rarity, c.Name, c.Series, c.GlobalID)
	if len(name) > 100 {
		name = name[:97] + "..."
	}
	return name
}

// cardChoices ranks cards against query. An empty query keeps the
// collection order.
func cardChoices(cards []models.Card, query string) []discord.AutocompleteChoice {
	query = strings.ToLower(strings.TrimSpace(query))

	var picked []models.Card
	if query == "" {
		picked = cards[:min(len(cards), config.AutocompleteLimit)]
	} else {
		matches := fuzzy.FindFrom(query, cardSource(cards))
		for i, m := range matches {
			if i == config.AutocompleteLimit {
				break
			}
			picked = append(picked, cards[m.Index])
		}
	}

	choices := make([]discord.AutocompleteChoice, 0, len(picked))
	for _, c := range picked {
		choices = append(choices, discord.AutocompleteChoiceString{
			Name:  cardChoiceName(c),
			Value: c.GlobalID,
		})
	}
	return choices
}

// TradeAutocomplete suggests cards for /trade add (the caller's inventory)
// and /trade remove (the caller's current offer).
func TradeAutocomplete(b *waifubot.Bot) handler.AutocompleteHandler {
	return func(e *handler.AutocompleteEvent) error {
		focused := e.Data.Focused()
		if focused.Name != "card" {
			return e.AutocompleteResult(nil)
		}

		var cards []models.Card
		switch sub := e.Data.SubCommandName; {
		case sub != nil && *sub == "remove":
			snap, err := b.TradeService.View(e.User().ID)
			if err != nil {
				return e.AutocompleteResult(nil)
			}
			cards = snap.Offer(e.User().ID).Cards
		default:
			var err error
			if cards, err = inventory(b, e); err != nil {
				return e.AutocompleteResult(nil)
			}
		}
		return e.AutocompleteResult(cardChoices(cards, e.Data.String("card")))
	}
}

// GiftAutocomplete suggests cards from the caller's inventory for /gift send.
func GiftAutocomplete(b *waifubot.Bot) handler.AutocompleteHandler {
	return func(e *handler.AutocompleteEvent) error {
		if e.Data.Focused().Name != "card" {
			return e.AutocompleteResult(nil)
		}
		cards, err := inventory(b, e)
		if err != nil {
			return e.AutocompleteResult(nil)
		}
		return e.AutocompleteResult(cardChoices(cards, e.Data.String("card")))
	}
}

func inventory(b *waifubot.Bot, e *handler.AutocompleteEvent) ([]models.Card, error) {
	ctx, cancel := context.WithTimeout(context.Background(), config.AutocompleteTimeout)
	defer cancel()

	user, err := b.UserRepository.GetByDiscordID(ctx, e.User().ID.String())
	if err != nil {
		slog.Debug("Autocomplete inventory lookup failed",
			slog.String("type", "cmd"),
			slog.String("user_id", e.User().ID.String()),
			slog.Any("error", err))
		return nil, err
	}
	return user.Cards, nil
}
