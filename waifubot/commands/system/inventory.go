package system

import (
	"context"
	"fmt"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/paginator"
	"github.com/ellavondegurechaff/waifubot/waifubot"
	"github.com/ellavondegurechaff/waifubot/waifubot/config"
	"github.com/ellavondegurechaff/waifubot/waifubot/database/models"
	"github.com/ellavondegurechaff/waifubot/waifubot/utils"
)

const cardsPerPage = 10

var Inventory = discord.SlashCommandCreate{
	Name:        "inventory",
	Description: "View your cards, gold and shards",
}

func InventoryHandler(b *waifubot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), config.DefaultQueryTimeout)
		defer cancel()

		user, err := b.UserRepository.GetUser(ctx, e.User().ID)
		if err != nil {
			return utils.EH.HandleTradeError(e, err)
		}

		totalPages := max(1, (len(user.Cards)+cardsPerPage-1)/cardsPerPage)
		return b.Paginator.Create(e.Respond, paginator.Pages{
			ID:      e.ID().String(),
			Creator: e.User().ID,
			PageFunc: func(page int, embed *discord.EmbedBuilder) {
				embed.
					SetTitle("📦 "+e.User().Username+"'s Inventory").
					SetDescription(inventoryPage(user, page)).
					SetColor(config.EmbedDefaultColor).
					SetFooter(fmt.Sprintf("Page %d/%d • %d cards", page+1, totalPages, len(user.Cards)), "")
			},
			Pages:      totalPages,
			ExpireMode: paginator.ExpireModeAfterLastUsage,
		}, false)
	}
}

func inventoryPage(user *models.User, page int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "💰 Gold: `%s`\n💎 Shards: `%s`\n\n", utils.FormatNumber(user.Gold), utils.FormatNumber(user.Shards))

	if len(user.Cards) == 0 {
		b.WriteString("You don't own any cards yet.")
		return b.String()
	}

	start := page * cardsPerPage
	end := min(start+cardsPerPage, len(user.Cards))
	for _, c := range user.Cards[start:end] {
		marks := ""
		if c.Favorite {
			marks += " ❤️"
		}
		if c.Wishlist {
			marks += " ⭐"
		}
		fmt.Fprintf(&b, "`%s %s` [%s] G-%s%s\n", c.Rarity, utils.FormatCardName(c.Name), c.Series, c.GlobalID, marks)
	}
	return strings.TrimSuffix(b.String(), "\n")
}
