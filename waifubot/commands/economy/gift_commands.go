package economy

import (
	"context"
	"fmt"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/paginator"
	"github.com/ellavondegurechaff/waifubot/waifubot"
	"github.com/ellavondegurechaff/waifubot/waifubot/config"
	"github.com/ellavondegurechaff/waifubot/waifubot/trade"
	"github.com/ellavondegurechaff/waifubot/waifubot/utils"
)

var GiftCommand = discord.SlashCommandCreate{
	Name:        "gift",
	Description: "Send and open gifts",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionSubCommand{
			Name:        "send",
			Description: "Send a card, gold or shards to another user",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionUser{
					Name:        "user",
					Description: "Who receives the gift",
					Required:    true,
				},
				discord.ApplicationCommandOptionString{
					Name:         "card",
					Description:  "Card global ID",
					Required:     false,
					Autocomplete: true,
				},
				discord.ApplicationCommandOptionInt{
					Name:        "gold",
					Description: "Gold to include",
					Required:    false,
				},
				discord.ApplicationCommandOptionInt{
					Name:        "shards",
					Description: "Shards to include",
					Required:    false,
				},
				discord.ApplicationCommandOptionString{
					Name:        "message",
					Description: "A note for the recipient",
					Required:    false,
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "open",
			Description: "Open a gift by its ID",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:        "id",
					Description: "Gift ID",
					Required:    true,
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "opennum",
			Description: "Open a gift by its number in /gift list",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionInt{
					Name:        "number",
					Description: "Gift number",
					Required:    true,
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "list",
			Description: "List your unopened gifts",
		},
	},
}

func GiftHandler(b *waifubot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), config.DefaultQueryTimeout)
		defer cancel()

		data := e.SlashCommandInteractionData()
		caller := e.User().ID
		svc := b.TradeService

		switch *data.SubCommandName {
		case "send":
			g, err := svc.SendGift(ctx, participant(e.User()), participant(data.User("user")), trade.GiftRequest{
				CardID:  data.String("card"),
				Gold:    int64(data.Int("gold")),
				Shards:  int64(data.Int("shards")),
				Message: data.String("message"),
			})
			if err != nil {
				return utils.EH.HandleTradeError(e, err)
			}
			return e.CreateMessage(discord.MessageCreate{
				Embeds: []discord.Embed{GiftEmbed("🎁 Gift Sent", g, svc.Config().GiftTTL)},
			})
		case "open":
			g, err := svc.OpenGift(ctx, caller, data.String("id"))
			if err != nil {
				return utils.EH.HandleTradeError(e, err)
			}
			return e.CreateMessage(discord.MessageCreate{
				Embeds: []discord.Embed{GiftEmbed("🎉 Gift Opened", g, 0)},
			})
		case "opennum":
			g, err := svc.OpenGiftNumber(ctx, caller, data.Int("number"))
			if err != nil {
				return utils.EH.HandleTradeError(e, err)
			}
			return e.CreateMessage(discord.MessageCreate{
				Embeds: []discord.Embed{GiftEmbed("🎉 Gift Opened", g, 0)},
			})
		case "list":
			return listGifts(b, e, svc.ListGifts(caller))
		}
		return utils.EH.CreateClassifiedError(e, utils.UserError, "Invalid subcommand")
	}
}

func listGifts(b *waifubot.Bot, e *handler.CommandEvent, gifts []trade.PendingGift) error {
	if len(gifts) == 0 {
		return utils.EH.CreateInfoEmbed(e, "📭 You have no unopened gifts.")
	}

	totalPages := pageCount(len(gifts), config.GiftsPerPage)
	return b.Paginator.Create(e.Respond, paginator.Pages{
		ID:      e.ID().String(),
		Creator: e.User().ID,
		PageFunc: func(page int, embed *discord.EmbedBuilder) {
			embed.
				SetTitle("🎁 Your Gifts").
				SetDescription(giftListPage(gifts, page)).
				SetColor(config.GiftColor).
				SetFooter(fmt.Sprintf("Page %d/%d • %d unopened • /gift opennum to open", page+1, totalPages, len(gifts)), "")
		},
		Pages:      totalPages,
		ExpireMode: paginator.ExpireModeAfterLastUsage,
	}, true)
}
