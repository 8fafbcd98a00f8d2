package economy

import (
	"context"
	"fmt"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/ellavondegurechaff/waifubot/waifubot"
	"github.com/ellavondegurechaff/waifubot/waifubot/config"
	"github.com/ellavondegurechaff/waifubot/waifubot/trade"
	"github.com/ellavondegurechaff/waifubot/waifubot/utils"
)

var cardOption = discord.ApplicationCommandOptionString{
	Name:         "card",
	Description:  "Card global ID",
	Required:     true,
	Autocomplete: true,
}

var TradeCommand = discord.SlashCommandCreate{
	Name:        "trade",
	Description: "Trade cards, gold and shards with another user",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionSubCommand{
			Name:        "start",
			Description: "Invite a user to trade",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionUser{
					Name:        "user",
					Description: "The user you want to trade with",
					Required:    true,
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "accept",
			Description: "Accept your pending trade invitation",
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "reject",
			Description: "Decline your pending trade invitation",
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "add",
			Description: "Add a card to your side of the trade",
			Options:     []discord.ApplicationCommandOption{cardOption},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "remove",
			Description: "Remove a card from your side of the trade",
			Options:     []discord.ApplicationCommandOption{cardOption},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "resource",
			Description: "Set how much gold or shards you offer",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:        "type",
					Description: "Resource to offer",
					Required:    true,
					Choices: []discord.ApplicationCommandOptionChoiceString{
						{Name: "Gold", Value: "gold"},
						{Name: "Shards", Value: "shards"},
					},
				},
				discord.ApplicationCommandOptionInt{
					Name:        "amount",
					Description: "Amount to offer (replaces the current amount)",
					Required:    true,
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "close",
			Description: "Lock your side of the trade",
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "abandon",
			Description: "Cancel your current trade",
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "view",
			Description: "Show your current trade",
		},
	},
}

func participant(u discord.User) trade.Participant {
	return trade.Participant{ID: u.ID, Name: u.EffectiveName(), Bot: u.Bot}
}

func TradeHandler(b *waifubot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), config.DefaultQueryTimeout)
		defer cancel()

		data := e.SlashCommandInteractionData()
		caller := participant(e.User())
		svc := b.TradeService

		var (
			snap trade.Snapshot
			err  error
		)
		switch *data.SubCommandName {
		case "start":
			var inv trade.Invite
			inv, err = svc.StartInvite(ctx, caller, participant(data.User("user")), e.Channel().ID())
			if err != nil {
				return utils.EH.HandleTradeError(e, err)
			}
			return utils.EH.CreateSuccessEmbed(e, fmt.Sprintf("Trade invitation sent to %s. It expires in %s.",
				inv.Recipient.Mention(), svc.Config().InviteTTL))
		case "accept":
			snap, err = svc.AcceptInvite(ctx, caller)
		case "reject":
			var inv trade.Invite
			if inv, err = svc.RejectInvite(ctx, caller); err != nil {
				return utils.EH.HandleTradeError(e, err)
			}
			return utils.EH.CreateInfoEmbed(e, fmt.Sprintf("You declined the trade invitation from %s.", inv.Initiator.Mention()))
		case "add":
			snap, err = svc.AddCard(ctx, caller.ID, data.String("card"))
		case "remove":
			snap, err = svc.RemoveCard(ctx, caller.ID, data.String("card"))
		case "resource":
			kind, perr := trade.ParseResource(data.String("type"))
			if perr != nil {
				return utils.EH.HandleTradeError(e, perr)
			}
			snap, err = svc.SetResource(ctx, caller.ID, kind, int64(data.Int("amount")))
		case "close":
			snap, err = svc.CloseSide(ctx, caller.ID)
			if err != nil && trade.ClassOf(err) == trade.ClassIntegrity && snap.Initiator.ID != 0 {
				// The trade was cancelled; show the final state with the reason.
				_, message := utils.ClassifyTradeError(err)
				return e.CreateMessage(discord.MessageCreate{
					Content: "❌ " + message,
					Embeds:  []discord.Embed{TradeEmbed(trade.Describe(snap))},
				})
			}
		case "abandon":
			snap, err = svc.Abandon(ctx, caller.ID)
		case "view":
			snap, err = svc.View(caller.ID)
			if err != nil {
				if inv, ok := svc.Registry().PendingInviteFor(caller.ID); ok {
					return e.CreateMessage(discord.MessageCreate{
						Embeds: []discord.Embed{TradeEmbed(trade.DescribeInvite(inv))},
					})
				}
			}
		default:
			return utils.EH.CreateClassifiedError(e, utils.UserError, "Invalid subcommand")
		}

		if err != nil {
			return utils.EH.HandleTradeError(e, err)
		}
		return e.CreateMessage(discord.MessageCreate{
			Embeds: []discord.Embed{TradeEmbed(trade.Describe(snap))},
		})
	}
}
