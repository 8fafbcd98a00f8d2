package economy

import (
	"fmt"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/ellavondegurechaff/waifubot/waifubot/config"
	"github.com/ellavondegurechaff/waifubot/waifubot/trade"
	"github.com/ellavondegurechaff/waifubot/waifubot/utils"
)

const emptySide = "No items added yet."

func statusColor(s trade.Status) int {
	switch s {
	case trade.StatusPending:
		return config.TradePendingColor
	case trade.StatusAccepted:
		return config.TradeActiveColor
	case trade.StatusCompleted:
		return config.TradeCompletedColor
	case trade.StatusCancelled:
		return config.TradeCancelledColor
	case trade.StatusRejected:
		return config.TradeRejectedColor
	}
	return config.EmbedDefaultColor
}

// TradeEmbed renders a trade view.
func TradeEmbed(v trade.View) discord.Embed {
	eb := discord.NewEmbedBuilder().
		SetTitle("🔄 Trade").
		SetDescription(v.StatusText).
		SetColor(statusColor(v.Status)).
		AddField("👑 Host: "+v.Host.Participant.DisplayName(), sideText(v.Host), true).
		AddField("🎯 Invited: "+v.Invited.Participant.DisplayName(), sideText(v.Invited), true)

	if v.Fairness != "" {
		eb.AddField("⚖️ Fairness", v.Fairness, false)
	}
	if v.Footer != "" {
		eb.SetFooter(v.Footer, "")
	}
	return eb.Build()
}

func sideText(s trade.SideView) string {
	var b strings.Builder
	if s.ShowLock {
		if s.Closed {
			b.WriteString("🔒 **Closed**\n")
		} else {
			b.WriteString("🔓 **Open**\n")
		}
	}
	if s.Empty() {
		b.WriteString(emptySide)
		return b.String()
	}

	for i, c := range s.Cards {
		if i == config.OfferCardsPerPage {
			fmt.Fprintf(&b, "... and %d more\n", len(s.Cards)-i)
			break
		}
		wish := ""
		if c.Wishlist {
			wish = " ⭐"
		}
		fmt.Fprintf(&b, "`%s %s` (G-%s)%s\n", c.Rarity, utils.FormatCardName(c.Name), c.GlobalID, wish)
	}
	if s.Gold > 0 {
		fmt.Fprintf(&b, "💰 Gold: `%s`\n", utils.FormatNumber(s.Gold))
	}
	if s.Shards > 0 {
		fmt.Fprintf(&b, "💎 Shards: `%s`\n", utils.FormatNumber(s.Shards))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// GiftEmbed renders a single gift.
func GiftEmbed(title string, g trade.PendingGift, ttl time.Duration) discord.Embed {
	eb := discord.NewEmbedBuilder().
		SetTitle(title).
		SetColor(config.GiftColor).
		AddField("From", g.Sender.Mention(), true).
		AddField("To", g.Recipient.Mention(), true).
		AddField("Contents", strings.Join(trade.GiftContents(g), "\n"), false)

	if g.Message != "" {
		eb.AddField("Message", g.Message, false)
	}
	if ttl > 0 {
		eb.SetFooter(fmt.Sprintf("Gift ID: %s • Expires %s", g.ID, g.ExpiresAt(ttl).UTC().Format(time.RFC822)), "")
	} else {
		eb.SetFooter("Gift ID: "+g.ID, "")
	}
	return eb.Build()
}

// giftListPage renders one page of a user's unopened gifts. Numbers match
// what /gift opennum expects.
func giftListPage(gifts []trade.PendingGift, page int) string {
	start := page * config.GiftsPerPage
	end := min(start+config.GiftsPerPage, len(gifts))

	var b strings.Builder
	for i := start; i < end; i++ {
		g := gifts[i]
		fmt.Fprintf(&b, "**%d.** From %s <t:%d:R>\n", i+1, g.Sender.Mention(), g.CreatedAt.Unix())
		for _, line := range trade.GiftContents(g) {
			b.WriteString("> " + line + "\n")
		}
		fmt.Fprintf(&b, "`%s`\n\n", g.ID)
	}
	return strings.TrimSuffix(b.String(), "\n\n")
}

func pageCount(n, perPage int) int {
	if n == 0 {
		return 1
	}
	return (n + perPage - 1) / perPage
}
