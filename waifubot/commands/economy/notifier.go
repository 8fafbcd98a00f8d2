package economy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
	"github.com/ellavondegurechaff/waifubot/waifubot/config"
	"github.com/ellavondegurechaff/waifubot/waifubot/trade"
	lru "github.com/hashicorp/golang-lru"
)

// Messenger is the part of the Discord REST client the notifier needs.
type Messenger interface {
	CreateDMChannel(userID snowflake.ID, opts ...rest.RequestOpt) (*discord.DMChannel, error)
	CreateMessage(channelID snowflake.ID, messageCreate discord.MessageCreate, opts ...rest.RequestOpt) (*discord.Message, error)
}

// Notifier posts trade events to the channel the trade was started in and
// gift events to the users' DMs.
type Notifier struct {
	rest    Messenger
	dms     *lru.Cache
	giftTTL time.Duration
}

func NewNotifier(messenger Messenger, giftTTL time.Duration) *Notifier {
	dms, _ := lru.New(config.DMChannelCacheSize)
	return &Notifier{
		rest:    messenger,
		dms:     dms,
		giftTTL: giftTTL,
	}
}

func (n *Notifier) Notify(ctx context.Context, e trade.Event) error {
	switch {
	case e.Invite != nil:
		return n.send(ctx, e.Invite.ChannelID, inviteMessage(e))
	case e.Session != nil:
		return n.send(ctx, e.Session.ChannelID, sessionMessage(e))
	case e.Gift != nil:
		return n.notifyGift(ctx, e)
	}
	return nil
}

func inviteMessage(e trade.Event) discord.MessageCreate {
	inv := e.Invite
	view := trade.DescribeInvite(*inv)

	var content string
	switch e.Kind {
	case trade.EventInviteSent:
		content = fmt.Sprintf("%s, %s wants to trade with you!", inv.Recipient.Mention(), inv.Initiator.Mention())
	case trade.EventInviteRejected:
		content = fmt.Sprintf("%s declined the trade invitation from %s.", inv.Recipient.Mention(), inv.Initiator.Mention())
		view.Status = trade.StatusRejected
		view.StatusText = "❌ **REJECTED:** Trade invitation was declined."
		view.Footer = ""
	case trade.EventInviteExpired:
		content = fmt.Sprintf("⌛ The trade invitation from %s to %s expired.", inv.Initiator.Mention(), inv.Recipient.Mention())
		view.Status = trade.StatusCancelled
		view.StatusText = "⌛ **EXPIRED:** The invitation was not answered in time."
		view.Footer = ""
	}

	return discord.MessageCreate{
		Content: content,
		Embeds:  []discord.Embed{TradeEmbed(view)},
	}
}

func sessionMessage(e trade.Event) discord.MessageCreate {
	s := e.Session
	view := trade.Describe(*s)

	var content string
	switch e.Kind {
	case trade.EventInviteAccepted:
		content = fmt.Sprintf("%s accepted the trade with %s.", s.Recipient.Mention(), s.Initiator.Mention())
	case trade.EventTradeCompleted:
		content = fmt.Sprintf("%s %s", s.Initiator.Mention(), s.Recipient.Mention())
	case trade.EventTradeFailed:
		content = fmt.Sprintf("%s %s ❌ Trade failed: %s", s.Initiator.Mention(), s.Recipient.Mention(), e.Reason)
	case trade.EventTradeCancelled:
		content = fmt.Sprintf("<@%s> abandoned the trade.", e.Actor)
	case trade.EventTradeExpired:
		content = fmt.Sprintf("%s %s ⌛ The trade timed out.", s.Initiator.Mention(), s.Recipient.Mention())
		view.StatusText = "⌛ **EXPIRED:** The trade was idle for too long."
	}

	return discord.MessageCreate{
		Content: content,
		Embeds:  []discord.Embed{TradeEmbed(view)},
	}
}

func (n *Notifier) notifyGift(ctx context.Context, e trade.Event) error {
	g := *e.Gift
	switch e.Kind {
	case trade.EventGiftSent:
		return n.dm(ctx, g.Recipient.ID, discord.MessageCreate{
			Content: fmt.Sprintf("You received a gift from %s! Open it with `/gift open id:%s`.", g.Sender.DisplayName(), g.ID),
			Embeds:  []discord.Embed{GiftEmbed("🎁 New Gift", g, n.giftTTL)},
		})
	case trade.EventGiftOpened:
		return n.dm(ctx, g.Sender.ID, discord.MessageCreate{
			Content: fmt.Sprintf("%s opened your gift.", g.Recipient.DisplayName()),
			Embeds:  []discord.Embed{GiftEmbed("🎁 Gift Opened", g, 0)},
		})
	case trade.EventGiftExpired:
		return errors.Join(
			n.dm(ctx, g.Recipient.ID, discord.MessageCreate{
				Content: fmt.Sprintf("A gift from %s expired before you opened it.", g.Sender.DisplayName()),
			}),
			n.dm(ctx, g.Sender.ID, discord.MessageCreate{
				Content: fmt.Sprintf("Your gift to %s expired unopened.", g.Recipient.DisplayName()),
				Embeds:  []discord.Embed{GiftEmbed("⌛ Gift Expired", g, 0)},
			}),
		)
	case trade.EventGiftRefunded:
		return n.dm(ctx, g.Sender.ID, discord.MessageCreate{
			Content: fmt.Sprintf("Your gift to %s was not opened in time and has been returned to you.", g.Recipient.DisplayName()),
			Embeds:  []discord.Embed{GiftEmbed("↩️ Gift Returned", g, 0)},
		})
	}
	return nil
}

func (n *Notifier) send(ctx context.Context, channelID snowflake.ID, msg discord.MessageCreate) error {
	if channelID == 0 {
		return nil
	}
	if _, err := n.rest.CreateMessage(channelID, msg, rest.WithCtx(ctx)); err != nil {
		return fmt.Errorf("failed to post to channel %s: %w", channelID, err)
	}
	return nil
}

func (n *Notifier) dm(ctx context.Context, userID snowflake.ID, msg discord.MessageCreate) error {
	channelID, err := n.dmChannel(ctx, userID)
	if err != nil {
		return err
	}
	if _, err = n.rest.CreateMessage(channelID, msg, rest.WithCtx(ctx)); err != nil {
		// The cached channel may be stale.
		n.dms.Remove(userID)
		return fmt.Errorf("failed to DM user %s: %w", userID, err)
	}
	return nil
}

func (n *Notifier) dmChannel(ctx context.Context, userID snowflake.ID) (snowflake.ID, error) {
	if v, ok := n.dms.Get(userID); ok {
		return v.(snowflake.ID), nil
	}
	ch, err := n.rest.CreateDMChannel(userID, rest.WithCtx(ctx))
	if err != nil {
		return 0, fmt.Errorf("failed to open DM channel with %s: %w", userID, err)
	}
	n.dms.Add(userID, ch.ID())
	return ch.ID(), nil
}
