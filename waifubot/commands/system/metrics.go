package system

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/ellavondegurechaff/waifubot/waifubot"
	"github.com/ellavondegurechaff/waifubot/waifubot/config"
)

var Metrics = discord.SlashCommandCreate{
	Name:        "metrics",
	Description: "📊 View bot performance and trading statistics",
}

func MetricsHandler(b *waifubot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		uptime := time.Since(b.StartTime)

		memoryField := fmt.Sprintf("```\n"+
			"Alloc: %.2f MB\n"+
			"Sys: %.2f MB\n"+
			"NumGC: %d\n"+
			"Goroutines: %d\n"+
			"```",
			float64(m.Alloc)/1024/1024,
			float64(m.Sys)/1024/1024,
			m.NumGC,
			runtime.NumGoroutine(),
		)

		var gatewayLatency time.Duration
		if gw := b.Client.Gateway(); gw != nil {
			gatewayLatency = gw.Latency()
		}

		uptimeField := fmt.Sprintf("```\n%dd %dh %dm\n```",
			int(uptime.Hours())/24,
			int(uptime.Hours())%24,
			int(uptime.Minutes())%60,
		)

		stats := b.TradeService.Registry().Stats()
		tradeField := fmt.Sprintf("```\n"+
			"Active trades: %d\n"+
			"Pending invites: %d\n"+
			"Unopened gifts: %d\n"+
			"```",
			stats.ActiveTrades,
			stats.PendingInvites,
			stats.PendingGifts,
		)

		processes := "none"
		if b.Processes != nil {
			var names []string
			for _, p := range b.Processes.ListProcesses() {
				names = append(names, p.Name)
			}
			if len(names) > 0 {
				processes = strings.Join(names, ", ")
			}
		}

		embed := discord.NewEmbedBuilder().
			SetTitle("🔧 Bot Metrics").
			AddField("💾 Memory", memoryField, false).
			AddField("⚡ Gateway Latency", "```\n"+gatewayLatency.String()+"\n```", true).
			AddField("⏰ Uptime", uptimeField, true).
			AddField("🔄 Trading", tradeField, false).
			AddField("⚙️ Background Processes", processes, false).
			SetColor(config.SuccessColor).
			SetTimestamp(time.Now()).
			SetFooter("Requested by "+e.User().Username, e.User().EffectiveAvatarURL())

		return e.CreateMessage(discord.MessageCreate{
			Embeds: []discord.Embed{embed.Build()},
		})
	}
}
