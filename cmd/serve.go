package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/handler"
	"github.com/ellavondegurechaff/waifubot/waifubot"
	"github.com/ellavondegurechaff/waifubot/waifubot/commands"
	"github.com/ellavondegurechaff/waifubot/waifubot/commands/economy"
	"github.com/ellavondegurechaff/waifubot/waifubot/commands/system"
	"github.com/ellavondegurechaff/waifubot/waifubot/config"
	"github.com/ellavondegurechaff/waifubot/waifubot/database/repositories"
	"github.com/ellavondegurechaff/waifubot/waifubot/handlers"
	"github.com/ellavondegurechaff/waifubot/waifubot/logger"
	"github.com/ellavondegurechaff/waifubot/waifubot/trade"
	"github.com/ellavondegurechaff/waifubot/waifubot/utils"
	"github.com/ellavondegurechaff/waifubot/waifubot/web"
	"github.com/spf13/cobra"
)

var syncCommands bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&syncCommands, "sync-commands", false, "Whether to sync commands to discord")
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	slog.Info("Starting waifu bot",
		slog.String("type", "sys"),
		slog.String("version", Version),
		slog.String("commit", Commit))

	dbStart := time.Now()
	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err = db.InitializeSchema(ctx); err != nil {
		return fmt.Errorf("failed to initialize database schema: %w", err)
	}
	logger.LogSystem("Database ready",
		slog.String("database", cfg.DB.Database),
		slog.Duration("took", time.Since(dbStart)))

	tradeCfg, err := cfg.Trade.ServiceConfig()
	if err != nil {
		return fmt.Errorf("invalid trade config: %w", err)
	}

	b := waifubot.New(*cfg, Version, Commit)
	b.DB = db
	b.UserRepository = repositories.NewUserRepository(db.BunDB())
	b.TradeService = trade.NewService(tradeCfg, b.UserRepository, nil, nil)
	b.Processes = utils.NewBackgroundProcessManager(ctx)

	h := handler.New()
	registerRoutes(h, b)

	if err = b.SetupBot(h, bot.NewListenerFunc(b.OnReady)); err != nil {
		return fmt.Errorf("failed to setup bot: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()
		b.Client.Close(closeCtx)
	}()

	b.TradeService.SetNotifier(economy.NewNotifier(b.Client.Rest(), tradeCfg.GiftTTL))

	if syncCommands {
		if err = syncAll(b); err != nil {
			return err
		}
	}

	sweeper := trade.NewSweeper(b.TradeService)
	b.Processes.StartProcess("trade-sweeper", "Expires idle trades, stale invites and old gifts",
		func(ctx context.Context) error {
			sweeper.Run(ctx)
			return nil
		})

	if cfg.Web.Enabled {
		srv := web.New(b.TradeService.Registry(), db, Version, Commit)
		b.Processes.StartProcess("ops-http", "Health, metrics and trade stats endpoints",
			func(ctx context.Context) error {
				return srv.Run(ctx, cfg.Web.ListenAddr())
			})
	}

	gatewayCtx, cancel := context.WithTimeout(ctx, config.CommandExecutionTimeout)
	defer cancel()
	if err = b.Client.OpenGateway(gatewayCtx); err != nil {
		return fmt.Errorf("failed to open gateway: %w", err)
	}

	slog.Info("Bot is running. Press CTRL-C to exit.", slog.String("type", "sys"))
	<-ctx.Done()
	slog.Info("Shutting down bot...", slog.String("type", "sys"))

	if err := b.Processes.Shutdown(config.ShutdownTimeout); err != nil {
		logger.LogError("Background processes did not stop in time", err)
	}
	return nil
}

func registerRoutes(h *handler.Mux, b *waifubot.Bot) {
	h.Command("/trade", handlers.WrapWithLogging("trade", economy.TradeHandler(b)))
	h.Autocomplete("/trade", economy.TradeAutocomplete(b))
	h.Command("/gift", handlers.WrapWithLogging("gift", economy.GiftHandler(b)))
	h.Autocomplete("/gift", economy.GiftAutocomplete(b))

	h.Command("/version", system.VersionHandler(b))
	h.Command("/metrics", handlers.WrapWithLogging("metrics", system.MetricsHandler(b)))
	h.Command("/inventory", handlers.WrapWithLogging("inventory", system.InventoryHandler(b)))
}

func syncAll(b *waifubot.Bot) error {
	slog.Info("Syncing commands",
		slog.String("type", "sys"),
		slog.Any("guild_ids", b.Cfg.Bot.DevGuilds))
	if err := handler.SyncCommands(b.Client, commands.Commands, b.Cfg.Bot.DevGuilds); err != nil {
		return fmt.Errorf("failed to sync commands: %w", err)
	}
	return nil
}
