package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/ellavondegurechaff/waifubot/waifubot"
	"github.com/ellavondegurechaff/waifubot/waifubot/database"
	"github.com/ellavondegurechaff/waifubot/waifubot/logger"
	"github.com/spf13/cobra"
)

var (
	Version = "dev"
	Commit  = "unknown"

	configPath string
)

var rootCmd = &cobra.Command{
	Use:           "waifubot",
	Short:         "Discord bot for trading and gifting waifu cards",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.toml", "path to config")
}

func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("Command failed", slog.String("type", "sys"), slog.Any("error", err))
		os.Exit(1)
	}
}

// loadConfig reads the config file and installs the logger it configures.
func loadConfig() (*waifubot.Config, error) {
	cfg, err := waifubot.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	logger.Setup(cfg.Log.Level)
	logger.LogSystem("Configuration loaded", slog.String("path", configPath))
	return cfg, nil
}

func openDatabase(ctx context.Context, cfg *waifubot.Config) (*database.DB, error) {
	db, err := database.New(ctx, database.DBConfig{
		Host:     cfg.DB.Host,
		Port:     cfg.DB.Port,
		User:     cfg.DB.User,
		Password: cfg.DB.Password,
		Database: cfg.DB.Database,
		PoolSize: cfg.DB.PoolSize,
	})
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	return db, nil
}
