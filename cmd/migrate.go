package cmd

import (
	"log/slog"
	"time"

	"github.com/ellavondegurechaff/waifubot/waifubot/logger"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		start := time.Now()

		db, err := openDatabase(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.InitializeSchema(ctx); err != nil {
			logger.LogError("Failed to initialize database schema", err,
				slog.Duration("attempted_for", time.Since(start)))
			return err
		}

		logger.LogSystem("Database schema is up to date",
			slog.String("database", cfg.DB.Database),
			slog.Duration("took", time.Since(start)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
