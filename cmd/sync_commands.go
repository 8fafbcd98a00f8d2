package cmd

import (
	"fmt"

	"github.com/ellavondegurechaff/waifubot/waifubot"
	"github.com/ellavondegurechaff/waifubot/waifubot/logger"
	"github.com/spf13/cobra"
)

var syncCommandsCmd = &cobra.Command{
	Use:   "sync-commands",
	Short: "Register slash commands with Discord and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		b := waifubot.New(*cfg, Version, Commit)
		if err = b.SetupBot(); err != nil {
			return fmt.Errorf("failed to setup bot: %w", err)
		}

		if err = syncAll(b); err != nil {
			return err
		}
		logger.LogSystem("Commands synced")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCommandsCmd)
}
