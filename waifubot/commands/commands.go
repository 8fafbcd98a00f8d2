package commands

import (
	"github.com/disgoorg/disgo/discord"
	"github.com/ellavondegurechaff/waifubot/waifubot/commands/economy"
	"github.com/ellavondegurechaff/waifubot/waifubot/commands/system"
)

var Commands = []discord.ApplicationCommandCreate{}

func init() {
	Commands = append(Commands, economy.Commands...)
	Commands = append(Commands, system.Commands...)
}
