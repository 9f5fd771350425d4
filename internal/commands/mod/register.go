// Package mod provides moderation commands organized as subcommands under /mod.
// Every command writes its case to the ledger before calling Discord.
package mod

import (
	"github.com/PancyStudios/PancyTrials/pkg/discord"
	"github.com/PancyStudios/PancyTrials/pkg/moderation"
)

// Services are the moderation components the commands write through
type Services struct {
	Engine   *moderation.Engine
	Ledger   *moderation.CaseLedger
	Bots     *moderation.BotActionLedger
	Stats    *moderation.StatsProjector
	Tempbans *TempbanScheduler
}

// handlers binds the command handlers to their services
type handlers struct {
	svc Services
}

// RegisterModCommands registers all moderation commands as /mod subcommands
func RegisterModCommands(client *discord.ExtendedClient, svc Services) {
	h := &handlers{svc: svc}

	modGroup := client.CommandHandler.BuildCommandGroup(
		"mod",
		"Comandos de moderación",
		h.createWarnCommand(),
		h.createWarnsCommand(),
		h.createClearWarnsCommand(),
		h.createCaseCommand(),
		h.createBanCommand(),
		h.createUnbanCommand(),
		h.createHackbanCommand(),
		h.createTempbanCommand(),
		h.createKickCommand(),
		h.createMuteCommand(),
		h.createUnmuteCommand(),
		h.createBotWarnCommand(),
		h.createBotBanCommand(),
	)

	client.CommandHandler.AddGlobalCommand(modGroup)
	client.OnComponent(historyComponent, h.historyPageHandler)
}
