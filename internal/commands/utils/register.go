// Package utils provides the /utils command group.
package utils

import (
	"github.com/PancyStudios/PancyTrials/pkg/discord"
)

// StatusChecker reports the health of the moderation store
type StatusChecker interface {
	GetStatus() (string, bool)
}

// RegisterUtilsCommands registers all utility commands as /utils subcommands.
// status may be nil when the commands are only being synced.
func RegisterUtilsCommands(client *discord.ExtendedClient, status StatusChecker) {
	utilsGroup := client.CommandHandler.BuildCommandGroup(
		"utils",
		"Comandos de utilidad",
		createPingCommand(status),
		createStatusCommand(status),
		createHelpCommand(),
		createStatsCommand(),
	)

	client.CommandHandler.AddGlobalCommand(utilsGroup)
}
