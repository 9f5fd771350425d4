// Package commands wires every command group into the Discord client.
// Groups live in subdirectories by category (utils, mod, dev).
package commands

import (
	"github.com/PancyStudios/PancyTrials/internal/commands/dev"
	"github.com/PancyStudios/PancyTrials/internal/commands/mod"
	"github.com/PancyStudios/PancyTrials/internal/commands/utils"
	"github.com/PancyStudios/PancyTrials/pkg/discord"
)

// RegisterAll registers all commands with the Discord client. status may
// be nil when the commands are only being synced.
func RegisterAll(client *discord.ExtendedClient, svc mod.Services, status utils.StatusChecker) {
	// Utility commands (/utils ping, /utils status, ...)
	utils.RegisterUtilsCommands(client, status)

	// Moderation commands (/mod warn, /mod warns, /mod ban, ...)
	mod.RegisterModCommands(client, svc)

	// Dev guild commands (/dev sync, /dev ledger ...)
	dev.Register(client, dev.Deps{
		Ledger:   svc.Ledger,
		Stats:    svc.Stats,
		Tempbans: svc.Tempbans,
	})
}
