// Package dev provides the /dev command group. It is only registered in
// the development guild and lets the bot owners inspect any guild's ledger.
package dev

import (
	"github.com/PancyStudios/PancyTrials/internal/commands/mod"
	"github.com/PancyStudios/PancyTrials/pkg/discord"
	"github.com/PancyStudios/PancyTrials/pkg/moderation"
	"github.com/bwmarrin/discordgo"
)

// Deps are the components the dev commands read from
type Deps struct {
	Ledger   *moderation.CaseLedger
	Stats    *moderation.StatsProjector
	Tempbans *mod.TempbanScheduler
}

type handlers struct {
	deps Deps
}

// Register registers all dev commands as /dev subcommands (only in dev guild)
func Register(client *discord.ExtendedClient, deps Deps) {
	h := &handlers{deps: deps}

	syncCmd := h.createSyncCommand()
	tempbansCmd := h.createTempbansCommand()

	ledgerGroup := client.CommandHandler.BuildSubcommandGroup(
		"dev",
		"ledger",
		"Consulta el registro de casos de cualquier servidor",
		h.createLedgerCaseCommand(),
		h.createLedgerHistoryCommand(),
		h.createLedgerTrialCommand(),
	)

	devGroup := &discordgo.ApplicationCommand{
		Name:                     "dev",
		Description:              "Comandos de desarrollo",
		DefaultMemberPermissions: ptr(int64(discordgo.PermissionAdministrator)),
		Options: []*discordgo.ApplicationCommandOption{
			subcommandOption(syncCmd),
			subcommandOption(tempbansCmd),
			ledgerGroup,
		},
	}

	client.Commands.Set("dev."+syncCmd.Name, syncCmd)
	client.Commands.Set("dev."+tempbansCmd.Name, tempbansCmd)

	client.CommandHandler.AddDevCommand(devGroup)
}

func subcommandOption(cmd *discord.Command) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionSubCommand,
		Name:        cmd.Name,
		Description: cmd.Description,
		Options:     cmd.Options,
	}
}

func ptr[T any](v T) *T {
	return &v
}
