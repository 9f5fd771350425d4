package dev

import (
	"fmt"

	"github.com/PancyStudios/PancyTrials/pkg/discord"
	"github.com/PancyStudios/PancyTrials/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

// createSyncCommand creates the /dev sync subcommand
func (h *handlers) createSyncCommand() *discord.Command {
	return discord.NewCommand(
		"sync",
		"Sincroniza los comandos globales con Discord",
		"dev",
		func(ctx *discord.CommandContext) error {
			if err := ctx.Defer(); err != nil {
				return err
			}

			if err := ctx.Client.CommandHandler.SyncCommands(); err != nil {
				logger.Error(fmt.Sprintf("Error sincronizando comandos: %v", err), "CMD-Dev")
				return ctx.EditReply(fmt.Sprintf("❌ Error sincronizando comandos: `%v`", err))
			}

			n := len(ctx.Client.CommandHandler.GlobalCommands())
			logger.Success(fmt.Sprintf("%d comandos globales sincronizados por %s", n, ctx.User().Username), "CMD-Dev")
			return ctx.EditReply(fmt.Sprintf("✅ %d comandos globales sincronizados.", n))
		},
	).WithUserPermissions(discordgo.PermissionAdministrator).AsDev()
}

// createTempbansCommand creates the /dev tempbans subcommand
func (h *handlers) createTempbansCommand() *discord.Command {
	return discord.NewCommand(
		"tempbans",
		"Muestra cuántos bans temporales están pendientes",
		"dev",
		func(ctx *discord.CommandContext) error {
			pending := 0
			if h.deps.Tempbans != nil {
				pending = h.deps.Tempbans.Pending()
			}
			return ctx.ReplyEphemeral(fmt.Sprintf("⏳ %d bans temporales pendientes en este proceso.", pending))
		},
	).WithUserPermissions(discordgo.PermissionAdministrator).AsDev()
}
