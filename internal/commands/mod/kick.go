// Package mod - /mod kick command
package mod

import (
	"github.com/PancyStudios/PancyTrials/pkg/discord"
	"github.com/PancyStudios/PancyTrials/pkg/models"
	"github.com/bwmarrin/discordgo"
)

// createKickCommand creates the /mod kick subcommand
func (h *handlers) createKickCommand() *discord.Command {
	return discord.NewCommand(
		"kick",
		"Expulsa a un usuario del servidor",
		"mod",
		h.kickHandler,
	).WithOptions(
		userOptionDef("Usuario a expulsar"),
		reasonOptionDef("Razón de la expulsión"),
	).WithUserPermissions(discordgo.PermissionKickMembers).
		WithBotPermissions(discordgo.PermissionKickMembers).
		RequiresDatabase()
}

// kickHandler handles the /mod kick command
func (h *handlers) kickHandler(ctx *discord.CommandContext) error {
	actor := ctx.User()
	subject := ctx.GetUserOption("usuario")
	if msg := targetError(actor, subject, botUser(ctx), false); msg != "" {
		return replyError(ctx, "Usuario inválido", msg)
	}

	reason := reasonOption(ctx)
	guild := guildName(ctx)

	return h.recordThenAct(ctx, subject,
		h.ledgerRecord(ctx, subject, models.ActionKick, reason, 0),
		func(rec *models.ActionRecord) error {
			sendDM(ctx.Session, subject.ID, actionDMEmbed(guild, rec))
			return ctx.Session.GuildMemberDeleteWithReason(ctx.Interaction.GuildID, subject.ID, auditReason(actor, rec.CaseNumber, reason))
		})
}
