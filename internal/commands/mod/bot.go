// Package mod - /mod botwarn and /mod botban commands
package mod

import (
	"context"

	"github.com/PancyStudios/PancyTrials/pkg/discord"
	"github.com/PancyStudios/PancyTrials/pkg/models"
	"github.com/bwmarrin/discordgo"
)

// createBotWarnCommand creates the /mod botwarn subcommand
func (h *handlers) createBotWarnCommand() *discord.Command {
	return discord.NewCommand(
		"botwarn",
		"Registra una advertencia contra un bot",
		"mod",
		h.botWarnHandler,
	).WithOptions(
		userOptionDef("Bot a advertir"),
		reasonOptionDef("Razón de la advertencia"),
	).WithUserPermissions(discordgo.PermissionModerateMembers).
		RequiresDatabase()
}

// botWarnHandler records the case only; bots have no trial and nothing
// happens on Discord.
func (h *handlers) botWarnHandler(ctx *discord.CommandContext) error {
	subject := ctx.GetUserOption("usuario")
	if msg := targetError(ctx.User(), subject, botUser(ctx), true); msg != "" {
		return replyError(ctx, "Bot inválido", msg)
	}

	reason := reasonOption(ctx)
	return h.recordThenAct(ctx, subject, func(c context.Context) (*models.ActionRecord, error) {
		return h.svc.Bots.Warn(c, ctx.Interaction.GuildID, subject.ID, ctx.User().ID, reason)
	}, nil)
}

// createBotBanCommand creates the /mod botban subcommand
func (h *handlers) createBotBanCommand() *discord.Command {
	return discord.NewCommand(
		"botban",
		"Banea a un bot del servidor",
		"mod",
		h.botBanHandler,
	).WithOptions(
		userOptionDef("Bot a banear"),
		reasonOptionDef("Razón del ban"),
	).WithUserPermissions(discordgo.PermissionBanMembers).
		WithBotPermissions(discordgo.PermissionBanMembers).
		RequiresDatabase()
}

// botBanHandler handles the /mod botban command
func (h *handlers) botBanHandler(ctx *discord.CommandContext) error {
	actor := ctx.User()
	subject := ctx.GetUserOption("usuario")
	if msg := targetError(actor, subject, botUser(ctx), true); msg != "" {
		return replyError(ctx, "Bot inválido", msg)
	}

	reason := reasonOption(ctx)
	return h.recordThenAct(ctx, subject, func(c context.Context) (*models.ActionRecord, error) {
		return h.svc.Bots.Ban(c, ctx.Interaction.GuildID, subject.ID, actor.ID, reason)
	}, func(rec *models.ActionRecord) error {
		return ctx.Session.GuildBanCreateWithReason(ctx.Interaction.GuildID, subject.ID, auditReason(actor, rec.CaseNumber, reason), 0)
	})
}
