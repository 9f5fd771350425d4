// Package mod - /mod mute and /mod unmute commands
package mod

import (
	"time"

	"github.com/PancyStudios/PancyTrials/pkg/discord"
	"github.com/PancyStudios/PancyTrials/pkg/models"
	"github.com/bwmarrin/discordgo"
)

// createMuteCommand creates the /mod mute subcommand
func (h *handlers) createMuteCommand() *discord.Command {
	return discord.NewCommand(
		"mute",
		"Silencia a un usuario temporalmente",
		"mod",
		h.muteHandler,
	).WithOptions(
		userOptionDef("Usuario a silenciar"),
		durationOptionDef("Duración del silencio (por ejemplo 30m, 2h, 7d; máximo 28d)"),
		reasonOptionDef("Razón del silencio"),
	).WithUserPermissions(discordgo.PermissionModerateMembers).
		WithBotPermissions(discordgo.PermissionModerateMembers).
		RequiresDatabase()
}

// muteHandler applies a communication timeout
func (h *handlers) muteHandler(ctx *discord.CommandContext) error {
	actor := ctx.User()
	subject := ctx.GetUserOption("usuario")
	if msg := targetError(actor, subject, botUser(ctx), false); msg != "" {
		return replyError(ctx, "Usuario inválido", msg)
	}

	d, msg := parseModDuration(ctx.GetStringOption("duracion"), maxTimeout)
	if msg != "" {
		return replyError(ctx, "Duración inválida", msg)
	}

	reason := reasonOption(ctx)
	guild := guildName(ctx)

	return h.recordThenAct(ctx, subject,
		h.ledgerRecord(ctx, subject, models.ActionMute, reason, d),
		func(rec *models.ActionRecord) error {
			until := time.Now().Add(d)
			if err := ctx.Session.GuildMemberTimeout(ctx.Interaction.GuildID, subject.ID, &until,
				discordgo.WithAuditLogReason(auditReason(actor, rec.CaseNumber, reason))); err != nil {
				return err
			}
			sendDM(ctx.Session, subject.ID, actionDMEmbed(guild, rec))
			return nil
		})
}

// createUnmuteCommand creates the /mod unmute subcommand
func (h *handlers) createUnmuteCommand() *discord.Command {
	return discord.NewCommand(
		"unmute",
		"Retira el silencio de un usuario",
		"mod",
		h.unmuteHandler,
	).WithOptions(
		userOptionDef("Usuario a quitar el silencio"),
		reasonOptionDef("Razón"),
	).WithUserPermissions(discordgo.PermissionModerateMembers).
		WithBotPermissions(discordgo.PermissionModerateMembers).
		RequiresDatabase()
}

// unmuteHandler clears the communication timeout
func (h *handlers) unmuteHandler(ctx *discord.CommandContext) error {
	actor := ctx.User()
	subject := ctx.GetUserOption("usuario")
	if msg := targetError(actor, subject, botUser(ctx), false); msg != "" {
		return replyError(ctx, "Usuario inválido", msg)
	}

	reason := reasonOption(ctx)
	return h.recordThenAct(ctx, subject,
		h.ledgerRecord(ctx, subject, models.ActionUnmute, reason, 0),
		func(rec *models.ActionRecord) error {
			return ctx.Session.GuildMemberTimeout(ctx.Interaction.GuildID, subject.ID, nil,
				discordgo.WithAuditLogReason(auditReason(actor, rec.CaseNumber, reason)))
		})
}
