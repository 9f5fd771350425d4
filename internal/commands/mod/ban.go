// Package mod - /mod ban, /mod unban, /mod hackban and /mod tempban
package mod

import (
	"strings"
	"time"

	"github.com/PancyStudios/PancyTrials/pkg/discord"
	"github.com/PancyStudios/PancyTrials/pkg/models"
	"github.com/bwmarrin/discordgo"
)

// maxTempban caps /mod tempban durations
const maxTempban = 365 * 24 * time.Hour

// createBanCommand creates the /mod ban subcommand
func (h *handlers) createBanCommand() *discord.Command {
	return discord.NewCommand(
		"ban",
		"Banea a un usuario del servidor",
		"mod",
		h.banHandler,
	).WithOptions(
		userOptionDef("Usuario a banear"),
		reasonOptionDef("Razón del ban"),
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "dias",
			Description: "Días de mensajes a eliminar (0-7)",
			Required:    false,
			MinValue:    func() *float64 { v := 0.0; return &v }(),
			MaxValue:    7,
		},
	).WithUserPermissions(discordgo.PermissionBanMembers).
		WithBotPermissions(discordgo.PermissionBanMembers).
		RequiresDatabase()
}

// banHandler handles the /mod ban command
func (h *handlers) banHandler(ctx *discord.CommandContext) error {
	actor := ctx.User()
	subject := ctx.GetUserOption("usuario")
	if msg := targetError(actor, subject, botUser(ctx), false); msg != "" {
		return replyError(ctx, "Usuario inválido", msg)
	}

	reason := reasonOption(ctx)
	days := int(ctx.GetIntOption("dias"))
	guild := guildName(ctx)

	return h.recordThenAct(ctx, subject,
		h.ledgerRecord(ctx, subject, models.ActionBan, reason, 0),
		func(rec *models.ActionRecord) error {
			sendDM(ctx.Session, subject.ID, actionDMEmbed(guild, rec))
			return ctx.Session.GuildBanCreateWithReason(ctx.Interaction.GuildID, subject.ID, auditReason(actor, rec.CaseNumber, reason), days)
		})
}

// createHackbanCommand creates the /mod hackban subcommand
func (h *handlers) createHackbanCommand() *discord.Command {
	return discord.NewCommand(
		"hackban",
		"Banea por ID a un usuario que no está en el servidor",
		"mod",
		h.hackbanHandler,
	).WithOptions(
		idOptionDef("ID del usuario a banear"),
		reasonOptionDef("Razón del ban"),
	).WithUserPermissions(discordgo.PermissionBanMembers).
		WithBotPermissions(discordgo.PermissionBanMembers).
		RequiresDatabase()
}

// hackbanHandler handles the /mod hackban command
func (h *handlers) hackbanHandler(ctx *discord.CommandContext) error {
	actor := ctx.User()
	subject, ok := snowflakeUser(strings.TrimSpace(ctx.GetStringOption("id")))
	if !ok {
		return replyError(ctx, "ID inválido", "Debes indicar el ID numérico de un usuario.")
	}
	if msg := targetError(actor, subject, botUser(ctx), false); msg != "" {
		return replyError(ctx, "Usuario inválido", msg)
	}

	reason := reasonOption(ctx)
	return h.recordThenAct(ctx, subject,
		h.ledgerRecord(ctx, subject, models.ActionHackban, reason, 0),
		func(rec *models.ActionRecord) error {
			return ctx.Session.GuildBanCreateWithReason(ctx.Interaction.GuildID, subject.ID, auditReason(actor, rec.CaseNumber, reason), 0)
		})
}

// createUnbanCommand creates the /mod unban subcommand
func (h *handlers) createUnbanCommand() *discord.Command {
	return discord.NewCommand(
		"unban",
		"Retira el ban de un usuario",
		"mod",
		h.unbanHandler,
	).WithOptions(
		idOptionDef("ID del usuario a desbanear"),
		reasonOptionDef("Razón del desbaneo"),
	).WithUserPermissions(discordgo.PermissionBanMembers).
		WithBotPermissions(discordgo.PermissionBanMembers).
		RequiresDatabase()
}

// unbanHandler lifts a ban. A pending tempban expiry for the same user is cancelled.
func (h *handlers) unbanHandler(ctx *discord.CommandContext) error {
	subject, ok := snowflakeUser(strings.TrimSpace(ctx.GetStringOption("id")))
	if !ok {
		return replyError(ctx, "ID inválido", "Debes indicar el ID numérico de un usuario.")
	}

	reason := reasonOption(ctx)
	return h.recordThenAct(ctx, subject,
		h.ledgerRecord(ctx, subject, models.ActionUnban, reason, 0),
		func(rec *models.ActionRecord) error {
			if h.svc.Tempbans != nil {
				h.svc.Tempbans.Cancel(ctx.Interaction.GuildID, subject.ID)
			}
			return ctx.Session.GuildBanDelete(ctx.Interaction.GuildID, subject.ID,
				discordgo.WithAuditLogReason(auditReason(ctx.User(), rec.CaseNumber, reason)))
		})
}

// createTempbanCommand creates the /mod tempban subcommand
func (h *handlers) createTempbanCommand() *discord.Command {
	return discord.NewCommand(
		"tempban",
		"Banea a un usuario durante un tiempo",
		"mod",
		h.tempbanHandler,
	).WithOptions(
		userOptionDef("Usuario a banear"),
		durationOptionDef("Duración del ban (por ejemplo 12h o 7d)"),
		reasonOptionDef("Razón del ban"),
	).WithUserPermissions(discordgo.PermissionBanMembers).
		WithBotPermissions(discordgo.PermissionBanMembers).
		RequiresDatabase()
}

// tempbanHandler bans now and schedules the unban
func (h *handlers) tempbanHandler(ctx *discord.CommandContext) error {
	actor := ctx.User()
	subject := ctx.GetUserOption("usuario")
	if msg := targetError(actor, subject, botUser(ctx), false); msg != "" {
		return replyError(ctx, "Usuario inválido", msg)
	}

	d, msg := parseModDuration(ctx.GetStringOption("duracion"), maxTempban)
	if msg != "" {
		return replyError(ctx, "Duración inválida", msg)
	}

	reason := reasonOption(ctx)
	guildID := ctx.Interaction.GuildID
	guild := guildName(ctx)

	return h.recordThenAct(ctx, subject,
		h.ledgerRecord(ctx, subject, models.ActionTempban, reason, d),
		func(rec *models.ActionRecord) error {
			sendDM(ctx.Session, subject.ID, actionDMEmbed(guild, rec))
			if err := ctx.Session.GuildBanCreateWithReason(guildID, subject.ID, auditReason(actor, rec.CaseNumber, reason), 0); err != nil {
				return err
			}
			if h.svc.Tempbans != nil {
				h.svc.Tempbans.Schedule(guildID, subject.ID, d)
			}
			return nil
		})
}
