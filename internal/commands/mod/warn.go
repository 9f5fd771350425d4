// Package mod - /mod warn, /mod warns and /mod clearwarns
package mod

import (
	"fmt"

	"github.com/PancyStudios/PancyTrials/pkg/discord"
	"github.com/PancyStudios/PancyTrials/pkg/logger"
	"github.com/PancyStudios/PancyTrials/pkg/moderation"
	"github.com/bwmarrin/discordgo"
)

// createWarnCommand creates the /mod warn subcommand
func (h *handlers) createWarnCommand() *discord.Command {
	return discord.NewCommand(
		"warn",
		"Advierte a un usuario y avanza su trial",
		"mod",
		h.warnHandler,
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "usuario",
			Description: "Usuario a advertir",
			Required:    true,
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "razon",
			Description: "Razón de la advertencia",
			Required:    true,
			MaxLength:   maxReasonLen,
		},
	).WithUserPermissions(discordgo.PermissionModerateMembers).
		WithBotPermissions(discordgo.PermissionBanMembers).
		RequiresDatabase()
}

// warnHandler records the warning, then DMs the subject and applies the
// platform ban when the warning completed a trial.
func (h *handlers) warnHandler(ctx *discord.CommandContext) error {
	actor := ctx.User()
	subject := ctx.GetUserOption("usuario")
	if msg := targetError(actor, subject, botUser(ctx), false); msg != "" {
		return replyError(ctx, "Usuario inválido", msg)
	}

	reason := normalizeReason(ctx.GetStringOption("razon"))
	if reason == "" {
		return replyError(ctx, "Razón requerida", "Debes especificar una razón.")
	}

	if err := ctx.Defer(); err != nil {
		return err
	}

	c, cancel := commandContext()
	defer cancel()

	guildID := ctx.Interaction.GuildID
	res, err := h.svc.Engine.ProcessWarning(c, guildID, subject.ID, actor.ID, reason)
	if err != nil {
		logger.Error(fmt.Sprintf("Error registrando advertencia de %s: %v", subject.ID, err), "CMD-Warn")
		return editError(ctx, "Error de base de datos", "No se pudo registrar la advertencia. Inténtalo de nuevo.")
	}

	// DM first: after the ban there may be no shared server left to DM through
	sendDM(ctx.Session, subject.ID, warnDMEmbed(guildName(ctx), reason, res))

	embed := warnEmbed(subject, reason, res)
	if res.Banned {
		audit := auditReason(actor, res.BanCaseNumber, moderation.TrialName(res.TrialStage)+" completado")
		if err := ctx.Session.GuildBanCreateWithReason(guildID, subject.ID, audit, 0); err != nil {
			logger.Error(fmt.Sprintf("Error aplicando ban de trial a %s: %v", subject.ID, err), "CMD-Warn")
			embed.Description += fmt.Sprintf("\n\n⚠️ El caso quedó registrado, pero Discord rechazó el ban: `%v`", err)
		}
	}

	return ctx.EditReplyEmbed(embed)
}

// createWarnsCommand creates the /mod warns subcommand
func (h *handlers) createWarnsCommand() *discord.Command {
	return discord.NewCommand(
		"warns",
		"Estado del trial y casos de un usuario",
		"mod",
		h.warnsHandler,
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "usuario",
			Description: "[STAFF] Usuario a consultar (opcional)",
			Required:    false,
		},
	).RequiresDatabase()
}

// warnsHandler shows the stats view. Members can always see their own;
// looking at someone else needs ModerateMembers.
func (h *handlers) warnsHandler(ctx *discord.CommandContext) error {
	target := ctx.GetUserOption("usuario")
	if target == nil {
		target = ctx.User()
	}

	if target.ID != ctx.User().ID && !isModerator(ctx.Member()) {
		return replyError(ctx, "Acceso Denegado", "No tienes permisos para ver el historial de otro usuario.")
	}

	c, cancel := commandContext()
	defer cancel()

	view, err := h.svc.Stats.GetUserStats(c, ctx.Interaction.GuildID, target.ID)
	if err != nil {
		logger.Error(fmt.Sprintf("Error consultando estado de %s: %v", target.ID, err), "CMD-Warns")
		return replyError(ctx, "Error de base de datos", "No se pudo consultar el historial.")
	}

	var components []discordgo.MessageComponent
	if pages := pageCount(view.TotalActions); pages > 1 {
		components = pageButtons(ctx.Interaction.GuildID, target.ID, 1, pages)
	}
	return ctx.ReplyEmbedWithComponents(statsEmbed(target, view), components, true)
}

func isModerator(member *discordgo.Member) bool {
	if member == nil {
		return false
	}
	return member.Permissions&(discordgo.PermissionModerateMembers|discordgo.PermissionAdministrator) != 0
}

// createClearWarnsCommand creates the /mod clearwarns subcommand
func (h *handlers) createClearWarnsCommand() *discord.Command {
	return discord.NewCommand(
		"clearwarns",
		"Reinicia el contador de advertencias del trial actual",
		"mod",
		h.clearWarnsHandler,
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "usuario",
			Description: "Usuario cuyas advertencias se reinician",
			Required:    true,
		},
	).WithUserPermissions(discordgo.PermissionModerateMembers).
		RequiresDatabase()
}

// clearWarnsHandler resets the count only. Stage, appeal date and the
// ledger are left as they are.
func (h *handlers) clearWarnsHandler(ctx *discord.CommandContext) error {
	subject := ctx.GetUserOption("usuario")
	if subject == nil {
		return replyError(ctx, "Usuario inválido", "Debes especificar un usuario.")
	}

	c, cancel := commandContext()
	defer cancel()

	if err := h.svc.Engine.ClearUserWarnings(c, ctx.Interaction.GuildID, subject.ID); err != nil {
		logger.Error(fmt.Sprintf("Error reiniciando advertencias de %s: %v", subject.ID, err), "CMD-ClearWarns")
		return replyError(ctx, "Error de base de datos", "No se pudieron reiniciar las advertencias.")
	}

	logger.Info(fmt.Sprintf("Advertencias de %s reiniciadas por %s", subject.ID, ctx.User().ID), "CMD-ClearWarns")
	return ctx.ReplyEmbed(&discordgo.MessageEmbed{
		Title:       "🧹 Advertencias reiniciadas",
		Description: fmt.Sprintf("El contador de <@%s> vuelve a 0. Su trial y sus casos no cambian.", subject.ID),
		Color:       colorOK,
		Footer:      &discordgo.MessageEmbedFooter{Text: footerText},
	})
}
