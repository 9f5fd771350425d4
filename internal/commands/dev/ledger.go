package dev

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PancyStudios/PancyTrials/pkg/discord"
	"github.com/PancyStudios/PancyTrials/pkg/logger"
	"github.com/PancyStudios/PancyTrials/pkg/models"
	"github.com/PancyStudios/PancyTrials/pkg/moderation"
	"github.com/bwmarrin/discordgo"
)

const (
	lookupTimeout = 10 * time.Second
	// ledgerPreview is how many cases /dev ledger history prints
	ledgerPreview = 15
)

func guildOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "servidor",
		Description: "ID del servidor",
		Required:    true,
	}
}

func userIDOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "usuario",
		Description: "ID del usuario",
		Required:    true,
	}
}

// createLedgerCaseCommand creates the /dev ledger case subcommand
func (h *handlers) createLedgerCaseCommand() *discord.Command {
	return discord.NewCommand(
		"case",
		"Muestra un caso de cualquier servidor",
		"dev",
		func(ctx *discord.CommandContext) error {
			c, cancel := context.WithTimeout(context.Background(), lookupTimeout)
			defer cancel()

			guildID := ctx.GetStringOption("servidor")
			number := ctx.GetIntOption("numero")
			rec, err := h.deps.Ledger.ByCaseNumber(c, guildID, number)
			switch {
			case errors.Is(err, moderation.ErrCaseNotFound):
				return ctx.ReplyEphemeral(fmt.Sprintf("❌ El caso #%d no existe en `%s`.", number, guildID))
			case err != nil:
				logger.Error(fmt.Sprintf("Error consultando caso #%d de %s: %v", number, guildID, err), "CMD-Dev")
				return ctx.ReplyEphemeral(fmt.Sprintf("❌ Error consultando el caso: `%v`", err))
			}
			return ctx.ReplyEphemeral(codeBlock(caseLine(rec)))
		},
	).WithOptions(
		guildOption(),
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "numero",
			Description: "Número de caso",
			Required:    true,
			MinValue:    ptr(1.0),
		},
	).WithUserPermissions(discordgo.PermissionAdministrator).AsDev().RequiresDatabase()
}

// createLedgerHistoryCommand creates the /dev ledger history subcommand
func (h *handlers) createLedgerHistoryCommand() *discord.Command {
	return discord.NewCommand(
		"history",
		"Muestra los casos de un usuario en cualquier servidor",
		"dev",
		func(ctx *discord.CommandContext) error {
			c, cancel := context.WithTimeout(context.Background(), lookupTimeout)
			defer cancel()

			guildID := ctx.GetStringOption("servidor")
			userID := ctx.GetStringOption("usuario")
			history, err := h.deps.Ledger.History(c, guildID, userID)
			if err != nil {
				logger.Error(fmt.Sprintf("Error consultando historial de %s en %s: %v", userID, guildID, err), "CMD-Dev")
				return ctx.ReplyEphemeral(fmt.Sprintf("❌ Error consultando el historial: `%v`", err))
			}
			return ctx.ReplyEphemeral(historySummary(history))
		},
	).WithOptions(guildOption(), userIDOption()).
		WithUserPermissions(discordgo.PermissionAdministrator).AsDev().RequiresDatabase()
}

// createLedgerTrialCommand creates the /dev ledger trial subcommand
func (h *handlers) createLedgerTrialCommand() *discord.Command {
	return discord.NewCommand(
		"trial",
		"Muestra el trial de un usuario en cualquier servidor",
		"dev",
		func(ctx *discord.CommandContext) error {
			c, cancel := context.WithTimeout(context.Background(), lookupTimeout)
			defer cancel()

			guildID := ctx.GetStringOption("servidor")
			userID := ctx.GetStringOption("usuario")
			view, err := h.deps.Stats.GetUserStats(c, guildID, userID)
			if err != nil {
				logger.Error(fmt.Sprintf("Error consultando trial de %s en %s: %v", userID, guildID, err), "CMD-Dev")
				return ctx.ReplyEphemeral(fmt.Sprintf("❌ Error consultando el trial: `%v`", err))
			}
			return ctx.ReplyEphemeral(codeBlock(trialSummary(view)))
		},
	).WithOptions(guildOption(), userIDOption()).
		WithUserPermissions(discordgo.PermissionAdministrator).AsDev().RequiresDatabase()
}

func caseLine(rec *models.ActionRecord) string {
	line := fmt.Sprintf("#%d %s %s subject=%s actor=%s",
		rec.CaseNumber, time.Unix(rec.CreatedAt, 0).UTC().Format(time.DateTime), rec.Action, rec.SubjectID, rec.ActorID)
	if rec.DurationMs > 0 {
		line += " duration=" + moderation.FormatDuration(rec.Duration())
	}
	if rec.Reason != "" {
		line += fmt.Sprintf(" reason=%q", rec.Reason)
	}
	return line
}

func historySummary(history []*models.ActionRecord) string {
	if len(history) == 0 {
		return "📭 Sin casos registrados."
	}
	shown := history[:min(len(history), ledgerPreview)]
	lines := make([]string, len(shown))
	for i, rec := range shown {
		lines[i] = caseLine(rec)
	}
	return fmt.Sprintf("📁 %d casos (mostrando %d)\n%s", len(history), len(shown), codeBlock(strings.Join(lines, "\n")))
}

func trialSummary(view *moderation.StatsView) string {
	appeal := "none"
	switch {
	case view.IsPermanent:
		appeal = "permanent"
	case view.BanAppealDate != nil:
		appeal = view.BanAppealDate.UTC().Format(time.DateTime)
	}
	return fmt.Sprintf("stage=%d (%s) warns=%d/%d until_ban=%d appeal=%s can_appeal=%t cases=%d",
		view.TrialStage, view.TrialName, view.WarnCount, view.MaxWarns, view.WarnsUntilBan,
		appeal, view.CanAppeal, view.TotalActions)
}

// codeBlock wraps text in a code block, cut to fit in one message
func codeBlock(text string) string {
	const limit = 1900
	if len(text) > limit {
		text = text[:limit] + "\n…"
	}
	return "```\n" + text + "\n```"
}
