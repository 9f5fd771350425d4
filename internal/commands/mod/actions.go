package mod

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/PancyStudios/PancyTrials/pkg/discord"
	"github.com/PancyStudios/PancyTrials/pkg/logger"
	"github.com/PancyStudios/PancyTrials/pkg/models"
	"github.com/bwmarrin/discordgo"
)

type recordFunc func(c context.Context) (*models.ActionRecord, error)

// platformFunc performs the Discord side of an action once its case exists
type platformFunc func(rec *models.ActionRecord) error

func (h *handlers) ledgerRecord(ctx *discord.CommandContext, subject *discordgo.User, kind models.ActionKind, reason string, d time.Duration) recordFunc {
	return func(c context.Context) (*models.ActionRecord, error) {
		return h.svc.Ledger.RecordAction(c, ctx.Interaction.GuildID, subject.ID, ctx.User().ID, kind, reason, d)
	}
}

// recordThenAct writes the case and only then calls Discord. A platform
// failure leaves the case in place and is reported in the reply.
func (h *handlers) recordThenAct(ctx *discord.CommandContext, subject *discordgo.User, record recordFunc, act platformFunc) error {
	if err := ctx.Defer(); err != nil {
		return err
	}

	c, cancel := commandContext()
	defer cancel()

	rec, err := record(c)
	if err != nil {
		logger.Error(fmt.Sprintf("Error registrando caso contra %s: %v", subject.ID, err), "Mod")
		return editError(ctx, "Error de base de datos", "No se pudo registrar el caso. No se aplicó ninguna acción.")
	}

	var platformErr error
	if act != nil {
		if platformErr = act(rec); platformErr != nil {
			logger.Error(fmt.Sprintf("Discord rechazó %s contra %s (caso #%d): %v", rec.Action, subject.ID, rec.CaseNumber, platformErr), "Mod")
		}
	}

	return ctx.EditReplyEmbed(actionEmbed(subject, rec, platformErr))
}

func reasonOption(ctx *discord.CommandContext) string {
	return normalizeReason(ctx.GetStringOption("razon"))
}

func reasonOptionDef(description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "razon",
		Description: description,
		Required:    false,
		MaxLength:   maxReasonLen,
	}
}

func userOptionDef(description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionUser,
		Name:        "usuario",
		Description: description,
		Required:    true,
	}
}

func durationOptionDef(description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "duracion",
		Description: description,
		Required:    true,
	}
}

func idOptionDef(description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "id",
		Description: description,
		Required:    true,
		MinLength:   intPtr(17),
		MaxLength:   20,
	}
}

func intPtr(v int) *int { return &v }

// snowflakeUser builds a placeholder user from a raw ID option. Only the
// ID is known for users outside the guild.
func snowflakeUser(raw string) (*discordgo.User, bool) {
	if _, err := strconv.ParseUint(raw, 10, 64); err != nil || len(raw) < 17 || len(raw) > 20 {
		return nil, false
	}
	return &discordgo.User{ID: raw, Username: raw}, true
}
