// Package mod - /mod case command
package mod

import (
	"errors"
	"fmt"

	"github.com/PancyStudios/PancyTrials/pkg/discord"
	"github.com/PancyStudios/PancyTrials/pkg/logger"
	"github.com/PancyStudios/PancyTrials/pkg/moderation"
	"github.com/bwmarrin/discordgo"
)

// createCaseCommand creates the /mod case subcommand
func (h *handlers) createCaseCommand() *discord.Command {
	return discord.NewCommand(
		"case",
		"Muestra un caso del servidor por su número",
		"mod",
		h.caseHandler,
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "numero",
			Description: "Número de caso",
			Required:    true,
			MinValue:    func() *float64 { v := 1.0; return &v }(),
		},
	).WithUserPermissions(discordgo.PermissionModerateMembers).
		RequiresDatabase()
}

// caseHandler handles the /mod case command
func (h *handlers) caseHandler(ctx *discord.CommandContext) error {
	n := ctx.GetIntOption("numero")
	if n < 1 {
		return replyError(ctx, "Número inválido", "El número de caso debe ser mayor que 0.")
	}

	c, cancel := commandContext()
	defer cancel()

	rec, err := h.svc.Ledger.ByCaseNumber(c, ctx.Interaction.GuildID, n)
	switch {
	case errors.Is(err, moderation.ErrCaseNotFound):
		return replyError(ctx, "Caso no encontrado", fmt.Sprintf("No existe el caso #%d en este servidor.", n))
	case err != nil:
		logger.Error(fmt.Sprintf("Error consultando caso #%d: %v", n, err), "CMD-Case")
		return replyError(ctx, "Error de base de datos", "No se pudo consultar el caso.")
	}

	return ctx.ReplyEphemeralEmbed(caseEmbed(rec))
}
