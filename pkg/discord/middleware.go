package discord

import (
	"time"

	"github.com/PancyStudios/PancyTrials/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

// hasPermissions reports whether have contains every bit of want.
// Administrator implies everything.
func hasPermissions(have, want int64) bool {
	if want == 0 || have&discordgo.PermissionAdministrator != 0 {
		return true
	}
	return have&want == want
}

// guard runs the per-command checks before Run. It answers the
// interaction itself when a check fails and returns false.
func (c *ExtendedClient) guard(ctx *CommandContext, cmd *Command) bool {
	if cmd.UserPermissions != 0 {
		member := ctx.Member()
		if member == nil {
			deny(ctx, "Este comando solo puede usarse dentro de un servidor.")
			return false
		}
		if !hasPermissions(member.Permissions, cmd.UserPermissions) {
			logger.Debug("Permisos insuficientes para "+cmd.Name+": "+ctx.User().ID, "Middleware")
			deny(ctx, "No tienes los permisos necesarios para usar este comando.")
			return false
		}
	}

	if cmd.BotPermissions != 0 && ctx.Interaction.AppPermissions != 0 &&
		!hasPermissions(ctx.Interaction.AppPermissions, cmd.BotPermissions) {
		deny(ctx, "Me faltan permisos en este servidor para ejecutar el comando.")
		return false
	}

	if cmd.RequiresDB && c.StoreAvailable != nil && !c.StoreAvailable() {
		deny(ctx, "La base de datos no está disponible en este momento. Inténtalo más tarde.")
		return false
	}

	return true
}

func deny(ctx *CommandContext, reason string) {
	embed := &discordgo.MessageEmbed{
		Title:       "🚫 Acceso Denegado",
		Description: reason,
		Color:       0xFF0000,
		Timestamp:   time.Now().Format(time.RFC3339),
	}
	if err := ctx.ReplyEphemeralEmbed(embed); err != nil {
		logger.Error("Error enviando respuesta de acceso denegado: "+err.Error(), "Middleware")
	}
}
