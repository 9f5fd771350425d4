package utils

import (
	"fmt"

	"github.com/PancyStudios/PancyTrials/pkg/discord"
	"github.com/bwmarrin/discordgo"
)

// createStatusCommand creates the /utils status subcommand
func createStatusCommand(status StatusChecker) *discord.Command {
	return discord.NewCommand(
		"status",
		"Muestra el estado del bot",
		"utils",
		func(ctx *discord.CommandContext) error {
			return ctx.ReplyEmbed(statusEmbed(status, ctx.Client.GuildCount()))
		},
	)
}

func statusEmbed(status StatusChecker, guilds int) *discordgo.MessageEmbed {
	dbStatus, ok := "🔴 | No configurada", false
	if status != nil {
		dbStatus, ok = status.GetStatus()
	}

	color := 0x00FF00
	moderation := "🟢 | Disponible"
	if !ok {
		color = 0xFF0000
		moderation = "🔴 | Sin registro de casos"
	}

	return &discordgo.MessageEmbed{
		Title: "📊 Estado del Bot",
		Color: color,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "🤖 Bot", Value: "🟢 | Online", Inline: true},
			{Name: "🗄️ Base de datos", Value: dbStatus, Inline: true},
			{Name: "🛡️ Moderación", Value: moderation, Inline: true},
			{Name: "🏠 Servidores", Value: fmt.Sprintf("%d", guilds), Inline: true},
		},
	}
}
