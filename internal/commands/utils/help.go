package utils

import (
	"fmt"
	"sort"
	"strings"

	"github.com/PancyStudios/PancyTrials/pkg/discord"
	"github.com/bwmarrin/discordgo"
)

// createHelpCommand creates the /utils help subcommand
func createHelpCommand() *discord.Command {
	return discord.NewCommand(
		"help",
		"Muestra información de ayuda",
		"utils",
		helpHandler,
	)
}

// helpHandler lists the commands that are registered right now, so the
// text never drifts from what Discord shows.
func helpHandler(ctx *discord.CommandContext) error {
	lines := helpLines(ctx.Client.CommandHandler.GlobalCommands())
	return ctx.ReplyEphemeralEmbed(&discordgo.MessageEmbed{
		Title: "📖 Ayuda de PancyTrials",
		Description: "Cada advertencia cuenta para el **trial** actual del usuario. " +
			"Al completar un trial el usuario es baneado y, al volver, pasa al siguiente.\n\n" +
			"**Comandos disponibles:**\n" + strings.Join(lines, "\n"),
		Color: 0x5865F2,
	})
}

func helpLines(cmds []*discordgo.ApplicationCommand) []string {
	var lines []string
	for _, cmd := range cmds {
		subs := 0
		for _, opt := range cmd.Options {
			if opt.Type != discordgo.ApplicationCommandOptionSubCommand {
				continue
			}
			subs++
			lines = append(lines, fmt.Sprintf("• `/%s %s%s` - %s", cmd.Name, opt.Name, usage(opt.Options), opt.Description))
		}
		if subs == 0 {
			lines = append(lines, fmt.Sprintf("• `/%s%s` - %s", cmd.Name, usage(cmd.Options), cmd.Description))
		}
	}
	sort.Strings(lines)
	return lines
}

func usage(opts []*discordgo.ApplicationCommandOption) string {
	var b strings.Builder
	for _, opt := range opts {
		if opt.Required {
			fmt.Fprintf(&b, " <%s>", opt.Name)
		} else {
			fmt.Fprintf(&b, " [%s]", opt.Name)
		}
	}
	return b.String()
}
