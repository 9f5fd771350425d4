// Package discord provides the command handler for loading and registering commands.
package discord

import (
	"strconv"

	"github.com/PancyStudios/PancyTrials/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

// CommandHandler manages command loading and registration
type CommandHandler struct {
	client           *ExtendedClient
	devGuildID       string
	slashCommands    []*discordgo.ApplicationCommand
	slashCommandsDev []*discordgo.ApplicationCommand
}

// NewCommandHandler creates a new CommandHandler. Dev commands are
// registered in devGuildID when it is set.
func NewCommandHandler(client *ExtendedClient, devGuildID string) *CommandHandler {
	return &CommandHandler{
		client:           client,
		devGuildID:       devGuildID,
		slashCommands:    make([]*discordgo.ApplicationCommand, 0),
		slashCommandsDev: make([]*discordgo.ApplicationCommand, 0),
	}
}

// LoadCommands logs the commands registered programmatically so far
func (ch *CommandHandler) LoadCommands() error {
	logger.System("Iniciando carga de comandos...", "CommandHandler")
	logger.System("Carga finalizada. "+strconv.Itoa(ch.client.Commands.Size())+" comandos en memoria.", "CommandHandler")
	return nil
}

// RegisterCommand adds a command to the handler
func (ch *CommandHandler) RegisterCommand(cmd *Command) {
	ch.client.Commands.Set(cmd.Name, cmd)

	appCmd := cmd.ToApplicationCommand()

	if cmd.IsDev {
		ch.slashCommandsDev = append(ch.slashCommandsDev, appCmd)
	} else {
		ch.slashCommands = append(ch.slashCommands, appCmd)
	}

	logger.Debug("Comando registrado: "+cmd.Name, "CommandHandler")
}

// BuildCommandGroup creates a command group with subcommands. Each
// subcommand is stored under "name.sub" for dispatch.
func (ch *CommandHandler) BuildCommandGroup(name, description string, subcommands ...*Command) *discordgo.ApplicationCommand {
	options := make([]*discordgo.ApplicationCommandOption, 0, len(subcommands))

	for _, cmd := range subcommands {
		ch.client.Commands.Set(name+"."+cmd.Name, cmd)

		options = append(options, &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        cmd.Name,
			Description: cmd.Description,
			Options:     cmd.Options,
		})
	}

	return &discordgo.ApplicationCommand{
		Name:        name,
		Description: description,
		Options:     options,
	}
}

// BuildSubcommandGroup creates a subcommand group
func (ch *CommandHandler) BuildSubcommandGroup(groupName, name, description string, subcommands ...*Command) *discordgo.ApplicationCommandOption {
	options := make([]*discordgo.ApplicationCommandOption, 0, len(subcommands))

	for _, cmd := range subcommands {
		ch.client.Commands.Set(groupName+"."+name+"."+cmd.Name, cmd)

		options = append(options, &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        cmd.Name,
			Description: cmd.Description,
			Options:     cmd.Options,
		})
	}

	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionSubCommandGroup,
		Name:        name,
		Description: description,
		Options:     options,
	}
}

// GlobalCommands returns the application commands queued for global registration
func (ch *CommandHandler) GlobalCommands() []*discordgo.ApplicationCommand {
	return ch.slashCommands
}

// DevCommands returns the application commands queued for the dev guild
func (ch *CommandHandler) DevCommands() []*discordgo.ApplicationCommand {
	return ch.slashCommandsDev
}

// RegisterCommands registers all slash commands with Discord
func (ch *CommandHandler) RegisterCommands() {
	appID := ch.client.Session.State.User.ID

	logger.Info("🔄 Registrando comandos globales...", "CommandHandler")

	for _, cmd := range ch.slashCommands {
		if _, err := ch.client.Session.ApplicationCommandCreate(appID, "", cmd); err != nil {
			logger.Error("Error registrando comando "+cmd.Name+": "+err.Error(), "CommandHandler")
		}
	}

	logger.Success("✅ Comandos globales registrados.", "CommandHandler")

	if ch.devGuildID != "" && len(ch.slashCommandsDev) > 0 {
		logger.Info("🔄 Registrando comandos de desarrollo en el servidor "+ch.devGuildID+"...", "CommandHandler")

		for _, cmd := range ch.slashCommandsDev {
			if _, err := ch.client.Session.ApplicationCommandCreate(appID, ch.devGuildID, cmd); err != nil {
				logger.Error("Error registrando comando de desarrollo "+cmd.Name+": "+err.Error(), "CommandHandler")
			}
		}

		logger.Success("✅ Comandos de desarrollo registrados.", "CommandHandler")
	}
}

// ListGlobalCommands returns the global commands Discord currently has
func (ch *CommandHandler) ListGlobalCommands() ([]*discordgo.ApplicationCommand, error) {
	return ch.client.Session.ApplicationCommands(ch.client.Session.State.User.ID, "")
}

// ListGuildCommands returns the commands Discord has for one guild
func (ch *CommandHandler) ListGuildCommands(guildID string) ([]*discordgo.ApplicationCommand, error) {
	return ch.client.Session.ApplicationCommands(ch.client.Session.State.User.ID, guildID)
}

// SyncCommands replaces the global command set with the locally defined
// one, dropping stale commands in a single request.
func (ch *CommandHandler) SyncCommands() error {
	created, err := ch.client.Session.ApplicationCommandBulkOverwrite(ch.client.Session.State.User.ID, "", ch.slashCommands)
	if err != nil {
		return err
	}
	logger.Success("Comandos globales sincronizados: "+strconv.Itoa(len(created)), "CommandHandler")
	return nil
}

// SyncGuildCommands replaces a guild's commands with the dev command set
func (ch *CommandHandler) SyncGuildCommands(guildID string) error {
	created, err := ch.client.Session.ApplicationCommandBulkOverwrite(ch.client.Session.State.User.ID, guildID, ch.slashCommandsDev)
	if err != nil {
		return err
	}
	logger.Success("Comandos del servidor "+guildID+" sincronizados: "+strconv.Itoa(len(created)), "CommandHandler")
	return nil
}

// UnregisterCommands removes all registered commands from Discord
func (ch *CommandHandler) UnregisterCommands() error {
	return ch.UnregisterGuildCommands("")
}

// UnregisterGuildCommands removes every command of a guild. An empty
// guildID targets the global commands.
func (ch *CommandHandler) UnregisterGuildCommands(guildID string) error {
	appID := ch.client.Session.State.User.ID
	commands, err := ch.client.Session.ApplicationCommands(appID, guildID)
	if err != nil {
		return err
	}

	for _, cmd := range commands {
		if err := ch.client.Session.ApplicationCommandDelete(appID, guildID, cmd.ID); err != nil {
			logger.Error("Error eliminando comando "+cmd.Name+": "+err.Error(), "CommandHandler")
		}
	}

	logger.Success("Comandos eliminados: "+strconv.Itoa(len(commands)), "CommandHandler")
	return nil
}

// AddGlobalCommand adds a command to the global command list
func (ch *CommandHandler) AddGlobalCommand(cmd *discordgo.ApplicationCommand) {
	ch.slashCommands = append(ch.slashCommands, cmd)
}

// AddDevCommand adds a command to the dev command list
func (ch *CommandHandler) AddDevCommand(cmd *discordgo.ApplicationCommand) {
	ch.slashCommandsDev = append(ch.slashCommandsDev, cmd)
}
