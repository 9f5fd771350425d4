// Package main keeps the slash commands Discord knows about in line with
// the ones PancyTrials defines.
//
// Usage:
//
//	go run ./cmd/sync-commands [-list] [-clean] [-dry-run] [-guild <id> | -dev]
//
// Without -list or -clean the defined commands are bulk-overwritten, which
// also drops stale ones. -guild and -dev target the /dev group of a guild
// instead of the global /mod and /utils groups. -dry-run only prints what a
// sync would add, update and remove.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/PancyStudios/PancyTrials/internal/commands"
	"github.com/PancyStudios/PancyTrials/internal/commands/mod"
	"github.com/PancyStudios/PancyTrials/pkg/config"
	"github.com/PancyStudios/PancyTrials/pkg/discord"
	"github.com/PancyStudios/PancyTrials/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

var log = logger.WithPrefix("SyncCommands")

func main() {
	listCmd := flag.Bool("list", false, "List the commands Discord has registered")
	cleanCmd := flag.Bool("clean", false, "Remove every command without registering new ones")
	dryRun := flag.Bool("dry-run", false, "Show what a sync would change without changing it")
	guildID := flag.String("guild", "", "Target this guild's dev commands instead of the global ones")
	devGuild := flag.Bool("dev", false, "Target the configured devGuildId")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	l := logger.Init(cfg.ErrorWebhook, cfg.LogsWebhook)
	defer l.Close()

	target := *guildID
	if *devGuild {
		if cfg.DevGuildID == "" {
			log.Critical("-dev requiere devGuildId en la configuración")
			os.Exit(1)
		}
		target = cfg.DevGuildID
	}

	client, err := discord.NewClient(cfg.BotToken, cfg.DevGuildID)
	if err != nil {
		log.Critical(fmt.Sprintf("Error creando el cliente de Discord: %v", err))
		os.Exit(1)
	}
	if err := client.Session.Open(); err != nil {
		log.Critical(fmt.Sprintf("Error conectando a Discord: %v", err))
		os.Exit(1)
	}
	defer client.Session.Close()

	// Handlers never run here, so the moderation services stay empty
	commands.RegisterAll(client, mod.Services{}, nil)

	local := client.CommandHandler.GlobalCommands()
	if target != "" {
		local = client.CommandHandler.DevCommands()
	}

	switch {
	case *listCmd:
		err = listCommands(client, target)
	case *cleanCmd:
		err = client.CommandHandler.UnregisterGuildCommands(target)
	case *dryRun:
		err = previewSync(client, target, local)
	case target != "":
		err = client.CommandHandler.SyncGuildCommands(target)
	default:
		err = client.CommandHandler.SyncCommands()
	}
	if err != nil {
		log.Error(fmt.Sprintf("Operación fallida en %s: %v", scopeName(target), err))
		os.Exit(1)
	}
	log.Success(fmt.Sprintf("Operación completada en %s", scopeName(target)))
}

func scopeName(guildID string) string {
	if guildID == "" {
		return "comandos globales"
	}
	return "el servidor " + guildID
}

func remoteCommands(client *discord.ExtendedClient, guildID string) ([]*discordgo.ApplicationCommand, error) {
	if guildID == "" {
		return client.CommandHandler.ListGlobalCommands()
	}
	return client.CommandHandler.ListGuildCommands(guildID)
}

func listCommands(client *discord.ExtendedClient, guildID string) error {
	cmds, err := remoteCommands(client, guildID)
	if err != nil {
		return err
	}
	log.Info(fmt.Sprintf("%d comandos registrados en %s", len(cmds), scopeName(guildID)))
	for i, cmd := range cmds {
		log.Info(fmt.Sprintf("  %d. /%s (%d subcomandos) ID %s", i+1, cmd.Name, countSubcommands(cmd), cmd.ID))
	}
	return nil
}

func previewSync(client *discord.ExtendedClient, guildID string, local []*discordgo.ApplicationCommand) error {
	remote, err := remoteCommands(client, guildID)
	if err != nil {
		return err
	}
	d := diffCommands(local, remote)
	for _, name := range d.Added {
		log.Info("+ /" + name)
	}
	for _, name := range d.Changed {
		log.Info("~ /" + name)
	}
	for _, name := range d.Removed {
		log.Warn("- /" + name)
	}
	log.Info(fmt.Sprintf("%d nuevos, %d modificados, %d obsoletos, %d sin cambios",
		len(d.Added), len(d.Changed), len(d.Removed), d.Unchanged))
	return nil
}
