package main

import (
	"reflect"
	"testing"

	"github.com/bwmarrin/discordgo"
)

func group(name, desc string, subs ...string) *discordgo.ApplicationCommand {
	cmd := &discordgo.ApplicationCommand{Name: name, Description: desc}
	for _, s := range subs {
		cmd.Options = append(cmd.Options, &discordgo.ApplicationCommandOption{
			Type: discordgo.ApplicationCommandOptionSubCommand,
			Name: s,
		})
	}
	return cmd
}

func TestDiffCommands(t *testing.T) {
	local := []*discordgo.ApplicationCommand{
		group("mod", "Comandos de moderación", "warn", "warns", "tempban"),
		group("utils", "Comandos de utilidad", "ping"),
		group("dev", "Comandos de desarrollo", "sync"),
	}
	remote := []*discordgo.ApplicationCommand{
		group("mod", "Comandos de moderación", "warn", "warnings", "removewarn"),
		group("utils", "Comandos de utilidad", "ping"),
		group("play", "Reproduce música"),
	}

	got := diffCommands(local, remote)
	want := commandDiff{
		Added:     []string{"dev"},
		Changed:   []string{"mod"},
		Removed:   []string{"play"},
		Unchanged: 1,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("diffCommands() = %+v, want %+v", got, want)
	}
}

func TestSubcommandNamesWalksGroups(t *testing.T) {
	cmd := group("dev", "Comandos de desarrollo", "sync", "tempbans")
	cmd.Options = append(cmd.Options, &discordgo.ApplicationCommandOption{
		Type: discordgo.ApplicationCommandOptionSubCommandGroup,
		Name: "ledger",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "case"},
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "trial"},
		},
	})

	want := []string{"ledger case", "ledger trial", "sync", "tempbans"}
	if got := subcommandNames(cmd); !reflect.DeepEqual(got, want) {
		t.Errorf("subcommandNames() = %v, want %v", got, want)
	}
	if countSubcommands(cmd) != 4 {
		t.Errorf("countSubcommands() = %d, want 4", countSubcommands(cmd))
	}
}
