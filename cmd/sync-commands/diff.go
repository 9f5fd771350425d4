package main

import (
	"sort"

	"github.com/bwmarrin/discordgo"
)

// commandDiff is what a bulk overwrite would do to the remote command set
type commandDiff struct {
	Added     []string
	Changed   []string
	Removed   []string
	Unchanged int
}

// diffCommands compares by name. A command counts as changed when its
// description or its subcommand names differ.
func diffCommands(local, remote []*discordgo.ApplicationCommand) commandDiff {
	byName := make(map[string]*discordgo.ApplicationCommand, len(remote))
	for _, cmd := range remote {
		byName[cmd.Name] = cmd
	}

	var d commandDiff
	for _, cmd := range local {
		old, ok := byName[cmd.Name]
		switch {
		case !ok:
			d.Added = append(d.Added, cmd.Name)
		case old.Description != cmd.Description || !sameSubcommands(old, cmd):
			d.Changed = append(d.Changed, cmd.Name)
		default:
			d.Unchanged++
		}
		delete(byName, cmd.Name)
	}
	for name := range byName {
		d.Removed = append(d.Removed, name)
	}

	sort.Strings(d.Added)
	sort.Strings(d.Changed)
	sort.Strings(d.Removed)
	return d
}

func subcommandNames(cmd *discordgo.ApplicationCommand) []string {
	var names []string
	var walk func(prefix string, opts []*discordgo.ApplicationCommandOption)
	walk = func(prefix string, opts []*discordgo.ApplicationCommandOption) {
		for _, opt := range opts {
			switch opt.Type {
			case discordgo.ApplicationCommandOptionSubCommand:
				names = append(names, prefix+opt.Name)
			case discordgo.ApplicationCommandOptionSubCommandGroup:
				walk(prefix+opt.Name+" ", opt.Options)
			}
		}
	}
	walk("", cmd.Options)
	sort.Strings(names)
	return names
}

func countSubcommands(cmd *discordgo.ApplicationCommand) int {
	return len(subcommandNames(cmd))
}

func sameSubcommands(a, b *discordgo.ApplicationCommand) bool {
	x, y := subcommandNames(a), subcommandNames(b)
	if len(x) != len(y) {
		return false
	}
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}
