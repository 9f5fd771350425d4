// Package events provides a registry for organizing bot events.
// Events are organized by category (guild, member, message, moderation)
package events

import (
	"context"

	"github.com/PancyStudios/PancyTrials/pkg/discord"
	"github.com/PancyStudios/PancyTrials/pkg/logger"
	"github.com/PancyStudios/PancyTrials/pkg/moderation"
)

// StatsReader builds the stats view of a member
type StatsReader interface {
	GetUserStats(ctx context.Context, guildID, subjectID string) (*moderation.StatsView, error)
}

// Deps holds what the event handlers read from
type Deps struct {
	Stats StatsReader
	// ModLogChannels maps a guild to the channel that receives its
	// returning member notices. Guilds not listed get none.
	ModLogChannels map[string]string
	// GuildsWebhook receives a notice when the bot joins or leaves a server. Empty disables it.
	GuildsWebhook string
}

// RegisterAll registers all events with the Discord client
func RegisterAll(client *discord.ExtendedClient, deps Deps) {
	logger.System("📋 Registrando eventos del bot...", "Events")

	// Ready, resume and disconnect
	RegisterReadyEvent(client)

	// Server join/leave
	RegisterGuildEvents(client, deps.GuildsWebhook)

	// Members with a trial record rejoining
	RegisterMemberEvents(client, deps)

	// Bot mentions
	RegisterMessageEvents(client)

	// Bans made outside the bot
	RegisterModerationEvents(client)

	logger.Success("✅ Todos los eventos registrados correctamente", "Events")
}
