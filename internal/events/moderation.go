package events

import (
	"fmt"

	"github.com/PancyStudios/PancyTrials/pkg/discord"
	"github.com/PancyStudios/PancyTrials/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

// RegisterModerationEvents registers platform moderation event handlers
func RegisterModerationEvents(client *discord.ExtendedClient) {
	client.EventHandler.OnGuildBanAdd(onGuildBanAdd)
}

// onGuildBanAdd logs every ban seen on the gateway. Bans issued through
// /mod already have a case; manual ones only show up here.
func onGuildBanAdd(s *discordgo.Session, b *discordgo.GuildBanAdd) {
	if b.User == nil {
		return
	}
	logger.Info(fmt.Sprintf("🔨 Ban aplicado a %s (%s) en servidor %s", b.User.Username, b.User.ID, b.GuildID), "Moderation")
}
