// Package events provides event handlers for message events
package events

import (
	"fmt"

	"github.com/PancyStudios/PancyTrials/pkg/discord"
	"github.com/PancyStudios/PancyTrials/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

// RegisterMessageEvents registers all message-related event handlers
func RegisterMessageEvents(client *discord.ExtendedClient) {
	client.EventHandler.OnMessageCreate(onMessageCreate)
}

// onMessageCreate answers direct mentions of the bot with a short usage guide
func onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || s.State.User == nil {
		return
	}
	if !mentions(m.Message, s.State.User.ID) {
		return
	}

	if _, err := s.ChannelMessageSendEmbed(m.ChannelID, mentionEmbed()); err != nil {
		logger.Error(fmt.Sprintf("Error enviando respuesta: %v", err), "Message")
	}
}

func mentions(m *discordgo.Message, userID string) bool {
	for _, mention := range m.Mentions {
		if mention.ID == userID {
			return true
		}
	}
	return false
}

func mentionEmbed() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "👋 ¡Hola!",
		Description: "Usa comandos **slash (/)** para interactuar conmigo.\nEscribe `/utils help` para ver todos los comandos disponibles.",
		Color:       0x3498db,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "🔧 Moderación",
				Value:  "`/mod` - Advertencias, bans y casos",
				Inline: true,
			},
			{
				Name:   "📊 Trials",
				Value:  "`/mod warns` - Estado del trial de un usuario",
				Inline: true,
			},
		},
	}
}
