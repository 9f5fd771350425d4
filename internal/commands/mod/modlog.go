package mod

import (
	"context"
	"fmt"

	"github.com/PancyStudios/PancyTrials/pkg/logger"
	"github.com/PancyStudios/PancyTrials/pkg/models"
	"github.com/PancyStudios/PancyTrials/pkg/moderation"
	"github.com/bwmarrin/discordgo"
)

// EmbedSender is the part of the Discord session the mod-log needs
type EmbedSender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// ModLogHook posts each recorded case to the mod-log channel of the guild
// it belongs to. Cases from guilds missing in channels are not posted. It
// runs after the case is committed, so a failed post never affects the ledger.
func ModLogHook(s EmbedSender, channels map[string]string) moderation.CaseHook {
	return func(_ context.Context, rec models.ActionRecord) {
		channelID, ok := channels[rec.GuildID]
		if !ok {
			return
		}
		if _, err := s.ChannelMessageSendEmbed(channelID, caseEmbed(&rec)); err != nil {
			logger.Error(fmt.Sprintf("Error enviando caso #%d al mod-log: %v", rec.CaseNumber, err), "ModLog")
		}
	}
}
