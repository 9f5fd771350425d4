// Package events provides event handlers for member events
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/PancyStudios/PancyTrials/pkg/discord"
	"github.com/PancyStudios/PancyTrials/pkg/errors"
	"github.com/PancyStudios/PancyTrials/pkg/logger"
	"github.com/PancyStudios/PancyTrials/pkg/moderation"
	"github.com/bwmarrin/discordgo"
)

const lookupTimeout = 5 * time.Second

// RegisterMemberEvents registers all member-related event handlers
func RegisterMemberEvents(client *discord.ExtendedClient, deps Deps) {
	if deps.Stats == nil || len(deps.ModLogChannels) == 0 {
		logger.Debug("Canal de mod-log no configurado, aviso de reingreso desactivado", "Member")
		return
	}
	client.EventHandler.OnGuildMemberAdd(func(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
		onGuildMemberAdd(s, m, deps)
	})
}

// onGuildMemberAdd warns the guild's mod-log when a member with a trial record joins again
func onGuildMemberAdd(s *discordgo.Session, m *discordgo.GuildMemberAdd, deps Deps) {
	defer errors.RecoverMiddleware()()

	ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
	defer cancel()

	channelID, embed, err := returningMemberNotice(ctx, deps, m.GuildID, m.User)
	if err != nil {
		logger.Error(fmt.Sprintf("Error consultando trial de %s: %v", m.User.ID, err), "Member")
		return
	}
	if embed == nil {
		return
	}

	logger.Info(fmt.Sprintf("👋 Reingreso con antecedentes: %s en servidor %s", m.User.ID, m.GuildID), "Member")
	if _, err := s.ChannelMessageSendEmbed(channelID, embed); err != nil {
		logger.Error(fmt.Sprintf("Error enviando aviso de reingreso: %v", err), "Member")
	}
}

// returningMemberNotice picks the mod-log channel of guildID and builds the
// notice for user. A nil embed means nothing is posted.
func returningMemberNotice(ctx context.Context, deps Deps, guildID string, user *discordgo.User) (string, *discordgo.MessageEmbed, error) {
	if user == nil || user.Bot {
		return "", nil, nil
	}
	channelID, ok := deps.ModLogChannels[guildID]
	if !ok {
		return "", nil, nil
	}

	view, err := deps.Stats.GetUserStats(ctx, guildID, user.ID)
	if err != nil {
		return "", nil, err
	}
	return channelID, returningMemberEmbed(user, view), nil
}

// returningMemberEmbed returns nil for members with a clean record
func returningMemberEmbed(user *discordgo.User, view *moderation.StatsView) *discordgo.MessageEmbed {
	if view.TotalActions == 0 && view.WarnCount == 0 && view.TrialStage == moderation.StageFirst {
		return nil
	}

	appeal := "Sin ban pendiente"
	switch {
	case view.IsPermanent:
		appeal = "Permanente (Great Trial)"
	case view.BanAppealDate != nil:
		appeal = fmt.Sprintf("<t:%d:R>", view.BanAppealDate.Unix())
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: "⚖️ Trial", Value: view.TrialName, Inline: true},
		{Name: "⚠️ Advertencias", Value: fmt.Sprintf("%d/%d", view.WarnCount, view.MaxWarns), Inline: true},
		{Name: "📅 Apelación", Value: appeal, Inline: true},
		{Name: "📁 Casos registrados", Value: fmt.Sprintf("%d", view.TotalActions), Inline: true},
	}
	if len(view.History) > 0 {
		last := view.History[0]
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:  "🔖 Último caso",
			Value: fmt.Sprintf("#%d · %s · <t:%d:d>", last.CaseNumber, last.Action, last.CreatedAt),
		})
	}

	return &discordgo.MessageEmbed{
		Title:       "🔁 Miembro con antecedentes se ha unido",
		Description: fmt.Sprintf("<@%s> (`%s`)", user.ID, user.ID),
		Color:       0xFFA500,
		Fields:      fields,
		Thumbnail: &discordgo.MessageEmbedThumbnail{
			URL: user.AvatarURL("128"),
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}
}
