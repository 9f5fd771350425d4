package mod

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PancyStudios/PancyTrials/pkg/discord"
	"github.com/PancyStudios/PancyTrials/pkg/logger"
	"github.com/PancyStudios/PancyTrials/pkg/moderation"
	"github.com/bwmarrin/discordgo"
)

const (
	// commandTimeout bounds the store work of one command
	commandTimeout = 10 * time.Second
	// maxReasonLen is Discord's audit log reason limit
	maxReasonLen     = 512
	historyReasonLen = 100
	// maxTimeout is the longest communication timeout Discord accepts
	maxTimeout = 28 * 24 * time.Hour
)

func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), commandTimeout)
}

// normalizeReason trims the input and caps it at maxReasonLen runes.
// An empty result is stored as a missing reason.
func normalizeReason(reason string) string {
	return truncate(strings.TrimSpace(reason), maxReasonLen)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-1]) + "…"
}

// auditReason formats the reason shown in the guild audit log
func auditReason(actor *discordgo.User, caseNumber int64, reason string) string {
	return truncate(fmt.Sprintf("[#%d] %s: %s", caseNumber, actor.Username, displayReason(reason)), maxReasonLen)
}

// targetError returns a user facing message when subject cannot be acted on
func targetError(actor, subject, self *discordgo.User, allowBots bool) string {
	switch {
	case subject == nil:
		return "Debes especificar un usuario."
	case subject.ID == actor.ID:
		return "No puedes aplicarte esta acción a ti mismo."
	case self != nil && subject.ID == self.ID:
		return "No puedo aplicarme esta acción a mí mismo."
	case subject.Bot && !allowBots:
		return "Ese usuario es un bot. Usa `/mod botwarn` o `/mod botban`."
	case !subject.Bot && allowBots:
		return "Ese usuario no es un bot. Usa `/mod warn` o `/mod ban`."
	}
	return ""
}

func botUser(ctx *discord.CommandContext) *discordgo.User {
	if ctx.Session.State == nil {
		return nil
	}
	return ctx.Session.State.User
}

// replyError answers before the interaction was deferred
func replyError(ctx *discord.CommandContext, title, description string) error {
	return ctx.ReplyEphemeralEmbed(errorEmbed(title, description))
}

// editError answers after Defer
func editError(ctx *discord.CommandContext, title, description string) error {
	return ctx.EditReplyEmbed(errorEmbed(title, description))
}

// sendDM delivers embed to a user. Closed DMs are common, so failures
// are only logged at debug level.
func sendDM(s *discordgo.Session, userID string, embed *discordgo.MessageEmbed) bool {
	channel, err := s.UserChannelCreate(userID)
	if err != nil {
		logger.Debug(fmt.Sprintf("No se pudo abrir DM con %s: %v", userID, err), "Mod")
		return false
	}
	if _, err := s.ChannelMessageSendEmbed(channel.ID, embed); err != nil {
		logger.Debug(fmt.Sprintf("No se pudo enviar DM a %s (DMs cerrados)", userID), "Mod")
		return false
	}
	return true
}

func guildName(ctx *discord.CommandContext) string {
	if g := ctx.Guild(); g != nil {
		return g.Name
	}
	return "el servidor"
}

// parseModDuration validates moderator input such as "30m" against limit.
// A zero limit means unbounded.
func parseModDuration(text string, limit time.Duration) (time.Duration, string) {
	d, ok := moderation.ParseDuration(strings.TrimSpace(text))
	if !ok || d <= 0 {
		return 0, "Duración inválida. Usa un número seguido de s, m, h o d (por ejemplo `30m` o `7d`)."
	}
	if limit > 0 && d > limit {
		return 0, fmt.Sprintf("La duración máxima es %s.", moderation.FormatDuration(limit))
	}
	return d, ""
}
