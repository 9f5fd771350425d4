package mod

import (
	"fmt"
	"strconv"
	"time"

	"github.com/PancyStudios/PancyTrials/pkg/errors"
	"github.com/PancyStudios/PancyTrials/pkg/logger"
	"github.com/PancyStudios/PancyTrials/pkg/models"
	"github.com/PancyStudios/PancyTrials/pkg/moderation"
	"github.com/bwmarrin/discordgo"
)

// historyComponent prefixes the custom ID of the history page buttons:
// history:<guild>:<user>:<page>
const historyComponent = "history"

const historyPageSize = moderation.HistoryDisplayLimit

func pageCount(total int) int {
	if total <= historyPageSize {
		return 1
	}
	return (total + historyPageSize - 1) / historyPageSize
}

// pageSlice returns the entries of a 1-based page, clamping page into range
func pageSlice(history []*models.ActionRecord, page int) ([]*models.ActionRecord, int) {
	pages := pageCount(len(history))
	page = min(max(page, 1), pages)
	start := (page - 1) * historyPageSize
	end := min(start+historyPageSize, len(history))
	if start >= len(history) {
		return nil, page
	}
	return history[start:end], page
}

func pageCustomID(guildID, userID string, page int) string {
	return fmt.Sprintf("%s:%s:%s:%d", historyComponent, guildID, userID, page)
}

func pageButtons(guildID, userID string, page, pages int) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{
				Label:    "⬅ Anterior",
				Style:    discordgo.SecondaryButton,
				CustomID: pageCustomID(guildID, userID, page-1),
				Disabled: page <= 1,
			},
			discordgo.Button{
				Label:    fmt.Sprintf("%d/%d", page, pages),
				Style:    discordgo.SecondaryButton,
				CustomID: pageCustomID(guildID, userID, page) + ":noop",
				Disabled: true,
			},
			discordgo.Button{
				Label:    "Siguiente ➡",
				Style:    discordgo.PrimaryButton,
				CustomID: pageCustomID(guildID, userID, page+1),
				Disabled: page >= pages,
			},
		}},
	}
}

func historyPageEmbed(userID string, entries []*models.ActionRecord, page, pages, total int) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("📁 Casos de %s", userID),
		Description: historyText(entries) + fmt.Sprintf("\n\n*Página %d de %d · %d casos.*", page, pages, total),
		Color:       colorNeutral,
		Footer:      &discordgo.MessageEmbedFooter{Text: footerText},
		Timestamp:   time.Now().Format(time.RFC3339),
	}
}

// historyPageHandler answers the page buttons attached by /mod warns
func (h *handlers) historyPageHandler(s *discordgo.Session, i *discordgo.InteractionCreate, args []string) {
	defer errors.RecoverMiddleware()()

	if len(args) != 3 || i.Member == nil || args[0] != i.GuildID {
		return
	}
	userID := args[1]
	page, err := strconv.Atoi(args[2])
	if err != nil {
		return
	}

	if userID != i.Member.User.ID && !isModerator(i.Member) {
		respondComponent(s, i, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Embeds: []*discordgo.MessageEmbed{errorEmbed("Acceso Denegado", "No tienes permisos para ver el historial de otro usuario.")},
				Flags:  discordgo.MessageFlagsEphemeral,
			},
		})
		return
	}

	c, cancel := commandContext()
	defer cancel()

	history, err := h.svc.Ledger.History(c, i.GuildID, userID)
	if err != nil {
		logger.Error(fmt.Sprintf("Error consultando historial de %s: %v", userID, err), "CMD-Warns")
		return
	}

	entries, page := pageSlice(history, page)
	pages := pageCount(len(history))
	respondComponent(s, i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{historyPageEmbed(userID, entries, page, pages, len(history))},
			Components: pageButtons(i.GuildID, userID, page, pages),
		},
	})
}

func respondComponent(s *discordgo.Session, i *discordgo.InteractionCreate, resp *discordgo.InteractionResponse) {
	if err := s.InteractionRespond(i.Interaction, resp); err != nil {
		logger.Error(fmt.Sprintf("Error respondiendo componente: %v", err), "CMD-Warns")
	}
}
