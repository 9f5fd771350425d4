// Package events provides event handlers for guild (server) events
package events

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PancyStudios/PancyTrials/pkg/discord"
	"github.com/PancyStudios/PancyTrials/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

// RegisterGuildEvents registers all guild-related event handlers. Joins and
// leaves are also reported to webhookURL when it is a valid Discord webhook.
func RegisterGuildEvents(client *discord.ExtendedClient, webhookURL string) {
	client.EventHandler.OnGuildCreate(onGuildCreate)
	client.EventHandler.OnGuildDelete(onGuildDelete)

	if webhookURL == "" {
		return
	}
	id, token, ok := parseWebhookURL(webhookURL)
	if !ok {
		logger.Warn("guildsWebhook no es un webhook de Discord válido, se ignora", "Guild")
		return
	}
	notice := &guildNotifier{id: id, token: token}
	client.EventHandler.OnGuildCreate(notice.onJoin)
	client.EventHandler.OnGuildDelete(notice.onLeave)
}

// onGuildCreate is called when the bot joins a server. GuildCreate also
// fires for every known guild on connect, so older joins are skipped.
func onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	if g.JoinedAt.Before(time.Now().Add(-10 * time.Second)) {
		return
	}

	logger.Info(fmt.Sprintf("➕ Bot agregado a servidor: %s (ID: %s)", g.Name, g.ID), "Guild")
	logger.Debug(fmt.Sprintf("   Miembros: %d | Canales: %d", g.MemberCount, len(g.Channels)), "Guild")

	if g.SystemChannelID == "" {
		return
	}
	if _, err := s.ChannelMessageSendEmbed(g.SystemChannelID, welcomeEmbed()); err != nil {
		logger.Error(fmt.Sprintf("Error enviando mensaje de bienvenida: %v", err), "Guild")
	}
}

func welcomeEmbed() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "¡Gracias por agregarme! 🎉",
		Description: "Hola, soy **PancyTrials**. Llevo el sistema de trials de tu servidor: cada advertencia cuenta y al completar un trial se aplica un ban con fecha de apelación.",
		Color:       0x00ff00,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "⚠️ Advertencias",
				Value:  "`/mod warn` avanza el trial del usuario",
				Inline: true,
			},
			{
				Name:   "📁 Casos",
				Value:  "`/mod case` y `/mod warns` consultan el historial",
				Inline: true,
			},
			{
				Name:   "❓ Ayuda",
				Value:  "Usa `/utils help` para más información",
				Inline: true,
			},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: "💫 - Developed by PancyStudios",
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

// onGuildDelete is called when the bot is removed from a server
func onGuildDelete(s *discordgo.Session, g *discordgo.GuildDelete) {
	if g.Unavailable {
		logger.Warn(fmt.Sprintf("Servidor no disponible temporalmente: %s", g.ID), "Guild")
		return
	}
	logger.Info(fmt.Sprintf("➖ Bot removido del servidor ID: %s", g.ID), "Guild")
}

// parseWebhookURL extracts the ID and token of
// https://discord.com/api/webhooks/<id>/<token>
func parseWebhookURL(raw string) (id, token string, ok bool) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", "", false
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+2 < len(parts); i++ {
		if parts[i] == "webhooks" && parts[i+1] != "" && parts[i+2] != "" {
			return parts[i+1], parts[i+2], true
		}
	}
	return "", "", false
}

type guildNotifier struct {
	id, token string
}

func (n *guildNotifier) onJoin(s *discordgo.Session, g *discordgo.GuildCreate) {
	if g.JoinedAt.Before(time.Now().Add(-10 * time.Second)) {
		return
	}
	n.send(s, guildNoticeEmbed("➕ Nuevo servidor", g.Guild, 0x00ff00))
}

func (n *guildNotifier) onLeave(s *discordgo.Session, g *discordgo.GuildDelete) {
	if g.Unavailable {
		return
	}
	guild := g.BeforeDelete
	if guild == nil {
		guild = g.Guild
	}
	n.send(s, guildNoticeEmbed("➖ Servidor abandonado", guild, 0xff0000))
}

func (n *guildNotifier) send(s *discordgo.Session, embed *discordgo.MessageEmbed) {
	if _, err := s.WebhookExecute(n.id, n.token, false, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{embed},
	}); err != nil {
		logger.Error(fmt.Sprintf("Error enviando aviso de servidor: %v", err), "Guild")
	}
}

func guildNoticeEmbed(title string, g *discordgo.Guild, color int) *discordgo.MessageEmbed {
	name := g.Name
	if name == "" {
		name = "Desconocido"
	}
	return &discordgo.MessageEmbed{
		Title: title,
		Color: color,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Nombre", Value: name, Inline: true},
			{Name: "ID", Value: g.ID, Inline: true},
			{Name: "Miembros", Value: fmt.Sprintf("%d", g.MemberCount), Inline: true},
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}
}
