package mod

import (
	"fmt"
	"strings"
	"time"

	"github.com/PancyStudios/PancyTrials/pkg/models"
	"github.com/PancyStudios/PancyTrials/pkg/moderation"
	"github.com/bwmarrin/discordgo"
)

const (
	colorWarn    = 0xFFA500
	colorBan     = 0xE74C3C
	colorNeutral = 0x3498DB
	colorOK      = 0x00FF00
	colorError   = 0xFF0000

	footerText = "💫 - Developed by PancyStudios"
	noReason   = "Sin razón especificada"
)

var actionLabels = map[models.ActionKind]string{
	models.ActionWarn:    "⚠️ Advertencia",
	models.ActionMute:    "🔇 Silencio",
	models.ActionUnmute:  "🔊 Fin de silencio",
	models.ActionKick:    "👢 Expulsión",
	models.ActionBan:     "🔨 Ban",
	models.ActionUnban:   "🕊️ Desbaneo",
	models.ActionHackban: "🔨 Hackban",
	models.ActionTempban: "⏳ Ban temporal",
	models.ActionBotWarn: "🤖 Advertencia a bot",
	models.ActionBotBan:  "🤖 Ban a bot",
}

func actionLabel(kind models.ActionKind) string {
	if label, ok := actionLabels[kind]; ok {
		return label
	}
	return string(kind)
}

func displayReason(reason string) string {
	if reason == "" {
		return noReason
	}
	return reason
}

func appealText(at *time.Time, permanent bool) string {
	switch {
	case permanent:
		return "Permanente (Great Trial)"
	case at == nil:
		return "Sin ban pendiente"
	default:
		return fmt.Sprintf("<t:%d:F> (<t:%d:R>)", at.Unix(), at.Unix())
	}
}

// warnEmbed is the public reply to /mod warn
func warnEmbed(subject *discordgo.User, reason string, res *moderation.WarnResult) *discordgo.MessageEmbed {
	cfg := moderation.ConfigFor(res.TrialStage)

	if !res.Banned {
		return &discordgo.MessageEmbed{
			Title:       fmt.Sprintf("⚠️ %s ha sido advertido", subject.Username),
			Description: fmt.Sprintf("**Razón:** %s", displayReason(reason)),
			Color:       colorWarn,
			Fields: []*discordgo.MessageEmbedField{
				{Name: "📁 Caso", Value: fmt.Sprintf("#%d", res.CaseNumber), Inline: true},
				{Name: "⚖️ Trial", Value: cfg.Name, Inline: true},
				{Name: "⚠️ Advertencias", Value: fmt.Sprintf("%d/%d", res.WarnCount, cfg.MaxWarns), Inline: true},
			},
			Footer:    &discordgo.MessageEmbedFooter{Text: footerText},
			Timestamp: time.Now().Format(time.RFC3339),
		}
	}

	permanent := res.AppealDate == nil
	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("🔨 %s completó el %s", subject.Username, cfg.Name),
		Description: fmt.Sprintf("**Razón de la última advertencia:** %s", displayReason(reason)),
		Color:       colorBan,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "📁 Caso (advertencia)", Value: fmt.Sprintf("#%d", res.CaseNumber), Inline: true},
			{Name: "📁 Caso (ban)", Value: fmt.Sprintf("#%d", res.BanCaseNumber), Inline: true},
			{Name: "⚠️ Advertencias", Value: fmt.Sprintf("%d/%d", res.WarnCount, cfg.MaxWarns), Inline: true},
			{Name: "⚖️ Siguiente trial", Value: moderation.TrialName(res.NextStage), Inline: true},
			{Name: "📅 Apelación", Value: appealText(res.AppealDate, permanent), Inline: true},
		},
		Footer:    &discordgo.MessageEmbedFooter{Text: footerText},
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

// warnDMEmbed is sent to the subject before the reply
func warnDMEmbed(guildName, reason string, res *moderation.WarnResult) *discordgo.MessageEmbed {
	cfg := moderation.ConfigFor(res.TrialStage)
	if !res.Banned {
		return &discordgo.MessageEmbed{
			Title:       fmt.Sprintf("⚠️ Has recibido una advertencia en %s", guildName),
			Description: fmt.Sprintf("**Razón:** %s", displayReason(reason)),
			Color:       colorWarn,
			Fields: []*discordgo.MessageEmbedField{
				{Name: "⚖️ Trial", Value: cfg.Name, Inline: true},
				{Name: "⚠️ Advertencias", Value: fmt.Sprintf("%d/%d", res.WarnCount, cfg.MaxWarns), Inline: true},
				{Name: "⏳ Restantes antes del ban", Value: fmt.Sprintf("%d", max(cfg.MaxWarns-res.WarnCount, 0)), Inline: true},
			},
		}
	}
	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("🔨 Has sido baneado de %s", guildName),
		Description: fmt.Sprintf("Completaste el **%s**.\n**Razón de la última advertencia:** %s", cfg.Name, displayReason(reason)),
		Color:       colorBan,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "📅 Puedes apelar", Value: appealText(res.AppealDate, res.AppealDate == nil), Inline: false},
			{Name: "⚖️ Al volver estarás en", Value: moderation.TrialName(res.NextStage), Inline: false},
		},
	}
}

// caseEmbed renders one ledger entry, used by /mod case and the mod-log
func caseEmbed(rec *models.ActionRecord) *discordgo.MessageEmbed {
	color := colorNeutral
	switch rec.Action {
	case models.ActionWarn, models.ActionBotWarn, models.ActionMute:
		color = colorWarn
	case models.ActionBan, models.ActionHackban, models.ActionTempban, models.ActionBotBan, models.ActionKick:
		color = colorBan
	case models.ActionUnban, models.ActionUnmute:
		color = colorOK
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: "👤 Usuario", Value: fmt.Sprintf("<@%s> (`%s`)", rec.SubjectID, rec.SubjectID), Inline: true},
		{Name: "🛡️ Moderador", Value: fmt.Sprintf("<@%s>", rec.ActorID), Inline: true},
		{Name: "📝 Razón", Value: displayReason(rec.Reason), Inline: false},
	}
	if rec.DurationMs > 0 {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name: "⏱ Duración", Value: moderation.FormatDuration(rec.Duration()), Inline: true,
		})
	}

	return &discordgo.MessageEmbed{
		Title:     fmt.Sprintf("📁 Caso #%d · %s", rec.CaseNumber, actionLabel(rec.Action)),
		Color:     color,
		Fields:    fields,
		Footer:    &discordgo.MessageEmbedFooter{Text: footerText},
		Timestamp: time.Unix(rec.CreatedAt, 0).UTC().Format(time.RFC3339),
	}
}

// historyLine renders a ledger entry as one line of a list
func historyLine(rec *models.ActionRecord) string {
	line := fmt.Sprintf("> **#%d** %s · <t:%d:d> · %s", rec.CaseNumber, actionLabel(rec.Action), rec.CreatedAt, truncate(displayReason(rec.Reason), historyReasonLen))
	if rec.DurationMs > 0 {
		line += fmt.Sprintf(" (%s)", moderation.FormatDuration(rec.Duration()))
	}
	return line
}

func historyText(history []*models.ActionRecord) string {
	if len(history) == 0 {
		return "No se han encontrado casos del usuario en este servidor."
	}
	lines := make([]string, len(history))
	for i, rec := range history {
		lines[i] = historyLine(rec)
	}
	return strings.Join(lines, "\n")
}

// statsEmbed is the reply to /mod warns
func statsEmbed(subject *discordgo.User, view *moderation.StatsView) *discordgo.MessageEmbed {
	color := colorOK
	if view.WarnCount > 0 || view.TotalActions > 0 {
		color = colorWarn
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: "⚖️ Trial", Value: view.TrialName, Inline: true},
		{Name: "⚠️ Advertencias", Value: fmt.Sprintf("%d/%d", view.WarnCount, view.MaxWarns), Inline: true},
		{Name: "⏳ Restantes antes del ban", Value: fmt.Sprintf("%d", view.WarnsUntilBan), Inline: true},
		{Name: "📅 Apelación", Value: appealText(view.BanAppealDate, view.IsPermanent), Inline: true},
	}
	if view.BanAppealDate != nil && !view.IsPermanent {
		can := "No"
		if view.CanAppeal {
			can = "Sí"
		}
		fields = append(fields, &discordgo.MessageEmbedField{Name: "🕊️ Puede apelar", Value: can, Inline: true})
	}

	desc := historyText(view.History)
	if view.TotalActions > len(view.History) {
		desc += fmt.Sprintf("\n\n*Mostrando %d de %d casos.*", len(view.History), view.TotalActions)
	}

	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("🔖 - Estado de %s (%s)", subject.Username, subject.ID),
		Description: desc,
		Color:       color,
		Fields:      fields,
		Footer:      &discordgo.MessageEmbedFooter{Text: footerText},
		Timestamp:   time.Now().Format(time.RFC3339),
	}
}

// actionEmbed is the reply to the direct actions (ban, kick, mute...)
func actionEmbed(subject *discordgo.User, rec *models.ActionRecord, platformErr error) *discordgo.MessageEmbed {
	embed := caseEmbed(rec)
	embed.Title = fmt.Sprintf("%s · %s", actionLabel(rec.Action), subject.Username)
	embed.Fields = append([]*discordgo.MessageEmbedField{
		{Name: "📁 Caso", Value: fmt.Sprintf("#%d", rec.CaseNumber), Inline: true},
	}, embed.Fields...)
	if platformErr != nil {
		embed.Color = colorError
		embed.Description = fmt.Sprintf("⚠️ El caso quedó registrado, pero Discord rechazó la acción: `%v`", platformErr)
	}
	return embed
}

func errorEmbed(title, description string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "❌ " + title,
		Description: description,
		Color:       colorError,
		Timestamp:   time.Now().Format(time.RFC3339),
	}
}

// actionDMEmbed tells the subject about a direct action taken against them
func actionDMEmbed(guildName string, rec *models.ActionRecord) *discordgo.MessageEmbed {
	fields := []*discordgo.MessageEmbedField{
		{Name: "📝 Razón", Value: displayReason(rec.Reason), Inline: false},
		{Name: "📁 Caso", Value: fmt.Sprintf("#%d", rec.CaseNumber), Inline: true},
	}
	if rec.DurationMs > 0 {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name: "⏱ Duración", Value: moderation.FormatDuration(rec.Duration()), Inline: true,
		})
	}
	return &discordgo.MessageEmbed{
		Title:  fmt.Sprintf("%s en %s", actionLabel(rec.Action), guildName),
		Color:  colorBan,
		Fields: fields,
	}
}
