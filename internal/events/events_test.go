package events

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/PancyTrials/pkg/models"
	"github.com/PancyStudios/PancyTrials/pkg/moderation"
)

func TestReturningMemberEmbedCleanRecord(t *testing.T) {
	view := &moderation.StatsView{TrialStage: 1, TrialName: "First Trial", MaxWarns: 5}
	if got := returningMemberEmbed(&discordgo.User{ID: "1"}, view); got != nil {
		t.Errorf("returningMemberEmbed() = %v, want nil", got)
	}
}

func TestReturningMemberEmbed(t *testing.T) {
	appeal := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name       string
		view       *moderation.StatsView
		wantAppeal string
		wantFields int
	}{
		{
			name: "pending appeal",
			view: &moderation.StatsView{
				TrialStage: 2, TrialName: "Second Trial", MaxWarns: 4,
				BanAppealDate: &appeal, TotalActions: 6,
				History: []*models.ActionRecord{{CaseNumber: 6, Action: models.ActionBan, CreatedAt: 1}},
			},
			wantAppeal: "<t:1710460800:R>",
			wantFields: 5,
		},
		{
			name:       "permanent",
			view:       &moderation.StatsView{TrialStage: 4, TrialName: "Great Trial", MaxWarns: 5, IsPermanent: true, TotalActions: 20},
			wantAppeal: "Permanente (Great Trial)",
			wantFields: 4,
		},
		{
			name:       "warnings only",
			view:       &moderation.StatsView{TrialStage: 1, TrialName: "First Trial", MaxWarns: 5, WarnCount: 2, TotalActions: 2},
			wantAppeal: "Sin ban pendiente",
			wantFields: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			embed := returningMemberEmbed(&discordgo.User{ID: "42"}, tt.view)
			if embed == nil {
				t.Fatal("returningMemberEmbed() = nil")
			}
			if len(embed.Fields) != tt.wantFields {
				t.Fatalf("Fields length = %v, want %v", len(embed.Fields), tt.wantFields)
			}
			if embed.Fields[2].Value != tt.wantAppeal {
				t.Errorf("appeal field = %v, want %v", embed.Fields[2].Value, tt.wantAppeal)
			}
		})
	}
}

func TestMentions(t *testing.T) {
	m := &discordgo.Message{Mentions: []*discordgo.User{{ID: "a"}, {ID: "bot"}}}
	if !mentions(m, "bot") {
		t.Error("mentions() = false, want true")
	}
	if mentions(m, "other") {
		t.Error("mentions() = true, want false")
	}
}

func TestParseWebhookURL(t *testing.T) {
	tests := []struct {
		raw       string
		wantID    string
		wantToken string
		wantOK    bool
	}{
		{"https://discord.com/api/webhooks/123/abc", "123", "abc", true},
		{"https://discord.com/api/v10/webhooks/123/abc/", "123", "abc", true},
		{"https://discord.com/api/webhooks/123", "", "", false},
		{"not a url", "", "", false},
		{"", "", "", false},
	}

	for _, tt := range tests {
		id, token, ok := parseWebhookURL(tt.raw)
		if id != tt.wantID || token != tt.wantToken || ok != tt.wantOK {
			t.Errorf("parseWebhookURL(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tt.raw, id, token, ok, tt.wantID, tt.wantToken, tt.wantOK)
		}
	}
}

func TestGuildNoticeEmbed(t *testing.T) {
	embed := guildNoticeEmbed("➕ Nuevo servidor", &discordgo.Guild{ID: "9", MemberCount: 12}, 0x00ff00)
	if embed.Fields[0].Value != "Desconocido" {
		t.Errorf("name field = %v, want Desconocido", embed.Fields[0].Value)
	}
	if embed.Fields[2].Value != "12" {
		t.Errorf("members field = %v, want 12", embed.Fields[2].Value)
	}
}

type stubStats struct {
	views map[string]*moderation.StatsView
	calls []string
}

func (s *stubStats) GetUserStats(_ context.Context, guildID, subjectID string) (*moderation.StatsView, error) {
	s.calls = append(s.calls, guildID)
	if v, ok := s.views[guildID+"/"+subjectID]; ok {
		return v, nil
	}
	return &moderation.StatsView{TrialStage: moderation.StageFirst, TrialName: "First Trial", MaxWarns: 5}, nil
}

func TestReturningMemberNoticeRoutesByGuild(t *testing.T) {
	record := &moderation.StatsView{TrialStage: 2, TrialName: "Second Trial", WarnCount: 1, MaxWarns: 4, TotalActions: 6}
	stats := &stubStats{views: map[string]*moderation.StatsView{
		"guildA/u": record,
		"guildB/u": record,
	}}
	deps := Deps{Stats: stats, ModLogChannels: map[string]string{"guildA": "logA"}}
	user := &discordgo.User{ID: "u"}

	channelID, embed, err := returningMemberNotice(context.Background(), deps, "guildA", user)
	if err != nil {
		t.Fatalf("returningMemberNotice() error = %v", err)
	}
	if channelID != "logA" || embed == nil {
		t.Errorf("returningMemberNotice(guildA) = %q, %v, want logA and an embed", channelID, embed)
	}

	// guildB has a record too but no channel of its own
	channelID, embed, err = returningMemberNotice(context.Background(), deps, "guildB", user)
	if err != nil || channelID != "" || embed != nil {
		t.Errorf("returningMemberNotice(guildB) = %q, %v, %v, want nothing", channelID, embed, err)
	}
	if len(stats.calls) != 1 {
		t.Errorf("GetUserStats calls = %v, want only guildA", stats.calls)
	}
}

func TestReturningMemberNoticeSkipsBots(t *testing.T) {
	deps := Deps{Stats: &stubStats{}, ModLogChannels: map[string]string{"g": "log"}}
	_, embed, err := returningMemberNotice(context.Background(), deps, "g", &discordgo.User{ID: "b", Bot: true})
	if err != nil || embed != nil {
		t.Errorf("returningMemberNotice(bot) = %v, %v, want nil", embed, err)
	}
}
