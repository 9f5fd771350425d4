package mqtt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PancyStudios/PancyTrials/pkg/logger"
	"github.com/PancyStudios/PancyTrials/pkg/models"
	"github.com/PancyStudios/PancyTrials/pkg/moderation"
)

// StatsRequestTopic is answered with the StatsView of the requested user
const StatsRequestTopic = "moderation/stats"

// CaseTopic returns the topic where cases of guildID are published
func CaseTopic(guildID string) string {
	return fmt.Sprintf("pancy/moderation/%s/cases", guildID)
}

// CaseEvent is the payload published for every committed case
type CaseEvent struct {
	GuildID    string            `json:"guildId"`
	CaseNumber int64             `json:"caseNumber"`
	Action     models.ActionKind `json:"action"`
	SubjectID  string            `json:"subjectId"`
	ActorID    string            `json:"actorId"`
	Reason     string            `json:"reason,omitempty"`
	DurationMs int64             `json:"durationMs,omitempty"`
	CreatedAt  int64             `json:"createdAt"`
}

func newCaseEvent(rec models.ActionRecord) CaseEvent {
	return CaseEvent{
		GuildID:    rec.GuildID,
		CaseNumber: rec.CaseNumber,
		Action:     rec.Action,
		SubjectID:  rec.SubjectID,
		ActorID:    rec.ActorID,
		Reason:     rec.Reason,
		DurationMs: rec.DurationMs,
		CreatedAt:  rec.CreatedAt,
	}
}

// PublishCase publishes rec on its guild topic with QoS 1
func (mc *MqttCommunicator) PublishCase(rec models.ActionRecord) error {
	return mc.publish(CaseTopic(rec.GuildID), 1, newCaseEvent(rec))
}

// CaseHook returns a ledger hook that publishes every case.
// Publishing failures are logged; the case is already committed.
func (mc *MqttCommunicator) CaseHook() moderation.CaseHook {
	return func(_ context.Context, rec models.ActionRecord) {
		if err := mc.PublishCase(rec); err != nil {
			logger.Debug(fmt.Sprintf("Caso #%d no publicado: %v", rec.CaseNumber, err), "MQTT")
		}
	}
}

// StatsReader is the read side needed to answer stats requests
type StatsReader interface {
	GetUserStats(ctx context.Context, guildID, subjectID string) (*moderation.StatsView, error)
}

// StatsHandler answers requests carrying "guildId" and "userId"
func StatsHandler(stats StatsReader, timeout time.Duration) RequestHandler {
	return func(payload map[string]interface{}) (interface{}, error) {
		guildID, _ := payload["guildId"].(string)
		userID, _ := payload["userId"].(string)
		if guildID == "" || userID == "" {
			return nil, errors.New("guildId y userId son requeridos")
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return stats.GetUserStats(ctx, guildID, userID)
	}
}

// RegisterModerationHandlers subscribes the request handlers served by the bot
func (mc *MqttCommunicator) RegisterModerationHandlers(stats StatsReader) {
	mc.On(StatsRequestTopic, StatsHandler(stats, 5*time.Second))
}
