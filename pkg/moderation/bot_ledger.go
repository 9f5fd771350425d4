package moderation

import (
	"context"

	"github.com/PancyStudios/PancyTrials/pkg/models"
)

// BotActionLedger records actions taken against automated accounts.
// It writes through a CaseLedger so bot and human cases share one sequence per guild.
type BotActionLedger struct {
	ledger *CaseLedger
}

func NewBotActionLedger(ledger *CaseLedger) *BotActionLedger {
	return &BotActionLedger{ledger: ledger}
}

// Warn records a bot_warn case
func (b *BotActionLedger) Warn(ctx context.Context, guildID, botID, actorID, reason string) (*models.ActionRecord, error) {
	return b.ledger.RecordAction(ctx, guildID, botID, actorID, models.ActionBotWarn, reason, 0)
}

// Ban records a bot_ban case
func (b *BotActionLedger) Ban(ctx context.Context, guildID, botID, actorID, reason string) (*models.ActionRecord, error) {
	return b.ledger.RecordAction(ctx, guildID, botID, actorID, models.ActionBotBan, reason, 0)
}

// History returns the bot entries for botID, newest first
func (b *BotActionLedger) History(ctx context.Context, guildID, botID string) ([]*models.ActionRecord, error) {
	all, err := b.ledger.History(ctx, guildID, botID)
	if err != nil {
		return nil, err
	}
	out := make([]*models.ActionRecord, 0, len(all))
	for _, rec := range all {
		if rec.Action.IsBot() {
			out = append(out, rec)
		}
	}
	return out, nil
}
