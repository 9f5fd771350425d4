package moderation

import (
	"context"
	"fmt"
	"time"

	"github.com/PancyStudios/PancyTrials/pkg/models"
)

// HistoryDisplayLimit caps the entries returned in a StatsView
const HistoryDisplayLimit = 10

// StatsView is the read-only summary of a subject shown to moderators
type StatsView struct {
	GuildID       string                 `json:"guildId"`
	SubjectID     string                 `json:"subjectId"`
	TrialStage    int                    `json:"trialStage"`
	TrialName     string                 `json:"trialName"`
	WarnCount     int                    `json:"warnCount"`
	MaxWarns      int                    `json:"maxWarns"`
	WarnsUntilBan int                    `json:"warnsUntilBan"`
	BanAppealDate *time.Time             `json:"banAppealDate"`
	CanAppeal     bool                   `json:"canAppeal"`
	IsPermanent   bool                   `json:"isPermanent"`
	History       []*models.ActionRecord `json:"history"`
	TotalActions  int                    `json:"totalActions"`
}

// StatsProjector derives StatsView values. It never writes to the store.
type StatsProjector struct {
	store Store
	opts  options
}

func NewStatsProjector(store Store, opts ...Option) *StatsProjector {
	return &StatsProjector{store: store, opts: buildOptions(opts)}
}

// GetUserStats builds the summary of subjectID in guildID. The trial and
// its history are read in one transaction so a concurrent warning shows
// up in both or in neither.
func (p *StatsProjector) GetUserStats(ctx context.Context, guildID, subjectID string) (*StatsView, error) {
	var (
		trial   *models.TrialRecord
		history []*models.ActionRecord
	)
	err := p.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		if trial, err = tx.GetTrial(ctx, guildID, subjectID); err != nil {
			return fmt.Errorf("load trial: %w", err)
		}
		if history, err = tx.History(ctx, guildID, subjectID); err != nil {
			return fmt.Errorf("load history: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	cfg := ConfigFor(trial.TrialStage)
	appeal := trial.AppealTime()

	view := &StatsView{
		GuildID:       guildID,
		SubjectID:     subjectID,
		TrialStage:    trial.TrialStage,
		TrialName:     cfg.Name,
		WarnCount:     trial.WarnCount,
		MaxWarns:      cfg.MaxWarns,
		WarnsUntilBan: max(cfg.MaxWarns-trial.WarnCount, 0),
		BanAppealDate: appeal,
		CanAppeal:     appeal != nil && !p.opts.now().Before(*appeal),
		IsPermanent:   trial.TrialStage == StageGreat && appeal == nil,
		TotalActions:  len(history),
	}
	if len(history) > HistoryDisplayLimit {
		history = history[:HistoryDisplayLimit]
	}
	view.History = history
	return view, nil
}
