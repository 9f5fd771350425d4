package moderation

import (
	"context"
	"fmt"
	"time"

	"github.com/PancyStudios/PancyTrials/pkg/logger"
	"github.com/PancyStudios/PancyTrials/pkg/metrics"
	"github.com/PancyStudios/PancyTrials/pkg/models"
)

// WarnResult describes the outcome of a single warning
type WarnResult struct {
	Banned     bool       `json:"banned"`
	TrialStage int        `json:"trialStage"` // stage the warning was applied against
	WarnCount  int        `json:"warnCount"`
	AppealDate *time.Time `json:"appealDate"`
	NextStage  int        `json:"nextStage"`
	CaseNumber int64      `json:"caseNumber"` // case of the warn itself

	// BanCaseNumber is the case issued for the automatic ban, 0 when no ban happened.
	BanCaseNumber int64 `json:"banCaseNumber,omitempty"`
}

// Engine applies warnings against trial state and records them in the case ledger
type Engine struct {
	store  Store
	ledger *CaseLedger
	locks  *keyLocks
	opts   options
	log    logger.Prefixed
}

// NewEngine creates an engine writing through store and ledger.
// Both must share the same backend so a warning commits in one transaction.
func NewEngine(store Store, ledger *CaseLedger, opts ...Option) *Engine {
	return &Engine{
		store:  store,
		ledger: ledger,
		locks:  newKeyLocks(),
		opts:   buildOptions(opts),
		log:    logger.WithPrefix("Trials"),
	}
}

// ProcessWarning records one warning issued by actorID against subjectID.
// When the warning reaches the stage threshold a ban entry is appended in the
// same transaction and the subject advances to the next stage. No platform
// action is taken here; the caller applies the ban after a successful return.
func (e *Engine) ProcessWarning(ctx context.Context, guildID, subjectID, actorID, reason string) (*WarnResult, error) {
	start := time.Now()
	defer func() {
		metrics.ProcessWarningDuration.Observe(time.Since(start).Seconds())
	}()

	unlock := e.locks.Lock(guildID + ":" + subjectID)
	defer unlock()

	var (
		res     *WarnResult
		written []*models.ActionRecord
	)
	err := e.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		res, written = nil, nil

		trial, err := tx.GetTrial(ctx, guildID, subjectID)
		if err != nil {
			return fmt.Errorf("load trial: %w", err)
		}

		cfg := ConfigFor(trial.TrialStage)
		newCount := trial.WarnCount + 1

		warn, err := e.ledger.appendIn(ctx, tx, guildID, subjectID, actorID, models.ActionWarn, reason, 0)
		if err != nil {
			return err
		}
		written = append(written, warn)

		now := e.opts.now()
		trial.UpdatedAt = now.Unix()
		if trial.CreatedAt == 0 {
			trial.CreatedAt = trial.UpdatedAt
		}

		if newCount < cfg.MaxWarns {
			trial.WarnCount = newCount
			if err := tx.UpsertTrial(ctx, trial); err != nil {
				return fmt.Errorf("save trial: %w", err)
			}
			res = &WarnResult{
				TrialStage: cfg.Stage,
				WarnCount:  newCount,
				NextStage:  cfg.Stage,
				CaseNumber: warn.CaseNumber,
			}
			return nil
		}

		ban, err := e.ledger.appendIn(ctx, tx, guildID, subjectID, actorID, models.ActionBan, cfg.Name+" completed", 0)
		if err != nil {
			return err
		}
		written = append(written, ban)

		appeal := cfg.AppealDate(now)
		next := NextStage(cfg.Stage)
		trial.TrialStage = next
		trial.WarnCount = 0
		trial.SetAppealTime(appeal)
		if err := tx.UpsertTrial(ctx, trial); err != nil {
			return fmt.Errorf("save trial: %w", err)
		}

		res = &WarnResult{
			Banned:        true,
			TrialStage:    cfg.Stage,
			WarnCount:     newCount,
			AppealDate:    appeal,
			NextStage:     next,
			CaseNumber:    warn.CaseNumber,
			BanCaseNumber: ban.CaseNumber,
		}
		return nil
	})
	if err != nil {
		e.log.Error(fmt.Sprintf("No se pudo procesar la advertencia de %s en %s: %v", subjectID, guildID, err))
		metrics.StoreErrors.WithLabelValues("process_warning").Inc()
		metrics.WarningsProcessed.WithLabelValues("error").Inc()
		return nil, err
	}

	if res.Banned {
		metrics.WarningsProcessed.WithLabelValues("banned").Inc()
		metrics.ObserveTrialBan(res.TrialStage)
		e.log.Info(fmt.Sprintf("%s completó %s en %s (caso #%d)", subjectID, TrialName(res.TrialStage), guildID, res.BanCaseNumber))
	} else {
		metrics.WarningsProcessed.WithLabelValues("warned").Inc()
	}

	e.ledger.notify(ctx, written...)
	return res, nil
}

// ClearUserWarnings resets the warning count of a subject.
// Stage and appeal date are left untouched and the ledger keeps its history.
func (e *Engine) ClearUserWarnings(ctx context.Context, guildID, subjectID string) error {
	unlock := e.locks.Lock(guildID + ":" + subjectID)
	defer unlock()

	if err := e.store.ClearWarnings(ctx, guildID, subjectID); err != nil {
		metrics.StoreErrors.WithLabelValues("clear_warnings").Inc()
		return fmt.Errorf("clear warnings: %w", err)
	}
	return nil
}

// Trial returns the current trial state of a subject
func (e *Engine) Trial(ctx context.Context, guildID, subjectID string) (*models.TrialRecord, error) {
	trial, err := e.store.GetTrial(ctx, guildID, subjectID)
	if err != nil {
		return nil, fmt.Errorf("load trial: %w", err)
	}
	return trial, nil
}
