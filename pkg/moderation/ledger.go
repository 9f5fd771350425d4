package moderation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/PancyStudios/PancyTrials/pkg/logger"
	"github.com/PancyStudios/PancyTrials/pkg/metrics"
	"github.com/PancyStudios/PancyTrials/pkg/models"
)

// CaseHook is notified after a ledger entry has been committed
type CaseHook func(ctx context.Context, rec models.ActionRecord)

// CaseLedger issues guild-scoped case numbers and appends immutable action records.
// Human and bot subjects share the same counter.
type CaseLedger struct {
	store Store
	opts  options

	mu    sync.RWMutex
	hooks []CaseHook
}

// NewCaseLedger creates a ledger on top of store
func NewCaseLedger(store Store, opts ...Option) *CaseLedger {
	return &CaseLedger{
		store: store,
		opts:  buildOptions(opts),
	}
}

// OnCase registers a hook run for every committed entry
func (l *CaseLedger) OnCase(hook CaseHook) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hooks = append(l.hooks, hook)
}

func (l *CaseLedger) notify(ctx context.Context, recs ...*models.ActionRecord) {
	l.mu.RLock()
	hooks := l.hooks
	l.mu.RUnlock()

	for _, rec := range recs {
		metrics.CasesRecorded.WithLabelValues(string(rec.Action)).Inc()
		for _, hook := range hooks {
			hook(ctx, *rec)
		}
	}
}

// RecordAction issues a case number and appends the entry in a single transaction
func (l *CaseLedger) RecordAction(ctx context.Context, guildID, subjectID, actorID string, kind models.ActionKind, reason string, duration time.Duration) (*models.ActionRecord, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAction, kind)
	}

	var rec *models.ActionRecord
	err := l.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		rec, err = l.appendIn(ctx, tx, guildID, subjectID, actorID, kind, reason, duration)
		return err
	})
	if err != nil {
		metrics.StoreErrors.WithLabelValues("record").Inc()
		return nil, err
	}

	logger.Debug(fmt.Sprintf("Caso #%d (%s) registrado en %s", rec.CaseNumber, rec.Action, guildID), "CaseLedger")
	l.notify(ctx, rec)
	return rec, nil
}

// appendIn issues a case number and appends one entry through tx. It is
// the only place numbers are issued, so a number is never left without
// its entry once the transaction commits.
func (l *CaseLedger) appendIn(ctx context.Context, tx ActionStore, guildID, subjectID, actorID string, kind models.ActionKind, reason string, duration time.Duration) (*models.ActionRecord, error) {
	n, err := tx.NextCaseNumber(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("issue case number: %w", err)
	}

	rec := &models.ActionRecord{
		GuildID:    guildID,
		SubjectID:  subjectID,
		ActorID:    actorID,
		Action:     kind,
		Reason:     reason,
		CaseNumber: n,
		DurationMs: duration.Milliseconds(),
		CreatedAt:  l.opts.now().Unix(),
	}
	if err := tx.AppendAction(ctx, rec); err != nil {
		return nil, fmt.Errorf("append %s: %w", kind, err)
	}
	return rec, nil
}

// History returns every entry for the subject, newest first
func (l *CaseLedger) History(ctx context.Context, guildID, subjectID string) ([]*models.ActionRecord, error) {
	recs, err := l.store.History(ctx, guildID, subjectID)
	if err != nil {
		metrics.StoreErrors.WithLabelValues("history").Inc()
		return nil, fmt.Errorf("load history: %w", err)
	}
	return recs, nil
}

// ByCaseNumber looks up a single case. It returns ErrCaseNotFound when absent.
func (l *CaseLedger) ByCaseNumber(ctx context.Context, guildID string, caseNumber int64) (*models.ActionRecord, error) {
	rec, err := l.store.ByCaseNumber(ctx, guildID, caseNumber)
	if err != nil {
		return nil, fmt.Errorf("case #%d: %w", caseNumber, err)
	}
	return rec, nil
}
