package moderation

import (
	"context"

	"github.com/PancyStudios/PancyTrials/pkg/models"
)

// TrialStateStore persists trial records keyed by (guild, subject).
type TrialStateStore interface {
	// GetTrial returns the stored record or a default one (stage 1, no warnings, version 0).
	GetTrial(ctx context.Context, guildID, subjectID string) (*models.TrialRecord, error)
	// UpsertTrial writes rec if the stored version still equals rec.Version (0 = absent)
	// and increments rec.Version. A mismatch returns ErrTrialConflict.
	UpsertTrial(ctx context.Context, rec *models.TrialRecord) error
	// ClearWarnings resets the warning count, leaving stage and appeal date untouched.
	ClearWarnings(ctx context.Context, guildID, subjectID string) error
}

// ActionStore is the append-only ledger and its per-guild case counter.
type ActionStore interface {
	// NextCaseNumber atomically increments and returns the guild counter, starting at 1.
	// Called outside WithTx the number stays consumed even if no entry is appended.
	NextCaseNumber(ctx context.Context, guildID string) (int64, error)
	// AppendAction writes rec and assigns its ID.
	AppendAction(ctx context.Context, rec *models.ActionRecord) error
	// History returns every entry for the subject, newest first.
	History(ctx context.Context, guildID, subjectID string) ([]*models.ActionRecord, error)
	// ByCaseNumber returns ErrCaseNotFound when no entry carries caseNumber.
	ByCaseNumber(ctx context.Context, guildID string, caseNumber int64) (*models.ActionRecord, error)
}

// Tx is the view of a store inside a transaction.
type Tx interface {
	TrialStateStore
	ActionStore
}

// Store is a transactional moderation backend.
type Store interface {
	Tx
	// WithTx runs fn atomically. fn must use the ctx and tx it is handed; if it returns
	// an error nothing it wrote is kept. Backends may invoke fn more than once.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
