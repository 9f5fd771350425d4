// Package memstore is an in-process moderation.Store used by tests and the "memory" driver.
package memstore

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/PancyStudios/PancyTrials/pkg/models"
	"github.com/PancyStudios/PancyTrials/pkg/moderation"
)

var errDuplicateCase = errors.New("memstore: case number already recorded")

type trialKey struct {
	guild, subject string
}

type caseKey struct {
	guild string
	n     int64
}

// Store keeps all state in maps guarded by a single mutex.
// Transactions hold the mutex for their whole duration, so every key is serialized.
type Store struct {
	mu       sync.Mutex
	trials   map[trialKey]models.TrialRecord
	counters map[string]int64
	actions  []models.ActionRecord
	byCase   map[caseKey]int
	nextID   int64
	now      func() time.Time
}

var _ moderation.Store = (*Store)(nil)

// Option configures a Store
type Option func(*Store)

// WithClock sets the clock used for timestamps the caller leaves unset
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(opts ...Option) *Store {
	s := &Store{
		trials:   make(map[trialKey]models.TrialRecord),
		counters: make(map[string]int64),
		byCase:   make(map[caseKey]int),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetStatus always reports online
func (s *Store) GetStatus() (string, bool) {
	return "🟡 | En memoria", true
}

// WithTx runs fn against a staging view that is merged only when fn succeeds
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx moderation.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{
		s:        s,
		trials:   make(map[trialKey]models.TrialRecord),
		counters: make(map[string]int64),
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

func (s *Store) GetTrial(ctx context.Context, guildID, subjectID string) (rec *models.TrialRecord, err error) {
	err = s.WithTx(ctx, func(ctx context.Context, tx moderation.Tx) error {
		rec, err = tx.GetTrial(ctx, guildID, subjectID)
		return err
	})
	return rec, err
}

func (s *Store) UpsertTrial(ctx context.Context, rec *models.TrialRecord) error {
	return s.WithTx(ctx, func(ctx context.Context, tx moderation.Tx) error {
		return tx.UpsertTrial(ctx, rec)
	})
}

func (s *Store) ClearWarnings(ctx context.Context, guildID, subjectID string) error {
	return s.WithTx(ctx, func(ctx context.Context, tx moderation.Tx) error {
		return tx.ClearWarnings(ctx, guildID, subjectID)
	})
}

func (s *Store) NextCaseNumber(ctx context.Context, guildID string) (n int64, err error) {
	err = s.WithTx(ctx, func(ctx context.Context, tx moderation.Tx) error {
		n, err = tx.NextCaseNumber(ctx, guildID)
		return err
	})
	return n, err
}

func (s *Store) AppendAction(ctx context.Context, rec *models.ActionRecord) error {
	return s.WithTx(ctx, func(ctx context.Context, tx moderation.Tx) error {
		return tx.AppendAction(ctx, rec)
	})
}

func (s *Store) History(ctx context.Context, guildID, subjectID string) (out []*models.ActionRecord, err error) {
	err = s.WithTx(ctx, func(ctx context.Context, tx moderation.Tx) error {
		out, err = tx.History(ctx, guildID, subjectID)
		return err
	})
	return out, err
}

func (s *Store) ByCaseNumber(ctx context.Context, guildID string, caseNumber int64) (rec *models.ActionRecord, err error) {
	err = s.WithTx(ctx, func(ctx context.Context, tx moderation.Tx) error {
		rec, err = tx.ByCaseNumber(ctx, guildID, caseNumber)
		return err
	})
	return rec, err
}

// memTx stages writes on top of the committed maps. The store mutex is held by WithTx.
type memTx struct {
	s        *Store
	trials   map[trialKey]models.TrialRecord
	counters map[string]int64
	actions  []models.ActionRecord
}

func (t *memTx) trial(k trialKey) (models.TrialRecord, bool) {
	if rec, ok := t.trials[k]; ok {
		return rec, true
	}
	rec, ok := t.s.trials[k]
	return rec, ok
}

func (t *memTx) GetTrial(_ context.Context, guildID, subjectID string) (*models.TrialRecord, error) {
	rec, ok := t.trial(trialKey{guildID, subjectID})
	if !ok {
		return models.NewTrialRecord(guildID, subjectID), nil
	}
	return &rec, nil
}

func (t *memTx) UpsertTrial(_ context.Context, rec *models.TrialRecord) error {
	k := trialKey{rec.GuildID, rec.SubjectID}
	cur, ok := t.trial(k)
	switch {
	case !ok && rec.Version != 0, ok && cur.Version != rec.Version:
		return moderation.ErrTrialConflict
	}
	if rec.UpdatedAt == 0 {
		rec.UpdatedAt = t.s.now().Unix()
	}
	if ok {
		rec.CreatedAt = cur.CreatedAt
	} else if rec.CreatedAt == 0 {
		rec.CreatedAt = rec.UpdatedAt
	}
	rec.Version++
	t.trials[k] = *rec
	return nil
}

func (t *memTx) ClearWarnings(_ context.Context, guildID, subjectID string) error {
	k := trialKey{guildID, subjectID}
	rec, ok := t.trial(k)
	if !ok {
		return nil
	}
	rec.WarnCount = 0
	rec.UpdatedAt = t.s.now().Unix()
	rec.Version++
	t.trials[k] = rec
	return nil
}

func (t *memTx) NextCaseNumber(_ context.Context, guildID string) (int64, error) {
	n, ok := t.counters[guildID]
	if !ok {
		n = t.s.counters[guildID]
	}
	n++
	t.counters[guildID] = n
	return n, nil
}

func (t *memTx) AppendAction(_ context.Context, rec *models.ActionRecord) error {
	if _, dup := t.s.byCase[caseKey{rec.GuildID, rec.CaseNumber}]; dup {
		return errDuplicateCase
	}
	for _, staged := range t.actions {
		if staged.GuildID == rec.GuildID && staged.CaseNumber == rec.CaseNumber {
			return errDuplicateCase
		}
	}
	rec.ID = t.s.nextID + int64(len(t.actions)) + 1
	t.actions = append(t.actions, *rec)
	return nil
}

func (t *memTx) History(_ context.Context, guildID, subjectID string) ([]*models.ActionRecord, error) {
	var out []*models.ActionRecord
	collect := func(list []models.ActionRecord) {
		for i := range list {
			if list[i].GuildID == guildID && list[i].SubjectID == subjectID {
				rec := list[i]
				out = append(out, &rec)
			}
		}
	}
	collect(t.s.actions)
	collect(t.actions)

	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (t *memTx) ByCaseNumber(_ context.Context, guildID string, caseNumber int64) (*models.ActionRecord, error) {
	if idx, ok := t.s.byCase[caseKey{guildID, caseNumber}]; ok {
		rec := t.s.actions[idx]
		return &rec, nil
	}
	for _, rec := range t.actions {
		if rec.GuildID == guildID && rec.CaseNumber == caseNumber {
			return &rec, nil
		}
	}
	return nil, moderation.ErrCaseNotFound
}

func (t *memTx) commit() {
	for k, rec := range t.trials {
		t.s.trials[k] = rec
	}
	for g, n := range t.counters {
		t.s.counters[g] = n
	}
	for _, rec := range t.actions {
		t.s.byCase[caseKey{rec.GuildID, rec.CaseNumber}] = len(t.s.actions)
		t.s.actions = append(t.s.actions, rec)
		t.s.nextID = rec.ID
	}
}
