package database

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/PancyStudios/PancyTrials/pkg/logger"
	"github.com/PancyStudios/PancyTrials/pkg/models"
	"github.com/PancyStudios/PancyTrials/pkg/moderation"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
)

// ErrIndexesPending is returned for writes until the unique indexes exist
var ErrIndexesPending = errors.New("moderation indexes not ensured yet")

const indexTimeout = 30 * time.Second

const (
	TrialsCollection   = "trials"
	ActionsCollection  = "actions"
	CountersCollection = "case_counters"
)

// ModerationStore implements moderation.Store on MongoDB.
// Transactions require a replica set or sharded cluster.
type ModerationStore struct {
	db       *Database
	trials   *DataManager[models.TrialRecord]
	actions  *DataManager[models.ActionRecord]
	counters *DataManager[models.CaseCounter]
	now      func() time.Time
	indexed  atomic.Bool
}

var _ moderation.Store = (*ModerationStore)(nil)

// GetStatus reports the Mongo connection state. A connected store whose
// indexes are still missing is reported as unavailable.
func (s *ModerationStore) GetStatus() (string, bool) {
	status, ok := s.db.GetStatus()
	if ok && !s.indexed.Load() {
		return "🟡 | Índices pendientes", false
	}
	return status, ok
}

// NewModerationStore creates the store over db. Its indexes are ensured
// on every connection db makes, so a store that starts offline becomes
// writable once the reconnect loop succeeds.
func NewModerationStore(db *Database) *ModerationStore {
	s := &ModerationStore{
		db:       db,
		trials:   NewDataManager[models.TrialRecord](TrialsCollection, db),
		actions:  NewDataManager[models.ActionRecord](ActionsCollection, db, DataManagerOptions{MaxCacheSize: 5000}),
		counters: NewDataManager[models.CaseCounter](CountersCollection, db),
		now:      time.Now,
	}
	db.OnConnect(s.ensureIndexesOnConnect)
	return s
}

func (s *ModerationStore) ensureIndexesOnConnect() {
	ctx, cancel := context.WithTimeout(context.Background(), indexTimeout)
	defer cancel()
	if err := s.EnsureIndexes(ctx); err != nil {
		logger.Critical(fmt.Sprintf("No se pudieron crear los índices de moderación, escrituras bloqueadas: %v", err), "DB")
	}
}

// Indexed reports whether EnsureIndexes has succeeded
func (s *ModerationStore) Indexed() bool {
	return s.indexed.Load()
}

func (s *ModerationStore) writable() error {
	if !s.indexed.Load() {
		return fmt.Errorf("%w: %w", moderation.ErrStoreUnavailable, ErrIndexesPending)
	}
	return nil
}

// EnsureIndexes creates the unique keys the store relies on. Writes are
// refused until it has succeeded once.
func (s *ModerationStore) EnsureIndexes(ctx context.Context) error {
	if err := s.trials.EnsureIndex(ctx, bson.D{{Key: "guildId", Value: 1}, {Key: "subjectId", Value: 1}}, true); err != nil {
		return fmt.Errorf("trials index: %w", err)
	}
	if err := s.actions.EnsureIndex(ctx, bson.D{{Key: "guildId", Value: 1}, {Key: "caseNumber", Value: 1}}, true); err != nil {
		return fmt.Errorf("actions case index: %w", err)
	}
	if err := s.actions.EnsureIndex(ctx, bson.D{{Key: "guildId", Value: 1}, {Key: "subjectId", Value: 1}, {Key: "caseNumber", Value: -1}}, false); err != nil {
		return fmt.Errorf("actions history index: %w", err)
	}
	if err := s.counters.EnsureIndex(ctx, bson.D{{Key: "guildId", Value: 1}}, true); err != nil {
		return fmt.Errorf("counters index: %w", err)
	}
	s.actions.PrimeCache()
	s.indexed.Store(true)
	logger.Success("Índices de moderación verificados", "DB")
	return nil
}

// WithTx runs fn inside a MongoDB transaction. The driver may retry fn on transient errors.
func (s *ModerationStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx moderation.Tx) error) error {
	if err := s.writable(); err != nil {
		return err
	}
	client := s.db.Client()
	if client == nil || !s.db.Connected() {
		return moderation.ErrStoreUnavailable
	}

	sess, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("%w: %v", moderation.ErrStoreUnavailable, err)
	}
	defer sess.EndSession(ctx)

	// Snapshot reads keep a trial and its history at the same point in time
	txOpts := options.Transaction().SetReadConcern(readconcern.Snapshot())
	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc, mongoTx{s})
	}, txOpts)
	return err
}

func (s *ModerationStore) wrap(err error) error {
	if errors.Is(err, ErrNotConnected) {
		return fmt.Errorf("%w: %v", moderation.ErrStoreUnavailable, err)
	}
	return err
}

func (s *ModerationStore) GetTrial(ctx context.Context, guildID, subjectID string) (*models.TrialRecord, error) {
	rec, err := s.trials.Find(ctx, bson.M{"guildId": guildID, "subjectId": subjectID})
	if err != nil {
		return nil, s.wrap(err)
	}
	if rec == nil {
		return models.NewTrialRecord(guildID, subjectID), nil
	}
	return rec, nil
}

// UpsertTrial keeps the caller's UpdatedAt and only stamps it when unset
func (s *ModerationStore) UpsertTrial(ctx context.Context, rec *models.TrialRecord) error {
	if err := s.writable(); err != nil {
		return err
	}
	now := s.now().Unix()
	if rec.UpdatedAt == 0 {
		rec.UpdatedAt = now
	}

	if rec.Version == 0 {
		if rec.CreatedAt == 0 {
			rec.CreatedAt = rec.UpdatedAt
		}
		doc := *rec
		doc.Version = 1
		if err := s.trials.Insert(ctx, &doc); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return moderation.ErrTrialConflict
			}
			return s.wrap(err)
		}
		rec.Version = 1
		return nil
	}

	res, err := s.trials.Update(ctx,
		bson.M{"guildId": rec.GuildID, "subjectId": rec.SubjectID, "version": rec.Version},
		bson.M{"$set": bson.M{
			"trialStage":    rec.TrialStage,
			"warnCount":     rec.WarnCount,
			"banAppealDate": rec.BanAppealDate,
			"updatedAt":     rec.UpdatedAt,
			"version":       rec.Version + 1,
		}},
	)
	if err != nil {
		return s.wrap(err)
	}
	if res.MatchedCount == 0 {
		return moderation.ErrTrialConflict
	}
	rec.Version++
	return nil
}

func (s *ModerationStore) ClearWarnings(ctx context.Context, guildID, subjectID string) error {
	if err := s.writable(); err != nil {
		return err
	}
	_, err := s.trials.Update(ctx,
		bson.M{"guildId": guildID, "subjectId": subjectID},
		bson.M{
			"$set": bson.M{"warnCount": 0, "updatedAt": s.now().Unix()},
			"$inc": bson.M{"version": 1},
		},
	)
	return s.wrap(err)
}

func (s *ModerationStore) NextCaseNumber(ctx context.Context, guildID string) (int64, error) {
	if err := s.writable(); err != nil {
		return 0, err
	}
	counter, err := s.counters.Modify(ctx,
		bson.M{"guildId": guildID},
		bson.M{"$inc": bson.M{"lastCaseNumber": 1}},
	)
	if err != nil {
		return 0, s.wrap(err)
	}
	return counter.LastCaseNumber, nil
}

// AppendAction inserts rec. MongoDB has no autoincrement, so ID mirrors the case number.
func (s *ModerationStore) AppendAction(ctx context.Context, rec *models.ActionRecord) error {
	if err := s.writable(); err != nil {
		return err
	}
	if err := s.actions.Insert(ctx, rec); err != nil {
		return s.wrap(err)
	}
	rec.ID = rec.CaseNumber
	return nil
}

func (s *ModerationStore) History(ctx context.Context, guildID, subjectID string) ([]*models.ActionRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "caseNumber", Value: -1}})
	recs, err := s.actions.GetAll(ctx, bson.M{"guildId": guildID, "subjectId": subjectID}, opts)
	if err != nil {
		return nil, s.wrap(err)
	}
	for _, rec := range recs {
		rec.ID = rec.CaseNumber
	}
	return recs, nil
}

// ByCaseNumber reads through the cache; ledger entries never change once committed
func (s *ModerationStore) ByCaseNumber(ctx context.Context, guildID string, caseNumber int64) (*models.ActionRecord, error) {
	return s.byCase(ctx, guildID, caseNumber, s.actions.Get)
}

func (s *ModerationStore) byCase(ctx context.Context, guildID string, caseNumber int64, read func(context.Context, bson.M) (*models.ActionRecord, error)) (*models.ActionRecord, error) {
	rec, err := read(ctx, bson.M{"guildId": guildID, "caseNumber": caseNumber})
	if err != nil {
		return nil, s.wrap(err)
	}
	if rec == nil {
		return nil, moderation.ErrCaseNotFound
	}
	out := *rec
	out.ID = out.CaseNumber
	return &out, nil
}

// mongoTx bypasses the action cache so uncommitted entries are never cached
type mongoTx struct {
	*ModerationStore
}

func (t mongoTx) ByCaseNumber(ctx context.Context, guildID string, caseNumber int64) (*models.ActionRecord, error) {
	return t.byCase(ctx, guildID, caseNumber, t.actions.Find)
}
