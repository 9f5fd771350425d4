package moderation_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PancyStudios/PancyTrials/pkg/database/memstore"
	"github.com/PancyStudios/PancyTrials/pkg/models"
	"github.com/PancyStudios/PancyTrials/pkg/moderation"
)

func TestStatsFreshSubject(t *testing.T) {
	f := newFixture()
	view, err := f.stats.GetUserStats(context.Background(), "G", "U")
	require.NoError(t, err)

	assert.Equal(t, 1, view.TrialStage)
	assert.Equal(t, "First Trial", view.TrialName)
	assert.Equal(t, 5, view.MaxWarns)
	assert.Equal(t, 5, view.WarnsUntilBan)
	assert.False(t, view.CanAppeal)
	assert.False(t, view.IsPermanent)
	assert.Empty(t, view.History)
}

func TestStatsWarnsUntilBan(t *testing.T) {
	f := newFixture()
	for i := 0; i < 3; i++ {
		f.warn(t, "G", "U")
	}
	view, err := f.stats.GetUserStats(context.Background(), "G", "U")
	require.NoError(t, err)
	assert.Equal(t, 3, view.WarnCount)
	assert.Equal(t, 2, view.WarnsUntilBan)
	assert.Equal(t, 3, view.TotalActions)
}

func TestStatsClampsWarnsUntilBan(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()
	require.NoError(t, s.UpsertTrial(ctx, &models.TrialRecord{GuildID: "G", SubjectID: "U", TrialStage: 3, WarnCount: 7}))

	view, err := moderation.NewStatsProjector(s).GetUserStats(ctx, "G", "U")
	require.NoError(t, err)
	assert.Equal(t, 0, view.WarnsUntilBan)
}

func TestStatsCanAppeal(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.warnUntilBan(t, "G", "U")

	view, err := f.stats.GetUserStats(ctx, "G", "U")
	require.NoError(t, err)
	assert.False(t, view.CanAppeal, "appeal date is still in the future")
	require.NotNil(t, view.BanAppealDate)

	later := moderation.NewStatsProjector(f.store, moderation.WithClock(func() time.Time {
		return fixedNow.Add(7 * 24 * time.Hour)
	}))
	view, err = later.GetUserStats(ctx, "G", "U")
	require.NoError(t, err)
	assert.True(t, view.CanAppeal)
	assert.False(t, view.IsPermanent)
}

func TestStatsHistoryTruncated(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	for i := 0; i < 12; i++ {
		_, err := f.ledger.RecordAction(ctx, "G", "U", "mod", models.ActionMute, "", time.Minute)
		require.NoError(t, err)
	}

	view, err := f.stats.GetUserStats(ctx, "G", "U")
	require.NoError(t, err)
	assert.Len(t, view.History, moderation.HistoryDisplayLimit)
	assert.Equal(t, 12, view.TotalActions)
	assert.Equal(t, int64(12), view.History[0].CaseNumber)
}

func TestStatsDoesNotWrite(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.stats.GetUserStats(ctx, "G", "U")
	require.NoError(t, err)

	n, err := f.store.NextCaseNumber(ctx, "G")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	trial, err := f.store.GetTrial(ctx, "G", "U")
	require.NoError(t, err)
	assert.Zero(t, trial.Version, "projection must not persist a trial")
}

// txCountingStore counts reads made inside and outside transactions
type txCountingStore struct {
	*memstore.Store
	txs, direct atomic.Int32
}

func (s *txCountingStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx moderation.Tx) error) error {
	s.txs.Add(1)
	return s.Store.WithTx(ctx, fn)
}

func (s *txCountingStore) GetTrial(ctx context.Context, guildID, subjectID string) (*models.TrialRecord, error) {
	s.direct.Add(1)
	return s.Store.GetTrial(ctx, guildID, subjectID)
}

func (s *txCountingStore) History(ctx context.Context, guildID, subjectID string) ([]*models.ActionRecord, error) {
	s.direct.Add(1)
	return s.Store.History(ctx, guildID, subjectID)
}

func TestStatsReadsInOneTransaction(t *testing.T) {
	store := &txCountingStore{Store: memstore.New()}

	_, err := moderation.NewStatsProjector(store).GetUserStats(context.Background(), "G", "U")
	require.NoError(t, err)
	assert.Equal(t, int32(1), store.txs.Load())
	assert.Zero(t, store.direct.Load())
}

func TestStatsConsistentUnderConcurrentWarnings(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// Stage 1 bans at 5, so with 4 warnings every entry is a warn
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.engine.ProcessWarning(ctx, "G", "U", "mod", "spam")
			assert.NoError(t, err)
		}()
	}
	for i := 0; i < 50; i++ {
		view, err := f.stats.GetUserStats(ctx, "G", "U")
		require.NoError(t, err)
		require.Equal(t, view.WarnCount, view.TotalActions, "trial and history read at different points")
	}
	wg.Wait()

	view, err := f.stats.GetUserStats(ctx, "G", "U")
	require.NoError(t, err)
	assert.Equal(t, 4, view.WarnCount)
	assert.Equal(t, 4, view.TotalActions)
}
