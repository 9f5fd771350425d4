package moderation_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PancyStudios/PancyTrials/pkg/database/memstore"
	"github.com/PancyStudios/PancyTrials/pkg/models"
	"github.com/PancyStudios/PancyTrials/pkg/moderation"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

type fixture struct {
	store  *memstore.Store
	ledger *moderation.CaseLedger
	engine *moderation.Engine
	stats  *moderation.StatsProjector
}

func newFixture() *fixture {
	s := memstore.New()
	ledger := moderation.NewCaseLedger(s, moderation.WithClock(clock))
	return &fixture{
		store:  s,
		ledger: ledger,
		engine: moderation.NewEngine(s, ledger, moderation.WithClock(clock)),
		stats:  moderation.NewStatsProjector(s, moderation.WithClock(clock)),
	}
}

func (f *fixture) warn(t *testing.T, guild, subject string) *moderation.WarnResult {
	t.Helper()
	res, err := f.engine.ProcessWarning(context.Background(), guild, subject, "mod", "spam")
	require.NoError(t, err)
	return res
}

// warnUntilBan warns until the current stage is completed and returns the ban result
func (f *fixture) warnUntilBan(t *testing.T, guild, subject string) *moderation.WarnResult {
	t.Helper()
	for i := 0; i < 10; i++ {
		res := f.warn(t, guild, subject)
		if res.Banned {
			return res
		}
	}
	t.Fatalf("no ban after 10 warnings")
	return nil
}

func TestFirstTrialScenario(t *testing.T) {
	f := newFixture()

	for i := 1; i <= 4; i++ {
		res := f.warn(t, "G", "U")
		assert.False(t, res.Banned)
		assert.Equal(t, i, res.WarnCount)
		assert.Equal(t, 1, res.TrialStage)
		assert.Equal(t, 1, res.NextStage)
		assert.Nil(t, res.AppealDate)
		assert.Zero(t, res.BanCaseNumber)
	}

	res := f.warn(t, "G", "U")
	assert.True(t, res.Banned)
	assert.Equal(t, 5, res.WarnCount)
	assert.Equal(t, 1, res.TrialStage)
	assert.Equal(t, 2, res.NextStage)
	require.NotNil(t, res.AppealDate)
	assert.WithinDuration(t, fixedNow.Add(7*24*time.Hour), *res.AppealDate, time.Second)
	assert.Equal(t, int64(5), res.CaseNumber)
	assert.Equal(t, int64(6), res.BanCaseNumber)

	trial, err := f.engine.Trial(context.Background(), "G", "U")
	require.NoError(t, err)
	assert.Equal(t, 2, trial.TrialStage)
	assert.Equal(t, 0, trial.WarnCount)
	require.NotNil(t, trial.AppealTime())
	assert.Equal(t, fixedNow.Add(7*24*time.Hour).Unix(), trial.AppealTime().Unix())
}

func TestStageThresholds(t *testing.T) {
	f := newFixture()

	cases := []struct {
		stage      int
		maxWarns   int
		appealDays int
	}{
		{1, 5, 7},
		{2, 4, 14},
		{3, 3, 90},
	}
	for _, tc := range cases {
		for i := 1; i < tc.maxWarns; i++ {
			res := f.warn(t, "G", "U")
			require.False(t, res.Banned, "stage %d warn %d", tc.stage, i)
			require.Equal(t, i, res.WarnCount)
		}
		res := f.warn(t, "G", "U")
		require.True(t, res.Banned, "stage %d should ban at %d", tc.stage, tc.maxWarns)
		assert.Equal(t, tc.stage, res.TrialStage)
		assert.Equal(t, tc.stage+1, res.NextStage)
		require.NotNil(t, res.AppealDate)
		assert.Equal(t, fixedNow.Add(time.Duration(tc.appealDays)*24*time.Hour), *res.AppealDate)
	}
}

func TestGreatTrialIsPermanent(t *testing.T) {
	f := newFixture()
	for stage := 1; stage <= 3; stage++ {
		f.warnUntilBan(t, "G", "U")
	}

	for cycle := 0; cycle < 2; cycle++ {
		for i := 1; i <= 4; i++ {
			assert.False(t, f.warn(t, "G", "U").Banned)
		}
		res := f.warn(t, "G", "U")
		assert.True(t, res.Banned)
		assert.Equal(t, 4, res.TrialStage)
		assert.Equal(t, 4, res.NextStage)
		assert.Nil(t, res.AppealDate)
	}

	view, err := f.stats.GetUserStats(context.Background(), "G", "U")
	require.NoError(t, err)
	assert.True(t, view.IsPermanent)
	assert.False(t, view.CanAppeal)
	assert.Equal(t, "Great Trial", view.TrialName)
}

func TestCaseNumbersConsecutiveAcrossSubjects(t *testing.T) {
	f := newFixture()

	a := f.warn(t, "G", "A")
	b := f.warn(t, "G", "B")
	assert.Equal(t, int64(1), a.CaseNumber)
	assert.Equal(t, int64(2), b.CaseNumber)

	other := f.warn(t, "H", "A")
	assert.Equal(t, int64(1), other.CaseNumber, "counters are per guild")
}

func TestBanWritesWarnThenBan(t *testing.T) {
	f := newFixture()
	f.warnUntilBan(t, "G", "U")

	hist, err := f.ledger.History(context.Background(), "G", "U")
	require.NoError(t, err)
	require.Len(t, hist, 6)
	assert.Equal(t, models.ActionBan, hist[0].Action)
	assert.Equal(t, "First Trial completed", hist[0].Reason)
	assert.Equal(t, models.ActionWarn, hist[1].Action)
	assert.Equal(t, "spam", hist[1].Reason)
	assert.Equal(t, fixedNow.Unix(), hist[0].CreatedAt)
}

func TestConcurrentWarningsAreNotLost(t *testing.T) {
	f := newFixture()
	const workers = 4

	var wg sync.WaitGroup
	results := make(chan *moderation.WarnResult, workers*2)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for _, subject := range []string{"same", fmt.Sprintf("s%d", w)} {
				res, err := f.engine.ProcessWarning(context.Background(), "G", subject, "mod", "")
				if assert.NoError(t, err) {
					results <- res
				}
			}
		}(w)
	}
	wg.Wait()
	close(results)

	seen := make(map[int64]bool)
	for res := range results {
		assert.False(t, seen[res.CaseNumber], "duplicate case %d", res.CaseNumber)
		seen[res.CaseNumber] = true
	}
	for n := int64(1); n <= workers*2; n++ {
		assert.True(t, seen[n], "case %d missing", n)
	}

	trial, err := f.engine.Trial(context.Background(), "G", "same")
	require.NoError(t, err)
	assert.Equal(t, workers, trial.WarnCount)
}

func TestClearUserWarnings(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.warnUntilBan(t, "G", "U")
	f.warn(t, "G", "U")
	f.warn(t, "G", "U")

	require.NoError(t, f.engine.ClearUserWarnings(ctx, "G", "U"))

	trial, err := f.engine.Trial(ctx, "G", "U")
	require.NoError(t, err)
	assert.Equal(t, 0, trial.WarnCount)
	assert.Equal(t, 2, trial.TrialStage)
	require.NotNil(t, trial.BanAppealDate)
	assert.Equal(t, fixedNow.Add(7*24*time.Hour).Unix(), *trial.BanAppealDate)

	hist, err := f.ledger.History(ctx, "G", "U")
	require.NoError(t, err)
	assert.Len(t, hist, 8, "clearing warnings keeps the ledger")
}

func TestNonBanCarriesAppealDate(t *testing.T) {
	f := newFixture()
	ban := f.warnUntilBan(t, "G", "U")

	res := f.warn(t, "G", "U")
	assert.False(t, res.Banned)
	assert.Nil(t, res.AppealDate)

	trial, err := f.engine.Trial(context.Background(), "G", "U")
	require.NoError(t, err)
	require.NotNil(t, trial.AppealTime())
	assert.Equal(t, ban.AppealDate.Unix(), trial.AppealTime().Unix())
}

type failingStore struct {
	*memstore.Store
	err error
}

func (s failingStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx moderation.Tx) error) error {
	return s.Store.WithTx(ctx, func(ctx context.Context, tx moderation.Tx) error {
		if err := fn(ctx, tx); err != nil {
			return err
		}
		return s.err
	})
}

func TestProcessWarningStoreFailure(t *testing.T) {
	s := memstore.New()
	boom := errors.New("connection reset")
	store := failingStore{Store: s, err: boom}
	ledger := moderation.NewCaseLedger(store)
	engine := moderation.NewEngine(store, ledger)

	var hooked int
	ledger.OnCase(func(context.Context, models.ActionRecord) { hooked++ })

	_, err := engine.ProcessWarning(context.Background(), "G", "U", "mod", "x")
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, hooked, "hooks only run after commit")

	n, err := s.NextCaseNumber(context.Background(), "G")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "no case number leaks from a failed warning")
}

func TestInvalidStagePanics(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.store.UpsertTrial(ctx, &models.TrialRecord{GuildID: "G", SubjectID: "U", TrialStage: 9}))

	assert.PanicsWithError(t, "moderation: invalid trial stage 9", func() {
		_, _ = f.engine.ProcessWarning(ctx, "G", "U", "mod", "")
	})
}
