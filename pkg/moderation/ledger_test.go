package moderation_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PancyStudios/PancyTrials/pkg/database/memstore"
	"github.com/PancyStudios/PancyTrials/pkg/models"
	"github.com/PancyStudios/PancyTrials/pkg/moderation"
)

func TestRecordActionIssuesConsecutiveCases(t *testing.T) {
	ctx := context.Background()
	ledger := moderation.NewCaseLedger(memstore.New(), moderation.WithClock(clock))

	mute, err := ledger.RecordAction(ctx, "G", "U", "mod", models.ActionMute, "flood", 10*time.Minute)
	require.NoError(t, err)
	kick, err := ledger.RecordAction(ctx, "G", "V", "mod", models.ActionKick, "", 0)
	require.NoError(t, err)

	assert.Equal(t, int64(1), mute.CaseNumber)
	assert.Equal(t, int64(2), kick.CaseNumber)
	assert.Equal(t, 10*time.Minute, mute.Duration())
	assert.Equal(t, fixedNow.Unix(), mute.CreatedAt)

	got, err := ledger.ByCaseNumber(ctx, "G", 1)
	require.NoError(t, err)
	assert.Equal(t, "flood", got.Reason)
	assert.Equal(t, int64(600000), got.DurationMs)
}

func TestRecordActionRejectsUnknownKind(t *testing.T) {
	ledger := moderation.NewCaseLedger(memstore.New())
	_, err := ledger.RecordAction(context.Background(), "G", "U", "mod", models.ActionKind("nuke"), "", 0)
	assert.ErrorIs(t, err, moderation.ErrInvalidAction)
}

func TestByCaseNumberMissing(t *testing.T) {
	ledger := moderation.NewCaseLedger(memstore.New())
	_, err := ledger.ByCaseNumber(context.Background(), "G", 42)
	assert.ErrorIs(t, err, moderation.ErrCaseNotFound)
}

type failingAppendStore struct {
	*memstore.Store
	fail bool
}

func (s *failingAppendStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx moderation.Tx) error) error {
	return s.Store.WithTx(ctx, func(ctx context.Context, tx moderation.Tx) error {
		if s.fail {
			tx = failingAppendTx{tx}
		}
		return fn(ctx, tx)
	})
}

type failingAppendTx struct {
	moderation.Tx
}

func (failingAppendTx) AppendAction(context.Context, *models.ActionRecord) error {
	return errors.New("disk full")
}

func TestFailedAppendDoesNotConsumeCaseNumber(t *testing.T) {
	ctx := context.Background()
	store := &failingAppendStore{Store: memstore.New(), fail: true}
	ledger := moderation.NewCaseLedger(store)

	var notified int
	ledger.OnCase(func(context.Context, models.ActionRecord) { notified++ })

	_, err := ledger.RecordAction(ctx, "G", "U", "mod", models.ActionUnban, "", 0)
	require.Error(t, err)
	assert.Zero(t, notified)

	store.fail = false
	rec, err := ledger.RecordAction(ctx, "G", "U", "mod", models.ActionUnban, "", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.CaseNumber)
	assert.Equal(t, 1, notified)
}

func TestConcurrentCaseIssuance(t *testing.T) {
	ctx := context.Background()
	ledger := moderation.NewCaseLedger(memstore.New())

	const n = 50
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[int64]int)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec, err := ledger.RecordAction(ctx, "G", "U", "mod", models.ActionWarn, "", 0)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			seen[rec.CaseNumber]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, seen, n)
	for i := int64(1); i <= n; i++ {
		assert.Equal(t, 1, seen[i], "case %d", i)
	}
}

func TestCaseHooks(t *testing.T) {
	ctx := context.Background()
	ledger := moderation.NewCaseLedger(memstore.New())

	var got []int64
	ledger.OnCase(func(_ context.Context, rec models.ActionRecord) {
		got = append(got, rec.CaseNumber)
	})

	_, err := ledger.RecordAction(ctx, "G", "U", "mod", models.ActionKick, "", 0)
	require.NoError(t, err)
	_, err = ledger.RecordAction(ctx, "G", "U", "mod", models.ActionBan, "", 0)
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 2}, got)
}

func TestBotLedgerSharesCounter(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	ledger := moderation.NewCaseLedger(s)
	bots := moderation.NewBotActionLedger(ledger)
	engine := moderation.NewEngine(s, ledger)

	w, err := engine.ProcessWarning(ctx, "G", "human", "mod", "")
	require.NoError(t, err)
	bw, err := bots.Warn(ctx, "G", "bot", "mod", "raid")
	require.NoError(t, err)
	bb, err := bots.Ban(ctx, "G", "bot", "mod", "raid")
	require.NoError(t, err)
	_, err = ledger.RecordAction(ctx, "G", "bot", "mod", models.ActionKick, "", 0)
	require.NoError(t, err)

	assert.Equal(t, int64(1), w.CaseNumber)
	assert.Equal(t, int64(2), bw.CaseNumber)
	assert.Equal(t, int64(3), bb.CaseNumber)
	assert.Equal(t, models.ActionBotBan, bb.Action)

	hist, err := bots.History(ctx, "G", "bot")
	require.NoError(t, err)
	require.Len(t, hist, 2, "only bot kinds are listed")
	assert.Equal(t, models.ActionBotBan, hist[0].Action)
	assert.Equal(t, models.ActionBotWarn, hist[1].Action)
}
