package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PancyStudios/PancyTrials/pkg/database/memstore"
	"github.com/PancyStudios/PancyTrials/pkg/models"
	"github.com/PancyStudios/PancyTrials/pkg/moderation"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type testAPI struct {
	server *Server
	engine *moderation.Engine
	ledger *moderation.CaseLedger
}

func newTestAPI(t *testing.T, metrics bool) *testAPI {
	t.Helper()
	clock := moderation.WithClock(func() time.Time { return testNow })
	store := memstore.New()
	ledger := moderation.NewCaseLedger(store, clock)

	s, err := NewServer(Options{})
	require.NoError(t, err)

	SetupAPIRoutes(s, API{
		Store:   store,
		Stats:   moderation.NewStatsProjector(store, clock),
		Cases:   ledger,
		Metrics: metrics,
	})

	return &testAPI{
		server: s,
		engine: moderation.NewEngine(store, ledger, clock),
		ledger: ledger,
	}
}

func (a *testAPI) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	a.server.Engine().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func TestHealthAndStatus(t *testing.T) {
	a := newTestAPI(t, false)

	w := a.get(t, "/api/health")
	assert.Equal(t, http.StatusOK, w.Code)

	w = a.get(t, "/api/status")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Database struct {
			IsOnline bool `json:"isOnline"`
		} `json:"database"`
		Bot struct {
			IsOnline bool `json:"isOnline"`
		} `json:"bot"`
	}
	decode(t, w, &body)
	assert.True(t, body.Database.IsOnline)
	assert.False(t, body.Bot.IsOnline)
}

func TestBotOfflineWithoutClient(t *testing.T) {
	a := newTestAPI(t, false)
	w := a.get(t, "/api/bot")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestUserStats(t *testing.T) {
	a := newTestAPI(t, false)
	for i := 0; i < 2; i++ {
		_, err := a.engine.ProcessWarning(context.Background(), "g1", "u1", "mod", "spam")
		require.NoError(t, err)
	}

	w := a.get(t, "/api/guilds/g1/users/u1/stats")
	require.Equal(t, http.StatusOK, w.Code)

	var view moderation.StatsView
	decode(t, w, &view)
	assert.Equal(t, 1, view.TrialStage)
	assert.Equal(t, "First Trial", view.TrialName)
	assert.Equal(t, 2, view.WarnCount)
	assert.Equal(t, 3, view.WarnsUntilBan)
	assert.Len(t, view.History, 2)
	assert.Nil(t, view.BanAppealDate)
}

func TestUserStatsFreshSubject(t *testing.T) {
	a := newTestAPI(t, false)

	w := a.get(t, "/api/guilds/g1/users/nobody/stats")
	require.Equal(t, http.StatusOK, w.Code)

	var view moderation.StatsView
	decode(t, w, &view)
	assert.Equal(t, 0, view.WarnCount)
	assert.Equal(t, 5, view.WarnsUntilBan)
	assert.Empty(t, view.History)
}

func TestUserHistoryLimit(t *testing.T) {
	a := newTestAPI(t, false)
	for i := 0; i < 4; i++ {
		_, err := a.ledger.RecordAction(context.Background(), "g1", "u1", "mod", models.ActionMute, fmt.Sprintf("m%d", i), time.Minute)
		require.NoError(t, err)
	}

	w := a.get(t, "/api/guilds/g1/users/u1/history?limit=2")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Total   int                    `json:"total"`
		Actions []*models.ActionRecord `json:"actions"`
	}
	decode(t, w, &body)
	assert.Equal(t, 4, body.Total)
	require.Len(t, body.Actions, 2)
	assert.Equal(t, int64(4), body.Actions[0].CaseNumber)
	assert.Equal(t, int64(60000), body.Actions[0].DurationMs)
}

func TestUserHistoryEmptyIsArray(t *testing.T) {
	a := newTestAPI(t, false)
	w := a.get(t, "/api/guilds/g1/users/u1/history")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"actions":[]`)
}

func TestUserHistoryBadLimit(t *testing.T) {
	a := newTestAPI(t, false)
	for _, q := range []string{"0", "-3", "abc"} {
		w := a.get(t, "/api/guilds/g1/users/u1/history?limit="+q)
		assert.Equal(t, http.StatusBadRequest, w.Code, "limit=%s", q)
	}
}

func TestCaseLookup(t *testing.T) {
	a := newTestAPI(t, false)
	rec, err := a.ledger.RecordAction(context.Background(), "g1", "u1", "mod", models.ActionKick, "raid", 0)
	require.NoError(t, err)

	w := a.get(t, fmt.Sprintf("/api/guilds/g1/cases/%d", rec.CaseNumber))
	require.Equal(t, http.StatusOK, w.Code)

	var got models.ActionRecord
	decode(t, w, &got)
	assert.Equal(t, models.ActionKick, got.Action)
	assert.Equal(t, "raid", got.Reason)

	w = a.get(t, "/api/guilds/g1/cases/99")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = a.get(t, "/api/guilds/other/cases/1")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = a.get(t, "/api/guilds/g1/cases/uno")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type downStore struct{}

func (downStore) GetStatus() (string, bool) { return "🔴 | Desconectado", false }

func (downStore) GetUserStats(context.Context, string, string) (*moderation.StatsView, error) {
	return nil, fmt.Errorf("get trial: %w", moderation.ErrStoreUnavailable)
}

func (downStore) History(context.Context, string, string) ([]*models.ActionRecord, error) {
	return nil, errors.New("boom")
}

func (downStore) ByCaseNumber(context.Context, string, int64) (*models.ActionRecord, error) {
	return nil, moderation.ErrStoreUnavailable
}

func TestStoreErrorsMapToStatus(t *testing.T) {
	s, err := NewServer(Options{})
	require.NoError(t, err)
	SetupAPIRoutes(s, API{Store: downStore{}, Stats: downStore{}, Cases: downStore{}})
	a := &testAPI{server: s}

	assert.Equal(t, http.StatusServiceUnavailable, a.get(t, "/api/guilds/g/users/u/stats").Code)
	assert.Equal(t, http.StatusServiceUnavailable, a.get(t, "/api/guilds/g/cases/1").Code)
	assert.Equal(t, http.StatusInternalServerError, a.get(t, "/api/guilds/g/users/u/history").Code)
}

func TestMetricsRoute(t *testing.T) {
	on := newTestAPI(t, true)
	w := on.get(t, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")

	off := newTestAPI(t, false)
	assert.Equal(t, http.StatusNotFound, off.get(t, "/metrics").Code)
}
