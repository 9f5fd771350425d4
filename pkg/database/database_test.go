package database

import (
	"context"
	"errors"
	"testing"

	"github.com/PancyStudios/PancyTrials/pkg/models"
	"github.com/PancyStudios/PancyTrials/pkg/moderation"
	"go.mongodb.org/mongo-driver/bson"
)

func TestGenerateCacheKeyDeterministic(t *testing.T) {
	dm := NewDataManager[models.ActionRecord](ActionsCollection, NewDatabase())

	a := dm.generateCacheKey(bson.M{"guildId": "g", "caseNumber": int64(3)})
	b := dm.generateCacheKey(bson.M{"caseNumber": int64(3), "guildId": "g"})
	if a != b {
		t.Errorf("generateCacheKey order dependent: %q != %q", a, b)
	}
	if want := "actions:{caseNumber=3,guildId=g}"; a != want {
		t.Errorf("generateCacheKey = %q, want %q", a, want)
	}
}

func TestDataManagerOffline(t *testing.T) {
	dm := NewDataManager[models.TrialRecord](TrialsCollection, NewDatabase())

	if _, err := dm.Get(context.Background(), bson.M{"guildId": "g"}); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Get() error = %v, want ErrNotConnected", err)
	}
	if err := dm.Insert(context.Background(), models.NewTrialRecord("g", "u")); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Insert() error = %v, want ErrNotConnected", err)
	}
	if n := dm.CacheSize(); n != 0 {
		t.Errorf("CacheSize() = %d, want 0", n)
	}
}

func TestModerationStoreOffline(t *testing.T) {
	s := NewModerationStore(NewDatabase())
	ctx := context.Background()

	if _, err := s.GetTrial(ctx, "g", "u"); !errors.Is(err, moderation.ErrStoreUnavailable) {
		t.Errorf("GetTrial() error = %v, want ErrStoreUnavailable", err)
	}
	if _, err := s.NextCaseNumber(ctx, "g"); !errors.Is(err, moderation.ErrStoreUnavailable) {
		t.Errorf("NextCaseNumber() error = %v, want ErrStoreUnavailable", err)
	}
	err := s.WithTx(ctx, func(context.Context, moderation.Tx) error { return nil })
	if !errors.Is(err, moderation.ErrStoreUnavailable) {
		t.Errorf("WithTx() error = %v, want ErrStoreUnavailable", err)
	}
}

func TestDatabaseStatusOffline(t *testing.T) {
	d := NewDatabase()
	if d.Connected() {
		t.Error("Connected() = true on a fresh instance")
	}
	if _, ok := d.GetStatus(); ok {
		t.Error("GetStatus() reported online without a client")
	}
	if _, err := d.Ping(); err == nil {
		t.Error("Ping() error = nil, want not connected")
	}
	if col := d.GetCollection("trials"); col != nil {
		t.Error("GetCollection() returned a collection without a connection")
	}
}

func TestModerationStoreRefusesWritesUntilIndexed(t *testing.T) {
	s := NewModerationStore(NewDatabase())
	ctx := context.Background()

	if s.Indexed() {
		t.Fatal("Indexed() = true before EnsureIndexes")
	}

	ran := false
	err := s.WithTx(ctx, func(context.Context, moderation.Tx) error {
		ran = true
		return nil
	})
	if !errors.Is(err, ErrIndexesPending) || !errors.Is(err, moderation.ErrStoreUnavailable) {
		t.Errorf("WithTx() error = %v, want ErrIndexesPending wrapped in ErrStoreUnavailable", err)
	}
	if ran {
		t.Error("WithTx() ran fn without indexes")
	}
	if _, err := s.NextCaseNumber(ctx, "g"); !errors.Is(err, ErrIndexesPending) {
		t.Errorf("NextCaseNumber() error = %v, want ErrIndexesPending", err)
	}
	if err := s.UpsertTrial(ctx, models.NewTrialRecord("g", "u")); !errors.Is(err, ErrIndexesPending) {
		t.Errorf("UpsertTrial() error = %v, want ErrIndexesPending", err)
	}
	if err := s.AppendAction(ctx, &models.ActionRecord{GuildID: "g", CaseNumber: 1}); !errors.Is(err, ErrIndexesPending) {
		t.Errorf("AppendAction() error = %v, want ErrIndexesPending", err)
	}

	// Once indexed, the offline connection is what blocks the write
	s.indexed.Store(true)
	err = s.WithTx(ctx, func(context.Context, moderation.Tx) error { return nil })
	if errors.Is(err, ErrIndexesPending) || !errors.Is(err, moderation.ErrStoreUnavailable) {
		t.Errorf("WithTx() error = %v, want only ErrStoreUnavailable", err)
	}
}

func TestConnectHooksRunOnLaterConnections(t *testing.T) {
	d := NewDatabase()
	s := NewModerationStore(d)

	calls := 0
	d.OnConnect(func() { calls++ })
	if calls != 0 {
		t.Fatalf("hook ran %d times while offline, want 0", calls)
	}
	if len(d.onConnect) != 2 {
		t.Errorf("registered hooks = %d, want the store's and ours", len(d.onConnect))
	}

	// What the reconnect loop does after a successful connect. The store's
	// hook fails offline and must leave it unindexed.
	d.notifyConnected()
	d.notifyConnected()
	if calls != 2 {
		t.Errorf("hook ran %d times, want 2", calls)
	}
	if s.Indexed() {
		t.Error("Indexed() = true after a failed EnsureIndexes")
	}
}

func TestModerationStoreStatusWhileUnindexed(t *testing.T) {
	s := NewModerationStore(NewDatabase())
	if _, ok := s.GetStatus(); ok {
		t.Error("GetStatus() ok = true for an offline, unindexed store")
	}
}
