package mod

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/PancyStudios/PancyTrials/pkg/errors"
	"github.com/PancyStudios/PancyTrials/pkg/logger"
	"github.com/PancyStudios/PancyTrials/pkg/models"
	"github.com/PancyStudios/PancyTrials/pkg/moderation"
	"github.com/bwmarrin/discordgo"
)

// TempbanScheduler lifts temporary bans when they expire. Timers live in
// process memory only; a restart drops pending expiries.
type TempbanScheduler struct {
	mu      sync.Mutex
	pending map[string]*tempban
	expire  func(guildID, userID string)
	stopped bool
}

type tempban struct {
	timer *time.Timer
}

// NewTempbanScheduler calls expire for every ban that reaches its end
func NewTempbanScheduler(expire func(guildID, userID string)) *TempbanScheduler {
	return &TempbanScheduler{
		pending: make(map[string]*tempban),
		expire:  expire,
	}
}

// Schedule arranges the unban of userID after d, replacing any earlier schedule
func (t *TempbanScheduler) Schedule(guildID, userID string, d time.Duration) {
	key := guildID + ":" + userID

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	if prev, ok := t.pending[key]; ok {
		prev.timer.Stop()
	}

	entry := &tempban{}
	entry.timer = time.AfterFunc(d, func() {
		t.mu.Lock()
		current, ok := t.pending[key]
		if !ok || current != entry {
			t.mu.Unlock()
			return
		}
		delete(t.pending, key)
		t.mu.Unlock()

		defer errors.RecoverMiddleware()()
		t.expire(guildID, userID)
	})
	t.pending[key] = entry
}

// Cancel drops the pending unban of userID. It reports whether one existed.
func (t *TempbanScheduler) Cancel(guildID, userID string) bool {
	key := guildID + ":" + userID

	t.mu.Lock()
	defer t.mu.Unlock()
	entry, ok := t.pending[key]
	if !ok {
		return false
	}
	entry.timer.Stop()
	delete(t.pending, key)
	return true
}

// Pending returns how many unbans are scheduled
func (t *TempbanScheduler) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

// Stop cancels every pending unban
func (t *TempbanScheduler) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	for key, entry := range t.pending {
		entry.timer.Stop()
		delete(t.pending, key)
	}
}

// ExpireTempban records an unban case on behalf of the bot and then lifts
// the ban on Discord.
func ExpireTempban(s *discordgo.Session, ledger *moderation.CaseLedger) func(guildID, userID string) {
	return func(guildID, userID string) {
		actorID := ""
		if s.State != nil && s.State.User != nil {
			actorID = s.State.User.ID
		}

		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		rec, err := ledger.RecordAction(ctx, guildID, userID, actorID, models.ActionUnban, "Tempban expirado", 0)
		if err != nil {
			logger.Error(fmt.Sprintf("Error registrando fin de tempban de %s: %v", userID, err), "Tempban")
			return
		}

		if err := s.GuildBanDelete(guildID, userID, discordgo.WithAuditLogReason(fmt.Sprintf("[#%d] Tempban expirado", rec.CaseNumber))); err != nil {
			logger.Error(fmt.Sprintf("Error retirando tempban de %s (caso #%d): %v", userID, rec.CaseNumber, err), "Tempban")
			return
		}
		logger.Info(fmt.Sprintf("Tempban de %s expirado en %s (caso #%d)", userID, guildID, rec.CaseNumber), "Tempban")
	}
}
