package mod

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type expiries struct {
	mu   sync.Mutex
	got  []string
	done chan struct{}
}

func newExpiries() *expiries {
	return &expiries{done: make(chan struct{}, 8)}
}

func (e *expiries) record(guildID, userID string) {
	e.mu.Lock()
	e.got = append(e.got, guildID+":"+userID)
	e.mu.Unlock()
	e.done <- struct{}{}
}

func (e *expiries) list() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.got...)
}

func TestTempbanExpires(t *testing.T) {
	e := newExpiries()
	s := NewTempbanScheduler(e.record)

	s.Schedule("g", "u", 10*time.Millisecond)
	assert.Equal(t, 1, s.Pending())

	select {
	case <-e.done:
	case <-time.After(2 * time.Second):
		t.Fatal("tempban did not expire")
	}
	assert.Equal(t, []string{"g:u"}, e.list())
	assert.Equal(t, 0, s.Pending())
}

func TestTempbanCancel(t *testing.T) {
	e := newExpiries()
	s := NewTempbanScheduler(e.record)

	s.Schedule("g", "u", 50*time.Millisecond)
	require.True(t, s.Cancel("g", "u"))
	assert.False(t, s.Cancel("g", "u"))

	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, e.list())
}

func TestTempbanRescheduleReplaces(t *testing.T) {
	e := newExpiries()
	s := NewTempbanScheduler(e.record)

	s.Schedule("g", "u", 20*time.Millisecond)
	s.Schedule("g", "u", time.Hour)
	assert.Equal(t, 1, s.Pending())

	time.Sleep(80 * time.Millisecond)
	assert.Empty(t, e.list())
	s.Stop()
	assert.Equal(t, 0, s.Pending())
}

func TestTempbanStopIgnoresNewSchedules(t *testing.T) {
	s := NewTempbanScheduler(func(string, string) {})
	s.Stop()
	s.Schedule("g", "u", time.Millisecond)
	assert.Equal(t, 0, s.Pending())
}
