package mqtt

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PancyStudios/PancyTrials/pkg/database/memstore"
	"github.com/PancyStudios/PancyTrials/pkg/models"
	"github.com/PancyStudios/PancyTrials/pkg/moderation"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type doneToken struct {
	err error
}

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t doneToken) Error() error { return t.err }

type published struct {
	topic   string
	qos     byte
	payload []byte
}

// fakeClient records publishes and reports a fixed connection state
type fakeClient struct {
	mu        sync.Mutex
	connected bool
	sent      []published
}

func (c *fakeClient) IsConnected() bool       { return c.connected }
func (c *fakeClient) IsConnectionOpen() bool  { return c.connected }
func (c *fakeClient) Connect() mqtt.Token     { return doneToken{} }
func (c *fakeClient) Disconnect(quiesce uint) {}
func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, published{topic: topic, qos: qos, payload: payload.([]byte)})
	return doneToken{}
}
func (c *fakeClient) Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token {
	return doneToken{}
}
func (c *fakeClient) SubscribeMultiple(filters map[string]byte, callback mqtt.MessageHandler) mqtt.Token {
	return doneToken{}
}
func (c *fakeClient) Unsubscribe(topics ...string) mqtt.Token               { return doneToken{} }
func (c *fakeClient) AddRoute(topic string, callback mqtt.MessageHandler) {}
func (c *fakeClient) OptionsReader() mqtt.ClientOptionsReader {
	return mqtt.ClientOptionsReader{}
}

func TestTopicMatch(t *testing.T) {
	tests := []struct {
		pattern, topic string
		want           bool
	}{
		{"pancy/moderation/+/cases", "pancy/moderation/123/cases", true},
		{"pancy/moderation/+/cases", "pancy/moderation/123/stats", false},
		{"pancy/moderation/#", "pancy/moderation/123/cases", true},
		{"pancy/moderation/#", "pancy/moderation", true},
		{"pancy/request/moderation/stats", "pancy/request/moderation/stats", true},
		{"pancy/request/moderation/stats", "pancy/request/moderation", false},
		{"a/b", "a/b/c", false},
	}
	for _, tt := range tests {
		if got := topicMatch(tt.pattern, tt.topic); got != tt.want {
			t.Errorf("topicMatch(%q, %q) = %v, want %v", tt.pattern, tt.topic, got, tt.want)
		}
	}
}

func TestCaseTopic(t *testing.T) {
	assert.Equal(t, "pancy/moderation/42/cases", CaseTopic("42"))
}

func TestPublishCase(t *testing.T) {
	client := &fakeClient{connected: true}
	mc := newWithClient(client, "test")

	rec := models.ActionRecord{GuildID: "42", SubjectID: "u", ActorID: "m", Action: models.ActionTempban, CaseNumber: 7, DurationMs: 3600000}
	mc.CaseHook()(context.Background(), rec)

	require.Len(t, client.sent, 1)
	assert.Equal(t, "pancy/moderation/42/cases", client.sent[0].topic)
	assert.Equal(t, byte(1), client.sent[0].qos)

	var ev CaseEvent
	require.NoError(t, json.Unmarshal(client.sent[0].payload, &ev))
	assert.Equal(t, int64(7), ev.CaseNumber)
	assert.Equal(t, models.ActionTempban, ev.Action)
	assert.Equal(t, int64(3600000), ev.DurationMs)
}

func TestPublishWhileDisconnected(t *testing.T) {
	client := &fakeClient{}
	mc := newWithClient(client, "test")

	err := mc.PublishCase(models.ActionRecord{GuildID: "42"})
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.Empty(t, client.sent)
}

func TestStatsRequest(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	engine := moderation.NewEngine(store, moderation.NewCaseLedger(store))
	_, err := engine.ProcessWarning(ctx, "42", "u", "m", "spam")
	require.NoError(t, err)

	handler := StatsHandler(moderation.NewStatsProjector(store), time.Second)
	raw := []byte(`{"correlationId":"abc","payload":{"guildId":"42","userId":"u"}}`)

	topic, resp, err := handleRequest("pancy/request/moderation/stats", raw, handler)
	require.NoError(t, err)
	assert.Equal(t, "pancy/response/moderation/stats/abc", topic)
	assert.Empty(t, resp.Error)

	view, ok := resp.Data.(*moderation.StatsView)
	require.True(t, ok)
	assert.Equal(t, 1, view.WarnCount)
	assert.Equal(t, 4, view.WarnsUntilBan)
}

func TestStatsRequestMissingFields(t *testing.T) {
	handler := StatsHandler(moderation.NewStatsProjector(memstore.New()), time.Second)
	_, resp, err := handleRequest("pancy/request/moderation/stats", []byte(`{"correlationId":"x","payload":{"guildId":"42"}}`), handler)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Error)
	assert.Nil(t, resp.Data)
}

func TestHandleRequestRejectsGarbage(t *testing.T) {
	_, _, err := handleRequest("pancy/request/x", []byte("not json"), func(map[string]interface{}) (interface{}, error) {
		return nil, nil
	})
	assert.Error(t, err)
}
