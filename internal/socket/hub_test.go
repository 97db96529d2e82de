package socket

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninthgrid/ninthgrid-backend/internal/logger"
	"github.com/ninthgrid/ninthgrid-backend/internal/progress"
	"github.com/ninthgrid/ninthgrid-backend/internal/types"
)

func newTestClient(hub *Hub) *Client {
	return NewClient(nil, hub, "user-1", nil, logger.Nop())
}

func receive(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case msg := <-c.Outbound:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no message delivered")
		return Message{}
	}
}

func TestHubRoutesByChannel(t *testing.T) {
	hub := NewHub(logger.Nop())
	a, b := newTestClient(hub), newTestClient(hub)
	hub.Subscribe(a, []string{"upload:1"})
	hub.Subscribe(b, []string{"upload:2"})

	hub.BroadcastGlobal(context.Background(), Message{Channel: "upload:1", Payload: "x"})
	assert.Equal(t, "x", receive(t, a).Payload)
	assert.Empty(t, b.Outbound)

	hub.UnsubscribeFromChannel(a, "upload:1")
	assert.Equal(t, 0, hub.Subscribers("upload:1"))
	hub.BroadcastGlobal(context.Background(), Message{Channel: "upload:1", Payload: "y"})
	assert.Empty(t, a.Outbound)
}

func TestClientCloseIsIdempotent(t *testing.T) {
	hub := NewHub(logger.Nop())
	c := newTestClient(hub)
	hub.Subscribe(c, []string{"upload:1", "upload:2"})

	c.Close()
	c.Close()

	assert.Equal(t, 0, hub.Subscribers("upload:1"))
	assert.Equal(t, 0, hub.Subscribers("upload:2"))
	_, open := <-c.Outbound
	assert.False(t, open)
	hub.BroadcastGlobal(context.Background(), Message{Channel: "upload:1"})
}

func TestInboundSubscriptionsAreRestricted(t *testing.T) {
	hub := NewHub(logger.Nop())
	c := newTestClient(hub)

	c.handleInbound([]byte(`{"action":"subscribe","channel":"user:someone"}`))
	c.handleInbound([]byte(`{"action":"subscribe","channel":"upload:"}`))
	c.handleInbound([]byte(`not json`))
	assert.Equal(t, 0, hub.Subscribers("user:someone"))

	c.handleInbound([]byte(`{"action":"subscribe","channel":"upload:abc"}`))
	assert.Equal(t, 1, hub.Subscribers("upload:abc"))
	c.handleInbound([]byte(`{"action":"unsubscribe","channel":"upload:abc"}`))
	assert.Equal(t, 0, hub.Subscribers("upload:abc"))
}

func TestProgressRelayBroadcastsWrites(t *testing.T) {
	hub := NewHub(logger.Nop())
	c := newTestClient(hub)
	hub.Subscribe(c, []string{progress.Key("abc")})
	store := NewProgressRelay(progress.NewMemoryStore(time.Minute), hub)

	snapshot := types.UploadProgress{Status: types.UploadOngoing, Progress: 50}
	require.NoError(t, store.Set(context.Background(), "abc", snapshot))

	msg := receive(t, c)
	assert.Equal(t, "upload:abc", msg.Channel)
	assert.Equal(t, snapshot, msg.Payload)

	got, err := store.Get(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, 50, got.Progress)
}

func TestRedisPubSubFansOutStoreEvents(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	hub := NewHub(logger.Nop())
	rp := NewRedisPubSub(logger.Nop(), client, progress.DefaultChannel)
	require.NoError(t, rp.StartSubscriber(hub))
	t.Cleanup(rp.Stop)
	hub.SetRedisPubSub(rp)

	c := newTestClient(hub)
	hub.Subscribe(c, []string{progress.Key("abc")})

	store := progress.NewRedisStore(client, time.Minute, progress.DefaultChannel, logger.Nop())
	require.NoError(t, store.Set(context.Background(), "abc", types.UploadProgress{Status: types.UploadOngoing, Progress: 25}))

	msg := receive(t, c)
	assert.Equal(t, "upload:abc", msg.Channel)
	payload, ok := msg.Payload.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "ongoing", payload["status"])
	assert.Equal(t, float64(25), payload["progress"])

	hub.BroadcastGlobal(context.Background(), Message{Channel: "upload:abc", Payload: "direct"})
	assert.Equal(t, "direct", receive(t, c).Payload)
}
