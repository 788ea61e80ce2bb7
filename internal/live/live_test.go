package live

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/AdamBeresnev/matchday/internal/coordinator"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialRoom(t *testing.T, hub *Hub, matchID uuid.UUID) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, matchID)
	}))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHubDeliversToMatchRoom(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub(nil)
	go hub.Run(ctx)

	watched, other := uuid.New(), uuid.New()
	conn := dialRoom(t, hub, watched)
	require.Eventually(t, func() bool { return hub.Watchers(watched) == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.Invalidated(other, []coordinator.View{coordinator.ViewGoals})
	hub.Invalidated(watched, []coordinator.View{coordinator.ViewGoals, coordinator.ViewMatch})
	hub.ClockTicked(watched, "23'")

	msg := readMessage(t, conn)
	assert.Equal(t, TypeInvalidate, msg.Type)
	assert.Equal(t, watched, msg.MatchID)
	assert.Equal(t, []coordinator.View{coordinator.ViewGoals, coordinator.ViewMatch}, msg.Views)

	msg = readMessage(t, conn)
	assert.Equal(t, TypeClock, msg.Type)
	assert.Equal(t, "23'", msg.Clock)
}

func TestHubDropsClosedClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub(nil)
	go hub.Run(ctx)

	matchID := uuid.New()
	conn := dialRoom(t, hub, matchID)
	require.Eventually(t, func() bool { return hub.Watchers(matchID) == 1 }, 2*time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return hub.Watchers(matchID) == 0 }, 2*time.Second, 10*time.Millisecond)

	// Nobody is listening, this must not block
	hub.ClockTicked(matchID, "1'")
}

type recordedPublish struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	mu        sync.Mutex
	published []recordedPublish
	err       error
}

func (f *fakeChannel) Publish(exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, recordedPublish{exchange: exchange, key: key, msg: msg})
	return nil
}

func TestAMQPPublisherRoutesByMatch(t *testing.T) {
	channel := &fakeChannel{}
	p := &AMQPPublisher{channel: channel, exchange: "matchday.events"}
	matchID := uuid.New()

	p.Invalidated(matchID, []coordinator.View{coordinator.ViewCards})
	p.ClockTicked(matchID, "HT")

	require.Len(t, channel.published, 2)
	first := channel.published[0]
	assert.Equal(t, "matchday.events", first.exchange)
	assert.Equal(t, "match."+matchID.String()+".invalidate", first.key)
	assert.Equal(t, "application/json", first.msg.ContentType)

	var msg Message
	require.NoError(t, json.Unmarshal(first.msg.Body, &msg))
	assert.Equal(t, []coordinator.View{coordinator.ViewCards}, msg.Views)

	assert.Equal(t, "match."+matchID.String()+".clock", channel.published[1].key)
	assert.NoError(t, p.Close())
}

func TestAMQPPublisherSwallowsErrors(t *testing.T) {
	channel := &fakeChannel{err: errors.New("channel closed")}
	p := &AMQPPublisher{channel: channel, exchange: "x"}

	assert.Error(t, p.Publish(clockMessage(uuid.New(), "1'")))
	assert.NotPanics(t, func() { p.ClockTicked(uuid.New(), "1'") })
}
