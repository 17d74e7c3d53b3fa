package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"battle-pollster/internal/domain/poll"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func liveServer(t *testing.T, hub *Hub, initial []byte) string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := NewHandler(hub, nil, nil)
	r := gin.New()
	r.GET("/live/:poll", func(c *gin.Context) {
		h.Connect(c, "ws-1", c.Param("poll"), initial)
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func readTally(t *testing.T, conn *websocket.Conn) TallyMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg TallyMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHandler_StreamsTallies(t *testing.T) {
	hub := startHub(t)
	initial, err := EncodeTally("p1", poll.Tally{VotesA: 1, VotesB: 1, PercentA: 50, PercentB: 50})
	require.NoError(t, err)
	url := liveServer(t, hub, initial)

	conn, _, err := websocket.DefaultDialer.Dial(url+"/live/p1", nil)
	require.NoError(t, err)
	defer conn.Close()

	first := readTally(t, conn)
	assert.Equal(t, "tally", first.Type)
	assert.Equal(t, 50, first.Tally.PercentA)

	require.Eventually(t, func() bool { return hub.SubscriberCount(PollChannel("p1")) == 1 }, time.Second, 10*time.Millisecond)

	hub.PublishTally("p2", poll.Tally{VotesA: 9})
	hub.PublishTally("p1", poll.Tally{VotesA: 3, VotesB: 1, PercentA: 75, PercentB: 25})

	next := readTally(t, conn)
	assert.Equal(t, "p1", next.PollID)
	assert.Equal(t, poll.Tally{VotesA: 3, VotesB: 1, PercentA: 75, PercentB: 25}, next.Tally)
}

func TestHandler_DisconnectUnsubscribes(t *testing.T) {
	hub := startHub(t)
	url := liveServer(t, hub, nil)

	conn, _, err := websocket.DefaultDialer.Dial(url+"/live/p1", nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool {
		return hub.ClientCount() == 0 && hub.SubscriberCount(PollChannel("p1")) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

type memoryBus struct {
	mu       sync.Mutex
	handlers []func(string, []byte)
	fail     bool
}

func (b *memoryBus) Publish(_ context.Context, channel string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fail {
		return errors.New("bus down")
	}
	for _, h := range b.handlers {
		h(channel, payload)
	}
	return nil
}

func (b *memoryBus) Subscribe(ctx context.Context, _ string, handler func(string, []byte)) error {
	b.mu.Lock()
	b.handlers = append(b.handlers, handler)
	b.mu.Unlock()
	<-ctx.Done()
	return ctx.Err()
}

func (b *memoryBus) subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handlers)
}

func TestRelay_FansOutAcrossHubs(t *testing.T) {
	bus := &memoryBus{}
	hubA, hubB := startHub(t), startHub(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	relayA, relayB := NewRelay(bus, hubA, nil), NewRelay(bus, hubB, nil)
	go func() { _ = relayA.Run(ctx) }()
	go func() { _ = relayB.Run(ctx) }()
	require.Eventually(t, func() bool { return bus.subscribers() == 2 }, time.Second, 10*time.Millisecond)

	conn, _, err := websocket.DefaultDialer.Dial(liveServer(t, hubB, nil)+"/live/p1", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hubB.SubscriberCount(PollChannel("p1")) == 1 }, time.Second, 10*time.Millisecond)

	relayA.PublishTally("p1", poll.Tally{VotesB: 2, PercentB: 100})

	msg := readTally(t, conn)
	assert.Equal(t, 100, msg.Tally.PercentB)
}

func TestRelay_FallsBackToLocalHub(t *testing.T) {
	bus := &memoryBus{fail: true}
	hub := startHub(t)
	relay := NewRelay(bus, hub, nil)

	conn, _, err := websocket.DefaultDialer.Dial(liveServer(t, hub, nil)+"/live/p1", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.SubscriberCount(PollChannel("p1")) == 1 }, time.Second, 10*time.Millisecond)

	relay.PublishTally("p1", poll.Tally{VotesA: 1, PercentA: 100})

	msg := readTally(t, conn)
	assert.Equal(t, 1, msg.Tally.VotesA)
}

func TestHub_RegisterSubscribesBeforeRun(t *testing.T) {
	hub := NewHub()
	clients := make([]*Client, 200)
	for i := range clients {
		clients[i] = NewClient(nil, "ws-1")
		hub.Register(clients[i], PollChannel("p1"))
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	require.Eventually(t, func() bool { return hub.ClientCount() == len(clients) }, time.Second, 10*time.Millisecond)
	assert.Equal(t, len(clients), hub.SubscriberCount(PollChannel("p1")))
	for _, c := range clients {
		assert.True(t, c.IsSubscribed(PollChannel("p1")))
	}

	hub.PublishTally("p1", poll.Tally{VotesA: 1, PercentA: 100})
	msg := <-clients[0].Send
	assert.Contains(t, string(msg), `"poll_id":"p1"`)
}
