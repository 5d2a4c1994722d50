package realtime

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mmeshcher/lot-auction/internal/model"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func TestHub_BroadcastsEvents(t *testing.T) {
	hub := NewHub(zap.NewNop())
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Len() == 1 }, time.Second, 5*time.Millisecond)

	hub.Publish(model.LotSold{
		Lot:    model.Lot{ID: "1", LotSpec: model.LotSpec{Name: "Ben Stokes"}},
		Amount: 1_900_000,
		Bidder: model.BidderIdentity{ID: "b1", Name: "Owner"},
	})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		Type    string `json:"type"`
		Payload struct {
			Amount int64 `json:"amount"`
			Lot    struct {
				Name string `json:"name"`
			} `json:"lot"`
		} `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, "lot_sold", msg.Type)
	assert.Equal(t, int64(1_900_000), msg.Payload.Amount)
	assert.Equal(t, "Ben Stokes", msg.Payload.Lot.Name)
}

func TestHub_UnsubscribesOnDisconnect(t *testing.T) {
	hub := NewHub(zap.NewNop())
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv)
	require.Eventually(t, func() bool { return hub.Len() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestHub_EvictsSlowSubscriber(t *testing.T) {
	hub := NewHub(zap.NewNop())
	c := &client{send: make(chan []byte, 1)}
	hub.clients[c] = struct{}{}

	hub.Publish(model.LotUnsold{})
	hub.Publish(model.LotUnsold{})

	assert.Equal(t, 0, hub.Len())
	_, ok := <-c.send
	assert.True(t, ok, "buffered message is still delivered")
	_, ok = <-c.send
	assert.False(t, ok, "channel closed after eviction")
}

func TestHub_CloseDisconnectsSubscribers(t *testing.T) {
	hub := NewHub(zap.NewNop())
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Len() == 1 }, time.Second, 5*time.Millisecond)

	hub.Close()
	assert.Equal(t, 0, hub.Len())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNoStatusReceived), "unexpected error: %v", err)
}
