package exchange

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceCache(t *testing.T) {
	c := NewPriceCache()

	_, ok := c.Get("BTC/USDT")
	require.False(t, ok)

	c.Set("BTC/USDT", 60000)
	px, ok := c.Get("BTC/USDT")
	require.True(t, ok)
	assert.Equal(t, 60000.0, px)
}

func TestParsePrice(t *testing.T) {
	px, ok := parsePrice("60000.5")
	require.True(t, ok)
	assert.Equal(t, 60000.5, px)

	for _, bad := range []string{"", "abc", "0", "-1"} {
		_, ok := parsePrice(bad)
		assert.False(t, ok, bad)
	}
}

// сервер рвёт соединение сразу после апгрейда: без паузы между
// реконнектами счётчик подключений улетел бы в сотни
func TestStreamTickersReconnectBackoff(t *testing.T) {
	var dials atomic.Int32
	up := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dials.Add(1)
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		_ = conn.Close()
	}))
	defer srv.Close()

	c := NewClient()
	c.wsURL = "ws" + strings.TrimPrefix(srv.URL, "http")

	ctx, cancel := context.WithTimeout(context.Background(), 1500*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		c.StreamTickers(ctx, NewPriceCache(), []string{"BTC/USDT"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("стрим не остановился по отмене контекста")
	}

	assert.GreaterOrEqual(t, dials.Load(), int32(1))
	assert.LessOrEqual(t, dials.Load(), int32(4))
}
