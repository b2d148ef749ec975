package kraken

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signalbot/internal/marketdata"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// krakenWS serves the status/ack/snapshot sequence, sending snapshot as the
// ohlc payload after the subscription is acknowledged.
func krakenWS(t *testing.T, ack, snapshot string, gotSub *subscribeRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"channel":"status","type":"update","data":[{"system":"online"}]}`))

		var sub subscribeRequest
		if err := conn.ReadJSON(&sub); err != nil {
			return
		}
		if gotSub != nil {
			*gotSub = sub
		}
		_ = conn.WriteMessage(websocket.TextMessage, []byte(ack))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"channel":"heartbeat"}`))
		if snapshot != "" {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(snapshot))
		}
		// drain until the client closes
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

const okAck = `{"method":"subscribe","result":{"channel":"ohlc","symbol":"BTC/USD","interval":15,"snapshot":true},"success":true}`

const snapshot = `{"channel":"ohlc","type":"snapshot","data":[
{"symbol":"BTC/USD","open":42150.0,"high":42180.0,"low":41900.0,"close":41990.9,"vwap":42010.0,"trades":150,"volume":20.0,"interval_begin":"2024-01-01T00:30:00.000000000Z","interval":15,"timestamp":"2024-01-01T00:45:00.000000Z"},
{"symbol":"BTC/USD","open":42000.1,"high":42100.0,"low":41950.0,"close":42050.5,"vwap":42030.0,"trades":100,"volume":12.5,"interval_begin":"2024-01-01T00:00:00.000000000Z","interval":15,"timestamp":"2024-01-01T00:15:00.000000Z"},
{"symbol":"BTC/USD","open":42050.5,"high":42200.0,"low":42000.0,"close":42150.0,"vwap":42100.0,"trades":80,"volume":8.25,"interval_begin":"2024-01-01T00:15:00.000000000Z","interval":15,"timestamp":"2024-01-01T00:30:00.000000Z"}
]}`

func TestWSSource_Snapshot(t *testing.T) {
	var sub subscribeRequest
	srv := krakenWS(t, okAck, snapshot, &sub)
	defer srv.Close()

	src := NewWSSource(wsURL(srv), 2*time.Second)
	candles, err := src.FetchCandles(context.Background(), "BTC/USD", "15m", 100)
	require.NoError(t, err)
	require.Len(t, candles, 3)

	assert.Equal(t, "subscribe", sub.Method)
	assert.Equal(t, "ohlc", sub.Params.Channel)
	assert.Equal(t, []string{"BTC/USD"}, sub.Params.Symbol)
	assert.Equal(t, 15, sub.Params.Interval)
	assert.True(t, sub.Params.Snapshot)

	// sorted ascending
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), candles[0].TS)
	assert.Equal(t, 42050.5, candles[0].Close)
	assert.Equal(t, 41990.9, candles[2].Close)
	assert.Equal(t, 12.5, candles[0].Volume)
}

func TestWSSource_SubscribeRejected(t *testing.T) {
	srv := krakenWS(t, `{"method":"subscribe","success":false,"error":"Currency pair not supported"}`, "", nil)
	defer srv.Close()

	_, err := NewWSSource(wsURL(srv), 2*time.Second).FetchCandles(context.Background(), "BTC/USD", "15m", 100)
	require.Error(t, err)
	assert.True(t, errors.Is(err, marketdata.ErrDataFetch))
	assert.Contains(t, err.Error(), "Currency pair not supported")
}

func TestWSSource_TimeoutWithoutSnapshot(t *testing.T) {
	srv := krakenWS(t, okAck, "", nil)
	defer srv.Close()

	_, err := NewWSSource(wsURL(srv), 200*time.Millisecond).FetchCandles(context.Background(), "BTC/USD", "15m", 100)
	require.Error(t, err)
	assert.True(t, errors.Is(err, marketdata.ErrDataFetch))
}

func TestWSSource_DialFailure(t *testing.T) {
	_, err := NewWSSource("ws://127.0.0.1:1", time.Second).FetchCandles(context.Background(), "BTC/USD", "15m", 100)
	assert.True(t, errors.Is(err, marketdata.ErrDataFetch))
}
