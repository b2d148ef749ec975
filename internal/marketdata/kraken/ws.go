package kraken

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tidwall/gjson"

	"signalbot/internal/marketdata"
	"signalbot/internal/model"
)

// WSSource subscribes to the WebSocket v2 "ohlc" channel with snapshot=true,
// takes the snapshot and disconnects. It never streams.
type WSSource struct {
	url     string
	timeout time.Duration
	dialer  *websocket.Dialer
}

// NewWSSource creates a WebSocket source. An empty url uses DefaultWSURL.
func NewWSSource(url string, timeout time.Duration) *WSSource {
	if url == "" {
		url = DefaultWSURL
	}
	return &WSSource{
		url:     url,
		timeout: timeout,
		dialer:  websocket.DefaultDialer,
	}
}

type subscribeParams struct {
	Channel  string   `json:"channel"`
	Symbol   []string `json:"symbol"`
	Interval int      `json:"interval"`
	Snapshot bool     `json:"snapshot"`
}

type subscribeRequest struct {
	Method string          `json:"method"`
	Params subscribeParams `json:"params"`
	ReqID  int64           `json:"req_id"`
}

// FetchCandles implements model.CandleSource.
func (s *WSSource) FetchCandles(ctx context.Context, symbol, timeframe string, count int) ([]model.Candle, error) {
	interval, err := Interval(timeframe)
	if err != nil {
		return nil, err
	}
	wsSymbol := strings.ToUpper(symbol)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return nil, marketdata.Fetchf("kraken ws dial: %v", err)
	}
	defer conn.Close()

	// Unblocks ReadMessage when ctx is cancelled.
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	sub := subscribeRequest{
		Method: "subscribe",
		Params: subscribeParams{Channel: "ohlc", Symbol: []string{wsSymbol}, Interval: interval, Snapshot: true},
		ReqID:  time.Now().UnixNano(),
	}
	if err := conn.WriteJSON(sub); err != nil {
		return nil, marketdata.Fetchf("kraken ws subscribe: %v", err)
	}
	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(dl)
	}

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil, marketdata.Fetchf("kraken ws: no snapshot before timeout: %v", ctx.Err())
			}
			return nil, marketdata.Fetchf("kraken ws read: %v", err)
		}
		if !gjson.ValidBytes(raw) {
			slog.Warn("kraken ws: skipping malformed frame", slog.String("component", "marketdata"))
			continue
		}
		msg := gjson.ParseBytes(raw)

		if msg.Get("method").String() == "subscribe" {
			if !msg.Get("success").Bool() {
				return nil, marketdata.Fetchf("kraken ws subscribe rejected: %s", msg.Get("error").String())
			}
			continue
		}
		if msg.Get("channel").String() != "ohlc" || msg.Get("type").String() != "snapshot" {
			continue // status, heartbeat, updates
		}

		candles, err := parseWSCandles(msg.Get("data"), wsSymbol)
		if err != nil {
			return nil, err
		}

		unsub := sub
		unsub.Method = "unsubscribe"
		unsub.Params.Snapshot = false
		if b, err := json.Marshal(unsub); err == nil {
			_ = conn.WriteMessage(websocket.TextMessage, b)
		}
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"))

		candles = marketdata.Normalize(candles, count)
		if err := marketdata.Validate(candles); err != nil {
			return nil, err
		}
		slog.DebugContext(ctx, "kraken ws snapshot",
			slog.String("component", "marketdata"),
			slog.String("symbol", symbol),
			slog.Int("candles", len(candles)),
		)
		return candles, nil
	}
}

// parseWSCandles decodes the snapshot data array:
// [{"symbol":"BTC/USD","open":..,"high":..,"low":..,"close":..,"volume":..,"interval_begin":"RFC3339"}]
func parseWSCandles(data gjson.Result, symbol string) ([]model.Candle, error) {
	if !data.IsArray() {
		return nil, marketdata.Fetchf("kraken ws: snapshot data is not an array")
	}
	var out []model.Candle
	for i, row := range data.Array() {
		if sym := row.Get("symbol").String(); sym != "" && sym != symbol {
			continue
		}
		ts, err := time.Parse(time.RFC3339Nano, row.Get("interval_begin").String())
		if err != nil {
			return nil, marketdata.Fetchf("kraken ws: row %d: %v", i, err)
		}
		out = append(out, model.Candle{
			TS:     ts.UTC(),
			Open:   row.Get("open").Float(),
			High:   row.Get("high").Float(),
			Low:    row.Get("low").Float(),
			Close:  row.Get("close").Float(),
			Volume: row.Get("volume").Float(),
		})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: kraken ws: empty snapshot for %s", marketdata.ErrDataFetch, symbol)
	}
	return out, nil
}
