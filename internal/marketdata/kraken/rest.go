package kraken

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"signalbot/internal/marketdata"
	"signalbot/internal/model"
)

// RESTSource reads candles from GET /0/public/OHLC.
type RESTSource struct {
	baseURL string
	client  *http.Client
}

// NewRESTSource creates a REST source. An empty baseURL uses DefaultRESTURL.
func NewRESTSource(baseURL string, timeout time.Duration) *RESTSource {
	if baseURL == "" {
		baseURL = DefaultRESTURL
	}
	return &RESTSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// FetchCandles implements model.CandleSource. The newest candle may still be
// forming; Kraken includes it and so does the returned window.
func (s *RESTSource) FetchCandles(ctx context.Context, symbol, timeframe string, count int) ([]model.Candle, error) {
	interval, err := Interval(timeframe)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("pair", RESTPair(symbol))
	q.Set("interval", strconv.Itoa(interval))
	endpoint := s.baseURL + "/0/public/OHLC?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("kraken: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, marketdata.Fetchf("kraken ohlc %s: %v", symbol, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, marketdata.Fetchf("kraken ohlc %s: read body: %v", symbol, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, marketdata.Fetchf("kraken ohlc %s: status %d", symbol, resp.StatusCode)
	}

	candles, err := parseOHLC(body)
	if err != nil {
		return nil, err
	}
	candles = marketdata.Normalize(candles, count)
	if err := marketdata.Validate(candles); err != nil {
		return nil, err
	}

	slog.DebugContext(ctx, "kraken rest candles",
		slog.String("component", "marketdata"),
		slog.String("symbol", symbol),
		slog.Int("candles", len(candles)),
		slog.Duration("took", time.Since(start)),
	)
	return candles, nil
}

// parseOHLC decodes {"error":[],"result":{"<PAIR>":[[time,o,h,l,c,vwap,vol,count],...],"last":n}}.
// The pair key is whatever Kraken calls the pair, so it is found by skipping "last".
func parseOHLC(body []byte) ([]model.Candle, error) {
	if !gjson.ValidBytes(body) {
		return nil, marketdata.Fetchf("kraken ohlc: malformed json")
	}
	root := gjson.ParseBytes(body)

	if errs := root.Get("error").Array(); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.String()
		}
		return nil, marketdata.Fetchf("kraken ohlc: %s", strings.Join(msgs, "; "))
	}

	var rows []gjson.Result
	root.Get("result").ForEach(func(key, value gjson.Result) bool {
		if key.String() == "last" || !value.IsArray() {
			return true
		}
		rows = value.Array()
		return false
	})
	if rows == nil {
		return nil, marketdata.Fetchf("kraken ohlc: no pair in result")
	}

	out := make([]model.Candle, 0, len(rows))
	for i, row := range rows {
		f := row.Array()
		if len(f) < 7 {
			return nil, marketdata.Fetchf("kraken ohlc: row %d has %d fields", i, len(f))
		}
		out = append(out, model.Candle{
			TS:     time.Unix(f[0].Int(), 0).UTC(),
			Open:   f[1].Float(),
			High:   f[2].Float(),
			Low:    f[3].Float(),
			Close:  f[4].Float(),
			Volume: f[6].Float(),
		})
	}
	return out, nil
}
