package exchange

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"spot_bot/internal/helper"
	"spot_bot/internal/models"
)

// Api — то, что ядро знает о бирже. Конкретный клиент ниже, в тестах — фейки.
type Api interface {
	FetchMarkets(ctx context.Context) ([]models.Market, error)
	FetchTickers(ctx context.Context) (map[string]models.Ticker, error)
	FetchTicker(ctx context.Context, symbol string) (models.Ticker, error)
	FetchOHLCV(ctx context.Context, symbol, timeframe string, limit int) ([]models.Candle, error)
	FetchBalance(ctx context.Context) (models.Balance, error)
	CreateOrder(ctx context.Context, symbol string, side models.Side, amount float64) (*models.Order, error)
}

const baseURL = "https://www.okx.com"

type Client struct {
	http      *http.Client
	limiter   *rate.Limiter
	breaker   *gobreaker.CircuitBreaker
	wsURL     string
	apiKey    string
	apiSecret string
	passph    string
}

func NewClient() *Client {
	// брейкер на уровне транспорта: пять подряд неудачных запросов —
	// полминуты не долбим биржу
	settings := gobreaker.Settings{
		Name:    "okx",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
	}
	return &Client{
		http:    &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Every(100*time.Millisecond), 10),
		breaker: gobreaker.NewCircuitBreaker(settings),
		wsURL:   wsPublicURL,
	}
}

func (c *Client) SetCreds(key, secret, passph string) {
	c.apiKey, c.apiSecret, c.passph = key, secret, passph
}

// okxResp — общий конверт ответа OKX.
type okxResp struct {
	Code string          `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func (c *Client) do(ctx context.Context, op, method, requestPath string, body []byte, private bool) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, netErr(op, err)
	}

	raw, err := c.breaker.Execute(func() (any, error) {
		var rdr io.Reader
		if len(body) > 0 {
			rdr = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, baseURL+requestPath, rdr)
		if err != nil {
			return nil, netErr(op, err)
		}
		if private {
			c.signRequest(req, method, requestPath, string(body))
		}
		if len(body) > 0 {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, netErr(op, err)
		}
		defer resp.Body.Close()

		rb, _ := io.ReadAll(resp.Body)
		if resp.StatusCode/100 != 2 {
			return nil, netErr(op, fmt.Errorf("http %d: %s", resp.StatusCode, string(rb)))
		}
		return rb, nil
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, netErr(op, err)
		}
		return nil, err
	}
	return raw.([]byte), nil
}

// data разворачивает конверт и отдаёт data; code != 0 — отказ биржи.
func (c *Client) data(op string, rb []byte) ([]byte, error) {
	var env okxResp
	if err := sonic.Unmarshal(rb, &env); err != nil {
		return nil, netErr(op, err)
	}
	if env.Code != "0" {
		return nil, &RejectedError{Op: op, Code: env.Code, Msg: env.Msg}
	}
	return env.Data, nil
}

func (c *Client) signRequest(req *http.Request, method, requestPath, body string) {
	ts := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
	msg := ts + strings.ToUpper(method) + requestPath + body
	h := hmac.New(sha256.New, []byte(c.apiSecret))
	h.Write([]byte(msg))
	req.Header.Set("OK-ACCESS-KEY", c.apiKey)
	req.Header.Set("OK-ACCESS-SIGN", base64.StdEncoding.EncodeToString(h.Sum(nil)))
	req.Header.Set("OK-ACCESS-TIMESTAMP", ts)
	req.Header.Set("OK-ACCESS-PASSPHRASE", c.passph)
}

func (c *Client) FetchMarkets(ctx context.Context) ([]models.Market, error) {
	const op = "fetchMarkets"
	rb, err := c.do(ctx, op, http.MethodGet, "/api/v5/public/instruments?instType=SPOT", nil, false)
	if err != nil {
		return nil, err
	}
	data, err := c.data(op, rb)
	if err != nil {
		return nil, err
	}

	var rows []struct {
		InstID   string `json:"instId"`
		BaseCcy  string `json:"baseCcy"`
		QuoteCcy string `json:"quoteCcy"`
		State    string `json:"state"`
	}
	if err := sonic.Unmarshal(data, &rows); err != nil {
		return nil, netErr(op, err)
	}

	res := make([]models.Market, 0, len(rows))
	for _, r := range rows {
		if r.State != "live" {
			continue
		}
		res = append(res, models.Market{
			Symbol: helper.Symbol(r.InstID),
			Base:   r.BaseCcy,
			Quote:  r.QuoteCcy,
		})
	}
	return res, nil
}

type tickerRow struct {
	InstID    string `json:"instId"`
	Last      string `json:"last"`
	Open24h   string `json:"open24h"`
	VolCcy24h string `json:"volCcy24h"` // оборот за 24ч в валюте котировки
}

func (r tickerRow) toTicker() models.Ticker {
	last, _ := strconv.ParseFloat(r.Last, 64)
	open, _ := strconv.ParseFloat(r.Open24h, 64)
	qv, _ := strconv.ParseFloat(r.VolCcy24h, 64)
	pct := 0.0
	if open > 0 {
		pct = (last - open) / open * 100
	}
	return models.Ticker{
		Symbol:      helper.Symbol(r.InstID),
		Last:        last,
		QuoteVolume: qv,
		ChangePct:   pct,
	}
}

func (c *Client) FetchTickers(ctx context.Context) (map[string]models.Ticker, error) {
	const op = "fetchTickers"
	rb, err := c.do(ctx, op, http.MethodGet, "/api/v5/market/tickers?instType=SPOT", nil, false)
	if err != nil {
		return nil, err
	}
	data, err := c.data(op, rb)
	if err != nil {
		return nil, err
	}

	var rows []tickerRow
	if err := sonic.Unmarshal(data, &rows); err != nil {
		return nil, netErr(op, err)
	}

	res := make(map[string]models.Ticker, len(rows))
	for _, r := range rows {
		t := r.toTicker()
		res[t.Symbol] = t
	}
	return res, nil
}

func (c *Client) FetchTicker(ctx context.Context, symbol string) (models.Ticker, error) {
	const op = "fetchTicker"
	path := "/api/v5/market/ticker?instId=" + helper.InstID(symbol)
	rb, err := c.do(ctx, op, http.MethodGet, path, nil, false)
	if err != nil {
		return models.Ticker{}, err
	}
	data, err := c.data(op, rb)
	if err != nil {
		return models.Ticker{}, err
	}

	var rows []tickerRow
	if err := sonic.Unmarshal(data, &rows); err != nil {
		return models.Ticker{}, netErr(op, err)
	}
	if len(rows) == 0 {
		return models.Ticker{}, netErr(op, fmt.Errorf("empty ticker for %s", symbol))
	}
	return rows[0].toTicker(), nil
}

func (c *Client) FetchOHLCV(ctx context.Context, symbol, timeframe string, limit int) ([]models.Candle, error) {
	const op = "fetchOHLCV"
	path := fmt.Sprintf("/api/v5/market/candles?instId=%s&bar=%s&limit=%d",
		helper.InstID(symbol), helper.NormTF(timeframe), limit)
	rb, err := c.do(ctx, op, http.MethodGet, path, nil, false)
	if err != nil {
		return nil, err
	}
	data, err := c.data(op, rb)
	if err != nil {
		return nil, err
	}

	// формат: [ts, o, h, l, c, vol, volCcy, volCcyQuote, confirm], новые первыми
	var rows [][]string
	if err := sonic.Unmarshal(data, &rows); err != nil {
		return nil, netErr(op, err)
	}

	res := make([]models.Candle, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		row := rows[i]
		if len(row) < 6 {
			continue
		}
		ts, _ := strconv.ParseInt(row[0], 10, 64)
		o, _ := strconv.ParseFloat(row[1], 64)
		h, _ := strconv.ParseFloat(row[2], 64)
		l, _ := strconv.ParseFloat(row[3], 64)
		cl, _ := strconv.ParseFloat(row[4], 64)
		v, _ := strconv.ParseFloat(row[5], 64)
		res = append(res, models.Candle{Ts: ts, Open: o, High: h, Low: l, Close: cl, Volume: v})
	}
	return res, nil
}

func (c *Client) FetchBalance(ctx context.Context) (models.Balance, error) {
	const op = "fetchBalance"
	rb, err := c.do(ctx, op, http.MethodGet, "/api/v5/account/balance", nil, true)
	if err != nil {
		return models.Balance{}, err
	}
	data, err := c.data(op, rb)
	if err != nil {
		return models.Balance{}, err
	}

	var rows []struct {
		Details []struct {
			Ccy     string `json:"ccy"`
			CashBal string `json:"cashBal"`
		} `json:"details"`
	}
	if err := sonic.Unmarshal(data, &rows); err != nil {
		return models.Balance{}, netErr(op, err)
	}

	total := map[string]float64{}
	for _, r := range rows {
		for _, d := range r.Details {
			v, _ := strconv.ParseFloat(d.CashBal, 64)
			total[d.Ccy] = v
		}
	}
	return models.Balance{Total: total}, nil
}

// CreateOrder размещает рыночный ордер и дочитывает усреднённый филл.
// Пустой филл отдаём как nil — выше это трактуется как сетевой отказ.
func (c *Client) CreateOrder(ctx context.Context, symbol string, side models.Side, amount float64) (*models.Order, error) {
	const op = "createOrder"
	instID := helper.InstID(symbol)

	body, err := sonic.Marshal(map[string]string{
		"instId":  instID,
		"tdMode":  "cash",
		"side":    string(side),
		"ordType": "market",
		"sz":      helper.FormatAmount(amount),
		"tgtCcy":  "base_ccy", // sz в базовой валюте и на buy, и на sell
	})
	if err != nil {
		return nil, netErr(op, err)
	}

	rb, err := c.do(ctx, op, http.MethodPost, "/api/v5/trade/order", body, true)
	if err != nil {
		return nil, err
	}
	data, err := c.data(op, rb)
	if err != nil {
		return nil, err
	}

	var placed []struct {
		OrdID string `json:"ordId"`
		SCode string `json:"sCode"`
		SMsg  string `json:"sMsg"`
	}
	if err := sonic.Unmarshal(data, &placed); err != nil {
		return nil, netErr(op, err)
	}
	if len(placed) == 0 {
		return nil, nil
	}
	if placed[0].SCode != "0" && placed[0].SCode != "" {
		return nil, &RejectedError{Op: op, Code: placed[0].SCode, Msg: placed[0].SMsg}
	}

	return c.fetchFill(ctx, symbol, side, instID, placed[0].OrdID)
}

func (c *Client) fetchFill(ctx context.Context, symbol string, side models.Side, instID, ordID string) (*models.Order, error) {
	const op = "fetchOrder"
	path := fmt.Sprintf("/api/v5/trade/order?instId=%s&ordId=%s", instID, ordID)
	rb, err := c.do(ctx, op, http.MethodGet, path, nil, true)
	if err != nil {
		return nil, err
	}
	data, err := c.data(op, rb)
	if err != nil {
		return nil, err
	}

	var rows []struct {
		AvgPx     string `json:"avgPx"`
		AccFillSz string `json:"accFillSz"`
	}
	if err := sonic.Unmarshal(data, &rows); err != nil {
		return nil, netErr(op, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	px, _ := strconv.ParseFloat(rows[0].AvgPx, 64)
	sz, _ := strconv.ParseFloat(rows[0].AccFillSz, 64)
	if px <= 0 || sz <= 0 {
		return nil, nil
	}
	return &models.Order{Symbol: symbol, Side: side, Price: px, Amount: sz}, nil
}
