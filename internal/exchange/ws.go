package exchange

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"

	"spot_bot/internal/helper"
	"spot_bot/pkg/logger"
)

const wsPublicURL = "wss://ws.okx.com:8443/ws/v5/public"

// PriceCache — последние цены из WS-потока тикеров.
// Риск-монитор берёт mark-цену отсюда и только при промахе идёт в REST.
type PriceCache struct {
	mu     sync.RWMutex
	prices map[string]float64
}

func NewPriceCache() *PriceCache {
	return &PriceCache{prices: make(map[string]float64)}
}

func (p *PriceCache) Set(symbol string, price float64) {
	p.mu.Lock()
	p.prices[symbol] = price
	p.mu.Unlock()
}

func (p *PriceCache) Get(symbol string) (float64, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.prices[symbol]
	return v, ok
}

// StreamTickers держит один WS на весь набор символов и складывает last в кэш.
// Реконнект бесконечный, набор подписки фиксируется на момент вызова.
func (c *Client) StreamTickers(ctx context.Context, cache *PriceCache, symbols []string) {
	if len(symbols) == 0 {
		return
	}

	args := make([]map[string]string, 0, len(symbols))
	for _, s := range symbols {
		args = append(args, map[string]string{
			"channel": "tickers",
			"instId":  helper.InstID(s),
		})
	}

	dialer := &websocket.Dialer{}
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		logger.Info("[WS] tickers connect, %d symbols", len(symbols))
		conn, _, err := dialer.DialContext(ctx, c.wsURL, nil)
		if err != nil {
			logger.Error("[WS] tickers dial error: %v", err)
			time.Sleep(time.Second)
			continue
		}

		sub := map[string]any{"op": "subscribe", "args": args}
		if err := conn.WriteJSON(sub); err != nil {
			logger.Error("[WS] tickers subscribe error: %v", err)
			_ = conn.Close()
			time.Sleep(time.Second)
			continue
		}

		// keepalive ping каждые 20s — иначе OKX рвёт соединение
		stopPing := make(chan struct{})
		go func() {
			t := time.NewTicker(20 * time.Second)
			defer t.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-stopPing:
					return
				case <-t.C:
					_ = conn.WriteMessage(websocket.TextMessage, []byte("ping"))
				}
			}
		}()

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				logger.Error("[WS] tickers read error: %v", err)
				_ = conn.Close()
				close(stopPing)
				// пауза и на редиале тоже — рваное соединение не должно
				// превращаться в горячий цикл реконнектов
				time.Sleep(time.Second)
				break
			}

			var frame struct {
				Arg struct {
					Channel string `json:"channel"`
					InstID  string `json:"instId"`
				} `json:"arg"`
				Data []struct {
					Last string `json:"last"`
				} `json:"data"`
			}
			if err := sonic.Unmarshal(msg, &frame); err != nil {
				continue // pong и служебные кадры
			}
			if frame.Arg.Channel != "tickers" || len(frame.Data) == 0 {
				continue
			}

			if last, ok := parsePrice(frame.Data[len(frame.Data)-1].Last); ok {
				cache.Set(helper.Symbol(frame.Arg.InstID), last)
			}
		}
	}
}

func parsePrice(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}
