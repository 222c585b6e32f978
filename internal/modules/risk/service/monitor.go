package service

import (
	"context"
	"time"

	"spot_bot/internal/exchange"
	"spot_bot/internal/ledger"
	"spot_bot/internal/models"
	"spot_bot/pkg/logger"
)

// Пороги просадки от пика, в процентах.
const (
	warnDrawdownPct = 10.0
	tripDrawdownPct = 20.0
)

// AdminNotifier — отдельный админ-канал для риск-алертов.
type AdminNotifier interface {
	SendAdminf(ctx context.Context, format string, args ...any)
}

// Monitor периодически переоценивает портфель и при чрезмерной просадке
// опускает рубильник tradingEnabled. Рубильник-защёлка: сам не взводится,
// назад его поднимает только оператор.
type Monitor struct {
	led    *ledger.Ledger
	api    exchange.Api
	cache  *exchange.PriceCache
	n      AdminNotifier
	period time.Duration
}

func NewMonitor(led *ledger.Ledger, api exchange.Api, cache *exchange.PriceCache, n AdminNotifier, period time.Duration) *Monitor {
	return &Monitor{
		led:    led,
		api:    api,
		cache:  cache,
		n:      n,
		period: period,
	}
}

// Run — риск-цикл, независим от скан-цикла.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}

// Check — одна переоценка портфеля активного режима.
func (m *Monitor) Check(ctx context.Context) {
	total, ok := m.totalValue(ctx)
	if !ok {
		return
	}

	if total <= 0 {
		m.n.SendAdminf(ctx, "⚠️ Переоценка: стоимость портфеля %.2f — просадку не считаем", total)
		return
	}

	peak := m.led.Peak()
	if peak == 0 {
		// первая наблюдаемая стоимость и становится пиком
		peak = total
		if peak <= 0 {
			peak = 1
		}
		m.led.SetPeak(peak)
	}

	drawdown := (peak - total) / peak * 100
	logger.Info("[RISK] total=%.2f peak=%.2f drawdown=%.2f%%", total, peak, drawdown)

	switch {
	case drawdown > tripDrawdownPct:
		if m.led.TradingEnabled() {
			m.led.SetTradingEnabled(false)
			m.n.SendAdminf(ctx, "🚨 ПРОСАДКА %.1f%% (пик %.2f, сейчас %.2f) — новые покупки ОТКЛЮЧЕНЫ. Включение только вручную.",
				drawdown, peak, total)
		}
	case drawdown > warnDrawdownPct:
		m.n.SendAdminf(ctx, "⚠️ Просадка %.1f%% от пика (%.2f → %.2f)", drawdown, peak, total)
	}

	if total > peak {
		m.led.SetPeak(total)
	}
}

// totalValue — кэш + переоценка открытых позиций по свежим markам.
// Промах по одному символу не валит цикл, символ просто выпадает из суммы.
func (m *Monitor) totalValue(ctx context.Context) (float64, bool) {
	var cash float64
	if m.led.Mode() == models.ModeDemo {
		cash = m.led.DemoBalance()
	} else {
		bal, err := m.api.FetchBalance(ctx)
		if err != nil {
			logger.Error("[RISK] баланс недоступен, пропуск цикла: %v", err)
			m.n.SendAdminf(ctx, "⚠️ Риск-цикл пропущен: баланс недоступен: %v", err)
			return 0, false
		}
		cash = bal.Total[m.led.Quote()]
	}

	total := cash
	for symbol, pos := range m.led.Positions() {
		mark, ok := m.markPrice(ctx, symbol)
		if !ok {
			continue
		}
		total += mark * pos.Amount
	}
	return total, true
}

func (m *Monitor) markPrice(ctx context.Context, symbol string) (float64, bool) {
	if m.cache != nil {
		if px, ok := m.cache.Get(symbol); ok {
			return px, true
		}
	}
	t, err := m.api.FetchTicker(ctx, symbol)
	if err != nil {
		logger.Error("[RISK] mark-цена %s недоступна: %v", symbol, err)
		return 0, false
	}
	return t.Last, true
}
