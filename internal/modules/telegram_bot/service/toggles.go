package service

import (
	"context"
	"fmt"

	"spot_bot/internal/models"
)

func (t *Telegram) toggleTrading(ctx context.Context, chatID int64) {
	enabled := !t.led.TradingEnabled()
	t.led.SetTradingEnabled(enabled)
	if enabled {
		t.Send(ctx, chatID, "▶️ Торговля включена: новые покупки разрешены")
		return
	}
	t.Send(ctx, chatID, "⏸ Торговля выключена: покупки заблокированы, продажи работают")
}

func (t *Telegram) toggleMode(ctx context.Context, chatID int64) {
	mode := models.ModeDemo
	if t.led.Mode() == models.ModeDemo {
		mode = models.ModeLive
	}
	t.led.SetMode(mode)
	if mode == models.ModeLive {
		t.Send(ctx, chatID, "🔴 Режим LIVE: сигналы уходят реальными ордерами")
		return
	}
	t.Send(ctx, chatID, "🟢 Режим DEMO: сделки только в виртуальном леджере")
}

func (t *Telegram) resetDemo(ctx context.Context, chatID int64, amount float64) {
	if err := t.led.ResetDemoBalance(amount); err != nil {
		t.Send(ctx, chatID, fmt.Sprintf("❗️ Сброс не выполнен: %v", err))
		return
	}
	t.Send(ctx, chatID, fmt.Sprintf("💰 Демо-баланс сброшен: %.2f %s", amount, t.led.Quote()))
}
