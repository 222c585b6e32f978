package service

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

func (t *Telegram) formatStatus() string {
	trading := "✅ включена"
	if !t.led.TradingEnabled() {
		trading = "⛔️ выключена"
	}

	var b strings.Builder
	b.WriteString("📊 Статус\n")
	fmt.Fprintf(&b, "• Режим: %s\n", strings.ToUpper(string(t.led.Mode())))
	fmt.Fprintf(&b, "• Торговля: %s\n", trading)
	fmt.Fprintf(&b, "• Демо-баланс: %.2f %s\n", t.led.DemoBalance(), t.led.Quote())
	if peak := t.led.Peak(); peak > 0 {
		fmt.Fprintf(&b, "• Пик портфеля: %.2f\n", peak)
	}
	fmt.Fprintf(&b, "• Открытых позиций: %d", len(t.led.Positions()))
	return b.String()
}

func (t *Telegram) formatPositions() string {
	positions := t.led.Positions()
	if len(positions) == 0 {
		return "📭 Открытых позиций нет"
	}

	symbols := make([]string, 0, len(positions))
	for s := range positions {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	var b strings.Builder
	b.WriteString("📈 Открытые позиции:\n")
	for _, s := range symbols {
		p := positions[s]
		fmt.Fprintf(&b, "- %s %.8f @ %.6f | TP=%.6f SL=%.6f | %s\n",
			p.Symbol, p.Amount, p.Entry, p.TakeProfit, p.StopLoss,
			time.Since(p.OpenedAt).Round(time.Minute))
	}
	return b.String()
}
