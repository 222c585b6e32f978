package models

// Side как у биржи: "buy"/"sell".
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

type SignalKind string

const (
	SignalHold SignalKind = "HOLD"
	SignalBuy  SignalKind = "BUY"
	SignalSell SignalKind = "SELL"
)

// Signal — ответ стратегии по одному символу за один цикл.
// Живёт один цикл: сразу уходит в экзекутор и нигде не хранится.
type Signal struct {
	Kind   SignalKind
	Symbol string
	Price  float64

	// Заполняются только для BUY.
	TakeProfit float64
	StopLoss   float64
	ATR        float64

	Reason string
}
