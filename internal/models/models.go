package models

// Mode — активный режим учёта: демо-леджер или реальные ордера.
type Mode string

const (
	ModeDemo Mode = "demo"
	ModeLive Mode = "live"
)

// Candle — универсальная свеча OHLCV.
type Candle struct {
	Ts     int64 // unix ms
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Ticker — срез тикера по инструменту.
type Ticker struct {
	Symbol      string // "BTC/USDT"
	Last        float64
	QuoteVolume float64 // оборот в валюте котировки за 24ч
	ChangePct   float64
}

// Market — описание торгуемой пары.
type Market struct {
	Symbol string
	Base   string
	Quote  string
}

// Order — результат размещения рыночного ордера (усреднённый филл).
type Order struct {
	Symbol string
	Side   Side
	Price  float64
	Amount float64
}

// Balance — тотальные остатки по активам с биржи.
type Balance struct {
	Total map[string]float64
}

// Candidate — пара, прошедшая фильтры сканера.
type Candidate struct {
	Symbol      string
	Last        float64
	QuoteVolume float64
}
