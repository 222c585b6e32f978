package models

import "time"

// Position — одна открытая позиция по символу.
// Инвариант при создании: SL < Entry < TP.
type Position struct {
	Symbol     string
	Entry      float64
	Amount     float64
	TakeProfit float64
	StopLoss   float64
	OpenedAt   time.Time
	ATR        float64 // волатильность на момент входа, информационно
}
