package strategy

import (
	"fmt"

	"spot_bot/internal/indicators"
	"spot_bot/internal/models"
)

// Пороговые коэффициенты входа/выхода. Сравнения мягкие (×0.97/0.98),
// чтобы не терять сигнал на шуме около точного кроссовера.
const (
	rsiOversold   = 35.0
	rsiOverbought = 70.0
	macdTolerance = 0.98
	trendFloor    = 0.97
	bollTolerance = 0.98
	volumeSpike   = 1.2
)

type Params struct {
	TakeProfitPct float64 // напр. 3 => TP = цена * 1.03
	StopLossPct   float64 // напр. 2 => SL = цена * 0.98
}

// Generator — стратегия как чистая функция: всё состояние (открыта ли
// позиция, её стоп) приходит аргументами, ничего общего не читаем.
type Generator struct {
	p Params
}

func NewGenerator(p Params) *Generator {
	return &Generator{p: p}
}

// Evaluate решает BUY/SELL/HOLD по вектору индикаторов одного символа.
// BUY только без открытой позиции, SELL только с ней — внутри одного
// цикла символ не может открыться и тут же закрыться.
func (g *Generator) Evaluate(symbol string, ind indicators.Set, hasPosition bool, positionSL float64) models.Signal {
	if !hasPosition {
		if sig, ok := g.buy(symbol, ind); ok {
			return sig
		}
		return hold(symbol, ind.Close)
	}

	if sig, ok := g.sell(symbol, ind, positionSL); ok {
		return sig
	}
	return hold(symbol, ind.Close)
}

// buy: все условия разом — перепроданность, MACD у кроссовера,
// цена не ниже тренда, объём выше среднего.
func (g *Generator) buy(symbol string, ind indicators.Set) (models.Signal, bool) {
	if ind.RSI14 >= rsiOversold {
		return models.Signal{}, false
	}
	if ind.MACD <= ind.MACDSignal*macdTolerance {
		return models.Signal{}, false
	}
	if ind.Close <= ind.SMA50*trendFloor {
		return models.Signal{}, false
	}
	if ind.Volume < ind.VolMA20*volumeSpike {
		return models.Signal{}, false
	}

	price := ind.Close
	return models.Signal{
		Kind:       models.SignalBuy,
		Symbol:     symbol,
		Price:      price,
		TakeProfit: price * (1 + g.p.TakeProfitPct/100),
		StopLoss:   price * (1 - g.p.StopLossPct/100),
		ATR:        ind.ATR14,
		Reason: fmt.Sprintf("RSI=%.1f<%.0f, MACD=%.6f>signal, close>SMA50, vol=%.0f>%.0f×%.1f",
			ind.RSI14, rsiOversold, ind.MACD, ind.Volume, ind.VolMA20, volumeSpike),
	}, true
}

// sell: достаточно любого условия — перекупленность, верх Боллинджера,
// цена дошла до записанного стопа (сравнение <=).
func (g *Generator) sell(symbol string, ind indicators.Set, positionSL float64) (models.Signal, bool) {
	reason := ""
	switch {
	case ind.RSI14 > rsiOverbought:
		reason = fmt.Sprintf("RSI=%.1f>%.0f", ind.RSI14, rsiOverbought)
	case ind.Close > ind.BollUpper*bollTolerance:
		reason = fmt.Sprintf("close=%.6f у верхней полосы Боллинджера %.6f", ind.Close, ind.BollUpper)
	case ind.Close <= positionSL:
		reason = fmt.Sprintf("стоп-лосс: close=%.6f <= SL=%.6f", ind.Close, positionSL)
	default:
		return models.Signal{}, false
	}

	return models.Signal{
		Kind:   models.SignalSell,
		Symbol: symbol,
		Price:  ind.Close,
		Reason: reason,
	}, true
}

func hold(symbol string, price float64) models.Signal {
	return models.Signal{Kind: models.SignalHold, Symbol: symbol, Price: price}
}
