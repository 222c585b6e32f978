package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spot_bot/internal/indicators"
	"spot_bot/internal/models"
)

func newGen() *Generator {
	return NewGenerator(Params{TakeProfitPct: 3, StopLossPct: 2})
}

// вектор, проходящий все условия входа
func buyableSet() indicators.Set {
	return indicators.Set{
		Close:      100,
		Volume:     150,
		VolMA20:    100, // 150 >= 100*1.2
		SMA50:      100, // 100 > 97
		RSI14:      30,  // < 35
		MACD:       0.5,
		MACDSignal: 0.4,
		BollUpper:  120,
	}
}

func TestEvaluateBuy(t *testing.T) {
	sig := newGen().Evaluate("BTC/USDT", buyableSet(), false, 0)

	require.Equal(t, models.SignalBuy, sig.Kind)
	assert.Equal(t, "BTC/USDT", sig.Symbol)
	assert.Equal(t, 100.0, sig.Price)
	assert.InDelta(t, 103.0, sig.TakeProfit, 1e-9)
	assert.InDelta(t, 98.0, sig.StopLoss, 1e-9)
	assert.NotEmpty(t, sig.Reason)
	assert.Less(t, sig.StopLoss, sig.Price)
	assert.Greater(t, sig.TakeProfit, sig.Price)
}

func TestEvaluateBuyRejectedByEachCondition(t *testing.T) {
	gen := newGen()

	cases := map[string]func(*indicators.Set){
		"rsi не перепродан":  func(s *indicators.Set) { s.RSI14 = 40 },
		"macd ниже сигнала":  func(s *indicators.Set) { s.MACD = 0.3 },
		"цена ниже тренда":   func(s *indicators.Set) { s.Close = 90; s.SMA50 = 100 },
		"объём без всплеска": func(s *indicators.Set) { s.Volume = 110 },
	}
	for name, mutate := range cases {
		s := buyableSet()
		mutate(&s)
		sig := gen.Evaluate("BTC/USDT", s, false, 0)
		assert.Equal(t, models.SignalHold, sig.Kind, name)
	}
}

// MACD сравнивается с допуском 0.98 — чуть ниже сигнальной линии ещё вход
func TestEvaluateBuyMACDTolerance(t *testing.T) {
	s := buyableSet()
	s.MACD = 0.99
	s.MACDSignal = 1.0
	sig := newGen().Evaluate("BTC/USDT", s, false, 0)
	assert.Equal(t, models.SignalBuy, sig.Kind)
}

// при открытой позиции BUY-ветка не рассматривается вовсе
func TestEvaluateNoBuyWhenPositionOpen(t *testing.T) {
	sig := newGen().Evaluate("BTC/USDT", buyableSet(), true, 50)
	assert.Equal(t, models.SignalHold, sig.Kind)
}

func TestEvaluateSellConditions(t *testing.T) {
	gen := newGen()
	base := indicators.Set{
		Close:     100,
		RSI14:     50,
		BollUpper: 200,
	}

	t.Run("rsi перекуплен", func(t *testing.T) {
		s := base
		s.RSI14 = 75
		sig := gen.Evaluate("ETH/USDT", s, true, 10)
		require.Equal(t, models.SignalSell, sig.Kind)
		assert.Contains(t, sig.Reason, "RSI")
	})

	t.Run("у верхней полосы", func(t *testing.T) {
		s := base
		s.BollUpper = 101 // 100 > 101*0.98
		sig := gen.Evaluate("ETH/USDT", s, true, 10)
		require.Equal(t, models.SignalSell, sig.Kind)
	})

	t.Run("стоп-лосс, сравнение <=", func(t *testing.T) {
		s := base
		sig := gen.Evaluate("ETH/USDT", s, true, 100) // close == SL
		require.Equal(t, models.SignalSell, sig.Kind)
		assert.Contains(t, sig.Reason, "стоп-лосс")
	})

	t.Run("нет причин — hold", func(t *testing.T) {
		sig := gen.Evaluate("ETH/USDT", base, true, 10)
		assert.Equal(t, models.SignalHold, sig.Kind)
	})

	t.Run("без позиции sell не бывает", func(t *testing.T) {
		s := base
		s.RSI14 = 90
		sig := gen.Evaluate("ETH/USDT", s, false, 0)
		assert.Equal(t, models.SignalHold, sig.Kind)
	})
}
