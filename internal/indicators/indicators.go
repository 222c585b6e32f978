package indicators

import (
	"math"

	"github.com/pkg/errors"

	"spot_bot/internal/models"
)

// MinBars — минимум истории для полного вектора индикаторов.
const MinBars = 50

var ErrNotEnoughData = errors.New("not enough candles")

// Set — вектор индикаторов по последней свече серии.
type Set struct {
	Close  float64
	Volume float64

	VolMA20    float64
	SMA20      float64
	SMA50      float64
	RSI14      float64
	MACD       float64
	MACDSignal float64
	ATR14      float64
	BollUpper  float64
	BollLower  float64
}

// Compute — чистая функция от серии свечей, oldest-first.
// Меньше MinBars свечей — серия невалидна для цикла.
func Compute(candles []models.Candle) (Set, error) {
	if len(candles) < MinBars {
		return Set{}, errors.Wrapf(ErrNotEnoughData, "got %d, need %d", len(candles), MinBars)
	}

	closes := make([]float64, len(candles))
	volumes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
		volumes[i] = c.Volume
	}

	last := candles[len(candles)-1]
	macd, signal := MACD(closes, 12, 26, 9)
	upper, lower := Bollinger(closes, 20, 2)

	return Set{
		Close:      last.Close,
		Volume:     last.Volume,
		VolMA20:    SMA(volumes, 20),
		SMA20:      SMA(closes, 20),
		SMA50:      SMA(closes, 50),
		RSI14:      RSI(closes, 14),
		MACD:       macd,
		MACDSignal: signal,
		ATR14:      ATR(candles, 14),
		BollUpper:  upper,
		BollLower:  lower,
	}, nil
}

// SMA — простое среднее последних period значений.
func SMA(values []float64, period int) float64 {
	if period <= 0 || len(values) < period {
		return 0
	}
	sum := 0.0
	for _, v := range values[len(values)-period:] {
		sum += v
	}
	return sum / float64(period)
}

func emaSeries(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	k := 2.0 / float64(period+1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = out[i-1] + k*(values[i]-out[i-1])
	}
	return out
}

// RSI — Relative Strength Index со сглаживанием Уайлдера.
func RSI(values []float64, period int) float64 {
	if period <= 0 || len(values) < period+1 {
		return 50.0 // neutral
	}

	avgGain, avgLoss := 0.0, 0.0
	for i := 1; i <= period; i++ {
		change := values[i] - values[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	for i := period + 1; i < len(values); i++ {
		change := values[i] - values[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - (100.0 / (1.0 + rs))
}

// MACD — EMA(fast)-EMA(slow) и сигнальная EMA(signal) от самой линии.
func MACD(values []float64, fast, slow, signalPeriod int) (macd, signal float64) {
	if len(values) == 0 {
		return 0, 0
	}
	fastEMA := emaSeries(values, fast)
	slowEMA := emaSeries(values, slow)

	line := make([]float64, len(values))
	for i := range values {
		line[i] = fastEMA[i] - slowEMA[i]
	}
	signalEMA := emaSeries(line, signalPeriod)

	idx := len(values) - 1
	return line[idx], signalEMA[idx]
}

// ATR — Average True Range со сглаживанием Уайлдера.
func ATR(candles []models.Candle, period int) float64 {
	if period <= 0 || len(candles) < period+1 {
		return 0
	}

	trs := make([]float64, 0, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		c := candles[i]
		prevClose := candles[i-1].Close
		tr := math.Max(c.High-c.Low,
			math.Max(math.Abs(c.High-prevClose), math.Abs(c.Low-prevClose)))
		trs = append(trs, tr)
	}

	atr := 0.0
	for _, tr := range trs[:period] {
		atr += tr
	}
	atr /= float64(period)

	for _, tr := range trs[period:] {
		atr = (atr*float64(period-1) + tr) / float64(period)
	}
	return atr
}

// Bollinger — SMA(period) ± width сигм (популяционное отклонение).
func Bollinger(values []float64, period int, width float64) (upper, lower float64) {
	if period <= 0 || len(values) < period {
		return 0, 0
	}
	ma := SMA(values, period)
	variance := 0.0
	for _, v := range values[len(values)-period:] {
		d := v - ma
		variance += d * d
	}
	sd := math.Sqrt(variance / float64(period))
	return ma + width*sd, ma - width*sd
}
