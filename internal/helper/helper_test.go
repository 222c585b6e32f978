package helper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInstIDRoundTrip(t *testing.T) {
	assert.Equal(t, "BTC-USDT", InstID("BTC/USDT"))
	assert.Equal(t, "BTC/USDT", Symbol("BTC-USDT"))
}

func TestQuoteOf(t *testing.T) {
	assert.Equal(t, "USDT", QuoteOf("BTC/USDT"))
	assert.Equal(t, "BTC", QuoteOf("DOGE/BTC"))
	assert.Equal(t, "", QuoteOf("BTCUSDT"))
}

func TestNormTF(t *testing.T) {
	for raw, want := range map[string]string{
		"5m":  "5m",
		"1h":  "1H",
		"4H":  "4H",
		" 1d": "1D",
	} {
		assert.Equal(t, want, NormTF(raw), raw)
	}
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "0.00000001", FormatAmount(0.00000001))
	assert.Equal(t, "1.5", FormatAmount(1.5))
}
