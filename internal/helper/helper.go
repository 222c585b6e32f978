package helper

import (
	"strconv"
	"strings"
)

// InstID переводит "BTC/USDT" в okx-вый instId "BTC-USDT".
func InstID(symbol string) string {
	return strings.ReplaceAll(symbol, "/", "-")
}

// Symbol переводит instId "BTC-USDT" обратно в "BTC/USDT".
func Symbol(instID string) string {
	return strings.ReplaceAll(instID, "-", "/")
}

// QuoteOf возвращает валюту котировки пары ("BTC/USDT" -> "USDT").
func QuoteOf(symbol string) string {
	if i := strings.LastIndexByte(symbol, '/'); i >= 0 {
		return symbol[i+1:]
	}
	return ""
}

// NormTF приводит таймфрейм к формату OKX ("1h" -> "1H").
func NormTF(raw string) string {
	s := strings.TrimSpace(strings.ToLower(raw))
	switch s {
	case "1m", "3m", "5m", "15m", "30m":
		return s
	case "1h", "2h", "4h":
		return strings.ToUpper(s)
	case "1d":
		return "1D"
	default:
		return s
	}
}

// FormatAmount — размер ордера без экспоненты и лишних нулей.
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
