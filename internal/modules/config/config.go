package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	configFilePathENV = "CONFIG_FILE"
	tokenTelegramENV  = "TELEGRAM_TOKEN"
	journalDSNENV     = "JOURNAL_DSN"
)

// Config ...
type Config struct {
	Telegram struct {
		Token       string `yaml:"token"`
		ChatID      int64  `yaml:"chat_id"`
		AdminChatID int64  `yaml:"admin_chat_id"` // отдельный канал для риск-алертов
	} `yaml:"telegram"`

	OKX struct {
		APIKey     string `yaml:"api_key"`
		APISecret  string `yaml:"api_secret"`
		Passphrase string `yaml:"passphrase"`
	} `yaml:"okx"`

	// Пишем сделки в Postgres, если задан DSN. Пустой DSN = журнал выключен.
	JournalDSN string `yaml:"journal_dsn"`

	// Сканер рынка
	QuoteCurrency  string  `yaml:"quote_currency"`   // напр. USDT
	MinQuoteVolume float64 `yaml:"min_quote_volume"` // минимальный оборот за 24ч
	MaxPairs       int     `yaml:"max_pairs"`        // сколько кандидатов берём в цикл
	Timeframe      string  `yaml:"timeframe"`
	OHLCVLimit     int     `yaml:"ohlcv_limit"` // сколько свечей тянем на символ

	// Риск и размер позиции
	// RiskPct — какая доля доступного баланса уходит в одну сделку.
	RiskPct       float64 `yaml:"risk_pct"`        // напр. 10 => 10% баланса
	ATRMultiplier float64 `yaml:"atr_multiplier"`  // прокидываем в позицию, математика сигнала его не трогает
	TakeProfitPct float64 `yaml:"take_profit_pct"` // напр. 3 => TP = цена * 1.03
	StopLossPct   float64 `yaml:"stop_loss_pct"`   // напр. 2 => SL = цена * 0.98
	CommissionPct float64 `yaml:"commission_pct"`  // напр. 0.1 => 0.1% за сделку

	// Демо-леджер
	DemoBalance float64 `yaml:"demo_balance"` // стартовый демо-депозит в quote-валюте

	// Периоды циклов
	ScanPeriod time.Duration
	RiskPeriod time.Duration
}

func NewConfig() (*Config, error) {

	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = "values_local.yaml"
	}
	file, err := os.Open("configs/" + configFileName)
	if err != nil {
		log.Fatalf("Failed to open config file: %v", err)
	}

	defer func() {
		_ = file.Close()
	}()

	decoder := yaml.NewDecoder(file)
	config := Config{
		QuoteCurrency:  "USDT",
		MinQuoteVolume: 100000,
		MaxPairs:       10,
		Timeframe:      "1h",
		OHLCVLimit:     100,

		RiskPct:       10,
		ATRMultiplier: 2.0,
		TakeProfitPct: 3.0,
		StopLossPct:   2.0,
		CommissionPct: 0.1,

		DemoBalance: 1000,
	}
	err = decoder.Decode(&config)
	if err != nil {
		log.Fatalf("Failed to decode config file: %v", err)
	}

	// окружение поверх yaml: дефолт — то, что уже лежит в конфиге
	config.QuoteCurrency = getenvDefault("QUOTE_CURRENCY", config.QuoteCurrency)
	config.MinQuoteVolume = floatFromEnv("MIN_QUOTE_VOLUME", config.MinQuoteVolume)
	config.MaxPairs = intFromEnv("MAX_PAIRS", config.MaxPairs)
	config.Timeframe = getenvDefault("TIMEFRAME", config.Timeframe)
	config.OHLCVLimit = intFromEnv("OHLCV_LIMIT", config.OHLCVLimit)

	config.RiskPct = floatFromEnv("RISK_PCT", config.RiskPct)
	config.ATRMultiplier = floatFromEnv("ATR_MULTIPLIER", config.ATRMultiplier)
	config.TakeProfitPct = floatFromEnv("TAKE_PROFIT_PCT", config.TakeProfitPct)
	config.StopLossPct = floatFromEnv("STOP_LOSS_PCT", config.StopLossPct)
	config.CommissionPct = floatFromEnv("COMMISSION_PCT", config.CommissionPct)

	config.DemoBalance = floatFromEnv("DEMO_BALANCE", config.DemoBalance)

	config.ScanPeriod = durationFromEnv("SCAN_PERIOD", "5m")
	config.RiskPeriod = durationFromEnv("RISK_PERIOD", "1m")

	token := os.Getenv(tokenTelegramENV)
	if token != "" {
		config.Telegram.Token = token
	}

	dsn := os.Getenv(journalDSNENV)
	if dsn != "" {
		config.JournalDSN = dsn
	}

	// ключи биржи в yaml не кладём, только через окружение
	if v := os.Getenv("OKX_API_KEY"); v != "" {
		config.OKX.APIKey = v
	}
	if v := os.Getenv("OKX_API_SECRET"); v != "" {
		config.OKX.APISecret = v
	}
	if v := os.Getenv("OKX_PASSPHRASE"); v != "" {
		config.OKX.Passphrase = v
	}

	if config.Telegram.AdminChatID == 0 {
		config.Telegram.AdminChatID = config.Telegram.ChatID
	}

	return &config, nil
}

func intFromEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func floatFromEnv(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationFromEnv(key, def string) time.Duration {
	val := getenvDefault(key, def)
	d, err := time.ParseDuration(val)
	if err != nil {
		d, _ = time.ParseDuration(def)
	}
	return d
}
