package scanner

import (
	"context"
	"sort"

	"spot_bot/internal/exchange"
	"spot_bot/internal/helper"
	"spot_bot/internal/models"
	"spot_bot/pkg/logger"
)

// dustFloor — отсечка мусорных цен, такие пары не торгуем.
const dustFloor = 0.001

// Held — занят ли символ открытой позицией (в любом режиме).
type Held interface {
	Held(symbol string) bool
}

// Scanner ранжирует пары по ликвидности из одного снимка тикеров.
type Scanner struct {
	api       exchange.Api
	held      Held
	quote     string
	minVolume float64
	maxPairs  int
}

func New(api exchange.Api, held Held, quote string, minVolume float64, maxPairs int) *Scanner {
	return &Scanner{
		api:       api,
		held:      held,
		quote:     quote,
		minVolume: minVolume,
		maxPairs:  maxPairs,
	}
}

// Scan — один снимок тикеров за вызов. Любая ошибка фетча деградирует
// в пустой список: цикл мониторинга из-за сканера не падает.
func (s *Scanner) Scan(ctx context.Context) []models.Candidate {
	tickers, err := s.api.FetchTickers(ctx)
	if err != nil {
		logger.Error("[SCAN] не удалось получить тикеры: %v", err)
		return nil
	}

	res := make([]models.Candidate, 0, s.maxPairs)
	for symbol, t := range tickers {
		if helper.QuoteOf(symbol) != s.quote {
			continue
		}
		if t.QuoteVolume < s.minVolume {
			continue
		}
		if t.Last <= dustFloor {
			continue
		}
		if s.held.Held(symbol) {
			continue
		}
		res = append(res, models.Candidate{
			Symbol:      symbol,
			Last:        t.Last,
			QuoteVolume: t.QuoteVolume,
		})
	}

	sort.Slice(res, func(i, j int) bool {
		return res[i].QuoteVolume > res[j].QuoteVolume
	})
	if len(res) > s.maxPairs {
		res = res[:s.maxPairs]
	}

	logger.Info("[SCAN] кандидатов: %d", len(res))
	return res
}
