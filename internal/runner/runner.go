package runner

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"spot_bot/internal/exchange"
	"spot_bot/internal/indicators"
	"spot_bot/internal/ledger"
	"spot_bot/internal/models"
	hservice "spot_bot/internal/modules/health/service"
	"spot_bot/internal/scanner"
	"spot_bot/internal/strategy"
	"spot_bot/pkg/logger"
)

// SignalSink — куда уходят сигналы цикла (экзекутор).
type SignalSink interface {
	OnSignal(ctx context.Context, sig models.Signal)
}

// Runner гоняет скан-цикл: кандидаты → индикаторы → сигнал → исполнение.
// Символы внутри цикла обрабатываются строго последовательно, новый цикл
// не стартует, пока не закончился предыдущий.
type Runner struct {
	api  exchange.Api
	retr *exchange.Retrier
	scan *scanner.Scanner
	gen  *strategy.Generator
	sink SignalSink
	led  *ledger.Ledger

	timeframe  string
	ohlcvLimit int
	period     time.Duration

	health *hservice.State
}

// SetHealth подключает healthz-состояние; без него цикл работает как обычно.
func (r *Runner) SetHealth(st *hservice.State) { r.health = st }

func New(
	api exchange.Api,
	retr *exchange.Retrier,
	scan *scanner.Scanner,
	gen *strategy.Generator,
	sink SignalSink,
	led *ledger.Ledger,
	timeframe string,
	ohlcvLimit int,
	period time.Duration,
) *Runner {
	return &Runner{
		api:        api,
		retr:       retr,
		scan:       scan,
		gen:        gen,
		sink:       sink,
		led:        led,
		timeframe:  timeframe,
		ohlcvLimit: ohlcvLimit,
		period:     period,
	}
}

func (r *Runner) Run(ctx context.Context) {
	logger.Info("[RUNNER] ▶️ скан-цикл каждые %s, таймфрейм %s", r.period, r.timeframe)

	ticker := time.NewTicker(r.period)
	defer ticker.Stop()

	r.Cycle(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Cycle(ctx)
		}
	}
}

// Cycle — один проход: сначала кандидаты на вход, потом открытые позиции
// на выход. Ошибка по одному символу не прерывает остальных.
func (r *Runner) Cycle(ctx context.Context) {
	// срез позиций до входного прохода: символ, купленный в этом цикле,
	// не должен тут же закрыться тем же вектором индикаторов
	positions := r.led.Positions()

	for _, cand := range r.scan.Scan(ctx) {
		if err := r.analyze(ctx, cand.Symbol, false, 0); err != nil {
			logger.Warn("[CYCLE] %s пропущен: %v", cand.Symbol, err)
		}
	}

	for symbol, pos := range positions {
		if err := r.analyze(ctx, symbol, true, pos.StopLoss); err != nil {
			logger.Warn("[CYCLE] %s (позиция) пропущен: %v", symbol, err)
		}
	}

	if r.health != nil {
		r.health.MarkCycle()
		r.health.SetReady(true)
	}
}

func (r *Runner) analyze(ctx context.Context, symbol string, hasPosition bool, positionSL float64) error {
	candles, err := exchange.Retry(ctx, r.retr, "fetchOHLCV", func(ctx context.Context) ([]models.Candle, error) {
		return r.api.FetchOHLCV(ctx, symbol, r.timeframe, r.ohlcvLimit)
	})
	if err != nil {
		return err
	}

	ind, err := indicators.Compute(candles)
	if err != nil {
		if errors.Is(err, indicators.ErrNotEnoughData) {
			logger.Info("[CYCLE] %s: мало истории (%d свечей)", symbol, len(candles))
			return nil
		}
		return err
	}

	sig := r.gen.Evaluate(symbol, ind, hasPosition, positionSL)
	if sig.Kind == models.SignalHold {
		return nil
	}

	logger.Info("[SIGNAL] %s %s @ %.6f | %s", sig.Kind, sig.Symbol, sig.Price, sig.Reason)
	r.sink.OnSignal(ctx, sig)
	return nil
}

// WatchSymbols — символы для WS-подписки на mark-цены: первый непустой
// скан плюс всё, что уже в позициях.
func (r *Runner) WatchSymbols(ctx context.Context) []string {
	seen := map[string]bool{}
	res := []string{}
	for _, c := range r.scan.Scan(ctx) {
		if !seen[c.Symbol] {
			seen[c.Symbol] = true
			res = append(res, c.Symbol)
		}
	}
	for s := range r.led.Positions() {
		if !seen[s] {
			seen[s] = true
			res = append(res, s)
		}
	}
	return res
}
