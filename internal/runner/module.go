package runner

import (
	"context"

	"go.uber.org/fx"

	"spot_bot/internal/exchange"
	"spot_bot/internal/executor"
	"spot_bot/internal/journal"
	"spot_bot/internal/ledger"
	"spot_bot/internal/modules/config"
	hservice "spot_bot/internal/modules/health/service"
	tgservice "spot_bot/internal/modules/telegram_bot/service"
	"spot_bot/internal/scanner"
	"spot_bot/internal/strategy"
)

func Module() fx.Option {
	return fx.Module("runner",
		fx.Provide(
			func(cfg *config.Config) exchange.Api {
				c := exchange.NewClient()
				c.SetCreds(cfg.OKX.APIKey, cfg.OKX.APISecret, cfg.OKX.Passphrase)
				return c
			},
			exchange.NewRetrier,
			exchange.NewPriceCache,
			func(cfg *config.Config) *ledger.Ledger {
				return ledger.New(cfg.QuoteCurrency, cfg.DemoBalance)
			},
			func(api exchange.Api, led *ledger.Ledger, cfg *config.Config) *scanner.Scanner {
				return scanner.New(api, led, cfg.QuoteCurrency, cfg.MinQuoteVolume, cfg.MaxPairs)
			},
			func(cfg *config.Config) *strategy.Generator {
				return strategy.NewGenerator(strategy.Params{
					TakeProfitPct: cfg.TakeProfitPct,
					StopLossPct:   cfg.StopLossPct,
				})
			},
			func(led *ledger.Ledger, api exchange.Api, retr *exchange.Retrier, tg *tgservice.Telegram, jrn journal.Journal, cfg *config.Config) *executor.Executor {
				return executor.New(led, api, retr, tg, jrn, executor.Params{
					RiskPct:       cfg.RiskPct,
					TakeProfitPct: cfg.TakeProfitPct,
					StopLossPct:   cfg.StopLossPct,
					CommissionPct: cfg.CommissionPct,
					ATRMultiplier: cfg.ATRMultiplier,
				})
			},
			func(api exchange.Api, retr *exchange.Retrier, scan *scanner.Scanner, gen *strategy.Generator, exec *executor.Executor, led *ledger.Ledger, cfg *config.Config) *Runner {
				return New(api, retr, scan, gen, exec, led, cfg.Timeframe, cfg.OHLCVLimit, cfg.ScanPeriod)
			},
		),
		fx.Invoke(func(
			lc fx.Lifecycle,
			r *Runner,
			api exchange.Api,
			cache *exchange.PriceCache,
			st *hservice.State,
			ctx context.Context,
		) {
			r.SetHealth(st)
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					go r.Run(ctx)
					go func() {
						// WS-кэш цен для риск-монитора; при пустом скане
						// монитор ходит за mark-ценами в REST
						if c, ok := api.(*exchange.Client); ok {
							if syms := r.WatchSymbols(ctx); len(syms) > 0 {
								c.StreamTickers(ctx, cache, syms)
							}
						}
					}()
					return nil
				},
			})
		}),
	)
}
