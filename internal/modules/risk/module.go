package risk

import (
	"context"

	"go.uber.org/fx"

	"spot_bot/internal/exchange"
	"spot_bot/internal/ledger"
	"spot_bot/internal/modules/config"
	"spot_bot/internal/modules/risk/service"
	tgservice "spot_bot/internal/modules/telegram_bot/service"
)

func Module() fx.Option {
	return fx.Module("risk",
		fx.Provide(
			func(led *ledger.Ledger, api exchange.Api, cache *exchange.PriceCache, tg *tgservice.Telegram, cfg *config.Config) *service.Monitor {
				return service.NewMonitor(led, api, cache, tg, cfg.RiskPeriod)
			},
		),
		fx.Invoke(func(
			lc fx.Lifecycle,
			m *service.Monitor,
			ctx context.Context,
		) {
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					go m.Run(ctx)
					return nil
				},
			})
		}),
	)
}
