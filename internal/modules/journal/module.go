package journal

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/fx"

	"spot_bot/internal/journal"
	"spot_bot/internal/modules/config"
	"spot_bot/pkg/db"
	"spot_bot/pkg/logger"
)

// Module отдаёт журнал сделок: Postgres при заданном DSN, иначе заглушка.
func Module() fx.Option {
	return fx.Module("journal",
		fx.Provide(
			func(ctx context.Context, cfg *config.Config, lc fx.Lifecycle) (journal.Journal, error) {
				if cfg.JournalDSN == "" {
					logger.Info("[JOURNAL] DSN не задан, журнал сделок выключен")
					return journal.Noop{}, nil
				}

				pool, err := db.NewPool(ctx, db.PoolConfig{DSN: cfg.JournalDSN})
				if err != nil {
					return nil, errors.Wrap(err, "failed to create journal pool")
				}
				if err := pool.Ping(ctx); err != nil {
					return nil, err
				}

				tm := db.NewPgTxManager(pool)
				lc.Append(fx.Hook{
					OnStop: func(_ context.Context) error {
						tm.Close()
						return nil
					},
				})
				return journal.NewPg(tm), nil
			},
		),
	)
}
