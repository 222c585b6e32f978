package journal

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"spot_bot/internal/models"
	"spot_bot/pkg/db"
	"spot_bot/pkg/logger"
)

// Fill — одна исполненная сделка для аудита.
type Fill struct {
	Symbol   string
	Side     models.Side
	Mode     models.Mode
	Price    float64
	Amount   float64
	Fee      float64
	PnL      float64 // только для продаж
	FilledAt time.Time
}

// Journal — write-only аудит сделок. Состояние бота из него
// никогда не восстанавливается.
type Journal interface {
	Append(ctx context.Context, f Fill) error
}

// Pg пишет сделки в Postgres через общий tx-менеджер.
type Pg struct {
	tm *db.PgTxManager
}

func NewPg(tm *db.PgTxManager) *Pg {
	return &Pg{tm: tm}
}

const insertFill = `
INSERT INTO fills (symbol, side, mode, price, amount, fee, pnl, filled_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

func (p *Pg) Append(ctx context.Context, f Fill) error {
	err := p.tm.Run(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctxTx, insertFill,
			f.Symbol, string(f.Side), string(f.Mode),
			f.Price, f.Amount, f.Fee, f.PnL, f.FilledAt)
		return err
	})
	return errors.Wrap(err, "append fill")
}

// Noop — журнал выключен (пустой DSN).
type Noop struct{}

func (Noop) Append(ctx context.Context, f Fill) error {
	logger.Info("[JOURNAL] off: %s %s %.8f @ %.8f", f.Symbol, f.Side, f.Amount, f.Price)
	return nil
}
