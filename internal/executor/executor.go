package executor

import (
	"context"
	"time"

	"spot_bot/internal/exchange"
	"spot_bot/internal/journal"
	"spot_bot/internal/ledger"
	"spot_bot/internal/models"
	"spot_bot/pkg/logger"
)

// Notifier — канал уведомлений оператору, best-effort.
type Notifier interface {
	Sendf(ctx context.Context, format string, args ...any)
}

type Params struct {
	RiskPct       float64 // доля баланса на сделку, напр. 10 => 10%
	TakeProfitPct float64
	StopLossPct   float64
	CommissionPct float64 // напр. 0.1 => 0.1%
	ATRMultiplier float64 // хранится на позиции, в расчётах не участвует
}

// Executor проводит сигнал в леджер и/или в реальный ордер.
// Любая ошибка исполнения гасится локально: лог + уведомление,
// цикл мониторинга из-за неё не падает.
type Executor struct {
	led  *ledger.Ledger
	api  exchange.Api
	retr *exchange.Retrier
	n    Notifier
	jrn  journal.Journal
	p    Params

	now func() time.Time
}

func New(led *ledger.Ledger, api exchange.Api, retr *exchange.Retrier, n Notifier, jrn journal.Journal, p Params) *Executor {
	return &Executor{
		led:  led,
		api:  api,
		retr: retr,
		n:    n,
		jrn:  jrn,
		p:    p,
		now:  time.Now,
	}
}

func (e *Executor) OnSignal(ctx context.Context, sig models.Signal) {
	switch sig.Kind {
	case models.SignalBuy:
		e.buy(ctx, sig)
	case models.SignalSell:
		e.sell(ctx, sig)
	}
}

// buy открывает позицию. BUY блокируется рубильником tradingEnabled,
// SELL — никогда: закрываться надо уметь всегда.
func (e *Executor) buy(ctx context.Context, sig models.Signal) {
	if !e.led.TradingEnabled() {
		e.n.Sendf(ctx, "⛔️ [%s] BUY отклонён: торговля отключена (circuit breaker или вручную)", sig.Symbol)
		return
	}

	available, err := e.available(ctx)
	if err != nil {
		e.notifyFail(ctx, sig.Symbol, "получение баланса", err)
		return
	}

	amount := e.p.RiskPct / 100 * available / sig.Price
	if amount <= 0 {
		e.n.Sendf(ctx, "❗️ [%s] BUY отклонён: некорректный размер (amount=%.8f)", sig.Symbol, amount)
		return
	}

	comm := e.p.CommissionPct / 100

	if e.led.Mode() == models.ModeDemo {
		cost := amount * sig.Price * (1 + comm)
		if err := e.led.DebitDemo(cost); err != nil {
			e.n.Sendf(ctx, "❗️ [%s] BUY отклонён: недостаточно демо-баланса (нужно %.2f, есть %.2f)",
				sig.Symbol, cost, e.led.DemoBalance())
			return
		}
		pos := models.Position{
			Symbol:     sig.Symbol,
			Entry:      sig.Price,
			Amount:     amount,
			TakeProfit: sig.TakeProfit,
			StopLoss:   sig.StopLoss,
			OpenedAt:   e.now(),
			ATR:        sig.ATR * e.p.ATRMultiplier,
		}
		if err := e.led.OpenPosition(pos); err != nil {
			// позиция уже есть — возвращаем списанное
			e.led.CreditDemo(cost)
			e.notifyFail(ctx, sig.Symbol, "открытие демо-позиции", err)
			return
		}
		e.n.Sendf(ctx, "✅ [%s] DEMO BUY %.8f @ %.6f | TP=%.6f SL=%.6f | баланс %.2f\n%s",
			sig.Symbol, amount, sig.Price, pos.TakeProfit, pos.StopLoss, e.led.DemoBalance(), sig.Reason)
		e.journal(ctx, journal.Fill{
			Symbol: sig.Symbol, Side: models.SideBuy, Mode: models.ModeDemo,
			Price: sig.Price, Amount: amount, Fee: amount * sig.Price * comm, FilledAt: e.now(),
		})
		return
	}

	// live: рыночный ордер через ретраер; позиция заводится только по
	// непустому филлу и по его цене — котировка сигнала может проскользнуть
	order, err := exchange.Retry(ctx, e.retr, "createOrder", func(ctx context.Context) (*models.Order, error) {
		return e.api.CreateOrder(ctx, sig.Symbol, models.SideBuy, amount)
	})
	if err != nil {
		e.notifyFail(ctx, sig.Symbol, "BUY ордер", err)
		return
	}

	pos := models.Position{
		Symbol:     sig.Symbol,
		Entry:      order.Price,
		Amount:     order.Amount,
		TakeProfit: order.Price * (1 + e.p.TakeProfitPct/100),
		StopLoss:   order.Price * (1 - e.p.StopLossPct/100),
		OpenedAt:   e.now(),
		ATR:        sig.ATR * e.p.ATRMultiplier,
	}
	if err := e.led.OpenPosition(pos); err != nil {
		e.notifyFail(ctx, sig.Symbol, "учёт live-позиции", err)
		return
	}
	e.n.Sendf(ctx, "✅ [%s] LIVE BUY %.8f @ %.6f (филл) | TP=%.6f SL=%.6f\n%s",
		sig.Symbol, order.Amount, order.Price, pos.TakeProfit, pos.StopLoss, sig.Reason)
	e.journal(ctx, journal.Fill{
		Symbol: sig.Symbol, Side: models.SideBuy, Mode: models.ModeLive,
		Price: order.Price, Amount: order.Amount, FilledAt: e.now(),
	})
}

// sell закрывает позицию активного режима. Позиция снимается с учёта до
// внешнего вызова: продать символ дважды из одного сигнала нельзя. Если
// live-ордер после снятия не прошёл — позиция остаётся снятой, оператору
// уходит алерт на ручную сверку. Это осознанный at-most-once-close.
func (e *Executor) sell(ctx context.Context, sig models.Signal) {
	pos, ok := e.led.PopPosition(sig.Symbol)
	if !ok {
		e.n.Sendf(ctx, "❗️ [%s] SELL без открытой позиции — пропуск", sig.Symbol)
		return
	}

	comm := e.p.CommissionPct / 100

	if e.led.Mode() == models.ModeDemo {
		proceeds := pos.Amount * sig.Price * (1 - comm)
		e.led.CreditDemo(proceeds)

		pnlAbs := (sig.Price - pos.Entry) * pos.Amount
		pnlPct := (sig.Price - pos.Entry) / pos.Entry * 100
		held := e.now().Sub(pos.OpenedAt).Round(time.Second)
		e.n.Sendf(ctx, "💰 [%s] DEMO SELL %.8f @ %.6f | PnL %+.2f%% (%+.2f) | в позиции %s | баланс %.2f\n%s",
			sig.Symbol, pos.Amount, sig.Price, pnlPct, pnlAbs, held, e.led.DemoBalance(), sig.Reason)
		e.journal(ctx, journal.Fill{
			Symbol: sig.Symbol, Side: models.SideSell, Mode: models.ModeDemo,
			Price: sig.Price, Amount: pos.Amount, Fee: pos.Amount * sig.Price * comm,
			PnL: pnlAbs, FilledAt: e.now(),
		})
		return
	}

	order, err := exchange.Retry(ctx, e.retr, "createOrder", func(ctx context.Context) (*models.Order, error) {
		return e.api.CreateOrder(ctx, sig.Symbol, models.SideSell, pos.Amount)
	})
	if err != nil {
		// позиция уже снята с учёта, а ордер мог не исполниться
		e.n.Sendf(ctx, "🚨 [%s] SELL ордер не прошёл, позиция снята с учёта — нужна ручная сверка: %v",
			sig.Symbol, err)
		return
	}

	pnlAbs := (order.Price - pos.Entry) * order.Amount
	pnlPct := (order.Price - pos.Entry) / pos.Entry * 100
	held := e.now().Sub(pos.OpenedAt).Round(time.Second)
	e.n.Sendf(ctx, "💰 [%s] LIVE SELL %.8f @ %.6f (филл) | PnL %+.2f%% (%+.2f) | в позиции %s\n%s",
		sig.Symbol, order.Amount, order.Price, pnlPct, pnlAbs, held, sig.Reason)
	e.journal(ctx, journal.Fill{
		Symbol: sig.Symbol, Side: models.SideSell, Mode: models.ModeLive,
		Price: order.Price, Amount: order.Amount, PnL: pnlAbs, FilledAt: e.now(),
	})
}

// available — доступный для входа баланс в валюте котировки.
func (e *Executor) available(ctx context.Context) (float64, error) {
	if e.led.Mode() == models.ModeDemo {
		return e.led.DemoBalance(), nil
	}
	bal, err := exchange.Retry(ctx, e.retr, "fetchBalance", func(ctx context.Context) (map[string]float64, error) {
		b, err := e.api.FetchBalance(ctx)
		if err != nil {
			return nil, err
		}
		return b.Total, nil
	})
	if err != nil {
		return 0, err
	}
	return bal[e.led.Quote()], nil
}

func (e *Executor) notifyFail(ctx context.Context, symbol, stage string, err error) {
	logger.Error("[EXEC] %s: %s: %v", symbol, stage, err)
	e.n.Sendf(ctx, "❗️ [%s] Ошибка исполнения (%s): %v", symbol, stage, err)
}

func (e *Executor) journal(ctx context.Context, f journal.Fill) {
	if err := e.jrn.Append(ctx, f); err != nil {
		logger.Error("[JOURNAL] запись не удалась: %v", err)
	}
}
