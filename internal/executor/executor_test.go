package executor

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spot_bot/internal/exchange"
	"spot_bot/internal/journal"
	"spot_bot/internal/ledger"
	"spot_bot/internal/models"
)

type fakeNotifier struct {
	msgs []string
}

func (f *fakeNotifier) Sendf(_ context.Context, format string, args ...any) {
	f.msgs = append(f.msgs, fmt.Sprintf(format, args...))
}

func (f *fakeNotifier) last() string {
	if len(f.msgs) == 0 {
		return ""
	}
	return f.msgs[len(f.msgs)-1]
}

type fakeApi struct {
	balance  models.Balance
	order    *models.Order
	orderErr error

	orders []struct {
		Symbol string
		Side   models.Side
		Amount float64
	}
}

func (f *fakeApi) FetchMarkets(ctx context.Context) ([]models.Market, error) { return nil, nil }
func (f *fakeApi) FetchTickers(ctx context.Context) (map[string]models.Ticker, error) {
	return nil, nil
}
func (f *fakeApi) FetchTicker(ctx context.Context, symbol string) (models.Ticker, error) {
	return models.Ticker{}, nil
}
func (f *fakeApi) FetchOHLCV(ctx context.Context, symbol, timeframe string, limit int) ([]models.Candle, error) {
	return nil, nil
}
func (f *fakeApi) FetchBalance(ctx context.Context) (models.Balance, error) {
	return f.balance, nil
}
func (f *fakeApi) CreateOrder(ctx context.Context, symbol string, side models.Side, amount float64) (*models.Order, error) {
	f.orders = append(f.orders, struct {
		Symbol string
		Side   models.Side
		Amount float64
	}{symbol, side, amount})
	if f.orderErr != nil {
		return nil, f.orderErr
	}
	return f.order, nil
}

func noSleep() *exchange.Retrier {
	return &exchange.Retrier{Attempts: 3, Sleep: func(time.Duration) {}}
}

func newTestExecutor(led *ledger.Ledger, api exchange.Api) (*Executor, *fakeNotifier) {
	n := &fakeNotifier{}
	e := New(led, api, noSleep(), n, journal.Noop{}, Params{
		RiskPct:       10,
		TakeProfitPct: 3,
		StopLossPct:   2,
		CommissionPct: 0.1,
		ATRMultiplier: 1.5,
	})
	e.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return e, n
}

func buySignal(symbol string, price float64) models.Signal {
	return models.Signal{
		Kind:       models.SignalBuy,
		Symbol:     symbol,
		Price:      price,
		TakeProfit: price * 1.03,
		StopLoss:   price * 0.98,
		Reason:     "RSI 30.0 < 35",
	}
}

func TestDemoBuyDebitsCostWithCommission(t *testing.T) {
	led := ledger.New("USDT", 1000)
	e, _ := newTestExecutor(led, &fakeApi{})

	e.OnSignal(context.Background(), buySignal("BTC/USDT", 100))

	// amount = 10% * 1000 / 100 = 1; cost = 1*100*1.001 = 100.1
	assert.InDelta(t, 899.9, led.DemoBalance(), 1e-9)

	pos, ok := led.Position("BTC/USDT")
	require.True(t, ok)
	assert.Equal(t, 100.0, pos.Entry)
	assert.InDelta(t, 1.0, pos.Amount, 1e-9)
	assert.InDelta(t, 103.0, pos.TakeProfit, 1e-9)
	assert.InDelta(t, 98.0, pos.StopLoss, 1e-9)
}

// покупка и продажа по той же цене: баланс теряет ровно две комиссии
func TestDemoRoundTripLosesOnlyCommission(t *testing.T) {
	led := ledger.New("USDT", 1000)
	e, _ := newTestExecutor(led, &fakeApi{})

	e.OnSignal(context.Background(), buySignal("BTC/USDT", 100))
	e.OnSignal(context.Background(), models.Signal{
		Kind: models.SignalSell, Symbol: "BTC/USDT", Price: 100, Reason: "RSI 75.0 > 70",
	})

	// 2 * amount * price * 0.1% = 2 * 1 * 100 * 0.001 = 0.2
	assert.InDelta(t, 999.8, led.DemoBalance(), 1e-9)

	_, ok := led.Position("BTC/USDT")
	assert.False(t, ok)
}

func TestBuyBlockedWhenTradingDisabled(t *testing.T) {
	led := ledger.New("USDT", 1000)
	led.SetTradingEnabled(false)
	e, n := newTestExecutor(led, &fakeApi{})

	e.OnSignal(context.Background(), buySignal("BTC/USDT", 100))

	assert.Equal(t, 1000.0, led.DemoBalance())
	_, ok := led.Position("BTC/USDT")
	assert.False(t, ok)
	assert.Contains(t, n.last(), "торговля отключена")
}

// рубильник не мешает закрываться
func TestSellNotBlockedWhenTradingDisabled(t *testing.T) {
	led := ledger.New("USDT", 1000)
	e, _ := newTestExecutor(led, &fakeApi{})
	e.OnSignal(context.Background(), buySignal("BTC/USDT", 100))

	led.SetTradingEnabled(false)
	e.OnSignal(context.Background(), models.Signal{
		Kind: models.SignalSell, Symbol: "BTC/USDT", Price: 110, Reason: "стоп",
	})

	_, ok := led.Position("BTC/USDT")
	assert.False(t, ok)
	// 1000 - 100.1 + 110*0.999 = 1009.79
	assert.InDelta(t, 1009.79, led.DemoBalance(), 1e-9)
}

func TestDemoBuyInsufficientBalance(t *testing.T) {
	led := ledger.New("USDT", 1000)
	e, n := newTestExecutor(led, &fakeApi{})
	// 100% риска: cost = 1000 * 1.001 > 1000
	e.p.RiskPct = 100

	e.OnSignal(context.Background(), buySignal("BTC/USDT", 100))

	assert.Equal(t, 1000.0, led.DemoBalance())
	_, ok := led.Position("BTC/USDT")
	assert.False(t, ok)
	assert.Contains(t, n.last(), "недостаточно демо-баланса")
}

func TestSellWithoutPositionSkipped(t *testing.T) {
	led := ledger.New("USDT", 1000)
	e, n := newTestExecutor(led, &fakeApi{})

	e.OnSignal(context.Background(), models.Signal{
		Kind: models.SignalSell, Symbol: "BTC/USDT", Price: 100,
	})

	assert.Equal(t, 1000.0, led.DemoBalance())
	assert.Contains(t, n.last(), "без открытой позиции")
}

// live BUY: позиция заводится по цене филла, не по котировке сигнала
func TestLiveBuyUsesFillPrice(t *testing.T) {
	led := ledger.New("USDT", 0)
	led.SetMode(models.ModeLive)
	api := &fakeApi{
		balance: models.Balance{Total: map[string]float64{"USDT": 2000}},
		order:   &models.Order{Symbol: "ETH/USDT", Side: models.SideBuy, Price: 101, Amount: 1.9},
	}
	e, _ := newTestExecutor(led, api)

	e.OnSignal(context.Background(), buySignal("ETH/USDT", 100))

	require.Len(t, api.orders, 1)
	assert.Equal(t, models.SideBuy, api.orders[0].Side)
	// amount по котировке сигнала: 10% * 2000 / 100 = 2
	assert.InDelta(t, 2.0, api.orders[0].Amount, 1e-9)

	pos, ok := led.Position("ETH/USDT")
	require.True(t, ok)
	assert.Equal(t, 101.0, pos.Entry)
	assert.Equal(t, 1.9, pos.Amount)
	// TP/SL пересчитаны от филла
	assert.InDelta(t, 101*1.03, pos.TakeProfit, 1e-9)
	assert.InDelta(t, 101*0.98, pos.StopLoss, 1e-9)
}

// отказ биржи на BUY: позиции нет, баланс не тронут, ретраев нет
func TestLiveBuyRejectedNoPosition(t *testing.T) {
	led := ledger.New("USDT", 0)
	led.SetMode(models.ModeLive)
	api := &fakeApi{
		balance:  models.Balance{Total: map[string]float64{"USDT": 2000}},
		orderErr: &exchange.RejectedError{Op: "createOrder", Code: "51008", Msg: "insufficient balance"},
	}
	e, n := newTestExecutor(led, api)

	e.OnSignal(context.Background(), buySignal("ETH/USDT", 100))

	assert.Len(t, api.orders, 1)
	_, ok := led.Position("ETH/USDT")
	assert.False(t, ok)
	assert.Contains(t, n.last(), "Ошибка исполнения")
}

// провал live SELL: позиция остаётся снятой, оператору — алерт на сверку
func TestLiveSellFailureLeavesPositionPopped(t *testing.T) {
	led := ledger.New("USDT", 0)
	led.SetMode(models.ModeLive)
	require.NoError(t, led.OpenPosition(models.Position{
		Symbol: "BTC/USDT", Entry: 100, Amount: 1, TakeProfit: 103, StopLoss: 98,
		OpenedAt: time.Now(),
	}))

	api := &fakeApi{orderErr: errors.New("dial tcp: i/o timeout")}
	e, n := newTestExecutor(led, api)

	e.OnSignal(context.Background(), models.Signal{
		Kind: models.SignalSell, Symbol: "BTC/USDT", Price: 90, Reason: "стоп",
	})

	// ретраер дал все три попытки
	assert.Len(t, api.orders, 3)
	_, ok := led.Position("BTC/USDT")
	assert.False(t, ok, "позиция не возвращается в учёт")
	assert.Contains(t, n.last(), "ручная сверка")
}

func TestLiveSellReportsPnL(t *testing.T) {
	led := ledger.New("USDT", 0)
	led.SetMode(models.ModeLive)
	require.NoError(t, led.OpenPosition(models.Position{
		Symbol: "BTC/USDT", Entry: 100, Amount: 2, TakeProfit: 103, StopLoss: 98,
		OpenedAt: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	}))

	api := &fakeApi{order: &models.Order{Symbol: "BTC/USDT", Side: models.SideSell, Price: 110, Amount: 2}}
	e, n := newTestExecutor(led, api)

	e.OnSignal(context.Background(), models.Signal{
		Kind: models.SignalSell, Symbol: "BTC/USDT", Price: 110, Reason: "RSI 72.0 > 70",
	})

	require.Len(t, api.orders, 1)
	assert.Equal(t, models.SideSell, api.orders[0].Side)
	assert.Contains(t, n.last(), "+10.00%")
	assert.Contains(t, n.last(), "2h0m0s")
}
