package ledger

import (
	"sync"

	"github.com/pkg/errors"

	"spot_bot/internal/models"
)

// Ledger — единственный владелец позиций, демо-баланса и флагов.
// Всё состояние процесса живёт здесь и только на время процесса,
// мутации — строго через методы под мьютексом.
type Ledger struct {
	mu sync.Mutex

	mode  models.Mode
	quote string // валюта котировки, в ней ведём демо-депозит

	demoBalance   map[string]float64
	demoPositions map[string]models.Position
	livePositions map[string]models.Position

	peakBalance    float64
	tradingEnabled bool
}

func New(quote string, demoStart float64) *Ledger {
	return &Ledger{
		mode:           models.ModeDemo,
		quote:          quote,
		demoBalance:    map[string]float64{quote: demoStart},
		demoPositions:  make(map[string]models.Position),
		livePositions:  make(map[string]models.Position),
		tradingEnabled: true,
	}
}

func (l *Ledger) Mode() models.Mode {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.mode
}

// SetMode атомарно переключает активный режим. Позиции другого режима
// не закрываются — остаются числиться, но выпадают из активного вида.
func (l *Ledger) SetMode(m models.Mode) {
	l.mu.Lock()
	l.mode = m
	l.mu.Unlock()
}

func (l *Ledger) TradingEnabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tradingEnabled
}

func (l *Ledger) SetTradingEnabled(v bool) {
	l.mu.Lock()
	l.tradingEnabled = v
	l.mu.Unlock()
}

func (l *Ledger) Quote() string { return l.quote }

func (l *Ledger) DemoBalance() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.demoBalance[l.quote]
}

func (l *Ledger) ResetDemoBalance(amount float64) error {
	if amount <= 0 {
		return errors.Errorf("demo balance must be positive, got %.2f", amount)
	}
	l.mu.Lock()
	l.demoBalance = map[string]float64{l.quote: amount}
	l.mu.Unlock()
	return nil
}

// DebitDemo списывает cost с демо-депозита; уйти в минус нельзя.
func (l *Ledger) DebitDemo(cost float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if cost > l.demoBalance[l.quote] {
		return errors.Errorf("insufficient demo balance: need %.2f, have %.2f",
			cost, l.demoBalance[l.quote])
	}
	l.demoBalance[l.quote] -= cost
	return nil
}

func (l *Ledger) CreditDemo(amount float64) {
	l.mu.Lock()
	l.demoBalance[l.quote] += amount
	l.mu.Unlock()
}

// Held — занят ли символ в любом из режимов. Такие символы
// сканер не берёт в кандидаты.
func (l *Ledger) Held(symbol string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, demo := l.demoPositions[symbol]
	_, live := l.livePositions[symbol]
	return demo || live
}

// Position — открытая позиция символа в активном режиме.
func (l *Ledger) Position(symbol string) (models.Position, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.active()[symbol]
	return p, ok
}

// OpenPosition вставляет позицию в активный режим; по символу может быть
// максимум одна.
func (l *Ledger) OpenPosition(p models.Position) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.active()[p.Symbol]; ok {
		return errors.Errorf("position already open for %s", p.Symbol)
	}
	l.active()[p.Symbol] = p
	return nil
}

// PopPosition атомарно снимает позицию с учёта и возвращает её.
// Снятие до внешнего вызова гарантирует, что символ не продастся дважды.
func (l *Ledger) PopPosition(symbol string) (models.Position, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.active()[symbol]
	if ok {
		delete(l.active(), symbol)
	}
	return p, ok
}

// Positions — копия позиций активного режима.
func (l *Ledger) Positions() map[string]models.Position {
	l.mu.Lock()
	defer l.mu.Unlock()
	res := make(map[string]models.Position, len(l.active()))
	for s, p := range l.active() {
		res[s] = p
	}
	return res
}

func (l *Ledger) Peak() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.peakBalance
}

func (l *Ledger) SetPeak(v float64) {
	l.mu.Lock()
	l.peakBalance = v
	l.mu.Unlock()
}

// active — набор позиций текущего режима; зовётся только под мьютексом.
func (l *Ledger) active() map[string]models.Position {
	if l.mode == models.ModeLive {
		return l.livePositions
	}
	return l.demoPositions
}
