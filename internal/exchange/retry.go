package exchange

import (
	"context"
	"reflect"
	"time"

	"github.com/pkg/errors"

	"spot_bot/pkg/logger"
)

const defaultAttempts = 3

// Retrier — общий ретрай-комбинатор для вызовов биржи.
// Сетевые отказы ретраим с бэкоффом 2^n секунд, отказ биржи отдаём сразу.
type Retrier struct {
	Attempts int
	Sleep    func(time.Duration) // подменяется в тестах
}

func NewRetrier() *Retrier {
	return &Retrier{
		Attempts: defaultAttempts,
		Sleep:    time.Sleep,
	}
}

// Retry выполняет fn максимум r.Attempts раз.
// Пустой/nil результат без ошибки приравнивается к сетевому отказу —
// молча принимать его нельзя.
func Retry[T any](ctx context.Context, r *Retrier, op string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 1; attempt <= r.Attempts; attempt++ {
		if attempt > 1 {
			// 2^0, 2^1, ... секунд между попытками
			r.Sleep(time.Duration(1<<(attempt-2)) * time.Second)
		}

		res, err := fn(ctx)
		if err == nil && isEmpty(res) {
			err = netErr(op, errors.New("empty response"))
		}
		if err == nil {
			return res, nil
		}
		if !IsRetryable(err) {
			return zero, err
		}

		lastErr = err
		if attempt < r.Attempts {
			logger.Warn("[RETRY] %s: попытка %d/%d не удалась: %v", op, attempt, r.Attempts, err)
		}
	}

	return zero, errors.Wrapf(lastErr, "%s: попытки исчерпаны (%d)", op, r.Attempts)
}

func isEmpty(v any) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Invalid:
		return true
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}
