package exchange

import (
	"errors"
	"fmt"
)

// Две категории отказов внешнего клиента:
//   - NetworkError — транспорт/5xx/пустой ответ, можно ретраить;
//   - RejectedError — биржа явно отклонила запрос, ретраить бессмысленно.

type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: network failure", e.Op)
	}
	return fmt.Sprintf("%s: network failure: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func netErr(op string, err error) error { return &NetworkError{Op: op, Err: err} }

type RejectedError struct {
	Op   string
	Code string
	Msg  string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s: rejected by exchange: code=%s msg=%s", e.Op, e.Code, e.Msg)
}

// IsRetryable — RejectedError не ретраим, всё остальное считаем сетевым.
func IsRetryable(err error) bool {
	var rej *RejectedError
	return !errors.As(err, &rej)
}
