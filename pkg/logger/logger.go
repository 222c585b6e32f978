package logger

import (
	"fmt"

	"go.uber.org/zap"
)

var base *zap.Logger

var (
	serviceName = "spot_bot"
)

func SetServiceName(newName string) string {
	oldName := serviceName
	serviceName = newName

	return oldName
}

// Init собирает продовый zap-логгер. Зовётся один раз из main.
func Init() error {
	l, err := zap.NewProduction(zap.WithCaller(false))
	if err != nil {
		return err
	}
	base = l
	return nil
}

func Sync() {
	if base != nil {
		_ = base.Sync()
	}
}

func log() *zap.Logger {
	if base == nil {
		// до Init — не падаем, логи нужны и в тестах
		base = zap.NewNop()
	}
	return base.With(zap.String("service", serviceName))
}

func Info(format string, args ...interface{}) {
	log().Info(fmt.Sprintf(format, args...))
}

func Warn(format string, args ...interface{}) {
	log().Warn(fmt.Sprintf(format, args...))
}

func Error(format string, args ...interface{}) {
	log().Error(fmt.Sprintf(format, args...))
}

func Fatal(format string, args ...interface{}) {
	log().Fatal(fmt.Sprintf(format, args...))
}
