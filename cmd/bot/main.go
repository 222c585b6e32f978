package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"go.uber.org/fx"

	"spot_bot/internal/modules/config"
	"spot_bot/internal/modules/health"
	"spot_bot/internal/modules/journal"
	"spot_bot/internal/modules/risk"
	telegram "spot_bot/internal/modules/telegram_bot"
	"spot_bot/internal/runner"
	"spot_bot/pkg/logger"
)

func main() {
	// .env опционален: в проде переменные приходят из окружения
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	app := fx.New(
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
		),
		config.Module(),
		journal.Module(),
		telegram.Module(),
		runner.Module(),
		risk.Module(),
		health.Module(),
	)
	if err := app.Start(context.Background()); err != nil {
		log.Fatal(err)
	}
	<-app.Done()
}
