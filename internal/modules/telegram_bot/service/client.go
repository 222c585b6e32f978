package service

import (
	"context"
	"fmt"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"spot_bot/internal/ledger"
	"spot_bot/internal/modules/config"
	"spot_bot/pkg/logger"
)

// Telegram — нотифайер + командная поверхность над леджером.
type Telegram struct {
	bot *tgbot.BotAPI
	cfg *config.Config
	led *ledger.Ledger
}

func NewTelegram(cfg *config.Config, led *ledger.Ledger) (*Telegram, error) {
	b, err := tgbot.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, err
	}

	return &Telegram{
		bot: b,
		cfg: cfg,
		led: led,
	}, nil
}

// Send шлёт Markdown; если Telegram не принял разметку — одна повторная
// попытка plain-text, дальше сдаёмся. Ошибки нотификаций не эскалируем.
func (t *Telegram) Send(ctx context.Context, chatID int64, text string) {
	msg := tgbot.NewMessage(chatID, text)
	msg.ParseMode = tgbot.ModeMarkdown
	if _, err := t.bot.Send(msg); err != nil {
		plain := tgbot.NewMessage(chatID, text)
		if _, err2 := t.bot.Send(plain); err2 != nil {
			logger.Error("[TG] отправка не удалась (markdown: %v, plain: %v)", err, err2)
		}
	}
}

func (t *Telegram) Sendf(ctx context.Context, format string, args ...any) {
	t.Send(ctx, t.cfg.Telegram.ChatID, fmt.Sprintf(format, args...))
}

// SendAdminf — риск-алерты в отдельный админ-канал.
func (t *Telegram) SendAdminf(ctx context.Context, format string, args ...any) {
	t.Send(ctx, t.cfg.Telegram.AdminChatID, fmt.Sprintf(format, args...))
}

// Start — long-polling обновлений до отмены контекста.
func (t *Telegram) Start(ctx context.Context) {
	u := tgbot.NewUpdate(0)
	u.Timeout = 30
	u.AllowedUpdates = []string{"message"}

	updates := t.bot.GetUpdatesChan(u)
	for {
		select {
		case <-ctx.Done():
			t.bot.StopReceivingUpdates()
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			t.handleUpdate(ctx, upd)
		}
	}
}
