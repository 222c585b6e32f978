package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	btnToggleTrading = "⏯ Торговля вкл/выкл"
	btnToggleMode    = "🔁 Режим Demo/Live"
	btnStatus        = "📊 Статус"
	btnPositions     = "📈 Позиции"
	btnResetDemo     = "💰 Сбросить демо-баланс"
)

func (t *Telegram) handleUpdate(ctx context.Context, update tgbot.Update) {
	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return
	}
	chatID := msg.Chat.ID
	// командуем ботом только из своего чата
	if chatID != t.cfg.Telegram.ChatID && chatID != t.cfg.Telegram.AdminChatID {
		return
	}

	if msg.IsCommand() {
		switch msg.Command() {
		case "start", "help":
			t.handleStart(ctx, chatID)
		case "status":
			t.handleStatus(ctx, chatID)
		case "positions":
			t.handlePositions(ctx, chatID)
		case "balance":
			t.handleBalance(ctx, chatID)
		case "reset_demo":
			// /reset_demo 500 — новый демо-депозит; без аргумента берём дефолт
			amount := t.cfg.DemoBalance
			if arg := strings.TrimSpace(msg.CommandArguments()); arg != "" {
				if v, err := strconv.ParseFloat(arg, 64); err == nil {
					amount = v
				}
			}
			t.resetDemo(ctx, chatID, amount)
		}
		return
	}

	switch strings.TrimSpace(msg.Text) {
	case btnToggleTrading:
		t.toggleTrading(ctx, chatID)
	case btnToggleMode:
		t.toggleMode(ctx, chatID)
	case btnStatus:
		t.handleStatus(ctx, chatID)
	case btnPositions:
		t.handlePositions(ctx, chatID)
	case btnResetDemo:
		t.resetDemo(ctx, chatID, t.cfg.DemoBalance)
	}
}

func (t *Telegram) handleStart(ctx context.Context, chatID int64) {
	replyKb := tgbot.NewReplyKeyboard(
		tgbot.NewKeyboardButtonRow(
			tgbot.NewKeyboardButton(btnToggleTrading),
			tgbot.NewKeyboardButton(btnToggleMode),
		),
		tgbot.NewKeyboardButtonRow(
			tgbot.NewKeyboardButton(btnStatus),
			tgbot.NewKeyboardButton(btnPositions),
		),
		tgbot.NewKeyboardButtonRow(
			tgbot.NewKeyboardButton(btnResetDemo),
		),
	)

	msgText := "Привет! Я сканирую спот-рынок и торгую по сигналам.\n\n" +
		"• Режим *Demo* — виртуальный депозит, *Live* — реальные ордера.\n" +
		"• Рубильник торговли блокирует только покупки, продажи проходят всегда.\n" +
		"• `/reset_demo 1000` — новый демо-депозит.\n"

	msg := tgbot.NewMessage(chatID, msgText)
	msg.ParseMode = tgbot.ModeMarkdown
	msg.ReplyMarkup = replyKb

	if _, err := t.bot.Send(msg); err != nil {
		t.Send(ctx, chatID, msgText)
	}
}

func (t *Telegram) handleStatus(ctx context.Context, chatID int64) {
	t.Send(ctx, chatID, t.formatStatus())
}

func (t *Telegram) handlePositions(ctx context.Context, chatID int64) {
	t.Send(ctx, chatID, t.formatPositions())
}

func (t *Telegram) handleBalance(ctx context.Context, chatID int64) {
	t.Send(ctx, chatID, fmt.Sprintf("💼 Демо-баланс: %.2f %s", t.led.DemoBalance(), t.led.Quote()))
}
