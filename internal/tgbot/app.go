package tgbot

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	qrcode "github.com/skip2/go-qrcode"

	"qris-pay-bot/internal/config"
	"qris-pay-bot/internal/models"
	"qris-pay-bot/internal/payments"
	"qris-pay-bot/internal/util"
)

const qrImageSize = 512

// payAmounts are the preset QRIS amounts offered by /pay, in IDR.
var payAmounts = []int64{10_000, 50_000, 100_000}

// App is the Telegram side of the bot: commands, payment buttons, and the
// notifier the webhook dispatcher delivers through.
type App struct {
	cfg       config.Config
	bot       *tgbotapi.BotAPI
	provider  payments.Provider
	initiator *payments.Initiator
	logger    *slog.Logger
}

func New(cfg config.Config, provider payments.Provider, initiator *payments.Initiator, logger *slog.Logger) (*App, error) {
	b, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return nil, err
	}
	b.Debug = false
	return &App{
		cfg:       cfg,
		bot:       b,
		provider:  provider,
		initiator: initiator,
		logger:    logger,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := a.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case upd := <-updates:
			if upd.Message != nil {
				if err := a.handleMessage(ctx, upd.Message); err != nil {
					a.logger.ErrorContext(ctx, "handle message", "error", err)
				}
			} else if upd.CallbackQuery != nil {
				if err := a.handleCallback(ctx, upd.CallbackQuery); err != nil {
					a.logger.ErrorContext(ctx, "handle callback", "error", err)
				}
			}
		}
	}
}

func (a *App) SendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := a.bot.Send(msg)
	return err
}

func (a *App) isAdmin(tgID int64) bool {
	return a.cfg.AdminTGIDs[tgID]
}

// ---------- Message handling ----------

func (a *App) handleMessage(ctx context.Context, m *tgbotapi.Message) error {
	tgID := m.From.ID
	txt := strings.TrimSpace(m.Text)

	switch {
	case strings.HasPrefix(txt, "/start"):
		return a.SendText(tgID, "Halo! Commands:\n/pay — create a QRIS payment\n/accounts — connected accounts (admin)\n/transactions — recent transactions (admin)")
	case strings.HasPrefix(txt, "/pay"):
		return a.showPayMenu(tgID)
	case strings.HasPrefix(txt, "/accounts"):
		if !a.isAdmin(tgID) {
			return a.SendText(tgID, "You do not have permission to use this command.")
		}
		return a.showAccounts(ctx, tgID)
	case strings.HasPrefix(txt, "/transactions"):
		if !a.isAdmin(tgID) {
			return a.SendText(tgID, "You do not have permission to use this command.")
		}
		return a.showTransactions(ctx, tgID)
	}
	return nil
}

func (a *App) showPayMenu(tgID int64) error {
	var row []tgbotapi.InlineKeyboardButton
	for _, amount := range payAmounts {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(
			"💳 Rp "+util.FormatRupiah(amount),
			"pay_"+strconv.FormatInt(amount, 10),
		))
	}

	msg := tgbotapi.NewMessage(tgID, "Choose payment amount:")
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(row...))
	_, err := a.bot.Send(msg)
	return err
}

func (a *App) showAccounts(ctx context.Context, tgID int64) error {
	accounts, err := a.provider.Accounts(ctx)
	if err != nil {
		a.logger.ErrorContext(ctx, "fetch accounts", "error", err)
		return a.SendText(tgID, "Failed to fetch accounts.")
	}
	if len(accounts) == 0 {
		return a.SendText(tgID, "No accounts found.")
	}

	var b strings.Builder
	b.WriteString("💰 Connected accounts:\n")
	for _, acc := range accounts {
		status := "✅ active"
		if !acc.IsActive {
			status = "❌ inactive"
		}
		fmt.Fprintf(&b, "\n%s (%s)\nBalance: Rp %s\nStatus: %s\n",
			acc.Name, acc.ProviderCode, util.FormatRupiah(acc.Balance), status)
	}
	return a.SendText(tgID, b.String())
}

func (a *App) showTransactions(ctx context.Context, tgID int64) error {
	mutations, err := a.provider.Mutations(ctx, 7, 5)
	if err != nil {
		a.logger.ErrorContext(ctx, "fetch mutations", "error", err)
		return a.SendText(tgID, "Failed to fetch transactions.")
	}
	if len(mutations) == 0 {
		return a.SendText(tgID, "No transactions found.")
	}

	var b strings.Builder
	b.WriteString("📜 Recent transactions:\n")
	for _, tx := range mutations {
		icon := "💚"
		if tx.Type != "CREDIT" {
			icon = "💔"
		}
		desc := tx.Description
		if desc == "" {
			desc = "No description"
		}
		fmt.Fprintf(&b, "\n%s Rp %s — %s\n", icon, util.FormatRupiah(tx.Amount), desc)
	}
	return a.SendText(tgID, b.String())
}

// ---------- Callback handling ----------

func (a *App) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) error {
	tgID := q.From.ID
	data := q.Data

	// ack
	cb := tgbotapi.NewCallback(q.ID, "")
	_, _ = a.bot.Request(cb)

	if strings.HasPrefix(data, "pay_") {
		amount, err := strconv.ParseInt(strings.TrimPrefix(data, "pay_"), 10, 64)
		if err != nil || amount <= 0 {
			return a.SendText(tgID, "Invalid amount.")
		}
		return a.handlePayment(ctx, tgID, amount, q.From.UserName)
	}
	return nil
}

func (a *App) handlePayment(ctx context.Context, tgID int64, amount int64, username string) error {
	payment, err := a.initiator.Create(ctx, tgID, amount, username)
	if err != nil {
		return a.SendText(tgID, "❌ Failed: "+err.Error())
	}
	return a.sendPaymentQR(tgID, payment)
}

func (a *App) sendPaymentQR(tgID int64, p *models.Payment) error {
	caption := fmt.Sprintf(
		"📱 Scan QRIS to pay\n\n💰 Amount: Rp %s\n⏰ Expires: %s\n🏦 Provider: %s\n🔖 Order: %s",
		util.FormatRupiah(p.TotalAmount),
		p.ExpiresAt.Format("15:04:05"),
		p.ProviderName,
		p.ExternalID,
	)

	var photo tgbotapi.PhotoConfig
	if p.QRImageURL != "" {
		photo = tgbotapi.NewPhoto(tgID, tgbotapi.FileURL(p.QRImageURL))
	} else {
		png, err := qrcode.Encode(p.QRPayload, qrcode.Medium, qrImageSize)
		if err != nil {
			return a.SendText(tgID, caption+"\n\nQRIS: "+p.QRPayload)
		}
		photo = tgbotapi.NewPhoto(tgID, tgbotapi.FileBytes{Name: "qris.png", Bytes: png})
	}
	photo.Caption = caption

	_, err := a.bot.Send(photo)
	return err
}

// ---------- Notifier ----------

func (a *App) NotifyCompleted(ctx context.Context, userID int64, externalID string, amount int64) error {
	return a.SendText(userID, fmt.Sprintf(
		"✅ Payment successful!\nThank you, your payment has been received.\n\n💰 Amount: Rp %s\n🔖 Order: %s",
		util.FormatRupiah(amount), externalID))
}

func (a *App) NotifyExpired(ctx context.Context, userID int64, externalID string, amount int64) error {
	return a.SendText(userID, fmt.Sprintf(
		"⏰ Payment expired.\nThis payment has expired, please create a new one.\n\n💰 Amount: Rp %s\n🔖 Order: %s",
		util.FormatRupiah(amount), externalID))
}
