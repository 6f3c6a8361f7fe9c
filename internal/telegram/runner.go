package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-telegram/bot"
	"go.uber.org/zap"

	"stampbot/internal/config"
)

// NewBot creates the bot client with h as its update handler.
func NewBot(cfg *config.Config, h *Handlers) (*bot.Bot, error) {
	opts := []bot.Option{
		bot.WithDefaultHandler(h.Handle),
		bot.WithServerURL(cfg.Bot.APIURL),
	}
	if cfg.Bot.Mode == config.ModeWebhook {
		opts = append(opts, bot.WithWebhookSecretToken(cfg.Bot.WebhookSecret))
	}

	b, err := bot.New(cfg.Bot.Token, opts...)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}
	return b, nil
}

// Runner receives updates in the configured mode until its context ends.
type Runner struct {
	Bot *bot.Bot
	Cfg *config.Config
	Log *zap.Logger
}

// WebhookHandler returns the HTTP handler for webhook updates, or nil in
// polling mode.
func (r *Runner) WebhookHandler() http.Handler {
	if r.Cfg.Bot.Mode != config.ModeWebhook {
		return nil
	}
	return r.Bot.WebhookHandler()
}

// Run blocks until ctx is done. In polling mode it removes any registered
// webhook first; in webhook mode it registers the public URL.
func (r *Runner) Run(ctx context.Context) error {
	switch r.Cfg.Bot.Mode {
	case config.ModeWebhook:
		url := strings.TrimRight(r.Cfg.Bot.WebhookURL, "/") + r.Cfg.WebhookPath()
		if _, err := r.Bot.SetWebhook(ctx, &bot.SetWebhookParams{
			URL:         url,
			SecretToken: r.Cfg.Bot.WebhookSecret,
		}); err != nil {
			return fmt.Errorf("set webhook: %w", err)
		}
		r.Log.Info("bot receiving updates by webhook", zap.String("path", "/webhook/<secret>"))
		r.Bot.StartWebhook(ctx)
	default:
		if _, err := r.Bot.DeleteWebhook(ctx, &bot.DeleteWebhookParams{}); err != nil {
			r.Log.Warn("delete webhook failed", zap.Error(err))
		}
		r.Log.Info("bot receiving updates by polling")
		r.Bot.Start(ctx)
	}
	r.Log.Info("bot stopped")
	return nil
}
