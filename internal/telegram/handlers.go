package telegram

import (
	"context"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	"go.uber.org/zap"

	domainerrors "stampbot/internal/errors"
	"stampbot/internal/id"
	"stampbot/internal/ratelimit"
	"stampbot/internal/settings"
	"stampbot/internal/worker"
)

// Deps holds everything the handlers need.
type Deps struct {
	Settings   *settings.Manager
	Queue      *worker.Queue
	Limiter    *ratelimit.KeyedRateLimiter
	Downloader *Downloader
	Log        *zap.Logger

	ArchiveChatID   int64
	RequireSettings bool
	MaxFileSize     int64
}

// Handlers answers commands and document uploads.
type Handlers struct {
	Deps
	commands map[string]commandFunc
}

type commandFunc func(ctx context.Context, c Client, msg *tgmodels.Message, args string)

// NewHandlers returns handlers over deps.
func NewHandlers(deps Deps) *Handlers {
	h := &Handlers{Deps: deps}
	h.commands = map[string]commandFunc{
		"/start":         h.help,
		"/help":          h.help,
		"/set_watermark": h.setWatermark,
		"/settings":      h.showSettings,
		"/reset":         h.reset,
	}
	return h
}

// Handle is the bot's default handler.
func (h *Handlers) Handle(ctx context.Context, b *bot.Bot, update *tgmodels.Update) {
	h.Dispatch(ctx, b, update)
}

// Dispatch routes an update to the document or command handler. Other
// updates are ignored.
func (h *Handlers) Dispatch(ctx context.Context, c Client, update *tgmodels.Update) {
	msg := update.Message
	if msg == nil {
		return
	}

	if msg.Document != nil {
		h.upload(ctx, c, msg)
		return
	}

	name, args := splitCommand(msg.Text)
	if name == "" {
		return
	}
	cmd, ok := h.commands[name]
	if !ok {
		return
	}
	h.Log.Debug("command", zap.String("command", name), zap.Int64("chat_id", msg.Chat.ID))
	cmd(ctx, c, msg, args)
}

// splitCommand returns the lower-cased command without any "@botname" suffix
// and the rest of the text.
func splitCommand(text string) (name, args string) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", ""
	}
	name, args, _ = strings.Cut(text, " ")
	if i := strings.IndexByte(name, '@'); i >= 0 {
		name = name[:i]
	}
	return strings.ToLower(name), strings.TrimSpace(args)
}

// upload validates a document and queues it. Settings are read once here and
// copied into the job.
func (h *Handlers) upload(ctx context.Context, c Client, msg *tgmodels.Message) {
	doc := msg.Document
	userID := msg.Chat.ID
	log := h.Log.With(zap.Int64("user_id", userID), zap.String("file", doc.FileName))

	if doc.MimeType != pdfMIME {
		log.Info("upload rejected", zap.String("mime", doc.MimeType))
		h.replyError(ctx, c, msg, domainerrors.InvalidInputType("not a PDF: "+doc.MimeType))
		return
	}

	if h.Limiter != nil && !h.Limiter.Allow(strconv.FormatInt(userID, 10)) {
		h.replyError(ctx, c, msg, domainerrors.RateLimited("upload rate exceeded"))
		return
	}

	cfg, saved, err := h.Settings.Get(ctx, userID)
	if err != nil {
		log.Error("load settings failed", zap.Error(err))
		h.replyError(ctx, c, msg, err)
		return
	}
	if !saved && h.RequireSettings {
		h.replyError(ctx, c, msg, domainerrors.MissingConfiguration("no watermark configured"))
		return
	}

	if h.MaxFileSize > 0 && int64(doc.FileSize) > h.MaxFileSize {
		h.reply(ctx, c, msg, fileTooLargeText(h.MaxFileSize))
		return
	}

	data, err := h.Downloader.Download(ctx, c, doc.FileID)
	if err != nil {
		log.Warn("download failed", zap.Error(err))
		h.replyError(ctx, c, msg, err)
		return
	}

	jobID, err := id.Generate(id.Job)
	if err != nil {
		h.replyError(ctx, c, msg, domainerrors.Wrap(err, domainerrors.CodeInternal, "generate job id"))
		return
	}

	fileName := doc.FileName
	if fileName == "" {
		fileName = "document.pdf"
	}
	job := &worker.Job{
		ID:         jobID,
		DocumentID: uuid.New(),
		UserID:     userID,
		ChatID:     msg.Chat.ID,
		MessageID:  msg.ID,
		FileName:   fileName,
		Data:       data,
		Config:     cfg,
		Sink:       &Sink{Client: c, ArchiveChatID: h.ArchiveChatID, Log: h.Log},
	}
	if err := h.Queue.Enqueue(job); err != nil {
		log.Warn("enqueue failed", zap.Error(err))
		h.replyError(ctx, c, msg, err)
		return
	}

	h.reply(ctx, c, msg, receivedText(fileName))
}

func (h *Handlers) help(ctx context.Context, c Client, msg *tgmodels.Message, _ string) {
	h.reply(ctx, c, msg, usageText)
}

func (h *Handlers) setWatermark(ctx context.Context, c Client, msg *tgmodels.Message, args string) {
	cfg, err := h.Settings.Set(ctx, msg.Chat.ID, args)
	if err != nil {
		h.replyError(ctx, c, msg, err)
		return
	}
	h.Log.Info("watermark set", zap.Int64("user_id", msg.Chat.ID), zap.String("text", cfg.Text))
	h.reply(ctx, c, msg, watermarkSetText(cfg))
}

func (h *Handlers) showSettings(ctx context.Context, c Client, msg *tgmodels.Message, _ string) {
	cfg, saved, err := h.Settings.Get(ctx, msg.Chat.ID)
	if err != nil {
		h.replyError(ctx, c, msg, err)
		return
	}
	h.reply(ctx, c, msg, currentSettingsText(cfg, saved))
}

func (h *Handlers) reset(ctx context.Context, c Client, msg *tgmodels.Message, _ string) {
	cfg, err := h.Settings.Reset(ctx, msg.Chat.ID)
	if err != nil {
		h.replyError(ctx, c, msg, err)
		return
	}
	h.reply(ctx, c, msg, resetText(cfg))
}

func (h *Handlers) replyError(ctx context.Context, c Client, msg *tgmodels.Message, err error) {
	switch domainerrors.CodeOf(err) {
	case domainerrors.CodeInvalidInputType, domainerrors.CodeMissingConfiguration, domainerrors.CodeRateLimited, domainerrors.CodeQueueFull:
		h.reply(ctx, c, msg, warningText(domainerrors.UserMessage(err)))
	default:
		h.reply(ctx, c, msg, errorText(domainerrors.UserMessage(err)))
	}
}

func (h *Handlers) reply(ctx context.Context, c Client, msg *tgmodels.Message, text string) {
	_, err := c.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:          msg.Chat.ID,
		Text:            text,
		ReplyParameters: &tgmodels.ReplyParameters{MessageID: msg.ID, AllowSendingWithoutReply: true},
	})
	if err != nil {
		h.Log.Warn("reply failed", zap.Int64("chat_id", msg.Chat.ID), zap.Error(err))
	}
}
