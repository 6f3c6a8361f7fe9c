package telegram

import (
	"bytes"
	"context"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	domainerrors "stampbot/internal/errors"
	"stampbot/internal/hashing"
	"stampbot/internal/worker"
)

// Sink reports job progress back to the chat the upload came from.
type Sink struct {
	Client Client
	// ArchiveChatID receives a copy of each original upload. Zero disables it.
	ArchiveChatID int64
	Log           *zap.Logger
}

var _ worker.Sink = (*Sink)(nil)

// Started sends the processing notice and archives the original upload.
// Archival errors are logged and do not stop the job.
func (s *Sink) Started(ctx context.Context, job *worker.Job) {
	s.send(ctx, job, processingText(job.FileName))

	if s.ArchiveChatID == 0 {
		return
	}
	sum, err := hashing.SumBytes("sha256", job.Data)
	if err != nil {
		s.Log.Warn("archive fingerprint failed", zap.String("job_id", job.ID), zap.Error(err))
	}
	_, err = s.Client.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID:   s.ArchiveChatID,
		Document: &tgmodels.InputFileUpload{Filename: job.FileName, Data: bytes.NewReader(job.Data)},
		Caption:  archiveCaption(job.UserID, sum),
	})
	if err != nil {
		s.Log.Warn("archive upload failed",
			zap.String("job_id", job.ID),
			zap.Int64("archive_chat_id", s.ArchiveChatID),
			zap.Error(err))
	}
}

// Completed delivers the watermarked document as a reply to the upload.
func (s *Sink) Completed(ctx context.Context, job *worker.Job, result worker.Result) {
	params := &bot.SendDocumentParams{
		ChatID:   job.ChatID,
		Document: &tgmodels.InputFileUpload{Filename: result.FileName, Data: bytes.NewReader(result.Data)},
	}
	if job.MessageID != 0 {
		params.ReplyParameters = &tgmodels.ReplyParameters{MessageID: job.MessageID, AllowSendingWithoutReply: true}
	}
	if _, err := s.Client.SendDocument(ctx, params); err != nil {
		s.Log.Error("deliver result failed", zap.String("job_id", job.ID), zap.Error(err))
		s.send(ctx, job, errorText("The watermarked file could not be sent. Please try again."))
	}
}

// Failed tells the user why the job failed.
func (s *Sink) Failed(ctx context.Context, job *worker.Job, err error) {
	s.send(ctx, job, errorText(domainerrors.UserMessage(err)))
}

func (s *Sink) send(ctx context.Context, job *worker.Job, text string) {
	_, err := s.Client.SendMessage(ctx, &bot.SendMessageParams{ChatID: job.ChatID, Text: text})
	if err != nil {
		s.Log.Warn("send message failed", zap.String("job_id", job.ID), zap.Int64("chat_id", job.ChatID), zap.Error(err))
	}
}
