// Package worker runs watermark jobs one at a time from a FIFO queue.
package worker

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"stampbot/internal/models"
)

// Job is one uploaded document waiting to be watermarked. Config is copied
// when the job is created, so later settings changes do not affect it.
type Job struct {
	ID string
	// DocumentID keys the job in the watermark history.
	DocumentID uuid.UUID
	UserID     int64
	ChatID     int64
	MessageID  int
	FileName   string
	Data       []byte
	Config     models.WatermarkConfig
	Sink       Sink
}

// Result is a finished job's output.
type Result struct {
	FileName     string
	Data         []byte
	InputSHA256  string
	OutputSHA256 string
	OutputMD5    string
}

// Sink receives a job's progress. Calls for one job happen in order on the
// worker goroutine: Started, then Completed or Failed.
type Sink interface {
	Started(ctx context.Context, job *Job)
	Completed(ctx context.Context, job *Job, result Result)
	Failed(ctx context.Context, job *Job, err error)
}

// OutputName is the file name of the watermarked copy of name.
func OutputName(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "document.pdf"
	}
	return "watermarked_" + base
}
