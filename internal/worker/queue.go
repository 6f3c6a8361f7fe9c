package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	domainerrors "stampbot/internal/errors"
	"stampbot/internal/hashing"
	"stampbot/internal/history"
	"stampbot/internal/models"
	"stampbot/internal/watermarking"
)

const (
	fingerprintAlgorithm = "sha256"
	checksumAlgorithm    = "md5"
)

// Queue is a bounded FIFO of jobs drained by a single consumer.
type Queue struct {
	jobs    chan *Job
	engine  watermarking.Watermarker
	history history.Store
	log     *zap.Logger
}

// NewQueue returns a queue holding up to size pending jobs.
func NewQueue(size int, engine watermarking.Watermarker, log *zap.Logger) *Queue {
	return &Queue{
		jobs:   make(chan *Job, size),
		engine: engine,
		log:    log,
	}
}

// WithHistory makes the queue record every finished job in h.
func (q *Queue) WithHistory(h history.Store) *Queue {
	q.history = h
	return q
}

// Enqueue adds job without blocking. It fails with QUEUE_FULL when the queue
// is at capacity.
func (q *Queue) Enqueue(job *Job) error {
	select {
	case q.jobs <- job:
		q.log.Info("job queued",
			zap.String("job_id", job.ID),
			zap.Int64("user_id", job.UserID),
			zap.String("file", job.FileName),
			zap.Int("size", len(job.Data)),
			zap.Int("pending", len(q.jobs)))
		return nil
	default:
		return domainerrors.QueueFull("watermark queue is full")
	}
}

// Len returns the number of jobs waiting.
func (q *Queue) Len() int {
	return len(q.jobs)
}

// Run processes jobs in arrival order until ctx is done. A failing or
// panicking job is reported to its sink and does not stop the loop.
func (q *Queue) Run(ctx context.Context) error {
	q.log.Info("worker started", zap.String("engine", q.engine.Name()))
	for {
		select {
		case <-ctx.Done():
			if n := len(q.jobs); n > 0 {
				q.log.Warn("worker stopped with jobs pending", zap.Int("pending", n))
			} else {
				q.log.Info("worker stopped")
			}
			return nil
		case job := <-q.jobs:
			q.process(ctx, job)
		}
	}
}

func (q *Queue) process(ctx context.Context, job *Job) {
	log := q.log.With(zap.String("job_id", job.ID), zap.Int64("user_id", job.UserID))
	start := time.Now()

	// finished is set once the outcome has been recorded, so a panic in the
	// sink's final callback is not reported a second time.
	var inputSum string
	finished := false

	defer func() {
		r := recover()
		if r == nil {
			return
		}
		log.Error("job panicked", zap.Any("panic", r), zap.Bool("finished", finished), zap.Stack("stack"))
		if finished {
			return
		}
		err := domainerrors.RenderFailuref("unexpected failure: %v", r)
		q.record(ctx, log, job, inputSum, Result{}, err)
		job.Sink.Failed(ctx, job, err)
	}()

	var err error
	if inputSum, err = hashing.SumBytes(fingerprintAlgorithm, job.Data); err != nil {
		log.Warn("fingerprint failed", zap.Error(err))
	}
	log.Info("job started", zap.String("file", job.FileName), zap.String("sha256", inputSum))

	job.Sink.Started(ctx, job)

	out, err := q.engine.Embed(ctx, job.Data, job.Config)
	if err != nil {
		log.Warn("job failed",
			zap.String("code", string(domainerrors.CodeOf(err))),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		finished = true
		q.record(ctx, log, job, inputSum, Result{}, err)
		job.Sink.Failed(ctx, job, err)
		return
	}

	result := Result{
		FileName:    OutputName(job.FileName),
		Data:        out,
		InputSHA256: inputSum,
	}
	if result.OutputSHA256, err = hashing.SumBytes(fingerprintAlgorithm, out); err != nil {
		log.Warn("fingerprint failed", zap.Error(err))
	}
	if result.OutputMD5, err = hashing.SumBytes(checksumAlgorithm, out); err != nil {
		log.Warn("checksum failed", zap.Error(err))
	}

	log.Info("job done",
		zap.String("output", result.FileName),
		zap.Int("bytes", len(out)),
		zap.String("sha256", result.OutputSHA256),
		zap.Duration("elapsed", time.Since(start)))
	finished = true
	q.record(ctx, log, job, inputSum, result, nil)
	job.Sink.Completed(ctx, job, result)
}

// record stores the job outcome. History errors are logged and never fail
// the job.
func (q *Queue) record(ctx context.Context, log *zap.Logger, job *Job, inputSum string, result Result, jobErr error) {
	if q.history == nil {
		return
	}

	rec := models.WatermarkRecord{
		DocumentID:   job.DocumentID,
		JobID:        job.ID,
		UserID:       job.UserID,
		FileName:     job.FileName,
		Engine:       q.engine.Name(),
		Status:       models.StatusDone,
		InputSHA256:  inputSum,
		OutputSHA256: result.OutputSHA256,
		OutputMD5:    result.OutputMD5,
		Config:       job.Config,
		CreatedAt:    time.Now().UTC(),
	}
	if jobErr != nil {
		rec.Status = models.StatusFailed
		rec.ErrorCode = string(domainerrors.CodeOf(jobErr))
	}

	if err := q.history.Record(ctx, rec); err != nil {
		log.Warn("failed to record history", zap.String("document_id", job.DocumentID.String()), zap.Error(err))
	}
}
