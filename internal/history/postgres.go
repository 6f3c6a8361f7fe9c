package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	domainerrors "stampbot/internal/errors"
	"stampbot/internal/models"
)

const historySchema = `
CREATE TABLE IF NOT EXISTS watermark_history (
	document_id   UUID PRIMARY KEY,
	job_id        TEXT NOT NULL,
	user_id       BIGINT NOT NULL,
	file_name     TEXT NOT NULL,
	engine        TEXT NOT NULL,
	status        TEXT NOT NULL,
	error_code    TEXT NOT NULL DEFAULT '',
	input_sha256  TEXT NOT NULL,
	output_sha256 TEXT NOT NULL DEFAULT '',
	md5_after     TEXT NOT NULL DEFAULT '',
	settings      JSONB NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Postgres keeps records in the watermark_history table.
type Postgres struct {
	DB *pgxpool.Pool
}

// OpenPostgres creates the table if needed.
func OpenPostgres(ctx context.Context, db *pgxpool.Pool) (*Postgres, error) {
	if _, err := db.Exec(ctx, historySchema); err != nil {
		return nil, fmt.Errorf("ensure history schema: %w", err)
	}
	return &Postgres{DB: db}, nil
}

func (p *Postgres) Record(ctx context.Context, rec models.WatermarkRecord) error {
	settings, err := json.Marshal(rec.Config)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	_, err = p.DB.Exec(
		ctx,
		`INSERT INTO watermark_history
			(document_id, job_id, user_id, file_name, engine, status, error_code, input_sha256, output_sha256, md5_after, settings)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		rec.DocumentID.String(),
		rec.JobID,
		rec.UserID,
		rec.FileName,
		rec.Engine,
		rec.Status,
		rec.ErrorCode,
		rec.InputSHA256,
		rec.OutputSHA256,
		rec.OutputMD5,
		string(settings),
	)
	if err != nil {
		return fmt.Errorf("db error inserting history: %w", err)
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context, documentID uuid.UUID) (models.WatermarkRecord, error) {
	rec := models.WatermarkRecord{DocumentID: documentID}
	var settings []byte
	err := p.DB.QueryRow(
		ctx,
		`SELECT job_id, user_id, file_name, engine, status, error_code, input_sha256, output_sha256, md5_after, settings, created_at
		FROM watermark_history WHERE document_id = $1`,
		documentID.String(),
	).Scan(
		&rec.JobID,
		&rec.UserID,
		&rec.FileName,
		&rec.Engine,
		&rec.Status,
		&rec.ErrorCode,
		&rec.InputSHA256,
		&rec.OutputSHA256,
		&rec.OutputMD5,
		&settings,
		&rec.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return rec, domainerrors.NotFound("document not found")
	}
	if err != nil {
		return rec, fmt.Errorf("db error querying history: %w", err)
	}

	if err := json.Unmarshal(settings, &rec.Config); err != nil {
		return rec, fmt.Errorf("decode history settings: %w", err)
	}
	return rec, nil
}
