// Package telegram connects the bot API to the settings store and the worker
// queue.
package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"

	domainerrors "stampbot/internal/errors"
)

// Client is the subset of *bot.Bot the handlers use.
type Client interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*tgmodels.Message, error)
	SendDocument(ctx context.Context, params *bot.SendDocumentParams) (*tgmodels.Message, error)
	GetFile(ctx context.Context, params *bot.GetFileParams) (*tgmodels.File, error)
}

// Downloader fetches uploaded files from the bot API file endpoint.
type Downloader struct {
	HTTP    *http.Client
	BaseURL string
	Token   string
	MaxSize int64
}

// NewDownloader returns a downloader for the bot API at baseURL.
func NewDownloader(baseURL, token string, maxSize int64) *Downloader {
	return &Downloader{
		HTTP:    &http.Client{Timeout: 2 * time.Minute},
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		MaxSize: maxSize,
	}
}

// Download resolves fileID with getFile and reads the file. Every failure is
// a DOWNLOAD_FAILURE.
func (d *Downloader) Download(ctx context.Context, c Client, fileID string) ([]byte, error) {
	file, err := c.GetFile(ctx, &bot.GetFileParams{FileID: fileID})
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeDownloadFailure, "get file info")
	}
	if file == nil || file.FilePath == "" {
		return nil, domainerrors.DownloadFailuref("file has no download path")
	}

	fileURL := fmt.Sprintf("%s/file/bot%s/%s", d.BaseURL, d.Token, file.FilePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeDownloadFailure, "build download request")
	}

	resp, err := d.HTTP.Do(req)
	if err != nil {
		return nil, domainerrors.Wrap(scrubToken(err, d.Token), domainerrors.CodeDownloadFailure, "download file")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domainerrors.DownloadFailuref("download file: bad status %d", resp.StatusCode)
	}

	// Read one byte past the limit to detect oversized bodies.
	data, err := io.ReadAll(io.LimitReader(resp.Body, d.MaxSize+1))
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeDownloadFailure, "read file")
	}
	if int64(len(data)) > d.MaxSize {
		return nil, domainerrors.DownloadFailuref("file exceeds %d bytes", d.MaxSize)
	}
	return data, nil
}

// scrubToken removes the bot token from errors that embed the request URL.
func scrubToken(err error, token string) error {
	if token == "" || !strings.Contains(err.Error(), token) {
		return err
	}
	return domainerrors.New(strings.ReplaceAll(err.Error(), token, "<token>"))
}
