package errors

import (
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesByCode(t *testing.T) {
	err := Wrap(io.ErrUnexpectedEOF, CodeMalformedDocument, "no pages")

	assert.True(t, Is(err, ErrMalformedDocument))
	assert.False(t, Is(err, ErrUnsupportedPage))
	assert.True(t, Is(err, io.ErrUnexpectedEOF), "cause must stay reachable")
}

func TestError_IsThroughFmtWrap(t *testing.T) {
	err := fmt.Errorf("job 7: %w", InvalidInputType("not a pdf"))

	assert.True(t, Is(err, ErrInvalidInputType))
	assert.Equal(t, CodeInvalidInputType, CodeOf(err))
}

func TestError_Message(t *testing.T) {
	assert.Equal(t, "bad", Validation("bad").Error())
	assert.Equal(t, "merge page 2: boom", Wrapf(New("boom"), CodeUnsupportedPage, "merge page %d", 2).Error())
}

func TestError_WithDetails(t *testing.T) {
	base := Validation("validation failed")
	detailed := base.WithDetails(map[string]string{"size": "is required"})

	assert.Nil(t, base.Details)
	assert.Equal(t, map[string]string{"size": "is required"}, detailed.Details)
	assert.True(t, Is(detailed, ErrValidation))
}

func TestCodeOf_PlainError(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(io.EOF))
}

func TestCode_HTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeInvalidInputType, http.StatusUnsupportedMediaType},
		{CodeValidation, http.StatusBadRequest},
		{CodeMissingConfiguration, http.StatusBadRequest},
		{CodeMalformedDocument, http.StatusUnprocessableEntity},
		{CodeUnsupportedPage, http.StatusUnprocessableEntity},
		{CodeDownloadFailure, http.StatusBadGateway},
		{CodeRateLimited, http.StatusTooManyRequests},
		{CodeQueueFull, http.StatusServiceUnavailable},
		{CodeNotFound, http.StatusNotFound},
		{CodeRenderFailure, http.StatusInternalServerError},
		{CodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.HTTPStatus())
		})
	}
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "Please send a valid PDF file.", UserMessage(InvalidInputType("x")))
	assert.Equal(t, "Use /set_watermark before uploading PDFs.", UserMessage(ErrMissingConfiguration))
	assert.Equal(t, "Invalid settings: size must be an integer", UserMessage(Validation("size must be an integer")))
	assert.Equal(t, "The PDF could not be read: no pages", UserMessage(Wrap(io.EOF, CodeMalformedDocument, "no pages")))
	assert.NotContains(t, UserMessage(io.ErrClosedPipe), "closed pipe")
}
