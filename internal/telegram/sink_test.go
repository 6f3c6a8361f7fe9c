package telegram

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"

	domainerrors "stampbot/internal/errors"
	"stampbot/internal/worker"
)

func TestSink_NoArchiveWhenDisabled(t *testing.T) {
	client := &fakeClient{}
	s := &Sink{Client: client, Log: zaptest.NewLogger(t)}
	job := &worker.Job{ID: "job-1", UserID: 3, ChatID: 3, FileName: "a.pdf", Data: []byte("%PDF")}

	s.Started(context.Background(), job)

	assert.Equal(t, []string{"🖋️ Processing a.pdf..."}, client.texts())
	assert.Empty(t, client.docs())
}

func TestSink_FailedSendsUserMessage(t *testing.T) {
	client := &fakeClient{}
	s := &Sink{Client: client, Log: zaptest.NewLogger(t)}
	job := &worker.Job{ID: "job-1", ChatID: 3, FileName: "a.pdf"}

	s.Failed(context.Background(), job, domainerrors.UnsupportedPagef("page 2 is encrypted"))

	assert.Equal(t, "❌ The PDF could not be watermarked: page 2 is encrypted", client.lastText(t))
}

func TestSink_CompletedSendsDocument(t *testing.T) {
	client := &fakeClient{}
	s := &Sink{Client: client, Log: zaptest.NewLogger(t)}
	job := &worker.Job{ID: "job-1", ChatID: 3, MessageID: 9, FileName: "a.pdf"}

	s.Completed(context.Background(), job, worker.Result{FileName: "watermarked_a.pdf", Data: []byte("out")})

	docs := client.docs()
	if assert.Len(t, docs, 1) {
		assert.Equal(t, "watermarked_a.pdf", docs[0].Filename)
		assert.Equal(t, []byte("out"), docs[0].Data)
	}
}
