package mail

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tams/config"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []string
	err  error
	hold chan struct{}
}

func (r *recordingSender) SendEmail(_ context.Context, recipient, _, _ string) error {
	if r.hold != nil {
		<-r.hold
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, recipient)
	return r.err
}

func TestAsync_DeliversInBackground(t *testing.T) {
	rec := &recordingSender{hold: make(chan struct{})}
	a := NewAsync(rec, time.Second, zap.NewNop())

	err := a.SendEmail(context.Background(), "ta@tudelft.nl", "subj", "body")
	require.NoError(t, err, "异步投递应立即返回")

	close(rec.hold)
	a.Close()

	assert.Equal(t, []string{"ta@tudelft.nl"}, rec.sent)
}

func TestAsync_SwallowsErrors(t *testing.T) {
	rec := &recordingSender{err: errors.New("smtp down")}
	a := NewAsync(rec, time.Second, zap.NewNop())

	for i := 0; i < 3; i++ {
		require.NoError(t, a.SendEmail(context.Background(), "ta@tudelft.nl", "s", "b"))
	}
	a.Close()

	assert.Len(t, rec.sent, 3)
}

type panickySender struct{}

func (panickySender) SendEmail(context.Context, string, string, string) error { panic("boom") }

func TestAsync_RecoversPanic(t *testing.T) {
	a := NewAsync(panickySender{}, time.Second, zap.NewNop())
	require.NoError(t, a.SendEmail(context.Background(), "x@y.z", "s", "b"))
	a.Close()
}

func TestNewSender_Provider(t *testing.T) {
	a := NewSender(&config.MailConfig{Provider: "log"}, zap.NewNop())
	_, ok := a.next.(*LogSender)
	assert.True(t, ok, "provider=log 应使用 LogSender")

	a = NewSender(&config.MailConfig{Provider: "sendgrid", APIKey: "SG.test", From: "noreply@tams.local", FromName: "TAMS"}, zap.NewNop())
	sg, ok := a.next.(*SendGridSender)
	require.True(t, ok, "provider=sendgrid 应使用 SendGridSender")
	assert.Equal(t, "[TAMS] ", sg.subjPrefix)
}
