package services

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestAsyncNotifier_DeliversWithoutBlocking(t *testing.T) {
	next := new(MockNotifier)
	delivered := make(chan context.Context, 1)
	next.On("SendPasswordReset", mock.Anything, "ada@jam.dev", "https://jam/x").
		Run(func(args mock.Arguments) { delivered <- args.Get(0).(context.Context) }).
		Return(nil).Once()

	n := NewAsyncNotifier(next, time.Second, nil)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, n.SendPasswordReset(ctx, "ada@jam.dev", "https://jam/x"))
	cancel()

	select {
	case dctx := <-delivered:
		_, hasDeadline := dctx.Deadline()
		assert.True(t, hasDeadline)
	case <-time.After(2 * time.Second):
		t.Fatal("notification was not delivered")
	}
	next.AssertExpectations(t)
}

func TestAsyncNotifier_LogsFailures(t *testing.T) {
	var out syncBuffer
	logger := slog.New(slog.NewJSONHandler(&out, nil))

	next := new(MockNotifier)
	next.On("SendActivation", mock.Anything, "ada@jam.dev", mock.Anything).Return(errors.New("smtp down"))

	n := NewAsyncNotifier(next, time.Second, logger)
	require.NoError(t, n.SendActivation(context.Background(), "ada@jam.dev", "https://jam/x"))

	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "smtp down")
	}, 2*time.Second, 10*time.Millisecond)
}

func TestAsyncNotifier_SurvivesPanics(t *testing.T) {
	var out syncBuffer
	logger := slog.New(slog.NewJSONHandler(&out, nil))

	next := new(MockNotifier)
	next.On("SendActivation", mock.Anything, mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { panic("boom") })

	n := NewAsyncNotifier(next, time.Second, logger)
	require.NoError(t, n.SendActivation(context.Background(), "ada@jam.dev", "https://jam/x"))

	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "notifier panicked")
	}, 2*time.Second, 10*time.Millisecond)
}

func TestLogMailer_RedactsToken(t *testing.T) {
	var out syncBuffer
	logger := slog.New(slog.NewJSONHandler(&out, &slog.HandlerOptions{Level: slog.LevelInfo}))

	m := NewLogMailer(logger)
	require.NoError(t, m.SendPasswordReset(context.Background(), "ada@jam.dev", "https://jam.dev/reset-password?token=s3cret"))

	assert.Contains(t, out.String(), "token=REDACTED")
	assert.NotContains(t, out.String(), "s3cret")
}

func TestRedactToken(t *testing.T) {
	assert.Equal(t, "https://jam.dev/reset-password?token=REDACTED", redactToken("https://jam.dev/reset-password?token=abc"))
	assert.Equal(t, "https://jam.dev/", redactToken("https://jam.dev/"))
}

func TestRenderEmail(t *testing.T) {
	link := "https://jam.dev/reset-password?token=abc"
	for _, name := range []string{"password_reset.html", "activation.html"} {
		body, err := renderEmail(name, emailData{Email: "ada@jam.dev", Link: link, ValidFor: "1h0m0s"})
		require.NoError(t, err, name)
		assert.Contains(t, body, link, name)
	}

	_, err := renderEmail("missing.html", emailData{})
	assert.Error(t, err)
}
