package notification_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/infra/queue"
	"github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/notification"
)

type sentMail struct {
	recipient string
	subject   string
	body      string
}

// failFirst 回まで失敗する Sender
type flakySender struct {
	mu        sync.Mutex
	failFirst int
	calls     int
	sent      []sentMail
}

func (s *flakySender) Send(_ context.Context, recipient, subject, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	if s.calls <= s.failFirst {
		return errors.New("smtp unavailable")
	}
	s.sent = append(s.sent, sentMail{recipient, subject, body})
	return nil
}

func (s *flakySender) delivered() []sentMail {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sentMail(nil), s.sent...)
}

func (s *flakySender) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func testOptions(maxAttempts int) notification.Options {
	return notification.Options{
		Workers:     2,
		MaxAttempts: maxAttempts,
		PollTimeout: 20 * time.Millisecond,
		SendTries:   1,
		NewBackOff:  func() backoff.BackOff { return backoff.NewConstantBackOff(time.Millisecond) },
	}
}

func runDispatcher(t *testing.T, d *notification.Dispatcher) (stop func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	return func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("dispatcher did not stop")
		}
	}
}

func TestDispatcher_DeliversActivationMail(t *testing.T) {
	q := queue.NewMemoryQueue()
	sender := &flakySender{}
	d := notification.NewDispatcher(q, sender, testOptions(3), zap.NewNop())

	stop := runDispatcher(t, d)
	defer stop()

	d.Notify(context.Background(), "sara@example.com", "https://shop.example/activate/tok-1")

	require.Eventually(t, func() bool { return len(sender.delivered()) == 1 }, time.Second, 5*time.Millisecond)

	m := sender.delivered()[0]
	assert.Equal(t, "sara@example.com", m.recipient)
	assert.Equal(t, "Account Activation Link", m.subject)
	assert.True(t, strings.Contains(m.body, "https://shop.example/activate/tok-1"))
}

func TestDispatcher_RequeuesUntilSendSucceeds(t *testing.T) {
	q := queue.NewMemoryQueue()
	sender := &flakySender{failFirst: 2}
	d := notification.NewDispatcher(q, sender, testOptions(3), zap.NewNop())

	stop := runDispatcher(t, d)
	defer stop()

	d.Notify(context.Background(), "ali@example.com", "https://shop.example/activate/tok-2")

	require.Eventually(t, func() bool { return len(sender.delivered()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 3, sender.callCount())
	assert.Empty(t, q.Dead())
}

func TestDispatcher_DeadLettersAfterMaxAttempts(t *testing.T) {
	q := queue.NewMemoryQueue()
	sender := &flakySender{failFirst: 1000}
	d := notification.NewDispatcher(q, sender, testOptions(2), zap.NewNop())

	stop := runDispatcher(t, d)
	defer stop()

	d.Notify(context.Background(), "x@example.com", "https://shop.example/activate/tok-3")

	require.Eventually(t, func() bool { return len(q.Dead()) == 1 }, time.Second, 5*time.Millisecond)

	dead := q.Dead()[0]
	assert.Equal(t, "x@example.com", dead.Recipient)
	assert.Equal(t, 2, dead.Attempts)
	assert.Equal(t, 2, sender.callCount())
	assert.Empty(t, sender.delivered())
	assert.Equal(t, 0, q.Len())
}

// 最初の Push だけ失敗するキュー
type flakyPushQueue struct {
	*queue.MemoryQueue
	mu     sync.Mutex
	failed bool
}

func (q *flakyPushQueue) Push(ctx context.Context, msg notification.Message) error {
	q.mu.Lock()
	if !q.failed {
		q.failed = true
		q.mu.Unlock()
		return errors.New("redis: connection refused")
	}
	q.mu.Unlock()
	return q.MemoryQueue.Push(ctx, msg)
}

func TestDispatcher_NotifyRetriesEnqueueInBackground(t *testing.T) {
	q := &flakyPushQueue{MemoryQueue: queue.NewMemoryQueue()}
	d := notification.NewDispatcher(q, &flakySender{}, testOptions(3), zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	d.Notify(ctx, "late@example.com", "https://shop.example/activate/tok-4")
	// 呼び出し元のリクエストが終わっても積み直される
	cancel()

	require.Eventually(t, func() bool { return q.Len() == 1 }, time.Second, 5*time.Millisecond)
}

type downQueue struct{ *queue.MemoryQueue }

func (downQueue) Push(context.Context, notification.Message) error {
	return errors.New("redis: connection refused")
}

// 積めないまま停止したら、再送できる形でログに残す
func TestDispatcher_UnqueuedNotificationLoggedOnShutdown(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	d := notification.NewDispatcher(downQueue{queue.NewMemoryQueue()}, &flakySender{}, testOptions(3), zap.New(core))

	stop := runDispatcher(t, d)
	d.Notify(context.Background(), "kept@example.com", "https://shop.example/activate/tok-5")

	// 時間で諦めずに再試行を続けている
	time.Sleep(30 * time.Millisecond)
	assert.Zero(t, logs.FilterMessage("notification not enqueued before shutdown").Len())

	stop()

	entries := logs.FilterMessage("notification not enqueued before shutdown").All()
	require.Len(t, entries, 1)
	msg, ok := entries[0].ContextMap()["message"].(notification.Message)
	require.True(t, ok)
	assert.Equal(t, "kept@example.com", msg.Recipient)
	assert.Equal(t, "https://shop.example/activate/tok-5", msg.URL)
}

func TestDispatcher_RunStopsOnCancel(t *testing.T) {
	d := notification.NewDispatcher(queue.NewMemoryQueue(), &flakySender{}, testOptions(3), zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, d.Run(ctx))
}
