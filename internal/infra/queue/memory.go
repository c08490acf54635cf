package queue

import (
	"context"
	"sync"
	"time"

	"github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/notification"
)

// REDIS_URL が無いとき用。プロセスが落ちると中身は消える
type MemoryQueue struct {
	mu    sync.Mutex
	items []notification.Message
	dead  []notification.Message
	ready chan struct{}
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{ready: make(chan struct{}, 1)}
}

func (q *MemoryQueue) Push(_ context.Context, msg notification.Message) error {
	q.mu.Lock()
	q.items = append(q.items, msg)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
	return nil
}

func (q *MemoryQueue) Reserve(ctx context.Context, timeout time.Duration) (*notification.Lease, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		if lease := q.pop(); lease != nil {
			return lease, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
			return nil, nil
		case <-q.ready:
		}
	}
}

func (q *MemoryQueue) pop() *notification.Lease {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil
	}
	msg := q.items[0]
	q.items = q.items[1:]

	// 他のワーカーも起こす
	if len(q.items) > 0 {
		select {
		case q.ready <- struct{}{}:
		default:
		}
	}
	return &notification.Lease{Message: msg}
}

func (q *MemoryQueue) Ack(context.Context, *notification.Lease) error { return nil }

func (q *MemoryQueue) Requeue(ctx context.Context, lease *notification.Lease) error {
	msg := lease.Message
	msg.Attempts++
	return q.Push(ctx, msg)
}

func (q *MemoryQueue) Bury(_ context.Context, lease *notification.Lease) error {
	msg := lease.Message
	msg.Attempts++

	q.mu.Lock()
	q.dead = append(q.dead, msg)
	q.mu.Unlock()
	return nil
}

func (q *MemoryQueue) Recover(context.Context) (int, error) { return 0, nil }

func (q *MemoryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *MemoryQueue) Dead() []notification.Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]notification.Message(nil), q.dead...)
}
