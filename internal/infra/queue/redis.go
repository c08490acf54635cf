package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/notification"
)

// pending → processing → (Ack で削除 / dead へ)
type RedisQueue struct {
	rdb        *redis.Client
	pending    string
	processing string
	dead       string
}

func NewRedisQueue(rdb *redis.Client, prefix string) *RedisQueue {
	if prefix == "" {
		prefix = "notifications"
	}
	return &RedisQueue{
		rdb:        rdb,
		pending:    prefix + ":pending",
		processing: prefix + ":processing",
		dead:       prefix + ":dead",
	}
}

// REDIS_URL から接続して PING まで確認
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func (q *RedisQueue) Push(ctx context.Context, msg notification.Message) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return q.rdb.LPush(ctx, q.pending, raw).Err()
}

func (q *RedisQueue) Reserve(ctx context.Context, timeout time.Duration) (*notification.Lease, error) {
	raw, err := q.rdb.BRPopLPush(ctx, q.pending, q.processing, timeout).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var msg notification.Message
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		// 読めないものは dead へ逃がす
		_, perr := q.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.LRem(ctx, q.processing, 1, raw)
			p.LPush(ctx, q.dead, raw)
			return nil
		})
		if perr != nil {
			return nil, perr
		}
		return nil, fmt.Errorf("decode notification: %w", err)
	}
	return &notification.Lease{Message: msg, Raw: raw}, nil
}

func (q *RedisQueue) Ack(ctx context.Context, lease *notification.Lease) error {
	return q.rdb.LRem(ctx, q.processing, 1, lease.Raw).Err()
}

func (q *RedisQueue) Requeue(ctx context.Context, lease *notification.Lease) error {
	msg := lease.Message
	msg.Attempts++
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	_, err = q.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.LRem(ctx, q.processing, 1, lease.Raw)
		p.LPush(ctx, q.pending, raw)
		return nil
	})
	return err
}

func (q *RedisQueue) Bury(ctx context.Context, lease *notification.Lease) error {
	msg := lease.Message
	msg.Attempts++
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	_, err = q.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.LRem(ctx, q.processing, 1, lease.Raw)
		p.LPush(ctx, q.dead, raw)
		return nil
	})
	return err
}

// processing に残っている分を pending へ戻す
func (q *RedisQueue) Recover(ctx context.Context) (int, error) {
	n := 0
	for {
		err := q.rdb.RPopLPush(ctx, q.processing, q.pending).Err()
		if errors.Is(err, redis.Nil) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		n++
	}
}
