package notification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	activationSubject = "Account Activation Link"

	unqueuedOnShutdownMsg = "notification not enqueued before shutdown"
)

type Sender interface {
	Send(ctx context.Context, recipient string, subject string, body string) error
}

type Options struct {
	Workers     int
	MaxAttempts int // これを超えたら dead letter

	PollTimeout time.Duration
	SendTries   uint // 1回の取り出しでの送信試行数
	NewBackOff  func() backoff.BackOff
}

func (o Options) withDefaults() Options {
	if o.Workers < 1 {
		o.Workers = 1
	}
	if o.MaxAttempts < 1 {
		o.MaxAttempts = 5
	}
	if o.PollTimeout <= 0 {
		o.PollTimeout = 2 * time.Second
	}
	if o.SendTries < 1 {
		o.SendTries = 3
	}
	if o.NewBackOff == nil {
		o.NewBackOff = func() backoff.BackOff { return backoff.NewExponentialBackOff() }
	}
	return o
}

// アクティベーションメールを非同期で送るワーカープール
type Dispatcher struct {
	queue  Queue
	sender Sender
	opts   Options
	log    *zap.Logger

	sent   metric.Int64Counter
	failed metric.Int64Counter

	//Push に失敗したものの再試行。Run の終了で止める
	pending sync.WaitGroup
	life    context.Context
	stop    context.CancelFunc
}

func NewDispatcher(queue Queue, sender Sender, opts Options, log *zap.Logger) *Dispatcher {
	meter := otel.Meter("notification")
	sent, _ := meter.Int64Counter("notifications_sent_total")
	failed, _ := meter.Int64Counter("notifications_failed_total")

	life, stop := context.WithCancel(context.Background())

	return &Dispatcher{
		queue:  queue,
		sender: sender,
		opts:   opts.withDefaults(),
		log:    log,
		sent:   sent,
		failed: failed,
		life:   life,
		stop:   stop,
	}
}

// 送信依頼。呼び出し側には結果を返さない
func (d *Dispatcher) Notify(ctx context.Context, recipient string, url string) {
	msg := Message{
		ID:        uuid.NewString(),
		Recipient: recipient,
		URL:       url,
		CreatedAt: time.Now(),
	}

	// リクエストが終わっても積み直しは続ける
	ctx = context.WithoutCancel(ctx)
	if err := d.queue.Push(ctx, msg); err == nil {
		return
	} else {
		d.log.Warn("enqueue failed, retrying in background", zap.String("message_id", msg.ID), zap.Error(err))
	}

	d.pending.Add(1)
	go func() {
		defer d.pending.Done()

		// 積めるまで続ける（時間制限なし）
		_, err := backoff.Retry(d.life, func() (struct{}, error) {
			return struct{}{}, d.queue.Push(d.life, msg)
		},
			backoff.WithBackOff(d.opts.NewBackOff()),
			backoff.WithMaxElapsedTime(0),
		)
		if err != nil {
			// この行の message をそのまま Push し直せば再送できる
			d.log.Error(unqueuedOnShutdownMsg,
				zap.String("message_id", msg.ID),
				zap.Any("message", msg),
				zap.Error(err),
			)
		}
	}()
}

// ctx がキャンセルされるまでワーカーを回す
func (d *Dispatcher) Run(ctx context.Context) error {
	// ワーカー終了後に積み直し中のものを止めて待つ
	defer func() {
		d.stop()
		d.pending.Wait()
	}()

	n, err := d.queue.Recover(ctx)
	if err != nil {
		return fmt.Errorf("recover in-flight notifications: %w", err)
	}
	if n > 0 {
		d.log.Info("requeued in-flight notifications", zap.Int("count", n))
	}

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < d.opts.Workers; i++ {
		worker := i
		g.Go(func() error {
			return d.work(ctx, worker)
		})
	}

	err = g.Wait()
	if err == context.Canceled {
		return nil
	}
	return err
}

func (d *Dispatcher) work(ctx context.Context, worker int) error {
	log := d.log.With(zap.Int("worker", worker))

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		lease, err := d.queue.Reserve(ctx, d.opts.PollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Warn("reserve failed", zap.Error(err))
			time.Sleep(d.opts.PollTimeout)
			continue
		}
		if lease == nil {
			continue
		}

		d.handle(ctx, log, lease)
	}
}

// 送信できたら Ack、失敗したら戻すか dead letter
func (d *Dispatcher) handle(ctx context.Context, log *zap.Logger, lease *Lease) {
	msg := lease.Message
	body := fmt.Sprintf("Click the link below to activate your account:\n\n%s\n", msg.URL)

	// シャットダウン中でも送信中の1通は終わらせる
	sendCtx := context.WithoutCancel(ctx)

	_, err := backoff.Retry(sendCtx, func() (struct{}, error) {
		return struct{}{}, d.sender.Send(sendCtx, msg.Recipient, activationSubject, body)
	},
		backoff.WithBackOff(d.opts.NewBackOff()),
		backoff.WithMaxTries(d.opts.SendTries),
	)
	if err == nil {
		if ackErr := d.queue.Ack(sendCtx, lease); ackErr != nil {
			log.Warn("ack failed, message may be delivered again", zap.String("message_id", msg.ID), zap.Error(ackErr))
		}
		d.sent.Add(sendCtx, 1)
		log.Info("notification sent", zap.String("message_id", msg.ID))
		return
	}

	d.failed.Add(sendCtx, 1)
	if msg.Attempts+1 >= d.opts.MaxAttempts {
		log.Error("notification moved to dead letter",
			zap.String("message_id", msg.ID),
			zap.String("recipient", msg.Recipient),
			zap.Int("attempts", msg.Attempts+1),
			zap.Error(err),
		)
		if buryErr := d.queue.Bury(sendCtx, lease); buryErr != nil {
			log.Error("bury failed", zap.String("message_id", msg.ID), zap.Error(buryErr))
		}
		return
	}

	log.Warn("notification send failed, requeued",
		zap.String("message_id", msg.ID),
		zap.Int("attempts", msg.Attempts+1),
		zap.Error(err),
	)
	if reqErr := d.queue.Requeue(sendCtx, lease); reqErr != nil {
		log.Error("requeue failed", zap.String("message_id", msg.ID), zap.Error(reqErr))
	}
}
