package notification

import (
	"context"
	"time"
)

// キューに積む1通分
type Message struct {
	ID        string    `json:"id"`
	Recipient string    `json:"recipient"`
	URL       string    `json:"url"`
	Attempts  int       `json:"attempts"`
	CreatedAt time.Time `json:"created_at"`
}

// 取り出し中のメッセージ。Ack / Requeue / Bury のどれかで必ず終える
type Lease struct {
	Message Message
	Raw     string
}

// at-least-once のキュー
type Queue interface {
	Push(ctx context.Context, msg Message) error
	// timeout 内に無ければ nil, nil
	Reserve(ctx context.Context, timeout time.Duration) (*Lease, error)
	Ack(ctx context.Context, lease *Lease) error
	// attempts を +1 して戻す
	Requeue(ctx context.Context, lease *Lease) error
	// dead letter へ（捨てない）
	Bury(ctx context.Context, lease *Lease) error
	// 前回のプロセスで処理中だった分を戻す
	Recover(ctx context.Context) (int, error)
}
