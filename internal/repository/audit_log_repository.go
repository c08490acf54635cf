package repository

import (
	"context"

	"github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/domain/model"
)

// 管理者操作の記録。追記のみ
type AuditLogRepository interface {
	Record(ctx context.Context, entry model.AuditLog) error
}
