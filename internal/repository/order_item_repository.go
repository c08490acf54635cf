package repository

import (
	"context"

	"github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/domain/model"
)

// 注文明細は作成時の単価ごと書き込むだけで、後から変えない
type OrderItemRepository interface {
	SnapshotItems(ctx context.Context, orderID int64, items []model.OrderItem) error
}
