package repository

import (
	"context"

	"github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/domain/model"

	"github.com/google/uuid"
)

type CartRepository interface {
	Create(ctx context.Context) (model.Cart, error)
	// 明細と商品を読み込んで返す
	FindByID(ctx context.Context, cartID uuid.UUID) (model.Cart, error)
	// 行ロック付き（注文確定用）
	FindByIDForUpdate(ctx context.Context, cartID uuid.UUID) (model.Cart, error)
	Delete(ctx context.Context, cartID uuid.UUID) error
}
