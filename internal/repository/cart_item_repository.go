package repository

import (
	"context"

	"github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/domain/model"

	"github.com/google/uuid"
)

type CartItemRepository interface {
	ListByCartID(ctx context.Context, cartID uuid.UUID) ([]model.CartItem, error)
	FindByID(ctx context.Context, cartID uuid.UUID, itemID int64) (model.CartItem, error)

	//(cart, product) の既存明細を FOR UPDATE で取得
	FindByCartAndProductForUpdate(ctx context.Context, cartID uuid.UUID, productID int64) (model.CartItem, error)

	// 同じ (cart, product) が既にあれば ErrConflict
	Create(ctx context.Context, item model.CartItem) (model.CartItem, error)
	UpdateQuantity(ctx context.Context, itemID int64, qty int64) error
	Delete(ctx context.Context, cartID uuid.UUID, itemID int64) error
}
