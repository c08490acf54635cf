package repository

import (
	"context"

	"github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/domain/model"
)

type CategoryRepository interface {
	// number_of_products 付きで返す
	List(ctx context.Context) ([]model.Category, error)
	FindByID(ctx context.Context, id int64) (model.Category, error)

	Create(ctx context.Context, c model.Category) (model.Category, error)
	Update(ctx context.Context, c model.Category) error
	Delete(ctx context.Context, id int64) error

	//削除ガード用
	CountProducts(ctx context.Context, categoryID int64) (int64, error)
}
