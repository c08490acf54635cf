package repository

import (
	"context"

	"github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/domain/model"
)

type CustomerRepository interface {
	FindByUserID(ctx context.Context, userID int64) (model.Customer, error)
	// user_id が重複したら ErrConflict
	Create(ctx context.Context, c model.Customer) (model.Customer, error)
	Update(ctx context.Context, c model.Customer) error
}
