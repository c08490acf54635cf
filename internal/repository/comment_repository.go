package repository

import (
	"context"

	"github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/domain/model"
)

type CommentRepository interface {
	ListByProductID(ctx context.Context, productID int64) ([]model.Comment, error)
	FindByID(ctx context.Context, productID int64, commentID int64) (model.Comment, error)
	Create(ctx context.Context, c model.Comment) (model.Comment, error)
	Update(ctx context.Context, c model.Comment) error
	Delete(ctx context.Context, productID int64, commentID int64) error
}
