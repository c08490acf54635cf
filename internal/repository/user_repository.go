package repository

import (
	"context"

	"github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/domain/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, userID int64) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByActivationToken(ctx context.Context, token string) (*model.User, error)
	// アクティブ化・最終ログイン更新など
	Update(ctx context.Context, user *model.User) error
}
