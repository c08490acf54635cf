package usecase

import "github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/domain/model"

// JWTから取り出したリクエスト主体
type Identity struct {
	UserID int64
	Role   model.Role
}

func (i Identity) IsPrivileged() bool {
	return i.Role == model.RoleAdmin
}

func (i Identity) valid() bool {
	return i.UserID > 0
}
