package repository

import (
	"context"

	"github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/domain/model"

	"gorm.io/datatypes"
)

type OrderRepository interface {
	// 明細・顧客を読み込んで返す
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	FindByAuthority(ctx context.Context, authority string) (model.Order, error)
	ListByCustomerID(ctx context.Context, customerID int64) ([]model.Order, error)
	ListAll(ctx context.Context) ([]model.Order, error)

	Create(ctx context.Context, order model.Order) (int64, error)
	UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error
	Delete(ctx context.Context, orderID int64) error
	CountItems(ctx context.Context, orderID int64) (int64, error)

	SetAuthority(ctx context.Context, orderID int64, authority string) error
	//unpaid の時だけ paid にする。更新したら true
	MarkPaid(ctx context.Context, orderID int64, refID string, data datatypes.JSON) (bool, error)
}
