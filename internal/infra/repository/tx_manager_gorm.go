package repository

import (
	"context"

	repo "github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/repository"

	"gorm.io/gorm"
)

type txReposGorm struct {
	tx *gorm.DB
}

// repoはtxを持ったDBで作り直す
func (r *txReposGorm) Categories() repo.CategoryRepository { return NewCategoryGormRepository(r.tx) }
func (r *txReposGorm) Products() repo.ProductRepository    { return NewProductGormRepository(r.tx) }
func (r *txReposGorm) Carts() repo.CartRepository          { return NewCartGormRepository(r.tx) }
func (r *txReposGorm) CartItems() repo.CartItemRepository  { return NewCartItemGormRepository(r.tx) }
func (r *txReposGorm) Customers() repo.CustomerRepository  { return NewCustomerGormRepository(r.tx) }
func (r *txReposGorm) Orders() repo.OrderRepository        { return NewOrderGormRepository(r.tx) }
func (r *txReposGorm) OrderItems() repo.OrderItemRepository {
	return NewOrderItemGormRepository(r.tx)
}
func (r *txReposGorm) AuditLogs() repo.AuditLogRepository { return NewAuditLogGormRepository(r.tx) }

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&txReposGorm{tx: tx})
	})
}
