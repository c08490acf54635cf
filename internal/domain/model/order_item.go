package model

import "github.com/shopspring/decimal"

type OrderItem struct {
	ID        int64           `gorm:"primaryKey;autoIncrement"`
	OrderID   int64           `gorm:"not null;index;uniqueIndex:idx_order_items_order_product"`
	ProductID int64           `gorm:"not null;index;uniqueIndex:idx_order_items_order_product"`
	Product   *Product        `gorm:"constraint:OnDelete:RESTRICT"`
	Quantity  int64           `gorm:"not null"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(6,2);not null"`
}

func (it OrderItem) Total() decimal.Decimal {
	return it.UnitPrice.Mul(decimal.NewFromInt(it.Quantity))
}
