package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type OrderStatus string

const (
	OrderStatusUnpaid   OrderStatus = "unpaid"
	OrderStatusPaid     OrderStatus = "paid"
	OrderStatusCanceled OrderStatus = "canceled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusUnpaid, OrderStatusPaid, OrderStatusCanceled:
		return true
	}
	return false
}

type Order struct {
	ID         int64       `gorm:"primaryKey;autoIncrement"`
	CustomerID int64       `gorm:"not null;index"`
	Customer   *Customer   `gorm:"constraint:OnDelete:RESTRICT"`
	Status     OrderStatus `gorm:"type:varchar(20);not null;default:'unpaid';index"`
	Items      []OrderItem `gorm:"constraint:OnDelete:CASCADE"`

	//決済ゲートウェイ
	ZarinpalAuthority *string        `gorm:"type:varchar(255);uniqueIndex"`
	ZarinpalRefID     *string        `gorm:"type:varchar(150)"`
	ZarinpalData      datatypes.JSON `gorm:"type:jsonb"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime"`
}

// 注文時点の単価で合計する
func (o Order) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.Total())
	}
	return total
}
