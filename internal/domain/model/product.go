package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 税率9%
var taxRate = decimal.RequireFromString("1.09")

type Product struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Title       string          `gorm:"type:varchar(255);not null" json:"title"`
	Slug        string          `gorm:"type:varchar(255);not null;index" json:"slug"`
	Description string          `gorm:"type:text" json:"description"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(6,2);not null" json:"unit_price"`
	Inventory   int64           `gorm:"not null;default:0" json:"inventory"`
	CategoryID  int64           `gorm:"not null;index" json:"category_id"`
	Category    *Category       `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	CreatedAt   time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`

	NumberOfComments int64 `gorm:"->;-:migration" json:"number_of_comments"`
}

// 税込価格（小数2桁で丸め）
func (p Product) PriceAfterTax() decimal.Decimal {
	return p.UnitPrice.Mul(taxRate).Round(2)
}
