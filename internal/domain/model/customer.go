package model

import "time"

type Membership string

const (
	MembershipBronze Membership = "bronze"
	MembershipSilver Membership = "silver"
	MembershipGold   Membership = "gold"
)

// ユーザーと1対1。注文時に無ければ作る
type Customer struct {
	ID         int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     int64      `gorm:"not null;uniqueIndex" json:"user_id"`
	User       *User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Phone      string     `gorm:"type:varchar(30)" json:"phone"`
	BirthDate  *time.Time `gorm:"type:date" json:"birth_date"`
	Membership Membership `gorm:"type:varchar(10);not null;default:'bronze'" json:"membership"`
}
