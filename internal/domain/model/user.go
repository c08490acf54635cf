package model

import "time"

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

type User struct {
	ID              int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Email           string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash    string     `gorm:"column:password_hash;not null" json:"-"`
	FirstName       string     `gorm:"type:varchar(150)" json:"first_name"`
	LastName        string     `gorm:"type:varchar(150)" json:"last_name"`
	Role            Role       `gorm:"type:varchar(20);not null;default:'USER'" json:"role"`
	IsActive        bool       `gorm:"not null;default:false" json:"is_active"`
	ActivationToken *string    `gorm:"type:varchar(64);uniqueIndex" json:"-"`
	LastLoginAt     *time.Time `json:"last_login_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
