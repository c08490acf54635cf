package model

import "time"

type CommentStatus string

const (
	CommentStatusWaiting     CommentStatus = "waiting"
	CommentStatusApproved    CommentStatus = "approved"
	CommentStatusNotApproved CommentStatus = "not_approved"
)

type Comment struct {
	ID        int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID int64         `gorm:"not null;index" json:"product_id"`
	Product   *Product      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	AuthorID  int64         `gorm:"not null;index" json:"author_id"`
	Body      string        `gorm:"type:text;not null" json:"body"`
	Status    CommentStatus `gorm:"type:varchar(20);not null;default:'waiting'" json:"status"`
	CreatedAt time.Time     `gorm:"not null;autoCreateTime" json:"created_at"`
}
