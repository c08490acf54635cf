package repository

import (
	"context"
	"time"

	"github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/domain/model"
	repo "github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/repository"

	"gorm.io/gorm"
)

type AuditLogGormRepository struct {
	db *gorm.DB
}

func NewAuditLogGormRepository(db *gorm.DB) repo.AuditLogRepository {
	return &AuditLogGormRepository{db: db}
}

func (r *AuditLogGormRepository) Record(ctx context.Context, entry model.AuditLog) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(&entry).Error
}
