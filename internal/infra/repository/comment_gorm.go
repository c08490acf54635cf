package repository

import (
	"context"
	"errors"

	"github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/domain/model"
	repo "github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/repository"

	"gorm.io/gorm"
)

type CommentGormRepository struct {
	db *gorm.DB
}

func NewCommentGormRepository(db *gorm.DB) *CommentGormRepository {
	return &CommentGormRepository{db: db}
}

func (r *CommentGormRepository) ListByProductID(ctx context.Context, productID int64) ([]model.Comment, error) {
	var cs []model.Comment
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("id asc").
		Find(&cs).Error; err != nil {
		return []model.Comment{}, err
	}
	return cs, nil
}

func (r *CommentGormRepository) FindByID(ctx context.Context, productID int64, commentID int64) (model.Comment, error) {
	var c model.Comment
	err := r.db.WithContext(ctx).
		Where("id = ? AND product_id = ?", commentID, productID).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Comment{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Comment{}, err
	}
	return c, nil
}

func (r *CommentGormRepository) Create(ctx context.Context, c model.Comment) (model.Comment, error) {
	if err := r.db.WithContext(ctx).Omit("Product").Create(&c).Error; err != nil {
		return model.Comment{}, err
	}
	return c, nil
}

func (r *CommentGormRepository) Update(ctx context.Context, c model.Comment) error {
	res := r.db.WithContext(ctx).Model(&model.Comment{}).
		Where("id = ? AND product_id = ?", c.ID, c.ProductID).
		Updates(map[string]interface{}{
			"body":   c.Body,
			"status": c.Status,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *CommentGormRepository) Delete(ctx context.Context, productID int64, commentID int64) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND product_id = ?", commentID, productID).
		Delete(&model.Comment{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
