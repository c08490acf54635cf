package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/config"
	"github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/domain/model"
	repo "github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/repository"
)

type CommentUsecase struct {
	comments   repo.CommentRepository
	products   repo.ProductRepository
	editPolicy string
}

func NewCommentUsecase(comments repo.CommentRepository, products repo.ProductRepository, editPolicy string) *CommentUsecase {
	return &CommentUsecase{comments: comments, products: products, editPolicy: editPolicy}
}

type CommentInput struct {
	Body string
}

func (u *CommentUsecase) ensureProduct(ctx context.Context, productID int64) error {
	_, err := u.products.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return errNotFound
	}
	if err != nil {
		return errDB
	}
	return nil
}

func (u *CommentUsecase) List(ctx context.Context, productID int64) ([]model.Comment, error) {
	if err := u.ensureProduct(ctx, productID); err != nil {
		return []model.Comment{}, err
	}
	cs, err := u.comments.ListByProductID(ctx, productID)
	if err != nil {
		return []model.Comment{}, errDB
	}
	return cs, nil
}

func (u *CommentUsecase) Get(ctx context.Context, productID int64, commentID int64) (model.Comment, error) {
	c, err := u.comments.FindByID(ctx, productID, commentID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Comment{}, errNotFound
	}
	if err != nil {
		return model.Comment{}, errDB
	}
	return c, nil
}

// author は認証情報から（クライアントの値は使わない）
func (u *CommentUsecase) Create(ctx context.Context, actor Identity, productID int64, in CommentInput) (model.Comment, error) {
	if !actor.valid() {
		return model.Comment{}, errUnauthorized
	}
	if strings.TrimSpace(in.Body) == "" {
		return model.Comment{}, validationError("body", "body is required")
	}
	if err := u.ensureProduct(ctx, productID); err != nil {
		return model.Comment{}, err
	}

	c, err := u.comments.Create(ctx, model.Comment{
		ProductID: productID,
		AuthorID:  actor.UserID,
		Body:      in.Body,
		Status:    model.CommentStatusWaiting,
	})
	if err != nil {
		return model.Comment{}, errDB
	}
	return c, nil
}

func (u *CommentUsecase) Update(ctx context.Context, actor Identity, productID int64, commentID int64, in CommentInput) (model.Comment, error) {
	if !actor.valid() {
		return model.Comment{}, errUnauthorized
	}
	if strings.TrimSpace(in.Body) == "" {
		return model.Comment{}, validationError("body", "body is required")
	}

	c, err := u.Get(ctx, productID, commentID)
	if err != nil {
		return model.Comment{}, err
	}
	if !u.canEdit(actor, c) {
		return model.Comment{}, errForbidden
	}

	c.Body = in.Body
	err = u.comments.Update(ctx, c)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Comment{}, errNotFound
	}
	if err != nil {
		return model.Comment{}, errDB
	}
	return c, nil
}

func (u *CommentUsecase) Delete(ctx context.Context, actor Identity, productID int64, commentID int64) error {
	if !actor.valid() {
		return errUnauthorized
	}

	c, err := u.Get(ctx, productID, commentID)
	if err != nil {
		return err
	}
	if !u.canEdit(actor, c) {
		return errForbidden
	}

	err = u.comments.Delete(ctx, productID, commentID)
	if errors.Is(err, repo.ErrNotFound) {
		return errNotFound
	}
	if err != nil {
		return errDB
	}
	return nil
}

// open: 認証済みなら誰でも / author: 投稿者と管理者だけ
func (u *CommentUsecase) canEdit(actor Identity, c model.Comment) bool {
	if u.editPolicy != config.CommentEditAuthor {
		return true
	}
	return actor.IsPrivileged() || c.AuthorID == actor.UserID
}
