package usecase_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/config"
	"github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/domain/model"
	repo "github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/repository"
	"github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/usecase"
)

func TestCommentUsecase_Create_AuthorFromIdentity(t *testing.T) {
	comments := new(CommentRepoMock)
	products := new(ProductRepoMock)

	products.On("FindByID", mock.Anything, int64(9)).Return(model.Product{ID: 9}, nil)
	comments.On("Create", mock.Anything, model.Comment{
		ProductID: 9,
		AuthorID:  userActor.UserID,
		Body:      "great",
		Status:    model.CommentStatusWaiting,
	}).Return(model.Comment{ID: 1, ProductID: 9, AuthorID: userActor.UserID, Body: "great", Status: model.CommentStatusWaiting}, nil)

	uc := usecase.NewCommentUsecase(comments, products, config.CommentEditOpen)
	out, err := uc.Create(context.Background(), userActor, 9, usecase.CommentInput{Body: "great"})
	require.NoError(t, err)
	assert.Equal(t, userActor.UserID, out.AuthorID)
	assert.Equal(t, model.CommentStatusWaiting, out.Status)
}

func TestCommentUsecase_Create_UnknownProduct(t *testing.T) {
	comments := new(CommentRepoMock)
	products := new(ProductRepoMock)
	products.On("FindByID", mock.Anything, int64(9)).Return(nil, repo.ErrNotFound)

	uc := usecase.NewCommentUsecase(comments, products, config.CommentEditOpen)
	_, err := uc.Create(context.Background(), userActor, 9, usecase.CommentInput{Body: "great"})
	assert.Equal(t, http.StatusNotFound, httpStatus(err))
}

func TestCommentUsecase_Update_Policy(t *testing.T) {
	stranger := usecase.Identity{UserID: 55, Role: model.RoleUser}
	existing := model.Comment{ID: 1, ProductID: 9, AuthorID: userActor.UserID, Body: "great"}

	cases := []struct {
		name   string
		policy string
		actor  usecase.Identity
		want   int
	}{
		{"open lets anyone edit", config.CommentEditOpen, stranger, http.StatusOK},
		{"author policy blocks others", config.CommentEditAuthor, stranger, http.StatusForbidden},
		{"author policy allows author", config.CommentEditAuthor, userActor, http.StatusOK},
		{"author policy allows admin", config.CommentEditAuthor, adminActor, http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			comments := new(CommentRepoMock)
			products := new(ProductRepoMock)
			comments.On("FindByID", mock.Anything, int64(9), int64(1)).Return(existing, nil)
			comments.On("Update", mock.Anything, mock.Anything).Return(nil)

			uc := usecase.NewCommentUsecase(comments, products, tc.policy)
			_, err := uc.Update(context.Background(), tc.actor, 9, 1, usecase.CommentInput{Body: "edited"})
			if tc.want == http.StatusOK {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tc.want, httpStatus(err))
			comments.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
		})
	}
}

func TestCommentUsecase_Delete_NotFound(t *testing.T) {
	comments := new(CommentRepoMock)
	products := new(ProductRepoMock)
	comments.On("FindByID", mock.Anything, int64(9), int64(1)).Return(nil, repo.ErrNotFound)

	uc := usecase.NewCommentUsecase(comments, products, config.CommentEditOpen)
	err := uc.Delete(context.Background(), userActor, 9, 1)
	assert.Equal(t, http.StatusNotFound, httpStatus(err))
}
