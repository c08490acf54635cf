package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/repository"
)

var ErrInvalidActivationToken = errors.New("invalid activation token")

type ActivateUserUsecase struct {
	userRepo repository.UserRepository
}

func NewActivateUserUsecase(userRepo repository.UserRepository) *ActivateUserUsecase {
	return &ActivateUserUsecase{userRepo: userRepo}
}

// トークンは1回だけ使える
func (u *ActivateUserUsecase) Execute(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrInvalidActivationToken
	}

	user, err := u.userRepo.FindByActivationToken(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrInvalidActivationToken
	}
	if err != nil {
		return err
	}

	user.IsActive = true
	user.ActivationToken = nil
	return u.userRepo.Update(ctx, user)
}
