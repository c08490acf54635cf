package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/domain/model"
	repo "github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/repository"
)

type CustomerUsecase struct {
	customers repo.CustomerRepository
}

func NewCustomerUsecase(customers repo.CustomerRepository) *CustomerUsecase {
	return &CustomerUsecase{customers: customers}
}

type UpdateCustomerInput struct {
	Phone     string
	BirthDate *time.Time
}

// user_id の一意制約で作成を直列化する。競合したら読み直す
func getOrCreateCustomer(ctx context.Context, customers repo.CustomerRepository, userID int64) (model.Customer, error) {
	c, err := customers.FindByUserID(ctx, userID)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return model.Customer{}, err
	}

	c, err = customers.Create(ctx, model.Customer{
		UserID:     userID,
		Membership: model.MembershipBronze,
	})
	if errors.Is(err, repo.ErrConflict) {
		return customers.FindByUserID(ctx, userID)
	}
	return c, err
}

func (u *CustomerUsecase) Me(ctx context.Context, actor Identity) (model.Customer, error) {
	if !actor.valid() {
		return model.Customer{}, errUnauthorized
	}
	c, err := getOrCreateCustomer(ctx, u.customers, actor.UserID)
	if err != nil {
		return model.Customer{}, errDB
	}
	return c, nil
}

// membership は管理側で変えるので触らない
func (u *CustomerUsecase) UpdateMe(ctx context.Context, actor Identity, in UpdateCustomerInput) (model.Customer, error) {
	c, err := u.Me(ctx, actor)
	if err != nil {
		return model.Customer{}, err
	}

	c.Phone = in.Phone
	c.BirthDate = in.BirthDate
	if err := u.customers.Update(ctx, c); err != nil {
		return model.Customer{}, errDB
	}
	return c, nil
}
