package usecase_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/domain/model"
	repo "github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/repository"
	"github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/usecase"
)

type orderFixture struct {
	tx         *TxManagerMock
	orders     *OrderRepoMock
	orderItems *OrderItemRepoMock
	carts      *CartRepoMock
	products   *ProductRepoMock
	customers  *CustomerRepoMock
	audit      *AuditRepoMock
}

func newOrderFixture() orderFixture {
	f := orderFixture{
		tx:         new(TxManagerMock),
		orders:     new(OrderRepoMock),
		orderItems: new(OrderItemRepoMock),
		carts:      new(CartRepoMock),
		products:   new(ProductRepoMock),
		customers:  new(CustomerRepoMock),
		audit:      new(AuditRepoMock),
	}
	f.tx.Repos = &TxReposMock{
		orders:     f.orders,
		orderItems: f.orderItems,
		carts:      f.carts,
		products:   f.products,
		customers:  f.customers,
		auditLogs:  f.audit,
	}
	return f
}

func (f orderFixture) usecase() *usecase.OrderUsecase {
	return usecase.NewOrderUsecase(f.tx, f.orders, f.customers, zap.NewNop())
}

func customerOf(userID int64, customerID int64) *model.Customer {
	return &model.Customer{ID: customerID, UserID: userID}
}

func TestOrderUsecase_CreateOrder_SnapshotsPricesAndConsumesCart(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()
	cartID := uuid.New()

	f.customers.On("FindByUserID", mock.Anything, userActor.UserID).Return(model.Customer{ID: 3, UserID: userActor.UserID}, nil)
	f.tx.On("WithinTx", mock.Anything).Return(nil)
	f.carts.On("FindByIDForUpdate", mock.Anything, cartID).Return(model.Cart{
		ID: cartID,
		Items: []model.CartItem{
			{ProductID: 10, Quantity: 2, Product: &model.Product{ID: 10, UnitPrice: price("10.00")}},
			{ProductID: 11, Quantity: 1, Product: &model.Product{ID: 11, UnitPrice: price("5.00")}},
		},
	}, nil)
	f.orders.On("Create", mock.Anything, model.Order{CustomerID: 3, Status: model.OrderStatusUnpaid}).Return(int64(42), nil)
	f.orderItems.On("SnapshotItems", mock.Anything, int64(42), mock.MatchedBy(func(items []model.OrderItem) bool {
		return len(items) == 2 &&
			items[0].ProductID == 10 && items[0].Quantity == 2 && items[0].UnitPrice.Equal(price("10.00")) &&
			items[1].ProductID == 11 && items[1].Quantity == 1 && items[1].UnitPrice.Equal(price("5.00"))
	})).Return(nil)
	f.carts.On("Delete", mock.Anything, cartID).Return(nil)

	// 注文後に商品価格が 99.00 に変わっても明細の単価は変わらない
	f.orders.On("FindByID", mock.Anything, int64(42)).Return(model.Order{
		ID:         42,
		CustomerID: 3,
		Customer:   customerOf(userActor.UserID, 3),
		Status:     model.OrderStatusUnpaid,
		Items: []model.OrderItem{
			{ID: 1, ProductID: 10, Quantity: 2, UnitPrice: price("10.00"), Product: &model.Product{ID: 10, UnitPrice: price("99.00")}},
			{ID: 2, ProductID: 11, Quantity: 1, UnitPrice: price("5.00"), Product: &model.Product{ID: 11, UnitPrice: price("99.00")}},
		},
	}, nil)

	out, err := f.usecase().CreateOrder(ctx, userActor, cartID.String())
	require.NoError(t, err)
	assert.Equal(t, int64(42), out.ID)
	assert.Equal(t, "unpaid", out.Status)
	assert.True(t, price("25.00").Equal(out.TotalPrice), "total=%s", out.TotalPrice)
	// 顧客には決済・顧客IDは見せない
	assert.Nil(t, out.CustomerID)

	f.carts.AssertCalled(t, "Delete", mock.Anything, cartID)
	f.orderItems.AssertExpectations(t)
}

func stubCartForOrder(f orderFixture, cartID uuid.UUID) {
	f.customers.On("FindByUserID", mock.Anything, userActor.UserID).Return(model.Customer{ID: 3, UserID: userActor.UserID}, nil)
	f.tx.On("WithinTx", mock.Anything).Return(nil)
	f.carts.On("FindByIDForUpdate", mock.Anything, cartID).Return(model.Cart{
		ID:    cartID,
		Items: []model.CartItem{{ProductID: 10, Quantity: 2, Product: &model.Product{ID: 10, UnitPrice: price("10.00")}}},
	}, nil)
	f.orders.On("Create", mock.Anything, mock.Anything).Return(int64(42), nil)
}

// 明細の書き込みに失敗したらカートは消さず、注文も返さない
func TestOrderUsecase_CreateOrder_SnapshotFailureKeepsCart(t *testing.T) {
	f := newOrderFixture()
	cartID := uuid.New()
	stubCartForOrder(f, cartID)
	f.orderItems.On("SnapshotItems", mock.Anything, int64(42), mock.Anything).Return(errors.New("insert failed"))

	_, err := f.usecase().CreateOrder(context.Background(), userActor, cartID.String())
	assert.Equal(t, http.StatusInternalServerError, httpStatus(err))

	f.carts.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	f.orders.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestOrderUsecase_CreateOrder_CartDeleteFailureFailsOrder(t *testing.T) {
	f := newOrderFixture()
	cartID := uuid.New()
	stubCartForOrder(f, cartID)
	f.orderItems.On("SnapshotItems", mock.Anything, int64(42), mock.Anything).Return(nil)
	f.carts.On("Delete", mock.Anything, cartID).Return(errors.New("delete failed"))

	_, err := f.usecase().CreateOrder(context.Background(), userActor, cartID.String())
	assert.Equal(t, http.StatusInternalServerError, httpStatus(err))

	f.tx.AssertNumberOfCalls(t, "WithinTx", 1)
	f.orders.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestOrderUsecase_CreateOrder_EmptyCartRejectedForAnyRole(t *testing.T) {
	for _, actor := range []usecase.Identity{userActor, adminActor} {
		f := newOrderFixture()
		cartID := uuid.New()

		f.customers.On("FindByUserID", mock.Anything, actor.UserID).Return(model.Customer{ID: 3, UserID: actor.UserID}, nil)
		f.tx.On("WithinTx", mock.Anything).Return(nil)
		f.carts.On("FindByIDForUpdate", mock.Anything, cartID).Return(model.Cart{ID: cartID}, nil)

		_, err := f.usecase().CreateOrder(context.Background(), actor, cartID.String())
		require.Error(t, err)
		he, ok := usecase.AsHTTPError(err)
		require.True(t, ok)
		assert.Equal(t, http.StatusBadRequest, he.Status)
		assert.Equal(t, "cart is empty", he.Message)

		f.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		f.carts.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	}
}

func TestOrderUsecase_CreateOrder_UnknownCart(t *testing.T) {
	f := newOrderFixture()
	cartID := uuid.New()

	f.customers.On("FindByUserID", mock.Anything, userActor.UserID).Return(model.Customer{ID: 3}, nil)
	f.tx.On("WithinTx", mock.Anything).Return(nil)
	f.carts.On("FindByIDForUpdate", mock.Anything, cartID).Return(nil, repo.ErrNotFound)

	_, err := f.usecase().CreateOrder(context.Background(), userActor, cartID.String())
	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Status)
	assert.Equal(t, "cart does not exist", he.Message)
	assert.Contains(t, he.Fields, "cart_id")
}

func TestOrderUsecase_CreateOrder_MalformedCartID(t *testing.T) {
	f := newOrderFixture()

	_, err := f.usecase().CreateOrder(context.Background(), userActor, "not-a-uuid")
	assert.Equal(t, http.StatusBadRequest, httpStatus(err))
	f.tx.AssertNotCalled(t, "WithinTx", mock.Anything)
}

func TestOrderUsecase_CreateOrder_CreatesCustomerOnFirstOrder(t *testing.T) {
	f := newOrderFixture()
	cartID := uuid.New()

	f.customers.On("FindByUserID", mock.Anything, userActor.UserID).Return(nil, repo.ErrNotFound).Once()
	// 同時作成に負けたら読み直す
	f.customers.On("Create", mock.Anything, mock.Anything).Return(nil, repo.ErrConflict)
	f.customers.On("FindByUserID", mock.Anything, userActor.UserID).Return(model.Customer{ID: 8, UserID: userActor.UserID}, nil).Once()
	f.tx.On("WithinTx", mock.Anything).Return(nil)
	f.carts.On("FindByIDForUpdate", mock.Anything, cartID).Return(model.Cart{ID: cartID}, nil)

	_, err := f.usecase().CreateOrder(context.Background(), userActor, cartID.String())
	// 空カートなので 400 だが、顧客の解決までは進んでいる
	assert.Equal(t, http.StatusBadRequest, httpStatus(err))
	f.customers.AssertExpectations(t)
}

func TestOrderUsecase_CreateOrder_Unauthenticated(t *testing.T) {
	f := newOrderFixture()
	_, err := f.usecase().CreateOrder(context.Background(), usecase.Identity{}, uuid.NewString())
	assert.Equal(t, http.StatusUnauthorized, httpStatus(err))
}

func TestOrderUsecase_GetOrder_OthersOrderIsNotFound(t *testing.T) {
	f := newOrderFixture()
	f.orders.On("FindByID", mock.Anything, int64(5)).Return(model.Order{ID: 5, Customer: customerOf(999, 2)}, nil)

	_, err := f.usecase().GetOrder(context.Background(), userActor, 5)
	assert.Equal(t, http.StatusNotFound, httpStatus(err))
}

func TestOrderUsecase_GetOrder_AdminSeesPaymentFields(t *testing.T) {
	f := newOrderFixture()
	authority := "A0000001"
	f.orders.On("FindByID", mock.Anything, int64(5)).Return(model.Order{
		ID:                5,
		CustomerID:        2,
		Customer:          customerOf(999, 2),
		Status:            model.OrderStatusUnpaid,
		ZarinpalAuthority: &authority,
	}, nil)

	out, err := f.usecase().GetOrder(context.Background(), adminActor, 5)
	require.NoError(t, err)
	require.NotNil(t, out.CustomerID)
	assert.Equal(t, int64(2), *out.CustomerID)
	require.NotNil(t, out.ZarinpalAuthority)
	assert.Equal(t, authority, *out.ZarinpalAuthority)
}

func TestOrderUsecase_ListOrders(t *testing.T) {
	t.Run("user sees own orders", func(t *testing.T) {
		f := newOrderFixture()
		f.customers.On("FindByUserID", mock.Anything, userActor.UserID).Return(model.Customer{ID: 3}, nil)
		f.orders.On("ListByCustomerID", mock.Anything, int64(3)).Return([]model.Order{{ID: 1}, {ID: 2}}, nil)

		out, err := f.usecase().ListOrders(context.Background(), userActor)
		require.NoError(t, err)
		assert.Len(t, out, 2)
		f.orders.AssertNotCalled(t, "ListAll", mock.Anything)
	})

	t.Run("user without customer has no orders", func(t *testing.T) {
		f := newOrderFixture()
		f.customers.On("FindByUserID", mock.Anything, userActor.UserID).Return(nil, repo.ErrNotFound)

		out, err := f.usecase().ListOrders(context.Background(), userActor)
		require.NoError(t, err)
		assert.Empty(t, out)
	})

	t.Run("admin sees all", func(t *testing.T) {
		f := newOrderFixture()
		f.orders.On("ListAll", mock.Anything).Return([]model.Order{{ID: 1}, {ID: 2}, {ID: 3}}, nil)

		out, err := f.usecase().ListOrders(context.Background(), adminActor)
		require.NoError(t, err)
		assert.Len(t, out, 3)
		require.NotNil(t, out[0].CustomerID)
	})
}
