package usecase_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/domain/model"
	repo "github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/repository"
	"github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/usecase"
)

const callbackURL = "https://shop.example/orders/payment/callback"

func newPaymentUsecase(orders *OrderRepoMock, gw *GatewayMock) *usecase.PaymentUsecase {
	return usecase.NewPaymentUsecase(orders, gw, decimal.NewFromInt(500000), callbackURL, zap.NewNop())
}

// 2×10.00 + 1×5.00 = 25.00
func payableOrder() model.Order {
	return model.Order{
		ID:         42,
		CustomerID: 3,
		Customer: &model.Customer{
			ID:     3,
			UserID: userActor.UserID,
			User:   &model.User{ID: userActor.UserID, FirstName: "Sara", LastName: "Ahmadi"},
		},
		Status: model.OrderStatusUnpaid,
		Items: []model.OrderItem{
			{ProductID: 10, Quantity: 2, UnitPrice: price("10.00")},
			{ProductID: 11, Quantity: 1, UnitPrice: price("5.00")},
		},
	}
}

func TestPaymentUsecase_InitiatePayment_Redirects(t *testing.T) {
	orders := new(OrderRepoMock)
	gw := new(GatewayMock)

	orders.On("FindByID", mock.Anything, int64(42)).Return(payableOrder(), nil)
	gw.On("RequestPayment", mock.Anything, usecase.PaymentRequest{
		Amount:      12500000,
		Description: "#42: Sara Ahmadi",
		CallbackURL: callbackURL,
	}).Return(usecase.PaymentRequestResult{Authority: "A00000000000000000000000000123456789"}, nil)
	orders.On("SetAuthority", mock.Anything, int64(42), "A00000000000000000000000000123456789").Return(nil)
	gw.On("StartPayURL", "A00000000000000000000000000123456789").Return("https://pay.example/StartPay/A00000000000000000000000000123456789")

	redirect, err := newPaymentUsecase(orders, gw).InitiatePayment(context.Background(), userActor, 42)
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/StartPay/A00000000000000000000000000123456789", redirect)

	gw.AssertExpectations(t)
	orders.AssertExpectations(t)
}

func TestPaymentUsecase_InitiatePayment_PaidOrderRejected(t *testing.T) {
	orders := new(OrderRepoMock)
	gw := new(GatewayMock)

	o := payableOrder()
	o.Status = model.OrderStatusPaid
	orders.On("FindByID", mock.Anything, int64(42)).Return(o, nil)

	_, err := newPaymentUsecase(orders, gw).InitiatePayment(context.Background(), userActor, 42)
	assert.Equal(t, http.StatusBadRequest, httpStatus(err))
	gw.AssertNotCalled(t, "RequestPayment", mock.Anything, mock.Anything)
}

func TestPaymentUsecase_InitiatePayment_OthersOrderIsNotFound(t *testing.T) {
	orders := new(OrderRepoMock)
	gw := new(GatewayMock)

	o := payableOrder()
	o.Customer.UserID = 999
	orders.On("FindByID", mock.Anything, int64(42)).Return(o, nil)

	_, err := newPaymentUsecase(orders, gw).InitiatePayment(context.Background(), userActor, 42)
	assert.Equal(t, http.StatusNotFound, httpStatus(err))
}

func TestPaymentUsecase_InitiatePayment_GatewayErrorsKeepAuthority(t *testing.T) {
	orders := new(OrderRepoMock)
	gw := new(GatewayMock)

	orders.On("FindByID", mock.Anything, int64(42)).Return(payableOrder(), nil)
	gw.On("RequestPayment", mock.Anything, mock.Anything).Return(usecase.PaymentRequestResult{
		Authority: "A1",
		Errors:    []usecase.GatewayError{{Code: -9, Message: "validation error"}},
	}, nil)
	orders.On("SetAuthority", mock.Anything, int64(42), "A1").Return(nil)

	_, err := newPaymentUsecase(orders, gw).InitiatePayment(context.Background(), userActor, 42)
	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadGateway, he.Status)
	require.NotNil(t, he.Code)
	assert.Equal(t, -9, *he.Code)
	assert.Equal(t, "validation error", he.Message)

	orders.AssertCalled(t, "SetAuthority", mock.Anything, int64(42), "A1")
}

func TestPaymentUsecase_InitiatePayment_TransportError(t *testing.T) {
	orders := new(OrderRepoMock)
	gw := new(GatewayMock)

	orders.On("FindByID", mock.Anything, int64(42)).Return(payableOrder(), nil)
	gw.On("RequestPayment", mock.Anything, mock.Anything).Return(nil, errors.New("dial tcp: timeout"))

	_, err := newPaymentUsecase(orders, gw).InitiatePayment(context.Background(), userActor, 42)
	assert.Equal(t, http.StatusBadGateway, httpStatus(err))
	orders.AssertNotCalled(t, "SetAuthority", mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentUsecase_HandleCallback_UnknownAuthority(t *testing.T) {
	orders := new(OrderRepoMock)
	gw := new(GatewayMock)
	orders.On("FindByAuthority", mock.Anything, "nope").Return(nil, repo.ErrNotFound)

	_, err := newPaymentUsecase(orders, gw).HandleCallback(context.Background(), "nope", "OK")
	assert.Equal(t, http.StatusNotFound, httpStatus(err))
}

func TestPaymentUsecase_HandleCallback_NotOKLeavesOrderUntouched(t *testing.T) {
	orders := new(OrderRepoMock)
	gw := new(GatewayMock)
	orders.On("FindByAuthority", mock.Anything, "A1").Return(payableOrder(), nil)

	out, err := newPaymentUsecase(orders, gw).HandleCallback(context.Background(), "A1", "NOK")
	require.NoError(t, err)
	assert.Equal(t, usecase.PaymentOutcomeFailed, out.Outcome)
	gw.AssertNotCalled(t, "VerifyPayment", mock.Anything, mock.Anything)
	orders.AssertNotCalled(t, "MarkPaid", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentUsecase_HandleCallback_ReplayMarksPaidOnce(t *testing.T) {
	orders := new(OrderRepoMock)
	gw := new(GatewayMock)
	raw := []byte(`{"Status":100,"RefID":12345}`)

	orders.On("FindByAuthority", mock.Anything, "A1").Return(payableOrder(), nil)
	gw.On("VerifyPayment", mock.Anything, usecase.PaymentVerifyRequest{Amount: 12500000, Authority: "A1"}).
		Return(usecase.PaymentVerifyResult{Status: 100, RefID: "12345", Raw: raw}, nil)
	// 1回目だけ更新される（WHERE status='unpaid'）
	orders.On("MarkPaid", mock.Anything, int64(42), "12345", datatypes.JSON(raw)).Return(true, nil).Once()
	orders.On("MarkPaid", mock.Anything, int64(42), "12345", datatypes.JSON(raw)).Return(false, nil).Once()
	paid := payableOrder()
	paid.Status = model.OrderStatusPaid
	orders.On("FindByID", mock.Anything, int64(42)).Return(paid, nil).Once()

	uc := newPaymentUsecase(orders, gw)

	first, err := uc.HandleCallback(context.Background(), "A1", "OK")
	require.NoError(t, err)
	assert.Equal(t, usecase.PaymentOutcomePaid, first.Outcome)
	assert.Equal(t, "12345", first.RefID)

	second, err := uc.HandleCallback(context.Background(), "A1", "OK")
	require.NoError(t, err)
	assert.Equal(t, usecase.PaymentOutcomeAlreadyVerified, second.Outcome)
	assert.Empty(t, second.RefID)

	orders.AssertExpectations(t)
}

// 決済開始後に管理者が取り消した注文
func TestPaymentUsecase_HandleCallback_CanceledOrderIsConflict(t *testing.T) {
	orders := new(OrderRepoMock)
	gw := new(GatewayMock)
	raw := []byte(`{"Status":100,"RefID":555}`)

	canceled := payableOrder()
	canceled.Status = model.OrderStatusCanceled

	orders.On("FindByAuthority", mock.Anything, "A1").Return(canceled, nil)
	gw.On("VerifyPayment", mock.Anything, mock.Anything).
		Return(usecase.PaymentVerifyResult{Status: 100, RefID: "555", Raw: raw}, nil)
	orders.On("MarkPaid", mock.Anything, int64(42), "555", datatypes.JSON(raw)).Return(false, nil)
	orders.On("FindByID", mock.Anything, int64(42)).Return(canceled, nil)

	out, err := newPaymentUsecase(orders, gw).HandleCallback(context.Background(), "A1", "OK")
	assert.Equal(t, http.StatusConflict, httpStatus(err))
	assert.NotEqual(t, usecase.PaymentOutcomeAlreadyVerified, out.Outcome)
	orders.AssertExpectations(t)
}

func TestPaymentUsecase_HandleCallback_AlreadyVerifiedCode(t *testing.T) {
	orders := new(OrderRepoMock)
	gw := new(GatewayMock)

	orders.On("FindByAuthority", mock.Anything, "A1").Return(payableOrder(), nil)
	gw.On("VerifyPayment", mock.Anything, mock.Anything).Return(usecase.PaymentVerifyResult{Status: 101}, nil)

	out, err := newPaymentUsecase(orders, gw).HandleCallback(context.Background(), "A1", "OK")
	require.NoError(t, err)
	assert.Equal(t, usecase.PaymentOutcomeAlreadyVerified, out.Outcome)
	orders.AssertNotCalled(t, "MarkPaid", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentUsecase_HandleCallback_OtherCodeIsGatewayError(t *testing.T) {
	orders := new(OrderRepoMock)
	gw := new(GatewayMock)

	orders.On("FindByAuthority", mock.Anything, "A1").Return(payableOrder(), nil)
	gw.On("VerifyPayment", mock.Anything, mock.Anything).Return(usecase.PaymentVerifyResult{
		Status: -21,
		Errors: []usecase.GatewayError{{Code: -21, Message: "no financial operation found"}},
	}, nil)

	_, err := newPaymentUsecase(orders, gw).HandleCallback(context.Background(), "A1", "OK")
	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadGateway, he.Status)
	require.NotNil(t, he.Code)
	assert.Equal(t, -21, *he.Code)
}
