package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/domain/model"
	repo "github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/repository"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	// ゲートウェイの検証結果コード
	verifyCodeOK              = 100
	verifyCodeAlreadyVerified = 101

	callbackStatusOK = "OK"
)

type GatewayError struct {
	Code    int
	Message string
}

type PaymentRequest struct {
	Amount      int64
	Description string
	CallbackURL string
}

type PaymentRequestResult struct {
	Authority string
	Errors    []GatewayError
}

type PaymentVerifyRequest struct {
	Amount    int64
	Authority string
}

type PaymentVerifyResult struct {
	Status int
	RefID  string
	Raw    []byte // 応答そのまま（注文に保存する）
	Errors []GatewayError
}

// 決済ゲートウェイの約束（infra/gateway が実装）
type PaymentGateway interface {
	RequestPayment(ctx context.Context, req PaymentRequest) (PaymentRequestResult, error)
	VerifyPayment(ctx context.Context, req PaymentVerifyRequest) (PaymentVerifyResult, error)
	StartPayURL(authority string) string
}

type PaymentOutcome string

const (
	PaymentOutcomePaid            PaymentOutcome = "paid"
	PaymentOutcomeAlreadyVerified PaymentOutcome = "already_verified"
	PaymentOutcomeFailed          PaymentOutcome = "failed"
)

type CallbackOutput struct {
	OrderID int64          `json:"order_id"`
	Outcome PaymentOutcome `json:"outcome"`
	RefID   string         `json:"ref_id,omitempty"`
	Message string         `json:"message"`
}

type PaymentUsecase struct {
	orders      repo.OrderRepository
	gateway     PaymentGateway
	rate        decimal.Decimal
	callbackURL string
	log         *zap.Logger

	tracer           trace.Tracer
	paymentsVerified metric.Int64Counter
}

func NewPaymentUsecase(
	orders repo.OrderRepository,
	gateway PaymentGateway,
	rate decimal.Decimal,
	callbackURL string,
	log *zap.Logger,
) *PaymentUsecase {
	return &PaymentUsecase{
		orders:           orders,
		gateway:          gateway,
		rate:             rate,
		callbackURL:      callbackURL,
		log:              log,
		tracer:           otel.Tracer("usecase/payment"),
		paymentsVerified: newCounter("usecase/payment", "payments_verified_total", "orders marked paid by the gateway callback"),
	}
}

// 合計 × 換算レートを整数に丸める
func (u *PaymentUsecase) amountOf(o model.Order) int64 {
	return o.TotalPrice().Mul(u.rate).Round(0).IntPart()
}

func describeOrder(o model.Order) string {
	first, last := "", ""
	if o.Customer != nil && o.Customer.User != nil {
		first, last = o.Customer.User.FirstName, o.Customer.User.LastName
	}
	return fmt.Sprintf("#%d: %s %s", o.ID, first, last)
}

func firstGatewayError(errs []GatewayError, fallbackCode int) error {
	if len(errs) == 0 {
		return remoteGatewayError(fallbackCode, "payment gateway rejected the transaction")
	}
	return remoteGatewayError(errs[0].Code, errs[0].Message)
}

// 決済開始。リダイレクト先（StartPay URL）を返す
func (u *PaymentUsecase) InitiatePayment(ctx context.Context, actor Identity, orderID int64) (string, error) {
	ctx, span := u.tracer.Start(ctx, "InitiatePayment")
	defer span.End()

	if !actor.valid() {
		return "", errUnauthorized
	}

	a := resolveAccess(opPayOrder, actor.Role)
	if a == accessDeny {
		return "", errForbidden
	}

	o, err := u.orders.FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return "", errNotFound
	}
	if err != nil {
		return "", errDB
	}
	if a == accessOwn && !ownedBy(o, actor.UserID) {
		return "", errNotFound
	}
	if o.Status != model.OrderStatusUnpaid {
		return "", validationError("status", fmt.Sprintf("order is %s", o.Status))
	}

	amount := u.amountOf(o)
	span.SetAttributes(attribute.Int64("order.id", o.ID), attribute.Int64("payment.amount", amount))

	res, err := u.gateway.RequestPayment(ctx, PaymentRequest{
		Amount:      amount,
		Description: describeOrder(o),
		CallbackURL: u.callbackURL,
	})
	if err != nil {
		span.RecordError(err)
		u.log.Warn("payment request failed", zap.Int64("order_id", o.ID), zap.Error(err))
		return "", NewHTTPError(http.StatusBadGateway, "payment gateway unavailable")
	}

	// エラー付きでも authority は保存する
	if res.Authority != "" {
		if err := u.orders.SetAuthority(ctx, o.ID, res.Authority); err != nil {
			return "", errDB
		}
	}

	if len(res.Errors) > 0 {
		u.log.Warn("payment gateway returned errors",
			zap.Int64("order_id", o.ID),
			zap.Int("code", res.Errors[0].Code),
			zap.String("message", res.Errors[0].Message),
		)
		return "", firstGatewayError(res.Errors, 0)
	}
	if res.Authority == "" {
		return "", NewHTTPError(http.StatusBadGateway, "payment gateway returned no authority")
	}

	return u.gateway.StartPayURL(res.Authority), nil
}

// ゲートウェイからのコールバック。再送されても paid への遷移は1回だけ
func (u *PaymentUsecase) HandleCallback(ctx context.Context, authority string, status string) (CallbackOutput, error) {
	ctx, span := u.tracer.Start(ctx, "HandlePaymentCallback")
	defer span.End()

	if authority == "" {
		return CallbackOutput{}, errNotFound
	}

	o, err := u.orders.FindByAuthority(ctx, authority)
	if errors.Is(err, repo.ErrNotFound) {
		return CallbackOutput{}, errNotFound
	}
	if err != nil {
		return CallbackOutput{}, errDB
	}
	span.SetAttributes(attribute.Int64("order.id", o.ID))

	if status != callbackStatusOK {
		return CallbackOutput{OrderID: o.ID, Outcome: PaymentOutcomeFailed, Message: "transaction failed"}, nil
	}

	res, err := u.gateway.VerifyPayment(ctx, PaymentVerifyRequest{
		Amount:    u.amountOf(o),
		Authority: authority,
	})
	if err != nil {
		span.RecordError(err)
		u.log.Warn("payment verification failed", zap.Int64("order_id", o.ID), zap.Error(err))
		return CallbackOutput{}, NewHTTPError(http.StatusBadGateway, "payment gateway unavailable")
	}

	switch res.Status {
	case verifyCodeOK:
		updated, err := u.orders.MarkPaid(ctx, o.ID, res.RefID, res.Raw)
		if err != nil {
			return CallbackOutput{}, errDB
		}
		if !updated {
			// 再送なら paid のはず。取消済みなどは入金だけ残るので表に出す
			current, err := u.orders.FindByID(ctx, o.ID)
			if err != nil {
				return CallbackOutput{}, errDB
			}
			if current.Status != model.OrderStatusPaid {
				u.log.Error("payment captured for an order that cannot be paid",
					zap.Int64("order_id", o.ID),
					zap.String("status", string(current.Status)),
					zap.String("ref_id", res.RefID),
				)
				return CallbackOutput{}, NewHTTPError(http.StatusConflict,
					fmt.Sprintf("payment verified but order is %s", current.Status))
			}
			return CallbackOutput{
				OrderID: o.ID,
				Outcome: PaymentOutcomeAlreadyVerified,
				Message: "payment completed successfully; this transaction was already recorded",
			}, nil
		}

		u.paymentsVerified.Add(ctx, 1)
		u.log.Info("order paid", zap.Int64("order_id", o.ID), zap.String("ref_id", res.RefID))
		return CallbackOutput{
			OrderID: o.ID,
			Outcome: PaymentOutcomePaid,
			RefID:   res.RefID,
			Message: "payment completed successfully",
		}, nil

	case verifyCodeAlreadyVerified:
		return CallbackOutput{
			OrderID: o.ID,
			Outcome: PaymentOutcomeAlreadyVerified,
			Message: "payment completed successfully; this transaction was already recorded",
		}, nil

	default:
		u.log.Warn("payment not verified", zap.Int64("order_id", o.ID), zap.Int("status", res.Status))
		return CallbackOutput{}, firstGatewayError(res.Errors, res.Status)
	}
}
