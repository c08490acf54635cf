package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/domain/model"
	repo "github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type OrderUsecase struct {
	tx        repo.TransactionManager
	orders    repo.OrderRepository
	customers repo.CustomerRepository
	log       *zap.Logger

	tracer        trace.Tracer
	ordersCreated metric.Int64Counter
}

func NewOrderUsecase(
	tx repo.TransactionManager,
	orders repo.OrderRepository,
	customers repo.CustomerRepository,
	log *zap.Logger,
) *OrderUsecase {
	return &OrderUsecase{
		tx:            tx,
		orders:        orders,
		customers:     customers,
		log:           log,
		tracer:        otel.Tracer("usecase/order"),
		ordersCreated: newCounter("usecase/order", "orders_created_total", "orders created from carts"),
	}
}

type OrderItemOutput struct {
	ID        int64           `json:"id"`
	ProductID int64           `json:"product_id"`
	Title     string          `json:"title"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	ItemTotal decimal.Decimal `json:"item_total"`
}

type OrderOutput struct {
	ID                int64             `json:"id"`
	CustomerID        *int64            `json:"customer_id,omitempty"`
	Status            string            `json:"status"`
	CreatedAt         time.Time         `json:"created_at"`
	Items             []OrderItemOutput `json:"items"`
	TotalPrice        decimal.Decimal   `json:"total_price"`
	ZarinpalAuthority *string           `json:"zarinpal_authority,omitempty"`
	ZarinpalRefID     *string           `json:"zarinpal_ref_id,omitempty"`
}

func presentCustomerOrder(o model.Order) OrderOutput {
	items := make([]OrderItemOutput, 0, len(o.Items))
	for _, it := range o.Items {
		out := OrderItemOutput{
			ID:        it.ID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			ItemTotal: it.Total(),
		}
		if it.Product != nil {
			out.Title = it.Product.Title
		}
		items = append(items, out)
	}

	return OrderOutput{
		ID:         o.ID,
		Status:     string(o.Status),
		CreatedAt:  o.CreatedAt,
		Items:      items,
		TotalPrice: o.TotalPrice(),
	}
}

// 管理者には顧客と決済情報も見せる
func presentAdminOrder(o model.Order) OrderOutput {
	out := presentCustomerOrder(o)
	customerID := o.CustomerID
	out.CustomerID = &customerID
	out.ZarinpalAuthority = o.ZarinpalAuthority
	out.ZarinpalRefID = o.ZarinpalRefID
	return out
}

func ownedBy(o model.Order, userID int64) bool {
	return o.Customer != nil && o.Customer.UserID == userID
}

// カートを注文に変換する。
// カートのロックから削除までを1トランザクションで行い、途中で失敗したら何も残らない。
func (u *OrderUsecase) CreateOrder(ctx context.Context, actor Identity, rawCartID string) (OrderOutput, error) {
	ctx, span := u.tracer.Start(ctx, "CreateOrder")
	defer span.End()

	if !actor.valid() {
		return OrderOutput{}, errUnauthorized
	}

	cartID, err := uuid.Parse(rawCartID)
	if err != nil {
		return OrderOutput{}, validationError("cart_id", "cart does not exist")
	}
	span.SetAttributes(attribute.String("cart.id", cartID.String()))

	customer, err := getOrCreateCustomer(ctx, u.customers, actor.UserID)
	if err != nil {
		return OrderOutput{}, errDB
	}

	var orderID int64

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cart, err := r.Carts().FindByIDForUpdate(ctx, cartID)
		if errors.Is(err, repo.ErrNotFound) {
			return validationError("cart_id", "cart does not exist")
		}
		if err != nil {
			return errDB
		}
		if len(cart.Items) == 0 {
			return validationError("cart_id", "cart is empty")
		}

		orderID, err = r.Orders().Create(ctx, model.Order{
			CustomerID: customer.ID,
			Status:     model.OrderStatusUnpaid,
		})
		if err != nil {
			return errDB
		}

		//この時点の単価をスナップショット
		items := make([]model.OrderItem, 0, len(cart.Items))
		for _, ci := range cart.Items {
			p := ci.Product
			if p == nil {
				found, err := r.Products().FindByID(ctx, ci.ProductID)
				if err != nil {
					return errDB
				}
				p = &found
			}
			items = append(items, model.OrderItem{
				ProductID: ci.ProductID,
				Quantity:  ci.Quantity,
				UnitPrice: p.UnitPrice,
			})
		}
		if err := r.OrderItems().SnapshotItems(ctx, orderID, items); err != nil {
			return errDB
		}

		if err := r.Carts().Delete(ctx, cartID); err != nil {
			return errDB
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return OrderOutput{}, err
	}

	o, err := u.orders.FindByID(ctx, orderID)
	if err != nil {
		return OrderOutput{}, errDB
	}

	u.ordersCreated.Add(ctx, 1)
	u.log.Info("order created",
		zap.Int64("order_id", o.ID),
		zap.Int64("customer_id", customer.ID),
		zap.String("total", o.TotalPrice().String()),
	)
	span.SetAttributes(attribute.Int64("order.id", o.ID))

	return presenterFor(actor.Role)(o), nil
}

// 他人の注文は「存在しない扱い」にする
func (u *OrderUsecase) GetOrder(ctx context.Context, actor Identity, orderID int64) (OrderOutput, error) {
	if !actor.valid() {
		return OrderOutput{}, errUnauthorized
	}

	o, err := u.findVisible(ctx, actor, opViewOrder, orderID)
	if err != nil {
		return OrderOutput{}, err
	}
	return presenterFor(actor.Role)(o), nil
}

func (u *OrderUsecase) findVisible(ctx context.Context, actor Identity, op operation, orderID int64) (model.Order, error) {
	a := resolveAccess(op, actor.Role)
	if a == accessDeny {
		return model.Order{}, errForbidden
	}

	o, err := u.orders.FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Order{}, errNotFound
	}
	if err != nil {
		return model.Order{}, errDB
	}
	if a == accessOwn && !ownedBy(o, actor.UserID) {
		return model.Order{}, errNotFound
	}
	return o, nil
}

func (u *OrderUsecase) ListOrders(ctx context.Context, actor Identity) ([]OrderOutput, error) {
	if !actor.valid() {
		return []OrderOutput{}, errUnauthorized
	}

	var orders []model.Order
	switch resolveAccess(opListOrders, actor.Role) {
	case accessAll:
		all, err := u.orders.ListAll(ctx)
		if err != nil {
			return []OrderOutput{}, errDB
		}
		orders = all
	case accessOwn:
		c, err := u.customers.FindByUserID(ctx, actor.UserID)
		if errors.Is(err, repo.ErrNotFound) {
			return []OrderOutput{}, nil
		}
		if err != nil {
			return []OrderOutput{}, errDB
		}
		own, err := u.orders.ListByCustomerID(ctx, c.ID)
		if err != nil {
			return []OrderOutput{}, errDB
		}
		orders = own
	default:
		return []OrderOutput{}, errForbidden
	}

	present := presenterFor(actor.Role)
	outs := make([]OrderOutput, 0, len(orders))
	for _, o := range orders {
		outs = append(outs, present(o))
	}
	return outs, nil
}
