package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/domain/model"
	repo "github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/repository"

	"go.uber.org/zap"
)

type statusSnapshot struct {
	Status model.OrderStatus `json:"status"`
}

// 管理者のみ。権限が無ければ入力に関係なく 403
func (u *OrderUsecase) UpdateOrderStatus(ctx context.Context, actor Identity, orderID int64, status string) (OrderOutput, error) {
	if !actor.valid() {
		return OrderOutput{}, errUnauthorized
	}
	if resolveAccess(opUpdateOrderStatus, actor.Role) == accessDeny {
		return OrderOutput{}, errForbidden
	}

	newStatus := model.OrderStatus(strings.TrimSpace(status))
	if !newStatus.Valid() {
		return OrderOutput{}, validationError("status", "invalid status")
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return errNotFound
		}
		if err != nil {
			return errDB
		}

		// すでに同じなら何もしない
		if o.Status == newStatus {
			return nil
		}

		if err := r.Orders().UpdateStatus(ctx, orderID, newStatus); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return errNotFound
			}
			return errDB
		}

		return writeAudit(ctx, r, actor,
			model.AuditActionUpdateOrderStatus, model.AuditResourceOrder, orderID,
			statusSnapshot{Status: o.Status}, statusSnapshot{Status: newStatus},
		)
	})
	if err != nil {
		return OrderOutput{}, err
	}

	u.log.Info("order status updated",
		zap.Int64("order_id", orderID),
		zap.String("status", string(newStatus)),
		zap.Int64("actor", actor.UserID),
	)

	o, err := u.orders.FindByID(ctx, orderID)
	if err != nil {
		return OrderOutput{}, errDB
	}
	return presenterFor(actor.Role)(o), nil
}

// 明細が残っている注文は消せない（405）
func (u *OrderUsecase) DeleteOrder(ctx context.Context, actor Identity, orderID int64) error {
	if !actor.valid() {
		return errUnauthorized
	}
	if resolveAccess(opDeleteOrder, actor.Role) == accessDeny {
		return errForbidden
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return errNotFound
		}
		if err != nil {
			return errDB
		}

		n, err := r.Orders().CountItems(ctx, orderID)
		if err != nil {
			return errDB
		}
		if n > 0 {
			return NewHTTPError(http.StatusMethodNotAllowed, "cannot delete order: it still has items")
		}

		if err := r.Orders().Delete(ctx, orderID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return errNotFound
			}
			return errDB
		}

		return writeAudit(ctx, r, actor,
			model.AuditActionDeleteOrder, model.AuditResourceOrder, orderID,
			statusSnapshot{Status: o.Status}, nil,
		)
	})
}
