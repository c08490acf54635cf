package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// body は検証しない。権限チェック（403）を先に usecase でやるため
type OrderStatusUpdateRequest struct {
	Status string `json:"status"`
}

// PATCH /orders/:id
func (h *OrderHandler) updateStatus(c echo.Context) error {
	actor, ok := getIdentity(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	// 管理者以外は body が壊れていても usecase の 403 に任せる
	var req OrderStatusUpdateRequest
	if err := c.Bind(&req); err != nil {
		if actor.IsPrivileged() {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
		}
		req = OrderStatusUpdateRequest{}
	}

	out, err := h.uc.UpdateOrderStatus(c.Request().Context(), actor, id, req.Status)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// DELETE /orders/:id
func (h *OrderHandler) delete(c echo.Context) error {
	actor, ok := getIdentity(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	if err := h.uc.DeleteOrder(c.Request().Context(), actor, id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
