package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/config"
	"github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/middleware"
	"github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/usecase"
)

type PaymentHandler struct {
	uc *usecase.PaymentUsecase
}

func NewPaymentHandler(uc *usecase.PaymentUsecase) *PaymentHandler {
	return &PaymentHandler{uc: uc}
}

func (h *PaymentHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	// ゲートウェイから戻ってくるので認証なし
	e.GET("/orders/payment/callback", h.callback)
	e.POST("/orders/:id/pay", h.pay, middleware.AuthJWT(cfg))
}

// ゲートウェイの決済画面へ 302
func (h *PaymentHandler) pay(c echo.Context) error {
	actor, ok := getIdentity(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	redirect, err := h.uc.InitiatePayment(c.Request().Context(), actor, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.Redirect(http.StatusFound, redirect)
}

// GET /orders/payment/callback?Authority=...&Status=OK|NOK
func (h *PaymentHandler) callback(c echo.Context) error {
	out, err := h.uc.HandleCallback(c.Request().Context(), c.QueryParam("Authority"), c.QueryParam("Status"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
