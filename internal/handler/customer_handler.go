package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/config"
	"github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/middleware"
	"github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/usecase"
)

type CustomerHandler struct {
	uc *usecase.CustomerUsecase
}

func NewCustomerHandler(uc *usecase.CustomerUsecase) *CustomerHandler {
	return &CustomerHandler{uc: uc}
}

type UpdateCustomerRequest struct {
	Phone     string  `json:"phone" validate:"max=30"`
	BirthDate *string `json:"birth_date"` // YYYY-MM-DD
}

func (h *CustomerHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/customers")
	g.Use(middleware.AuthJWT(cfg))

	g.GET("/me", h.me)
	g.PUT("/me", h.updateMe)
}

func (h *CustomerHandler) me(c echo.Context) error {
	actor, ok := getIdentity(c)
	if !ok {
		return unauthorized(c)
	}

	out, err := h.uc.Me(c.Request().Context(), actor)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CustomerHandler) updateMe(c echo.Context) error {
	actor, ok := getIdentity(c)
	if !ok {
		return unauthorized(c)
	}

	var req UpdateCustomerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	var birth *time.Time
	if req.BirthDate != nil && *req.BirthDate != "" {
		t, err := time.Parse("2006-01-02", *req.BirthDate)
		if err != nil {
			return c.JSON(http.StatusBadRequest, fieldError("birth_date", "must be YYYY-MM-DD"))
		}
		birth = &t
	}

	out, err := h.uc.UpdateMe(c.Request().Context(), actor, usecase.UpdateCustomerInput{
		Phone:     req.Phone,
		BirthDate: birth,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
