package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/usecase"
)

// /cartsのHTTP。カートは匿名で、IDを知っていれば操作できる
type CartHandler struct {
	uc *usecase.CartUsecase
}

// DI
func NewCartHandler(uc *usecase.CartUsecase) *CartHandler {
	return &CartHandler{uc: uc}
}

type AddCartItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int64 `json:"quantity" validate:"required,gte=1"`
}

type UpdateCartItemRequest struct {
	Quantity int64 `json:"quantity" validate:"required,gte=1"`
}

func (h *CartHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/carts")

	g.POST("", h.create)
	g.GET("/:cart_id", h.get)
	g.DELETE("/:cart_id", h.delete)

	g.POST("/:cart_id/items", h.addItem)
	g.PATCH("/:cart_id/items/:item_id", h.patchItem)
	g.DELETE("/:cart_id/items/:item_id", h.deleteItem)
}

func parseCartID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("cart_id"))
	if err != nil {
		// 形式不正も存在しない扱い
		return uuid.Nil, usecase.NewHTTPError(http.StatusNotFound, "not found")
	}
	return id, nil
}

func (h *CartHandler) create(c echo.Context) error {
	out, err := h.uc.CreateCart(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *CartHandler) get(c echo.Context) error {
	cartID, err := parseCartID(c)
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.GetCart(c.Request().Context(), cartID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) delete(c echo.Context) error {
	cartID, err := parseCartID(c)
	if err != nil {
		return writeError(c, err)
	}

	if err := h.uc.DeleteCart(c.Request().Context(), cartID); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CartHandler) addItem(c echo.Context) error {
	cartID, err := parseCartID(c)
	if err != nil {
		return writeError(c, err)
	}

	var req AddCartItemRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.AddItem(c.Request().Context(), cartID, usecase.AddCartItemInput{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *CartHandler) patchItem(c echo.Context) error {
	cartID, err := parseCartID(c)
	if err != nil {
		return writeError(c, err)
	}
	itemID, err := parseIDParam(c, "item_id")
	if err != nil {
		return writeError(c, err)
	}

	var req UpdateCartItemRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.UpdateItemQuantity(c.Request().Context(), cartID, itemID, req.Quantity)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) deleteItem(c echo.Context) error {
	cartID, err := parseCartID(c)
	if err != nil {
		return writeError(c, err)
	}
	itemID, err := parseIDParam(c, "item_id")
	if err != nil {
		return writeError(c, err)
	}

	if err := h.uc.RemoveItem(c.Request().Context(), cartID, itemID); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
