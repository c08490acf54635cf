package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/config"
	"github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/middleware"
	"github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/usecase"
)

type CommentHandler struct {
	uc *usecase.CommentUsecase
}

func NewCommentHandler(uc *usecase.CommentUsecase) *CommentHandler {
	return &CommentHandler{uc: uc}
}

type CommentRequest struct {
	Body string `json:"body" validate:"required"`
}

func (h *CommentHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/products/:product_id/comments")
	authn := middleware.AuthJWT(cfg)

	g.GET("", h.list)
	g.GET("/:id", h.detail)
	g.POST("", h.create, authn)
	g.PUT("/:id", h.update, authn)
	g.DELETE("/:id", h.delete, authn)
}

func (h *CommentHandler) list(c echo.Context) error {
	productID, err := parseIDParam(c, "product_id")
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.List(c.Request().Context(), productID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CommentHandler) detail(c echo.Context) error {
	productID, err := parseIDParam(c, "product_id")
	if err != nil {
		return writeError(c, err)
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.Get(c.Request().Context(), productID, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CommentHandler) create(c echo.Context) error {
	actor, ok := getIdentity(c)
	if !ok {
		return unauthorized(c)
	}
	productID, err := parseIDParam(c, "product_id")
	if err != nil {
		return writeError(c, err)
	}

	var req CommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.Create(c.Request().Context(), actor, productID, usecase.CommentInput{Body: req.Body})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *CommentHandler) update(c echo.Context) error {
	actor, ok := getIdentity(c)
	if !ok {
		return unauthorized(c)
	}
	productID, err := parseIDParam(c, "product_id")
	if err != nil {
		return writeError(c, err)
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	var req CommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.Update(c.Request().Context(), actor, productID, id, usecase.CommentInput{Body: req.Body})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CommentHandler) delete(c echo.Context) error {
	actor, ok := getIdentity(c)
	if !ok {
		return unauthorized(c)
	}
	productID, err := parseIDParam(c, "product_id")
	if err != nil {
		return writeError(c, err)
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	if err := h.uc.Delete(c.Request().Context(), actor, productID, id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
