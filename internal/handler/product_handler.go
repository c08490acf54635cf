package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/usecase"
)

// /products の公開API
type ProductHandler struct {
	uc *usecase.CatalogUsecase
}

// DI
func NewProductHandler(uc *usecase.CatalogUsecase) *ProductHandler {
	return &ProductHandler{uc: uc}
}

// 公開商品のルートを登録
func (h *ProductHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/products", h.list)
	e.GET("/products/:id", h.detail)
}

func (h *ProductHandler) list(c echo.Context) error {
	// page（default 1）
	page := 1
	if v := c.QueryParam("page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid page"})
		}
		page = p
	}

	// limit（default 10）
	limit := 10
	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
		}
		limit = l
	}

	in := usecase.ListProductsInput{Page: page, Limit: limit}

	var err error
	if in.CategoryID, err = queryInt64(c, "category_id"); err != nil {
		return writeError(c, err)
	}
	if in.MinPrice, err = queryDecimal(c, "min_price"); err != nil {
		return writeError(c, err)
	}
	if in.MaxPrice, err = queryDecimal(c, "max_price"); err != nil {
		return writeError(c, err)
	}
	if in.InventoryGT, err = queryInt64(c, "inventory_gt"); err != nil {
		return writeError(c, err)
	}
	if in.InventoryLT, err = queryInt64(c, "inventory_lt"); err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.ListProducts(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *ProductHandler) detail(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	p, err := h.uc.GetProduct(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, p)
}

func queryInt64(c echo.Context, name string) (*int64, error) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, nil
	}
	x, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, &usecase.HTTPError{
			Status:  http.StatusBadRequest,
			Message: "invalid " + name,
			Fields:  map[string]string{name: "must be an integer"},
		}
	}
	return &x, nil
}

func queryDecimal(c echo.Context, name string) (*decimal.Decimal, error) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return nil, &usecase.HTTPError{
			Status:  http.StatusBadRequest,
			Message: "invalid " + name,
			Fields:  map[string]string{name: "must be a number"},
		}
	}
	return &d, nil
}
