package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/domain/model"
	repo "github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/repository"

	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const minTitleLen = 6

// numeric(6,2) に入る上限
var maxUnitPrice = decimal.NewFromInt(10000)

type CatalogUsecase struct {
	categories repo.CategoryRepository
	products   repo.ProductRepository
	tx         repo.TransactionManager
	log        *zap.Logger
}

// DI
func NewCatalogUsecase(
	categories repo.CategoryRepository,
	products repo.ProductRepository,
	tx repo.TransactionManager,
	log *zap.Logger,
) *CatalogUsecase {
	return &CatalogUsecase{
		categories: categories,
		products:   products,
		tx:         tx,
		log:        log,
	}
}

type CategoryInput struct {
	Title       string
	Description string
}

type ProductInput struct {
	Title       string
	Description string
	UnitPrice   decimal.Decimal
	Inventory   int64
	CategoryID  int64
}

// GET /products の入力
type ListProductsInput struct {
	Page        int
	Limit       int
	CategoryID  *int64
	MinPrice    *decimal.Decimal
	MaxPrice    *decimal.Decimal
	InventoryGT *int64
	InventoryLT *int64
}

type ProductOutput struct {
	ID               int64           `json:"id"`
	Title            string          `json:"title"`
	Slug             string          `json:"slug"`
	Description      string          `json:"description"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	PriceAfterTax    decimal.Decimal `json:"price_after_tax"`
	Inventory        int64           `json:"inventory"`
	CategoryID       int64           `json:"category_id"`
	NumberOfComments int64           `json:"number_of_comments"`
	CreatedAt        time.Time       `json:"created_at"`
}

type ProductListOutput struct {
	Items []ProductOutput `json:"items"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

func toProductOutput(p model.Product) ProductOutput {
	return ProductOutput{
		ID:               p.ID,
		Title:            p.Title,
		Slug:             p.Slug,
		Description:      p.Description,
		UnitPrice:        p.UnitPrice,
		PriceAfterTax:    p.PriceAfterTax(),
		Inventory:        p.Inventory,
		CategoryID:       p.CategoryID,
		NumberOfComments: p.NumberOfComments,
		CreatedAt:        p.CreatedAt,
	}
}

func validateTitle(title string) error {
	if len([]rune(strings.TrimSpace(title))) < minTitleLen {
		return validationError("title", "title must be at least 6 characters")
	}
	return nil
}

// ---- categories ----

func (u *CatalogUsecase) ListCategories(ctx context.Context) ([]model.Category, error) {
	cs, err := u.categories.List(ctx)
	if err != nil {
		return []model.Category{}, errDB
	}
	return cs, nil
}

func (u *CatalogUsecase) GetCategory(ctx context.Context, id int64) (model.Category, error) {
	c, err := u.categories.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Category{}, errNotFound
	}
	if err != nil {
		return model.Category{}, errDB
	}
	return c, nil
}

func (u *CatalogUsecase) CreateCategory(ctx context.Context, in CategoryInput) (model.Category, error) {
	if err := validateTitle(in.Title); err != nil {
		return model.Category{}, err
	}

	c, err := u.categories.Create(ctx, model.Category{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
	})
	if err != nil {
		return model.Category{}, errDB
	}
	return c, nil
}

func (u *CatalogUsecase) UpdateCategory(ctx context.Context, id int64, in CategoryInput) (model.Category, error) {
	if err := validateTitle(in.Title); err != nil {
		return model.Category{}, err
	}

	err := u.categories.Update(ctx, model.Category{
		ID:          id,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
	})
	if errors.Is(err, repo.ErrNotFound) {
		return model.Category{}, errNotFound
	}
	if err != nil {
		return model.Category{}, errDB
	}
	return u.GetCategory(ctx, id)
}

// 商品が残っているカテゴリは消せない（405）
func (u *CatalogUsecase) DeleteCategory(ctx context.Context, actor Identity, id int64) error {
	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		c, err := r.Categories().FindByID(ctx, id)
		if errors.Is(err, repo.ErrNotFound) {
			return errNotFound
		}
		if err != nil {
			return errDB
		}

		n, err := r.Categories().CountProducts(ctx, id)
		if err != nil {
			return errDB
		}
		if n > 0 {
			return NewHTTPError(http.StatusMethodNotAllowed, "cannot delete category: products still reference it")
		}

		err = r.Categories().Delete(ctx, id)
		if errors.Is(err, repo.ErrConflict) {
			return NewHTTPError(http.StatusMethodNotAllowed, "cannot delete category: products still reference it")
		}
		if err != nil {
			return errDB
		}

		return writeAudit(ctx, r, actor, model.AuditActionDeleteCategory, model.AuditResourceCategory, id, c, nil)
	})
}

// ---- products ----

func (u *CatalogUsecase) ListProducts(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	if in.Page < 1 {
		return ProductListOutput{}, validationError("page", "invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return ProductListOutput{}, validationError("limit", "invalid limit")
	}
	if in.MinPrice != nil && in.MinPrice.IsNegative() {
		return ProductListOutput{}, validationError("min_price", "min_price must be >= 0")
	}
	if in.MinPrice != nil && in.MaxPrice != nil && in.MinPrice.GreaterThan(*in.MaxPrice) {
		return ProductListOutput{}, validationError("min_price", "min_price must be <= max_price")
	}

	items, total, err := u.products.List(ctx, repo.ProductListQuery{
		Page:        in.Page,
		Limit:       in.Limit,
		CategoryID:  in.CategoryID,
		MinPrice:    in.MinPrice,
		MaxPrice:    in.MaxPrice,
		InventoryGT: in.InventoryGT,
		InventoryLT: in.InventoryLT,
	})
	if err != nil {
		return ProductListOutput{}, errDB
	}

	out := make([]ProductOutput, 0, len(items))
	for _, p := range items {
		out = append(out, toProductOutput(p))
	}

	return ProductListOutput{
		Items: out,
		Total: total,
		Page:  in.Page,
		Limit: in.Limit,
	}, nil
}

func (u *CatalogUsecase) GetProduct(ctx context.Context, id int64) (ProductOutput, error) {
	p, err := u.products.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return ProductOutput{}, errNotFound
	}
	if err != nil {
		return ProductOutput{}, errDB
	}
	return toProductOutput(p), nil
}

func (u *CatalogUsecase) validateProduct(ctx context.Context, in ProductInput) error {
	if err := validateTitle(in.Title); err != nil {
		return err
	}
	if in.UnitPrice.IsNegative() || in.UnitPrice.GreaterThanOrEqual(maxUnitPrice) {
		return validationError("unit_price", "unit_price must be between 0 and 9999.99")
	}
	if in.Inventory < 0 {
		return validationError("inventory", "inventory must be >= 0")
	}

	_, err := u.categories.FindByID(ctx, in.CategoryID)
	if errors.Is(err, repo.ErrNotFound) {
		return validationError("category_id", "category does not exist")
	}
	if err != nil {
		return errDB
	}
	return nil
}

// slug はタイトルから作る（更新では変えない）
func (u *CatalogUsecase) CreateProduct(ctx context.Context, in ProductInput) (ProductOutput, error) {
	if err := u.validateProduct(ctx, in); err != nil {
		return ProductOutput{}, err
	}

	title := strings.TrimSpace(in.Title)
	p, err := u.products.Create(ctx, model.Product{
		Title:       title,
		Slug:        slug.Make(title),
		Description: in.Description,
		UnitPrice:   in.UnitPrice.Round(2),
		Inventory:   in.Inventory,
		CategoryID:  in.CategoryID,
	})
	if err != nil {
		return ProductOutput{}, errDB
	}
	return toProductOutput(p), nil
}

func (u *CatalogUsecase) UpdateProduct(ctx context.Context, id int64, in ProductInput) (ProductOutput, error) {
	if err := u.validateProduct(ctx, in); err != nil {
		return ProductOutput{}, err
	}

	err := u.products.Update(ctx, model.Product{
		ID:          id,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		UnitPrice:   in.UnitPrice.Round(2),
		Inventory:   in.Inventory,
		CategoryID:  in.CategoryID,
	})
	if errors.Is(err, repo.ErrNotFound) {
		return ProductOutput{}, errNotFound
	}
	if err != nil {
		return ProductOutput{}, errDB
	}
	return u.GetProduct(ctx, id)
}

// 注文明細から参照されている商品は消せない（405）
func (u *CatalogUsecase) DeleteProduct(ctx context.Context, actor Identity, id int64) error {
	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Products().FindByID(ctx, id)
		if errors.Is(err, repo.ErrNotFound) {
			return errNotFound
		}
		if err != nil {
			return errDB
		}

		n, err := r.Products().CountOrderItems(ctx, id)
		if err != nil {
			return errDB
		}
		if n > 0 {
			return NewHTTPError(http.StatusMethodNotAllowed, "cannot delete product: order items still reference it")
		}

		err = r.Products().Delete(ctx, id)
		if errors.Is(err, repo.ErrConflict) {
			return NewHTTPError(http.StatusMethodNotAllowed, "cannot delete product: order items still reference it")
		}
		if err != nil {
			return errDB
		}

		u.log.Info("product deleted", zap.Int64("product_id", id), zap.Int64("actor", actor.UserID))
		return writeAudit(ctx, r, actor, model.AuditActionDeleteProduct, model.AuditResourceProduct, id, p, nil)
	})
}

// 監査ログ（before/after はJSONで残す）
func writeAudit(
	ctx context.Context,
	r repo.TxRepos,
	actor Identity,
	action model.AuditAction,
	resource model.AuditResourceType,
	resourceID int64,
	before interface{},
	after interface{},
) error {
	beforeJSON, err := json.Marshal(before)
	if err != nil {
		return err
	}
	afterJSON, err := json.Marshal(after)
	if err != nil {
		return err
	}

	if err := r.AuditLogs().Record(ctx, model.AuditLog{
		ActorUserID:  actor.UserID,
		Action:       action,
		ResourceType: resource,
		ResourceID:   resourceID,
		Before:       beforeJSON,
		After:        afterJSON,
		CreatedAt:    time.Now(),
	}); err != nil {
		return errDB
	}
	return nil
}
